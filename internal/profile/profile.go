package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/hrygo/voicecal/server/timezone"
)

// EnvPrefix is the prefix of every environment variable read by FromEnv.
const EnvPrefix = "VOICECAL"

// Configuration keys shared by viper, flags and the config file.
const (
	KeyMode               = "mode"
	KeyTimezone           = "timezone"
	KeyLexicon            = "lexicon"
	KeyLogLevel           = "log-level"
	KeyLogFormat          = "log-format"
	KeyMaxConflictsListed = "max-conflicts"
	KeyNow                = "now"
)

// Profile is the runtime configuration of the voicecal CLI and service.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Timezone is the IANA zone utterances are interpreted in
	Timezone string
	// LexiconPath points to an optional YAML lexicon overlay
	LexiconPath string
	// LogLevel is one of debug, info, warn, error
	LogLevel string
	// LogFormat is "text" or "json"
	LogFormat string
	// MaxConflictsListed caps the conflicts spelled out in a conflict message
	MaxConflictsListed int
	// Now fixes the reference instant (RFC3339) for deterministic runs
	Now string
	// Version is the current version of the binary
	Version string

	location *time.Location
	now      time.Time
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyMode, "dev")
	v.SetDefault(KeyTimezone, timezone.DefaultTimezone)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMaxConflictsListed, 3)
}

// NewViper returns a viper instance reading VOICECAL_* environment variables
// with every default registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// FromViper copies every key from v into a new profile.
func FromViper(v *viper.Viper) *Profile {
	return &Profile{
		Mode:               v.GetString(KeyMode),
		Timezone:           v.GetString(KeyTimezone),
		LexiconPath:        v.GetString(KeyLexicon),
		LogLevel:           v.GetString(KeyLogLevel),
		LogFormat:          v.GetString(KeyLogFormat),
		MaxConflictsListed: v.GetInt(KeyMaxConflictsListed),
		Now:                v.GetString(KeyNow),
	}
}

// FromEnv loads configuration from VOICECAL_* environment variables.
func (p *Profile) FromEnv() {
	loaded := FromViper(NewViper())
	loaded.Version = p.Version
	*p = *loaded
}

// ReadConfigFile merges a YAML or TOML config file into v.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "unable to read config file %s", path)
	}
	return nil
}

func checkLexiconPath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = absPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "unable to access lexicon file %s", path)
	}
	if info.IsDir() {
		return "", errors.Errorf("lexicon path %s is a directory", path)
	}
	return path, nil
}

// Validate normalises the profile and resolves the timezone, lexicon path
// and fixed reference instant.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	loc, err := timezone.ParseTimezone(p.Timezone)
	if err != nil {
		slog.Error("failed to parse timezone", slog.String("timezone", p.Timezone), slog.String("error", err.Error()))
		return err
	}
	p.location = loc
	p.Timezone = loc.String()

	if p.LexiconPath != "" {
		path, err := checkLexiconPath(p.LexiconPath)
		if err != nil {
			return err
		}
		p.LexiconPath = path
	}

	switch strings.ToLower(p.LogFormat) {
	case "", "text":
		p.LogFormat = "text"
	case "json":
		p.LogFormat = "json"
	default:
		return errors.Errorf("unsupported log format %q", p.LogFormat)
	}

	if p.MaxConflictsListed <= 0 {
		p.MaxConflictsListed = 3
	}

	p.now = time.Time{}
	if p.Now != "" {
		now, err := time.Parse(time.RFC3339, p.Now)
		if err != nil {
			return errors.Wrapf(err, "invalid reference time %q", p.Now)
		}
		p.now = now.In(loc)
	}
	return nil
}

// Location returns the validated timezone, or Asia/Shanghai before Validate.
func (p *Profile) Location() *time.Location {
	if p.location == nil {
		return timezone.LocationAsiaShanghai
	}
	return p.location
}

// FixedNow returns the configured reference instant, if any.
func (p *Profile) FixedNow() (time.Time, bool) {
	return p.now, !p.now.IsZero()
}
