package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	schederrors "github.com/hrygo/voicecal/internal/errors"
	"github.com/hrygo/voicecal/internal/observability"
	"github.com/hrygo/voicecal/internal/profile"
	"github.com/hrygo/voicecal/plugin/ai/aitime"
	aischedule "github.com/hrygo/voicecal/plugin/ai/schedule"
	"github.com/hrygo/voicecal/server/service/schedule"
)

const flagConfig = "config"

// errRejected marks a command that printed a negative result.
var errRejected = errors.New("rejected")

// app holds everything a subcommand needs, built once per invocation.
type app struct {
	profile *profile.Profile
	logger  *slog.Logger
	metrics *observability.Metrics
	parser  *aischedule.Parser
	service schedule.Service
}

// now returns the fixed reference instant if configured, otherwise the wall clock.
func (a *app) now() time.Time {
	if t, ok := a.profile.FixedNow(); ok {
		return t
	}
	return time.Now().In(a.profile.Location())
}

func newRootCmd() *cobra.Command {
	v := profile.NewViper()
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "voicecal",
		Short:         "Turn spoken Chinese schedule requests into calendar entries and check them for conflicts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := profile.ReadConfigFile(v, v.GetString(flagConfig)); err != nil {
				return err
			}
			built, err := newApp(v, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			*a = *built
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			snap := a.metrics.Snapshot()
			a.logger.Debug("metrics",
				slog.Int64("request_total", snap.RequestTotal),
				slog.Int64("request_failed", snap.RequestFailed),
				slog.Int64("conflicts", snap.Conflicts),
				slog.Float64("success_rate", snap.SuccessRate()),
			)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "", "path to a YAML or TOML config file")
	flags.String(profile.KeyMode, "dev", `mode of the CLI, can be "prod" or "dev"`)
	flags.String(profile.KeyTimezone, "Asia/Shanghai", "IANA timezone utterances are interpreted in")
	flags.String(profile.KeyLexicon, "", "path to a YAML lexicon overlay")
	flags.String(profile.KeyLogLevel, "info", "log level: debug, info, warn, error")
	flags.String(profile.KeyLogFormat, "text", `log format, can be "text" or "json"`)
	flags.Int(profile.KeyMaxConflictsListed, schedule.DefaultMaxConflictsListed, "conflicts spelled out in a conflict message")
	flags.String(profile.KeyNow, "", "fixed reference time (RFC3339) instead of the wall clock")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newParseCmd(a), newCheckCmd(a, v), newPlanCmd(a, v))
	return rootCmd
}

// newApp validates the profile and wires logger, lexicon, parser and service.
func newApp(v *viper.Viper, logOutput io.Writer) (*app, error) {
	p := profile.FromViper(v)
	p.Version = version
	if err := p.Validate(); err != nil {
		return nil, schederrors.Wrap(err, schederrors.ErrCodeInvalidArgument, "invalid configuration")
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  p.LogLevel,
		Format: p.LogFormat,
		Output: logOutput,
	})
	slog.SetDefault(logger)

	lexicon, err := loadLexicon(p.LexiconPath)
	if err != nil {
		return nil, err
	}

	metrics := observability.GlobalMetrics()
	parser := aischedule.NewParser(
		aischedule.WithLexicon(lexicon),
		aischedule.WithLocation(p.Location()),
		aischedule.WithLogger(logger),
	)
	svc := schedule.NewService(parser,
		schedule.WithServiceLogger(logger),
		schedule.WithMetrics(metrics),
		schedule.WithMaxConflictsListed(p.MaxConflictsListed),
	)

	logger.Debug("voicecal started",
		slog.String("version", p.Version),
		slog.String("mode", p.Mode),
		slog.String("timezone", p.Timezone),
		slog.String("lexicon", p.LexiconPath),
	)
	return &app{profile: p, logger: logger, metrics: metrics, parser: parser, service: svc}, nil
}

func loadLexicon(path string) (*aitime.Lexicon, error) {
	if path == "" {
		return aitime.DefaultLexicon(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, schederrors.InvalidLexicon(path, err)
	}
	defer f.Close()

	lexicon, err := aitime.LoadLexicon(f)
	if err != nil {
		return nil, schederrors.InvalidLexicon(path, err)
	}
	return lexicon, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode maps an error to the process exit status: 1 for a negative result
// that was already printed, 2 for everything else.
func exitCode(err error) int {
	if errors.Is(err, errRejected) {
		return 1
	}
	return 2
}
