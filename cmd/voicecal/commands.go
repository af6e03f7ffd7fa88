package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	schederrors "github.com/hrygo/voicecal/internal/errors"
	"github.com/hrygo/voicecal/internal/observability"
	aischedule "github.com/hrygo/voicecal/plugin/ai/schedule"
	"github.com/hrygo/voicecal/plugin/textextract"
	"github.com/hrygo/voicecal/server/timezone"
)

const (
	keySelector = "selector"

	flagHTML  = "html"
	flagICS   = "ics"
	flagBlock = "block"
	flagStart = "start"
	flagEnd   = "end"
)

// sourceFlags are the calendar block sources shared by check and plan.
type sourceFlags struct {
	html   []string
	ics    []string
	blocks []string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.html, flagHTML, nil, "saved calendar day view (HTML), repeatable")
	flags.StringSliceVar(&f.ics, flagICS, nil, "iCalendar export, repeatable")
	flags.StringArrayVar(&f.blocks, flagBlock, nil, `raw calendar entry such as "14:00-15:00 周会", repeatable`)
	flags.String(keySelector, textextract.DefaultSelector, "CSS selector of one event in an HTML day view")
}

// loader binds the selector flag of cmd so that flag, VOICECAL_SELECTOR and
// the config file are honoured in that order.
func (f *sourceFlags) loader(cmd *cobra.Command, v *viper.Viper) (*textextract.Loader, error) {
	if err := v.BindPFlag(keySelector, cmd.Flags().Lookup(keySelector)); err != nil {
		return nil, err
	}
	config := textextract.DefaultConfig()
	config.Selector = v.GetString(keySelector)

	var sources []textextract.Source
	for _, path := range f.html {
		sources = append(sources, textextract.HTMLFile{Path: path, Selector: config.Selector, MaxBytes: config.MaxBytes})
	}
	for _, path := range f.ics {
		sources = append(sources, textextract.ICSFile{Path: path, MaxBytes: config.MaxBytes})
	}
	if len(f.blocks) > 0 {
		sources = append(sources, textextract.Inline(f.blocks))
	}
	return textextract.NewLoader(config, sources...), nil
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <utterance>",
		Short: "Parse an utterance into a schedule request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := observability.NewRequestContext(a.logger, "parse")
			result := a.parser.ParseAt(strings.Join(args, " "), a.now())

			a.metrics.RecordRequest("parse", rc.Duration())
			if !result.OK() {
				a.metrics.RecordFailure("parse")
				rc.Info("utterance rejected", slog.String(observability.LogFieldErrorCode, string(result.Failure.Code)))
			}
			if err := writeJSON(cmd.OutOrStdout(), result); err != nil {
				return err
			}
			if !result.OK() {
				return errRejected
			}
			return nil
		},
	}
}

func newCheckCmd(a *app, v *viper.Viper) *cobra.Command {
	var sources sourceFlags
	var startFlag, endFlag string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a time range against existing calendar entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := a.profile.Location()
			start, err := parseFlagTime(startFlag, loc)
			if err != nil {
				return err
			}
			end := start.Add(aischedule.DefaultDuration)
			if endFlag != "" {
				if end, err = parseFlagTime(endFlag, loc); err != nil {
					return err
				}
			}

			loader, err := sources.loader(cmd, v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			blocks, err := loader.Load(ctx, timezone.StartOfDay(start, nil))
			if err != nil {
				return err
			}

			report := a.service.Check(ctx, start, end, blocks)
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.HasConflict {
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&startFlag, flagStart, "", `start time, RFC3339 or "2006-01-02 15:04"`)
	cmd.Flags().StringVar(&endFlag, flagEnd, "", "end time, defaults to one hour after start")
	_ = cmd.MarkFlagRequired(flagStart)
	sources.register(cmd)
	return cmd
}

func newPlanCmd(a *app, v *viper.Viper) *cobra.Command {
	var sources sourceFlags

	cmd := &cobra.Command{
		Use:   "plan <utterance>",
		Short: "Parse an utterance and check it against existing calendar entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := sources.loader(cmd, v)
			if err != nil {
				return err
			}
			plan, err := a.service.PlanFrom(cmd.Context(), strings.Join(args, " "), a.now(), loader.Load)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), plan); err != nil {
				return err
			}
			if !plan.Accepted {
				return errRejected
			}
			return nil
		},
	}

	sources.register(cmd)
	return cmd
}

// parseFlagTime reads RFC3339 or a wall-clock "2006-01-02 15:04" in loc.
func parseFlagTime(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		return time.Time{}, schederrors.InvalidArgument("invalid time " + value + `, want RFC3339 or "2006-01-02 15:04"`)
	}
	return t, nil
}
