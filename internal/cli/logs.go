package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
)

// DefaultLogFile is where serve writes the access log with default config.
var DefaultLogFile = filepath.Join("data", "log.txt")

// LogsOptions holds flags shared by the logs subcommands.
type LogsOptions struct {
	*RootOptions
	LogFile string
}

// NewLogsCommand creates the logs command and its subcommands.
func NewLogsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Inspect and maintain the access log offline",
		Long: `Work on an access log file without a running server.

Examples:
  fsapi logs stats
  fsapi logs filter --method GET --from 2026-10-01 --log-file /srv/fsapi/log.txt
  fsapi logs search report.txt --format json
  fsapi logs prune --days 7
  fsapi logs export --as csv -o logs.csv`,
	}

	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", DefaultLogFile, "path to the access log")

	cmd.AddCommand(newLogsShowCommand(opts))
	cmd.AddCommand(newLogsStatsCommand(opts))
	cmd.AddCommand(newLogsFilterCommand(opts))
	cmd.AddCommand(newLogsSearchCommand(opts))
	cmd.AddCommand(newLogsPruneCommand(opts))
	cmd.AddCommand(newLogsExportCommand(opts))

	return cmd
}

// openLog opens an existing log file. Unlike the server, the CLI never
// creates one.
func openLog(opts *LogsOptions, cmd *cobra.Command) (*accesslog.Engine, error) {
	if _, err := os.Stat(opts.LogFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("log file not found: %s", opts.LogFile))
		}
		return nil, WrapExitError(ExitCommandError, "failed to stat log file", err)
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	e, err := accesslog.New(opts.LogFile, accesslog.WithLogger(logger))
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open log file", err)
	}
	return e, nil
}

func formatterFor(opts *LogsOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func newLogsShowCommand(opts *LogsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the whole log file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openLog(opts, cmd)
			if err != nil {
				return err
			}
			snap, err := e.ReadAll()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to read log", err)
			}
			return formatterFor(opts, cmd).Render(snap, func(w io.Writer) {
				io.WriteString(w, snap.Content)
			})
		},
	}
}

func newLogsStatsCommand(opts *LogsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Summarize the log",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openLog(opts, cmd)
			if err != nil {
				return err
			}
			stats, err := e.Statistics()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to compute statistics", err)
			}
			return formatterFor(opts, cmd).Render(stats, func(w io.Writer) {
				writeStatsText(w, stats)
			})
		},
	}
}

func writeStatsText(w io.Writer, s *accesslog.Stats) {
	fmt.Fprintf(w, "Records:     %d\n", s.TotalRecords)
	if s.Skipped > 0 {
		fmt.Fprintf(w, "Skipped:     %d\n", s.Skipped)
	}
	if s.First != nil {
		fmt.Fprintf(w, "First:       %s\n", *s.First)
		fmt.Fprintf(w, "Last:        %s\n", *s.Last)
	}

	methods := make([]string, 0, len(s.Methods))
	for m := range s.Methods {
		methods = append(methods, m)
	}
	slices.Sort(methods)
	fmt.Fprintln(w, "Methods:")
	for _, m := range methods {
		fmt.Fprintf(w, "  %-8s %d\n", m, s.Methods[m])
	}

	fmt.Fprintf(w, "Unique URLs: %d\n", len(s.UniqueURLs))
	for _, u := range s.UniqueURLs {
		fmt.Fprintf(w, "  %s\n", u)
	}
}

func newLogsFilterCommand(opts *LogsOptions) *cobra.Command {
	var method, from, to, url string

	cmd := &cobra.Command{
		Use:           "filter",
		Short:         "List records matching method, date range and URL",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := accesslog.Criteria{Method: method, URLContains: url}
			var err error
			if from != "" {
				if c.From, err = accesslog.ParseTime(from); err != nil {
					return WrapExitError(ExitCommandError, "invalid --from", err)
				}
			}
			if to != "" {
				if c.To, err = accesslog.ParseTime(to); err != nil {
					return WrapExitError(ExitCommandError, "invalid --to", err)
				}
			}

			e, err := openLog(opts, cmd)
			if err != nil {
				return err
			}
			records, err := e.Filter(c)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to filter log", err)
			}

			result := map[string]any{"logs": records, "total": len(records)}
			return formatterFor(opts, cmd).Render(result, func(w io.Writer) {
				for _, r := range records {
					io.WriteString(w, accesslog.FormatLine(r))
				}
				fmt.Fprintf(w, "%d record(s)\n", len(records))
			})
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "exact HTTP method")
	cmd.Flags().StringVar(&from, "from", "", "earliest timestamp or date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "latest timestamp or date, inclusive")
	cmd.Flags().StringVar(&url, "url", "", "case-insensitive URL substring")

	return cmd
}

func newLogsSearchCommand(opts *LogsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "search <term>",
		Short:         "Find log lines containing a term, ignoring case",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := args[0]
			if strings.TrimSpace(term) == "" {
				return NewExitError(ExitCommandError, "search term must not be empty")
			}

			e, err := openLog(opts, cmd)
			if err != nil {
				return err
			}
			matches, err := e.Search(term)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to search log", err)
			}

			result := map[string]any{"term": term, "results": matches, "total": len(matches)}
			return formatterFor(opts, cmd).Render(result, func(w io.Writer) {
				for _, m := range matches {
					fmt.Fprintf(w, "%d: %s\n", m.LineNumber, m.Line)
				}
			})
		},
	}
}

func newLogsPruneCommand(opts *LogsOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:           "prune",
		Short:         "Remove records older than the retention period",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return NewExitError(ExitCommandError, fmt.Sprintf("--days must not be negative, got %d", days))
			}

			e, err := openLog(opts, cmd)
			if err != nil {
				return err
			}
			removed, err := e.PruneOlderThan(days)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to prune log", err)
			}

			return formatterFor(opts, cmd).Render(map[string]int{"logsEliminados": removed}, func(w io.Writer) {
				fmt.Fprintf(w, "Removed %d record(s) older than %d day(s)\n", removed, days)
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "retention period in days")

	return cmd
}

func newLogsExportCommand(opts *LogsOptions) *cobra.Command {
	var as, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export parsed records as CSV or JSON",
		Long: `Export parsed records as CSV or JSON.

The export body is written as-is; the global --format flag does not
apply to it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openLog(opts, cmd)
			if err != nil {
				return err
			}
			exp, err := e.Export(as)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to export log", err)
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(exp.Body)
				return err
			}
			if err := os.WriteFile(output, exp.Body, 0644); err != nil {
				return WrapExitError(ExitFailure, "failed to write export", err)
			}
			formatterFor(opts, cmd).VerboseLog("wrote %s export to %s", exp.Format, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&as, "as", "json", "export format (csv|json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
