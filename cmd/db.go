package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/bootstrap"
	"backend/storage"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errPingFailed is returned after the failure details have already been printed.
var errPingFailed = errors.New("MongoDB ping failed")

// pingResult is the --json shape of 'db ping'
type pingResult struct {
	URI       string `json:"uri"`
	Database  string `json:"database"`
	Reachable bool   `json:"reachable"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// newDBCmd creates the 'db' command group
func newDBCmd(opts *rootOptions) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	dbCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	dbCmd.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "Suppress non-essential output")
	dbCmd.AddCommand(newDBPingCmd(opts))
	return dbCmd
}

// newDBPingCmd creates the 'db ping' subcommand
func newDBPingCmd(opts *rootOptions) *cobra.Command {
	var (
		timeout    time.Duration
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect to MongoDB and ping it once",
		Long: `Connect to the configured MongoDB synchronously and ping it.

Unlike the server, which only logs a failed connection, this command exits
non-zero when the database cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.InitConfig(opts.configFile)
			if err != nil {
				return err
			}
			if timeout > 0 {
				cfg.MongoDB.ConnectTimeout = timeout
			}

			out := cmd.OutOrStdout()
			result := pingResult{
				URI:      cfg.RedactedMongoURI(),
				Database: storage.DatabaseName(cfg),
			}

			if !opts.quiet && !outputJSON {
				infoColor.Fprintf(out, "Pinging MongoDB at %s (timeout %s)\n", result.URI, cfg.MongoDB.ConnectTimeout)
			}

			var s *spinner.Spinner
			if !outputJSON && !opts.quiet {
				s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
				s.Suffix = " Connecting..."
				s.Start()
			}

			start := time.Now()
			db, err := storage.NewMongoDB(cmd.Context(), cfg, zap.NewNop().Sugar())
			result.LatencyMS = time.Since(start).Milliseconds()

			if s != nil {
				s.Stop()
			}

			if err != nil {
				result.Error = err.Error()
				if outputJSON {
					if encErr := outputAsJSON(out, result); encErr != nil {
						return encErr
					}
					return errPingFailed
				}
				errorColor.Fprintln(out, "✗ MongoDB unreachable")
				fmt.Fprintln(out, bootstrap.ClassifyConnectionError(err, result.URI))
				return errPingFailed
			}

			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			defer db.Close(closeCtx)

			result.Reachable = true
			if outputJSON {
				return outputAsJSON(out, result)
			}
			successColor.Fprintf(out, "✓ MongoDB reachable (database %s, %dms)\n", result.Database, result.LatencyMS)
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Connect and ping timeout (default: mongodb.connect_timeout)")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}
