// Package cmd provides the command-line interface for the backend service.
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// rootOptions holds the command-line flags. configFile is shared by every
// subcommand; noColor and quiet only shape the output of the db commands.
type rootOptions struct {
	configFile string
	noColor    bool
	quiet      bool
}

// NewRootCmd creates the backend command tree. serve runs the HTTP server and
// is invoked both for `backend` and `backend serve`.
func NewRootCmd(serve func(configFile string) error) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "backend",
		Short: "Backend API server",
		Long: `Backend API server.

Without a subcommand the HTTP server is started. PORT selects the listen port
(default 3000) and MONGO_URI the database (default mongodb://localhost:27017/mydatabase).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts.configFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file path (default: ./config.yaml when present)")

	rootCmd.AddCommand(newServeCmd(opts, serve))
	rootCmd.AddCommand(newDBCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// newServeCmd creates the 'serve' subcommand
func newServeCmd(opts *rootOptions, serve func(configFile string) error) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(opts.configFile)
		},
	}
}
