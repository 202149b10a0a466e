package cmd

import (
	"fmt"
	"io"

	"backend/bootstrap"
	"backend/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigCmd creates the 'config' command group
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved configuration",
	}
	configCmd.AddCommand(newConfigShowCmd(opts))
	return configCmd
}

// newConfigShowCmd creates the 'config show' subcommand
func newConfigShowCmd(opts *rootOptions) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration the server would start with",
		Long: `Print the configuration resolved from defaults, the optional config file
and the environment. Credentials in the MongoDB URI are redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := bootstrap.InitConfig(opts.configFile)
			if err != nil {
				return err
			}

			view := configView(cfg)
			if outputJSON {
				return outputAsJSON(cmd.OutOrStdout(), view)
			}
			return outputAsYAML(cmd.OutOrStdout(), view)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output in JSON format")

	return cmd
}

// configView mirrors the config keys, with durations in their string form and
// the MongoDB password redacted.
func configView(cfg *config.Config) map[string]interface{} {
	return map[string]interface{}{
		"port": cfg.Port,
		"mongodb": map[string]interface{}{
			"uri":             cfg.RedactedMongoURI(),
			"database":        cfg.MongoDB.Database,
			"connect_timeout": cfg.MongoDB.ConnectTimeout.String(),
			"max_pool_size":   cfg.MongoDB.MaxPoolSize,
		},
		"api": map[string]interface{}{
			"max_body_bytes":      cfg.API.MaxBodyBytes,
			"read_header_timeout": cfg.API.ReadHeaderTimeout.String(),
			"shutdown_timeout":    cfg.API.ShutdownTimeout.String(),
			"rate_limit": map[string]interface{}{
				"enabled":             cfg.API.RateLimit.Enabled,
				"requests_per_second": cfg.API.RateLimit.RequestsPerSecond,
				"burst":               cfg.API.RateLimit.Burst,
			},
		},
		"admin": map[string]interface{}{
			"port": cfg.Admin.Port,
		},
		"log": map[string]interface{}{
			"level": cfg.Log.Level,
		},
	}
}

// outputAsYAML writes data as a YAML document
func outputAsYAML(w io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
