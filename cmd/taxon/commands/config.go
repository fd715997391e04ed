package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/teranos/taxon/config"
	"github.com/teranos/taxon/display"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/logger"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect taxon configuration",
		Long: `Inspect taxon configuration.

Configuration sources (in order of precedence):
1. Environment variables (TAXON_* prefix)
2. Project config (./taxon.toml, searched upward)
3. User config (~/.taxon/taxon.toml)
4. System config (/etc/taxon/taxon.toml)
5. Default values

--config names a single file and skips the cascade.

Examples:
  taxon config show                 # Show current configuration
  taxon config show --format json   # Show configuration in JSON format
  taxon config get cache.ttl_minutes
  taxon config validate
  taxon config where`,
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigGetCmd(), newConfigValidateCmd(), newConfigWhereCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}

			if display.ShouldOutputJSON(cmd) {
				format = "json"
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return display.OutputJSON(out, cfg)

			case "yaml":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return errors.Wrap(err, "failed to marshal config to YAML")
				}
				fmt.Fprintf(out, "# taxon configuration\n%s", data)

			case "toml":
				data, err := toml.Marshal(cfg)
				if err != nil {
					return errors.Wrap(err, "failed to marshal config to TOML")
				}
				fmt.Fprintf(out, "# taxon configuration\n%s", data)

			default:
				return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml, json, yaml")
	return cmd
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  "Get a specific configuration value using dot notation (e.g., cache.ttl_minutes, vocabularies.ipsv.source)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := configViper(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			if !v.IsSet(key) {
				return errors.Newf("configuration key %q not found", key)
			}
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), v.Get(key))
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		Long:  "Validate the configuration and every vocabulary registered by it or by drop-in files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}
			if err := cfg.Validate(); err != nil {
				return errors.Wrap(err, "configuration validation failed")
			}
			registry, err := config.RegistryFromConfig(cfg, logger.ComponentLogger("registry"))
			if err != nil {
				return errors.Wrap(err, "vocabulary registry is invalid")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration is valid (%d vocabularies registered)\n", len(registry.Keys()))
			return nil
		},
	}
}

func newConfigWhereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "where",
		Short: "Show where configuration is loaded from",
		Long: `Show the configuration cascade and which files were checked.

Lists all configuration sources in order of precedence, showing
which files exist and which settings each one provides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if path, _ := cmd.Flags().GetString("config"); path != "" {
				fmt.Fprintf(out, "Configuration read from %s only (--config)\n", path)
				return nil
			}

			sources := config.Sources()
			settings := config.Settings()
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(out, struct {
					Files    []config.FileSource  `json:"files"`
					Settings []config.SettingInfo `json:"settings"`
				}{sources, settings})
			}

			fmt.Fprintln(out, "Configuration cascade (later overrides earlier):")
			fmt.Fprintln(out, "  1. [default]      Built-in defaults")
			for i, f := range sources {
				status := "missing"
				switch {
				case f.Err != nil:
					status = "error: " + f.Err.Error()
				case f.Loaded:
					status = "loaded"
				}
				fmt.Fprintf(out, "  %d. [%-11s] %s (%s)\n", i+2, f.Level, f.Path, status)
			}
			fmt.Fprintf(out, "  %d. [environment]  %s_* environment variables\n", len(sources)+2, config.EnvPrefix)
			fmt.Fprintln(out)

			byLevel := make(map[config.SourceLevel][]config.SettingInfo)
			var order []config.SourceLevel
			for _, s := range settings {
				if _, seen := byLevel[s.Source]; !seen {
					order = append(order, s.Source)
				}
				byLevel[s.Source] = append(byLevel[s.Source], s)
			}
			for _, level := range order {
				fmt.Fprintf(out, "[%s]\n", level)
				for _, s := range byLevel[level] {
					fmt.Fprintf(out, "  %s = %v\n", s.Key, s.Value)
				}
			}
			return nil
		},
	}
}

// configViper returns the viper instance behind --config or the cascade
func configViper(cmd *cobra.Command) (*viper.Viper, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.ViperFromFile(path)
	}
	return config.GetViper(), nil
}
