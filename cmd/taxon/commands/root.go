// Package commands implements the taxon command tree.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teranos/taxon/cache"
	"github.com/teranos/taxon/config"
	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/fetch"
	"github.com/teranos/taxon/logger"
	"github.com/teranos/taxon/vocab"
)

// NewRootCmd builds the taxon command tree. Each call returns a fresh tree,
// so batch mode can run one line per tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "taxon",
		Short: "Query controlled vocabularies",
		Long: `taxon - Query controlled vocabularies (taxonomies and thesauri).

Vocabularies are XML documents in either the legacy or the modern list
format, addressed by a logical key from the registry (taxon.toml and
drop-in files) or directly by path or URL.

Examples:
  taxon info IPSV                       # Describe a vocabulary
  taxon term IPSV 1 --expand children   # Look up a term with its narrower terms
  taxon search IPSV "housing"           # Terms whose name contains "housing"
  taxon descendants IPSV 1 --tree       # Narrower hierarchy as a tree
  taxon validate IPSV "Homes; Roads"    # Check a stored value
  taxon batch queries.txt               # Many queries over one cache`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Batch lines share the parent's logger and cache
			if cacheFromContext(cmd.Context()) != nil {
				return nil
			}
			verbosity, _ := cmd.Flags().GetCount("verbose")
			jsonLogs := false
			if cfg, err := loadConfig(cmd); err == nil {
				jsonLogs = cfg.Log.JSON
			}
			if err := logger.Initialize(jsonLogs, verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	root.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	root.PersistentFlags().BoolP("json", "j", false, "Output results as JSON")
	root.PersistentFlags().String("config", "", "Read configuration from this file only")

	root.AddCommand(
		newInfoCmd(),
		newVocabulariesCmd(),
		newTermCmd(),
		newPreferredCmd(),
		newSearchCmd(),
		newRootsCmd(),
		newChildrenCmd(),
		newDescendantsCmd(),
		newBroaderCmd(),
		newRelatedCmd(),
		newNonPreferredCmd(),
		newResolveCmd(),
		newValidateCmd(),
		newBatchCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

type cacheKey struct{}

func withCache(ctx context.Context, c *cache.Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, c)
}

func cacheFromContext(ctx context.Context) *cache.Cache {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(cacheKey{}).(*cache.Cache)
	return c
}

// loadConfig reads the file named by --config, or the full cascade
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// openCache returns the cache shared through the command context, or builds
// one from configuration and installs it as the process default. configure
// adjusts the options derived from configuration.
func openCache(cmd *cobra.Command, configure ...func(*cache.Options)) (*cache.Cache, error) {
	if c := cacheFromContext(cmd.Context()); c != nil {
		return c, nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(
			errors.Wrap(err, "configuration validation failed"),
			"run 'taxon config where' to see which files were read",
		)
	}

	registry, err := config.RegistryFromConfig(cfg, logger.ComponentLogger("registry"))
	if err != nil {
		return nil, err
	}

	fetcher := fetch.New(fetch.Options{
		Timeout:              cfg.FetchTimeout(),
		MaxRequestsPerMinute: cfg.Fetch.MaxRequestsPerMinute,
		AllowPrivateNetworks: cfg.Fetch.AllowPrivateNetworks,
	}, logger.ComponentLogger("fetch"))
	loader := vocab.NewLoader(fetcher, logger.ComponentLogger("loader"))

	opts := cache.OptionsFromConfig(cfg.Cache)
	for _, f := range configure {
		f(&opts)
	}

	c, err := cache.New(loader, registry, opts, logger.ComponentLogger("cache"))
	if err != nil {
		return nil, err
	}
	cache.SetDefault(c)
	return c, nil
}

// loadDocument resolves a vocabulary key or location through the cache
func loadDocument(cmd *cobra.Command, keyOrURI string) (*vocab.Document, error) {
	c, err := openCache(cmd, oneShot)
	if err != nil {
		return nil, err
	}
	return c.GetOrLoad(cmd.Context(), keyOrURI)
}

// oneShot disables source watching for commands that exit after one query
func oneShot(o *cache.Options) {
	o.WatchSources = false
}
