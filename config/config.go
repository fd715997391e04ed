package config

// Config represents the taxon configuration
type Config struct {
	Cache        CacheConfig                 `mapstructure:"cache" toml:"cache" json:"cache" yaml:"cache"`
	Fetch        FetchConfig                 `mapstructure:"fetch" toml:"fetch" json:"fetch" yaml:"fetch"`
	Log          LogConfig                   `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
	Registry     RegistryConfig              `mapstructure:"registry" toml:"registry" json:"registry" yaml:"registry"`
	Vocabularies map[string]VocabularyConfig `mapstructure:"vocabularies" toml:"vocabularies" json:"vocabularies" yaml:"vocabularies"`
}

// CacheConfig configures the process-wide document cache
type CacheConfig struct {
	TTLMinutes   int  `mapstructure:"ttl_minutes" toml:"ttl_minutes" json:"ttl_minutes" yaml:"ttl_minutes"`       // Lifetime from insertion, not sliding (default: 15)
	MaxEntries   int  `mapstructure:"max_entries" toml:"max_entries" json:"max_entries" yaml:"max_entries"`       // Upper bound on cached documents (default: 64)
	WatchSources bool `mapstructure:"watch_sources" toml:"watch_sources" json:"watch_sources" yaml:"watch_sources"` // Evict when a local source file changes
}

// FetchConfig configures source retrieval
type FetchConfig struct {
	TimeoutSeconds       int `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`                                     // Per-fetch timeout (default: 30)
	MaxRequestsPerMinute int `mapstructure:"max_requests_per_minute" toml:"max_requests_per_minute" json:"max_requests_per_minute" yaml:"max_requests_per_minute"` // Per remote host, 0 = unlimited
	// Allow HTTP sources on loopback and private networks (intranet mirrors)
	AllowPrivateNetworks bool `mapstructure:"allow_private_networks" toml:"allow_private_networks" json:"allow_private_networks" yaml:"allow_private_networks"`
}

// LogConfig configures logging output
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// RegistryConfig configures where drop-in vocabulary registry files live
type RegistryConfig struct {
	Paths []string `mapstructure:"paths" toml:"paths" json:"paths" yaml:"paths"` // Directories scanned for *.toml drop-ins (default: ["~/.taxon/vocabularies.d"])
}

// VocabularyConfig maps one logical vocabulary key to its source document
type VocabularyConfig struct {
	Source        string `mapstructure:"source" toml:"source" json:"source" yaml:"source"`                                 // Path, URL, or any fetcher-supported address
	Version       string `mapstructure:"version" toml:"version,omitempty" json:"version,omitempty" yaml:"version,omitempty"` // Optional semver constraint on the document Version
	FullStructure bool   `mapstructure:"full_structure" toml:"full_structure" json:"full_structure" yaml:"full_structure"`   // Retain the mutable XML tree
	Description   string `mapstructure:"description" toml:"description,omitempty" json:"description,omitempty" yaml:"description,omitempty"`
}

// Defaults
const (
	DefaultCacheTTLMinutes      = 15
	DefaultCacheMaxEntries      = 64
	DefaultFetchTimeoutSeconds  = 30
	DefaultMaxRequestsPerMinute = 30
)

// File system constants
const (
	DefaultDirPermissions = 0755
	ConfigFileName        = "taxon.toml"
	EnvPrefix             = "TAXON"
)
