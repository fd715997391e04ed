package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/taxon/errors"
)

var (
	globalConfig  *Config
	viperInstance *viper.Viper
	loadMu        sync.Mutex
)

// Load reads the taxon configuration using Viper.
// The result is cached for the life of the process; call Reset to reload.
func Load() (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	loadMu.Lock()
	defer loadMu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, with defaults
// applied but without merging system/user/project files or the environment.
func LoadFromFile(configPath string) (*Config, error) {
	v, err := ViperFromFile(configPath)
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "config from %s", configPath)
	}
	return config, nil
}

// ViperFromFile reads a single TOML config file over the defaults
func ViperFromFile(configPath string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	return v, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	globalConfig = nil
	viperInstance = nil
	sourcesMu.Lock()
	loadedSources = nil
	sourcesMu.Unlock()
}

// initViper initializes Viper with configuration sources and defaults.
// Caller holds loadMu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Precedence (lowest to highest): system < user < project < env vars
	mergeConfigFiles(v, candidatePaths())

	viperInstance = v
	return v
}

// candidatePaths lists config files in ascending precedence order
func candidatePaths() []FileSource {
	paths := []FileSource{
		{Level: LevelSystem, Path: filepath.Join("/etc", "taxon", ConfigFileName)},
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, FileSource{Level: LevelUser, Path: filepath.Join(homeDir, ".taxon", ConfigFileName)})
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		paths = append(paths, FileSource{Level: LevelProject, Path: projectConfig})
	}
	return paths
}

// findProjectConfig searches for taxon.toml by walking up the directory tree.
// Returns "" when none is found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges the given files into v in order, recording which
// ones were found for introspection.
func mergeConfigFiles(v *viper.Viper, files []FileSource) {
	found := make([]FileSource, 0, len(files))

	for _, file := range files {
		if _, err := os.Stat(file.Path); err != nil {
			found = append(found, file)
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(file.Path)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err != nil {
			file.Err = err
			found = append(found, file)
			continue
		}

		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			file.Err = err
			found = append(found, file)
			continue
		}
		file.Loaded = true
		file.keys = make(map[string]bool)
		for _, key := range tempViper.AllKeys() {
			file.keys[key] = true
		}
		found = append(found, file)
	}

	recordSources(found)
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// IsSet reports whether key has a value from any source, defaults included
func IsSet(key string) bool {
	return GetViper().IsSet(key)
}
