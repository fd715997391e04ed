package config

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// SourceLevel names one layer of the configuration cascade
type SourceLevel string

const (
	LevelDefault     SourceLevel = "default"
	LevelSystem      SourceLevel = "system"  // /etc/taxon/taxon.toml
	LevelUser        SourceLevel = "user"    // ~/.taxon/taxon.toml
	LevelProject     SourceLevel = "project" // ./taxon.toml, searched upward
	LevelEnvironment SourceLevel = "environment"
)

// FileSource describes one candidate config file and whether it was merged
type FileSource struct {
	Level  SourceLevel `json:"level"`
	Path   string      `json:"path"`
	Loaded bool        `json:"loaded"`
	Err    error       `json:"-"`

	keys map[string]bool
}

// SettingInfo is one effective setting with the layer it came from
type SettingInfo struct {
	Key    string      `json:"key"`
	Value  interface{} `json:"value"`
	Source SourceLevel `json:"source"`
}

var (
	loadedSources []FileSource
	sourcesMu     sync.RWMutex
)

func recordSources(files []FileSource) {
	sourcesMu.Lock()
	defer sourcesMu.Unlock()
	loadedSources = append([]FileSource(nil), files...)
}

// Sources returns the config files checked during the last load, in
// ascending precedence order. Triggers a load if none has happened yet.
func Sources() []FileSource {
	sourcesMu.RLock()
	files := append([]FileSource(nil), loadedSources...)
	sourcesMu.RUnlock()

	if files == nil {
		GetViper()
		sourcesMu.RLock()
		files = append([]FileSource(nil), loadedSources...)
		sourcesMu.RUnlock()
	}
	return files
}

// Settings flattens the effective configuration into dotted keys, tagging
// each with the layer it came from.
func Settings() []SettingInfo {
	v := GetViper()
	settings := make([]SettingInfo, 0)
	flatten(v.AllSettings(), "", &settings)

	files := Sources()
	for i := range settings {
		settings[i].Source = LevelDefault

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(settings[i].Key, ".", "_"))
		if os.Getenv(envKey) != "" {
			settings[i].Source = LevelEnvironment
			continue
		}

		// Highest-precedence file that set the key wins
		for j := len(files) - 1; j >= 0; j-- {
			if files[j].Loaded && files[j].keys[settings[i].Key] {
				settings[i].Source = files[j].Level
				break
			}
		}
	}
	return settings
}

// flatten walks nested settings maps in sorted key order
func flatten(settings map[string]interface{}, prefix string, out *[]SettingInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := settings[key].(map[string]interface{}); ok {
			flatten(nested, fullKey, out)
			continue
		}
		*out = append(*out, SettingInfo{Key: fullKey, Value: settings[key]})
	}
}
