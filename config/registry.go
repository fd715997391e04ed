package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/teranos/taxon/errors"
)

// ErrUnknownVocabulary is returned when a logical key has no configured
// source. It is a configuration error: fatal to the caller, never retried.
var ErrUnknownVocabulary = errors.New("unknown vocabulary")

// Source is a resolved vocabulary location
type Source struct {
	Key               string `json:"key"`
	Location          string `json:"location"`
	VersionConstraint string `json:"version,omitempty"`
	FullStructure     bool   `json:"full_structure,omitempty"`
	Description       string `json:"description,omitempty"`
	Origin            string `json:"origin"` // "config" or the drop-in file path
}

// OriginConfig marks sources that came from the main configuration
const OriginConfig = "config"

// Registry maps logical vocabulary keys to sources.
// Keys are case-insensitive; Viper lowercases map keys, so every key is
// stored in upper case ("ipsv" and "IPSV" are the same vocabulary).
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Source
}

// NormalizeKey returns the canonical registry form of a logical key
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// NewRegistry creates a registry from explicit sources. Later sources
// replace earlier ones with the same key.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{entries: make(map[string]Source, len(sources))}
	for _, src := range sources {
		r.Add(src)
	}
	return r
}

// RegistryFromConfig builds the registry from drop-in files and the main
// configuration. Main configuration entries win on key conflicts.
func RegistryFromConfig(cfg *Config, logger *zap.SugaredLogger) (*Registry, error) {
	dropIns, err := LoadDropIns(cfg.Registry.Paths, logger)
	if err != nil {
		return nil, err
	}

	r := NewRegistry(dropIns...)
	for key, vc := range cfg.Vocabularies {
		r.Add(Source{
			Key:               key,
			Location:          vc.Source,
			VersionConstraint: vc.Version,
			FullStructure:     vc.FullStructure,
			Description:       vc.Description,
			Origin:            OriginConfig,
		})
	}
	return r, nil
}

// Add registers or replaces a source
func (r *Registry) Add(src Source) {
	src.Key = NormalizeKey(src.Key)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[src.Key] = src
}

// Lookup returns the source for key, if any
func (r *Registry) Lookup(key string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.entries[NormalizeKey(key)]
	return src, ok
}

// Resolve maps a logical key to its source location.
// Unknown keys fail with ErrUnknownVocabulary.
func (r *Registry) Resolve(key string) (Source, error) {
	if src, ok := r.Lookup(key); ok {
		return src, nil
	}
	return Source{}, errors.WithHintf(
		errors.Wrapf(ErrUnknownVocabulary, "%q", key),
		"add [vocabularies.%s] with a source to %s, or a drop-in file under ~/.taxon/vocabularies.d",
		NormalizeKey(key), ConfigFileName)
}

// Keys returns every registered key, sorted
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Sources returns every registered source, sorted by key
func (r *Registry) Sources() []Source {
	keys := r.Keys()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Source, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.entries[key])
	}
	return out
}

// dropInFile is the layout of a vocabularies.d/*.toml file
type dropInFile struct {
	Vocabulary []dropInEntry `toml:"vocabulary"`
}

type dropInEntry struct {
	Key           string `toml:"key"`
	Source        string `toml:"source"`
	Version       string `toml:"version"`
	FullStructure bool   `toml:"full_structure"`
	Description   string `toml:"description"`
}

// LoadDropIns reads every *.toml file in dirs (missing directories are
// skipped) and returns their vocabulary entries in file-name order.
func LoadDropIns(dirs []string, logger *zap.SugaredLogger) ([]Source, error) {
	var sources []Source

	for _, dir := range dirs {
		dir, err := expandHome(dir)
		if err != nil {
			return nil, err
		}

		matches, err := filepath.Glob(filepath.Join(dir, "*.toml"))
		if err != nil {
			return nil, errors.Wrapf(err, "scan registry directory %s", dir)
		}
		sort.Strings(matches)

		for _, path := range matches {
			var file dropInFile
			md, err := toml.DecodeFile(path, &file)
			if err != nil {
				return nil, errors.Wrapf(err, "decode registry file %s", path)
			}

			if undecoded := md.Undecoded(); len(undecoded) > 0 && logger != nil {
				keys := make([]string, 0, len(undecoded))
				for _, k := range undecoded {
					keys = append(keys, k.String())
				}
				logger.Warnw("Ignoring unknown keys in registry file",
					"path", path,
					"keys", keys)
			}

			for i, entry := range file.Vocabulary {
				if entry.Key == "" || entry.Source == "" {
					return nil, errors.Newf("%s: vocabulary entry %d needs both key and source", path, i+1)
				}
				sources = append(sources, Source{
					Key:               entry.Key,
					Location:          entry.Source,
					VersionConstraint: entry.Version,
					FullStructure:     entry.FullStructure,
					Description:       entry.Description,
					Origin:            path,
				})
			}
		}
	}

	return sources, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to expand home directory")
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
