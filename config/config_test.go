package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxon/errors"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance, no user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	if err != nil {
		t.Fatalf("LoadWithViper() failed: %v", err)
	}

	if cfg.Cache.TTLMinutes != 15 {
		t.Errorf("expected default ttl 15 minutes, got %d", cfg.Cache.TTLMinutes)
	}
	if cfg.CacheTTL() != 15*time.Minute {
		t.Errorf("expected CacheTTL 15m, got %v", cfg.CacheTTL())
	}
	if cfg.CacheMaxEntries() != DefaultCacheMaxEntries {
		t.Errorf("expected max entries %d, got %d", DefaultCacheMaxEntries, cfg.CacheMaxEntries())
	}
	if !cfg.Cache.WatchSources {
		t.Error("expected watch_sources to default to true")
	}
	if cfg.Fetch.MaxRequestsPerMinute != DefaultMaxRequestsPerMinute {
		t.Errorf("expected default rate %d, got %d", DefaultMaxRequestsPerMinute, cfg.Fetch.MaxRequestsPerMinute)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	body := `
[cache]
ttl_minutes = 5

[vocabularies.IPSV]
source = "/data/ipsv.xml"
version = ">= 2"

[vocabularies.lgsl]
source = "https://example.org/lgsl.xml"
full_structure = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	// Viper lowercases map keys
	require.Contains(t, cfg.Vocabularies, "ipsv")
	assert.Equal(t, "/data/ipsv.xml", cfg.Vocabularies["ipsv"].Source)
	assert.Equal(t, ">= 2", cfg.Vocabularies["ipsv"].Version)
	assert.True(t, cfg.Vocabularies["lgsl"].FullStructure)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "zero values use defaults", config: Config{}, wantErr: false},
		{name: "negative ttl", config: Config{Cache: CacheConfig{TTLMinutes: -1}}, wantErr: true},
		{name: "negative max entries", config: Config{Cache: CacheConfig{MaxEntries: -3}}, wantErr: true},
		{name: "negative rate", config: Config{Fetch: FetchConfig{MaxRequestsPerMinute: -1}}, wantErr: true},
		{name: "zero rate is unlimited", config: Config{Fetch: FetchConfig{MaxRequestsPerMinute: 0}}, wantErr: false},
		{
			name:    "empty source",
			config:  Config{Vocabularies: map[string]VocabularyConfig{"ipsv": {}}},
			wantErr: true,
		},
		{
			name:    "bad version constraint",
			config:  Config{Vocabularies: map[string]VocabularyConfig{"ipsv": {Source: "a.xml", Version: "not a version"}}},
			wantErr: true,
		},
		{
			name:    "valid vocabulary",
			config:  Config{Vocabularies: map[string]VocabularyConfig{"ipsv": {Source: "a.xml", Version: "~2.1"}}},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(Source{Key: "ipsv", Location: "/data/ipsv.xml", Origin: OriginConfig})

	src, err := r.Resolve("IPSV")
	require.NoError(t, err)
	assert.Equal(t, "IPSV", src.Key)
	assert.Equal(t, "/data/ipsv.xml", src.Location)

	_, err = r.Resolve("LGSL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownVocabulary))
	assert.Contains(t, errors.Hints(err), "[vocabularies.LGSL]")
}

func TestRegistryFromConfig_DropInsLoseToConfig(t *testing.T) {
	dir := t.TempDir()
	dropIn := `
[[vocabulary]]
key = "IPSV"
source = "/drop-in/ipsv.xml"

[[vocabulary]]
key = "LGIL"
source = "/drop-in/lgil.xml"
version = ">= 1"
unexpected = "ignored"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-lists.toml"), []byte(dropIn), 0644))

	cfg := &Config{
		Registry: RegistryConfig{Paths: []string{dir, filepath.Join(dir, "missing")}},
		Vocabularies: map[string]VocabularyConfig{
			"ipsv": {Source: "/config/ipsv.xml"},
		},
	}

	r, err := RegistryFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"IPSV", "LGIL"}, r.Keys())

	ipsv, ok := r.Lookup("ipsv")
	require.True(t, ok)
	assert.Equal(t, "/config/ipsv.xml", ipsv.Location)
	assert.Equal(t, OriginConfig, ipsv.Origin)

	lgil, ok := r.Lookup("lgil")
	require.True(t, ok)
	assert.Equal(t, ">= 1", lgil.VersionConstraint)
	assert.Equal(t, filepath.Join(dir, "10-lists.toml"), lgil.Origin)
}

func TestLoadDropIns_MissingSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.toml"), []byte("[[vocabulary]]\nkey = \"X\"\n"), 0644))

	_, err := LoadDropIns([]string{dir}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs both key and source")
}

func TestMergeConfigFiles_TracksSources(t *testing.T) {
	defer Reset()

	dir := t.TempDir()
	user := filepath.Join(dir, "user.toml")
	project := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(user, []byte("[cache]\nttl_minutes = 3\nmax_entries = 8\n"), 0644))
	require.NoError(t, os.WriteFile(project, []byte("[cache]\nttl_minutes = 7\n"), 0644))

	v := viper.New()
	SetDefaults(v)
	mergeConfigFiles(v, []FileSource{
		{Level: LevelSystem, Path: filepath.Join(dir, "absent.toml")},
		{Level: LevelUser, Path: user},
		{Level: LevelProject, Path: project},
	})

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Cache.TTLMinutes, "project config overrides user config")
	assert.Equal(t, 8, cfg.Cache.MaxEntries, "user value survives when project does not set it")

	sourcesMu.RLock()
	files := append([]FileSource(nil), loadedSources...)
	sourcesMu.RUnlock()
	require.Len(t, files, 3)
	assert.False(t, files[0].Loaded)
	assert.True(t, files[1].Loaded)
	assert.True(t, files[2].keys["cache.ttl_minutes"])
}
