package config

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/taxon/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Cache: 0 = use default, negative = invalid
	if c.Cache.TTLMinutes < 0 {
		return errors.Newf("cache.ttl_minutes must be >= 0, got %d", c.Cache.TTLMinutes)
	}
	if c.Cache.MaxEntries < 0 {
		return errors.Newf("cache.max_entries must be >= 0, got %d", c.Cache.MaxEntries)
	}

	if c.Fetch.TimeoutSeconds < 0 {
		return errors.Newf("fetch.timeout_seconds must be >= 0, got %d", c.Fetch.TimeoutSeconds)
	}
	// 0 = unlimited
	if c.Fetch.MaxRequestsPerMinute < 0 {
		return errors.Newf("fetch.max_requests_per_minute must be >= 0, got %d", c.Fetch.MaxRequestsPerMinute)
	}

	keys := make([]string, 0, len(c.Vocabularies))
	for key := range c.Vocabularies {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.Vocabularies[key].validate(key); err != nil {
			return err
		}
	}

	return nil
}

func (vc VocabularyConfig) validate(key string) error {
	if vc.Source == "" {
		return errors.WithHintf(
			errors.Newf("vocabularies.%s.source cannot be empty", key),
			"set source to a file path or URL for %s", key)
	}
	if vc.Version != "" {
		if _, err := semver.NewConstraint(vc.Version); err != nil {
			return errors.Wrapf(err, "vocabularies.%s.version %q is not a valid constraint", key, vc.Version)
		}
	}
	return nil
}
