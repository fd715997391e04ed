// Package fetch retrieves vocabulary source documents.
//
// Sources are addressed the way go-getter addresses them:
//   - Local paths: /data/ipsv.xml, ./lists/lgsl.xml, ~/lists/lgsl.xml
//   - file:// URLs
//   - HTTP(S) URLs: https://example.org/ipsv.xml
//   - Forced getters: s3::https://bucket.s3.amazonaws.com/ipsv.xml, gcs::..., git::...//path
//   - Archives are decompressed when the URL carries an archive extension
//
// Local sources are read directly. Remote sources are downloaded into a
// temporary directory that is removed before Fetch returns, and each remote
// host is rate limited. HTTP sources on loopback or private networks are
// refused unless Options.AllowPrivateNetworks is set.
package fetch

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/taxon/errors"
	"github.com/teranos/taxon/internal/httpclient"
	"github.com/teranos/taxon/logger"
)

// ErrSourceNotFound is returned when the source location does not exist
var ErrSourceNotFound = errors.New("source not found")

// Options configures a Fetcher
type Options struct {
	// Timeout bounds a single remote fetch. Zero means no timeout beyond ctx.
	Timeout time.Duration
	// MaxRequestsPerMinute limits fetches per remote host. Zero means unlimited.
	MaxRequestsPerMinute int
	// AllowPrivateNetworks lets HTTP sources resolve to loopback and
	// private addresses.
	AllowPrivateNetworks bool
	// Getters overrides the protocol table built by New.
	Getters map[string]getter.Getter
}

// Fetcher reads source documents from local or remote locations
type Fetcher struct {
	logger    *zap.SugaredLogger
	timeout   time.Duration
	perMinute int
	getters   map[string]getter.Getter
	http      *httpclient.SaferClient

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Fetcher. A nil logger uses the global "fetch" logger.
func New(opts Options, l *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		logger:    logger.OrDefault(l, "fetch"),
		timeout:   opts.Timeout,
		perMinute: opts.MaxRequestsPerMinute,
		getters:   opts.Getters,
		http: httpclient.New(httpclient.Options{
			Timeout:              opts.Timeout,
			AllowPrivateNetworks: opts.AllowPrivateNetworks,
		}),
		limiters: make(map[string]*rate.Limiter),
	}
}

// getterTable returns the protocols available to one fetch. Getters keep
// per-call state, so each fetch gets fresh instances sharing the HTTP client.
func (f *Fetcher) getterTable() map[string]getter.Getter {
	if f.getters != nil {
		return f.getters
	}

	httpGetter := &getter.HttpGetter{
		Netrc:       true,
		Client:      f.http.Client,
		ReadTimeout: f.timeout,
	}
	return map[string]getter.Getter{
		"file":  new(getter.FileGetter),
		"git":   new(getter.GitGetter),
		"gcs":   new(getter.GCSGetter),
		"hg":    new(getter.HgGetter),
		"s3":    new(getter.S3Getter),
		"http":  httpGetter,
		"https": httpGetter,
	}
}

// Fetch returns the raw bytes of the document at location
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.Mark(errors.New("empty source location"), ErrSourceNotFound)
	}

	detected, err := detect(location)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to detect source type for %s", location)
	}

	if path, ok := localPath(location, detected); ok {
		return f.readLocal(path)
	}
	return f.fetchRemote(ctx, location, detected)
}

// LocalPath returns the filesystem path for a local source.
// Returns false for remote sources.
func LocalPath(location string) (string, bool) {
	detected, err := detect(location)
	if err != nil {
		return "", false
	}
	return localPath(location, detected)
}

// IsRemote reports whether location needs a network fetch
func IsRemote(location string) bool {
	_, local := LocalPath(location)
	return !local
}

func detect(location string) (string, error) {
	expanded, err := expandHome(location)
	if err != nil {
		return "", err
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}
	return getter.Detect(expanded, pwd, getter.Detectors)
}

func localPath(location, detected string) (string, bool) {
	// Forced getters (s3::, git::, ...) are always remote
	if strings.Contains(detected, "::") {
		return "", false
	}

	u, err := url.Parse(detected)
	if err != nil {
		return "", false
	}

	switch u.Scheme {
	case "file":
		return u.Path, true
	case "":
		expanded, err := expandHome(location)
		if err != nil {
			return "", false
		}
		abs, err := filepath.Abs(expanded)
		if err != nil {
			return "", false
		}
		return abs, true
	default:
		return "", false
	}
}

func (f *Fetcher) readLocal(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Wrapf(err, "read %s", path), ErrSourceNotFound)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	f.logger.Debugw("Read local source",
		logger.FieldPath, path,
		logger.FieldSize, len(data))
	return data, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, location, detected string) ([]byte, error) {
	host := hostOf(detected)
	if err := f.wait(ctx, host); err != nil {
		return nil, errors.Wrapf(err, "rate limit wait for %s", host)
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	tempDir, err := os.MkdirTemp("", "taxon-fetch-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	dst := filepath.Join(tempDir, "document")
	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Mode:    getter.ClientModeFile,
		Getters: f.getterTable(),
	}

	l := f.logger.With(logger.FieldsFromContext(ctx)...)
	start := time.Now()
	l.Infow("Fetching remote source",
		logger.FieldSource, location,
		logger.FieldHost, host)

	if err := client.Get(); err != nil {
		wrapped := errors.Wrapf(err, "failed to fetch %s", location)
		if isNotFoundResponse(err) {
			return nil, errors.Mark(wrapped, ErrSourceNotFound)
		}
		return nil, wrapped
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, errors.Wrapf(err, "read fetched %s", location)
	}

	l.Debugw("Fetched remote source",
		logger.FieldSource, location,
		logger.FieldSize, len(data),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return data, nil
}

// wait blocks until host may be fetched again
func (f *Fetcher) wait(ctx context.Context, host string) error {
	limiter := f.limiterFor(host)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func (f *Fetcher) limiterFor(host string) *rate.Limiter {
	if f.perMinute <= 0 {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	limiter, ok := f.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(f.perMinute)/60.0), 1)
		f.limiters[host] = limiter
	}
	return limiter
}

func hostOf(detected string) string {
	if i := strings.Index(detected, "::"); i >= 0 {
		detected = detected[i+2:]
	}
	u, err := url.Parse(detected)
	if err != nil || u.Host == "" {
		return detected
	}
	return u.Host
}

// isNotFoundResponse recognises go-getter's HTTP 404 error text; the
// getter does not expose a typed status error.
func isNotFoundResponse(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "bad response code: 404") ||
		strings.Contains(msg, "NoSuchKey")
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to expand home directory")
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
