package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
)

const (
	staticPrefix = "/static/"
	// fingerprintLen is the number of hex characters kept from each digest.
	fingerprintLen = 10
)

// AssetResolver maps logical asset names (css/app.css) to cache-busting URLs
// carrying a content fingerprint (/static/css/app.css?v=3f2a9c01de).
type AssetResolver struct {
	mu           sync.RWMutex
	fsys         fs.FS
	fingerprints map[string]string
	logger       *slog.Logger
}

// NewAssetResolverFromFS fingerprints every file in fsys. fsys is rooted at the
// static directory, so logical names are paths relative to it.
func NewAssetResolverFromFS(fsys fs.FS) (*AssetResolver, error) {
	if fsys == nil {
		return nil, errors.New("asset filesystem is required")
	}
	resolver := &AssetResolver{
		fsys:         fsys,
		fingerprints: make(map[string]string),
		logger:       slog.Default(),
	}
	return resolver, resolver.Reload()
}

// Reload recomputes every fingerprint.
func (ar *AssetResolver) Reload() error {
	fingerprints := make(map[string]string)
	err := fs.WalkDir(ar.fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		sum, err := fingerprint(ar.fsys, path)
		if err != nil {
			return err
		}
		fingerprints[path] = sum
		return nil
	})
	if err != nil {
		return err
	}

	ar.mu.Lock()
	ar.fingerprints = fingerprints
	ar.mu.Unlock()
	return nil
}

// Resolve returns the URL for a logical asset name. Unknown names resolve to
// their plain static path.
func (ar *AssetResolver) Resolve(logicalName string) string {
	logicalName = strings.TrimPrefix(logicalName, "/")
	path := staticPrefix + logicalName
	if ar == nil {
		return path
	}

	ar.mu.RLock()
	sum, ok := ar.fingerprints[logicalName]
	ar.mu.RUnlock()
	if !ok {
		return path
	}
	return path + "?v=" + sum
}

// Len reports how many assets were fingerprinted.
func (ar *AssetResolver) Len() int {
	if ar == nil {
		return 0
	}
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	return len(ar.fingerprints)
}

// ResolveAsset resolves a logical asset name. In dev mode files change under
// the running server, so fingerprints are recomputed before resolving.
func ResolveAsset(resolver *AssetResolver, logicalName string, devMode bool) string {
	if resolver == nil {
		return staticPrefix + strings.TrimPrefix(logicalName, "/")
	}
	if devMode {
		if err := resolver.Reload(); err != nil {
			resolver.loggerOrDefault().Error("failed to reload asset fingerprints",
				slog.String("logical_asset", logicalName),
				slog.Any("error", err),
			)
		}
	}
	return resolver.Resolve(logicalName)
}

// SetLogger updates the resolver's logger. If logger is nil, slog.Default() is used.
func (ar *AssetResolver) SetLogger(logger *slog.Logger) {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	if logger == nil {
		ar.logger = slog.Default()
		return
	}
	ar.logger = logger
}

func (ar *AssetResolver) loggerOrDefault() *slog.Logger {
	if ar == nil {
		return slog.Default()
	}
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	if ar.logger != nil {
		return ar.logger
	}
	return slog.Default()
}

func fingerprint(fsys fs.FS, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLen], nil
}
