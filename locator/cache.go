package locator

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// fileCache stores one JSON document per key. Freshness is the file mtime.
type fileCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

func (c *fileCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// load returns the cached location. Expired entries are returned only when
// ignoreTTL is set.
func (c *fileCache) load(key string, ignoreTTL bool) (*Location, bool) {
	if c.dir == "" {
		return nil, false
	}
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("file", p).Msg("Failed to stat location cache")
		}
		return nil, false
	}
	if !ignoreTTL && c.now().Sub(info.ModTime()) > c.ttl {
		log.Debug().Str("file", p).Msg("Location cache expired")
		return nil, false
	}

	b, err := os.ReadFile(p)
	if err != nil {
		log.Warn().Err(err).Str("file", p).Msg("Failed to read location cache")
		return nil, false
	}
	var loc Location
	if err := json.Unmarshal(b, &loc); err != nil {
		log.Warn().Err(err).Str("file", p).Msg("Corrupt location cache")
		return nil, false
	}
	return &loc, true
}

func (c *fileCache) save(key string, loc Location) {
	if c.dir == "" {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", c.dir).Msg("Failed to create cache directory")
		return
	}
	b, err := json.MarshalIndent(loc, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to encode location cache")
		return
	}
	p := c.path(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		log.Warn().Err(err).Str("file", tmp).Msg("Failed to write location cache")
		return
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		log.Warn().Err(err).Str("file", p).Msg("Failed to replace location cache")
		return
	}
	log.Debug().Str("file", p).Msg("Saved location cache")
}
