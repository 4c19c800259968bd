package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/utils"
)

// StateFileName is the timestamp file kept next to the data directory.
const StateFileName = ".last_download"

// Manager downloads and extracts the static dataset.
type Manager struct {
	url        string
	dataDir    string
	stateFile  string
	interval   time.Duration
	timeout    time.Duration
	maxDataAge time.Duration
	client     *http.Client
	now        func() time.Time

	mu sync.Mutex
}

// Option customizes a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for archive downloads.
func WithHTTPClient(c *http.Client) Option { return func(m *Manager) { m.client = c } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithStateFile overrides the location of the last-download timestamp.
func WithStateFile(path string) Option { return func(m *Manager) { m.stateFile = path } }

// WithTimeout bounds a single download.
func WithTimeout(d time.Duration) Option { return func(m *Manager) { m.timeout = d } }

// WithMaxDataAge sets the age after which data is reported stale.
func WithMaxDataAge(d time.Duration) Option { return func(m *Manager) { m.maxDataAge = d } }

// NewManager creates a manager extracting url into dataDir at most once per
// interval. The timestamp file defaults to the parent of dataDir.
func NewManager(url, dataDir string, interval time.Duration, opts ...Option) *Manager {
	m := &Manager{
		url:        url,
		dataDir:    filepath.Clean(dataDir),
		interval:   interval,
		timeout:    60 * time.Second,
		maxDataAge: 7 * 24 * time.Hour,
		client:     &http.Client{},
		now:        time.Now,
	}
	m.stateFile = filepath.Join(filepath.Dir(m.dataDir), StateFileName)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerFromConfig builds a manager from the gtfs config section.
func NewManagerFromConfig(cfg config.GTFSConfig, opts ...Option) *Manager {
	base := []Option{WithTimeout(cfg.DownloadTimeout)}
	if cfg.MaxDataAge > 0 {
		base = append(base, WithMaxDataAge(cfg.MaxDataAge))
	}
	return NewManager(cfg.StaticURL, cfg.DataDir, cfg.DownloadInterval, append(base, opts...)...)
}

func (m *Manager) DataDir() string { return m.dataDir }

// LastDownload reads the persisted timestamp. An unreadable file counts as
// never downloaded.
func (m *Manager) LastDownload() (time.Time, bool) {
	b, err := os.ReadFile(m.stateFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", m.stateFile).Msg("Could not read download timestamp")
		}
		return time.Time{}, false
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		log.Warn().Err(err).Str("file", m.stateFile).Msg("Malformed download timestamp")
		return time.Time{}, false
	}
	return utils.FloatToTime(sec), true
}

// ShouldDownload reports whether a non-forced refresh would be allowed now.
func (m *Manager) ShouldDownload() bool {
	last, ok := m.LastDownload()
	if !ok {
		return true
	}
	return m.now().Sub(last) >= m.interval
}

// TimeUntilNextDownload returns nil if no download ever happened, otherwise
// the remaining cool-down, never negative.
func (m *Manager) TimeUntilNextDownload() *time.Duration {
	last, ok := m.LastDownload()
	if !ok {
		return nil
	}
	remaining := m.interval - m.now().Sub(last)
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// DownloadAndExtract refreshes the dataset. Without force it fails with
// *RateLimitedError inside the cool-down window. On any failure the previous
// dataset and timestamp are left untouched.
func (m *Manager) DownloadAndExtract(ctx context.Context, force bool) error {
	if !m.mu.TryLock() {
		return ErrInProgress
	}
	defer m.mu.Unlock()

	if !force && !m.ShouldDownload() {
		var remaining time.Duration
		if r := m.TimeUntilNextDownload(); r != nil {
			remaining = *r
		}
		return &RateLimitedError{Remaining: remaining}
	}

	parent := filepath.Dir(m.dataDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating data parent directory: %w", err)
	}

	start := m.now()
	log.Info().Str("url", m.url).Bool("force", force).Msg("Downloading GTFS static data")

	archive, size, err := m.fetch(ctx, parent)
	if err != nil {
		log.Error().Err(err).Str("url", m.url).Msg("GTFS download failed")
		return err
	}
	defer func() { _ = os.Remove(archive) }()

	staging, err := os.MkdirTemp(parent, ".gtfs_staging_*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	files, err := extractZip(archive, staging)
	if err != nil {
		log.Error().Err(err).Str("url", m.url).Msg("GTFS extraction failed")
		return err
	}

	if err := m.swap(staging); err != nil {
		return err
	}
	if err := m.writeTimestamp(m.now()); err != nil {
		// the new data is in place; only the rate limit state is lost
		log.Error().Err(err).Str("file", m.stateFile).Msg("Could not write download timestamp")
		return err
	}

	log.Info().
		Str("dir", m.dataDir).
		Int64("bytes", size).
		Int("files", files).
		Dur("duration", m.now().Sub(start)).
		Msg("GTFS static data updated")
	return nil
}

// fetch writes the archive to a temp file under dir and returns its path.
func (m *Manager) fetch(ctx context.Context, dir string) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("creating request: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".gtfs_download_*.zip")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("downloading file: %w", err)
	}
	return tmp.Name(), written, nil
}

// swap moves staging into place of the data directory. If the final rename
// fails the old directory is restored.
func (m *Manager) swap(staging string) error {
	var old string
	if _, err := os.Stat(m.dataDir); err == nil {
		old = fmt.Sprintf("%s.old-%d", m.dataDir, m.now().UnixNano())
		if err := os.Rename(m.dataDir, old); err != nil {
			return fmt.Errorf("moving previous dataset aside: %w", err)
		}
	}
	if err := os.Rename(staging, m.dataDir); err != nil {
		if old != "" {
			_ = os.Rename(old, m.dataDir)
		}
		return fmt.Errorf("installing new dataset: %w", err)
	}
	if old != "" {
		if err := os.RemoveAll(old); err != nil {
			log.Warn().Err(err).Str("dir", old).Msg("Could not remove previous dataset")
		}
	}
	return nil
}

func (m *Manager) writeTimestamp(t time.Time) error {
	tmp := m.stateFile + ".tmp"
	val := strconv.FormatFloat(utils.UnixSecondsToFloat(t), 'f', -1, 64)
	if err := os.WriteFile(tmp, []byte(val), 0o644); err != nil {
		return fmt.Errorf("writing timestamp: %w", err)
	}
	if err := os.Rename(tmp, m.stateFile); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing timestamp: %w", err)
	}
	return nil
}

// DownloadInfo summarizes the dataset state for status endpoints.
type DownloadInfo struct {
	URL                 string     `json:"gtfs_url"`
	DataDir             string     `json:"output_dir"`
	IntervalHours       float64    `json:"min_download_interval_hours"`
	CanDownloadNow      bool       `json:"can_download_now"`
	LastDownload        *time.Time `json:"last_download"`
	NextAllowed         *time.Time `json:"next_download_allowed,omitempty"`
	NextDownloadInHours *float64   `json:"next_download_allowed_in_hours,omitempty"`
	DataAgeHours        *float64   `json:"data_age_hours,omitempty"`
	Stale               bool       `json:"stale"`
	Files               []string   `json:"files"`
}

// Info reports the dataset state. Data is stale when it is older than the
// maximum data age or was never downloaded.
func (m *Manager) Info() DownloadInfo {
	info := DownloadInfo{
		URL:            m.url,
		DataDir:        m.dataDir,
		IntervalHours:  m.interval.Hours(),
		CanDownloadNow: m.ShouldDownload(),
		Stale:          true,
		Files:          m.files(),
	}
	last, ok := m.LastDownload()
	if !ok {
		return info
	}

	info.LastDownload = &last
	next := last.Add(m.interval)
	info.NextAllowed = &next
	if r := m.TimeUntilNextDownload(); r != nil && *r > 0 {
		h := round2(r.Hours())
		info.NextDownloadInHours = &h
	}
	age := m.now().Sub(last)
	ageHours := round2(age.Hours())
	info.DataAgeHours = &ageHours
	info.Stale = age > m.maxDataAge
	return info
}

func (m *Manager) files() []string {
	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		return []string{}
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
