package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mzyy94/dynatab/internal/dyna"
	"github.com/mzyy94/dynatab/internal/render"
)

// Settings holds user-configurable decode and preview defaults.
type Settings struct {
	GridWidth      int    `json:"gridWidth"`
	GridHeight     int    `json:"gridHeight"`
	ChunkPixels    int    `json:"chunkPixels"`  // pixels per data packet when encoding
	ReportSize     int    `json:"reportSize"`   // HID report length, 0 = no padding
	Scale          int    `json:"scale"`        // preview upscaling factor
	FrameDelayMS   int    `json:"frameDelayMs"` // GIF frame delay
	RequirePolling bool   `json:"requirePolling"`
	ListenPort     int    `json:"listenPort"`
	MDNSName       string `json:"mdnsName"`
}

// DefaultSettings returns the default settings for a 60x9 display.
func DefaultSettings() Settings {
	return Settings{
		GridWidth:    dyna.DisplayWidth,
		GridHeight:   dyna.DisplayHeight,
		ChunkPixels:  dyna.DefaultChunkPixels,
		ReportSize:   dyna.ReportSize,
		Scale:        8,
		FrameDelayMS: 250,
		ListenPort:   8080,
		MDNSName:     "dynatab",
	}
}

// FrameDelay returns FrameDelayMS as a duration.
func (s Settings) FrameDelay() time.Duration {
	return time.Duration(s.FrameDelayMS) * time.Millisecond
}

// Validate checks ranges the encoder and renderer depend on.
func (s Settings) Validate() error {
	switch {
	case s.GridWidth < 1 || s.GridWidth > 255 || s.GridHeight < 1 || s.GridHeight > 255:
		return fmt.Errorf("grid %dx%d out of range 1..255", s.GridWidth, s.GridHeight)
	case s.ChunkPixels < 1:
		return fmt.Errorf("chunkPixels %d must be positive", s.ChunkPixels)
	case s.ReportSize != 0 && s.ReportSize < dyna.ChunkHeaderSize+s.ChunkPixels*dyna.BytesPerPixel:
		return fmt.Errorf("reportSize %d cannot hold %d pixels", s.ReportSize, s.ChunkPixels)
	case s.Scale < 1 || s.Scale > render.MaxScale:
		return fmt.Errorf("scale %d out of range 1..%d", s.Scale, render.MaxScale)
	case s.FrameDelayMS < 0:
		return fmt.Errorf("frameDelayMs %d is negative", s.FrameDelayMS)
	case s.ListenPort < 0 || s.ListenPort > 65535:
		return fmt.Errorf("listenPort %d out of range", s.ListenPort)
	}
	return nil
}

// Store provides thread-safe settings persistence backed by a JSON file.
type Store struct {
	mu       sync.RWMutex
	settings Settings
	path     string
}

// NewStore creates a Store that persists settings to dataDir/settings.json.
// If the file does not exist or is invalid, default settings are used.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	s := &Store{
		path:     filepath.Join(dataDir, "settings.json"),
		settings: DefaultSettings(),
	}
	s.load()
	return s, nil
}

// NewMemoryStore creates a Store that keeps settings in memory only (no file persistence).
func NewMemoryStore() *Store {
	return &Store{settings: DefaultSettings()}
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update validates and replaces the settings and persists to disk.
func (s *Store) Update(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return s.save()
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return // file missing is OK, use defaults
	}
	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Warn("invalid settings file, using defaults", "path", s.path, "err", err)
		return
	}
	if err := settings.Validate(); err != nil {
		slog.Warn("settings out of range, using defaults", "path", s.path, "err", err)
		return
	}
	s.settings = settings
}

func (s *Store) save() error {
	if s.path == "" {
		return nil // memory-only mode
	}
	data, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
