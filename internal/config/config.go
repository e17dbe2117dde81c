package config

import (
	"os"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port        string
	DBPath      string
	RemoteURL   string // base URL of the remote sync authority
	DeviceToken string // signing secret for the device JWT sent with sync requests
	DeviceID    string

	IngestBuffer int // capacity of the fix ingestion channel

	Filter    FilterConfig
	Segmenter SegmenterConfig
	Sync      SyncConfig
}

// FilterConfig holds fix filter thresholds.
type FilterConfig struct {
	AccuracyCeilingM  float64 // reject fixes less accurate than this
	JumpCeilingM      float64 // distance beyond which a jump is suspect
	MaxPlausibleSpeed float64 // m/s; jumps faster than this are teleports
	MinMovementM      float64 // increments below this are jitter, not distance
}

// SegmenterConfig holds stop detection thresholds. Kept as plain data so a
// per-dog profile can swap the whole set in.
type SegmenterConfig struct {
	MaxStopSpeedMPS  float64 // at or below this a point belongs to a stop run
	MinStopDurationS float64 // runs shorter than this are discarded
	MinPointsForStop int     // runs with fewer points are discarded
	HighJitterDeg    float64 // mean bearing change marking sniffing behavior
	WaitMaxSpeedMPS  float64 // avg speed below this suggests waiting
	WaitMinDurationS float64 // waiting also needs at least this duration
}

// SyncConfig holds sync engine tuning.
type SyncConfig struct {
	BatchSize      int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	FlushInterval  time.Duration // 0 disables the periodic trigger
}

// DefaultFilterConfig returns the stock fix filter thresholds.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		AccuracyCeilingM:  30,
		JumpCeilingM:      100,
		MaxPlausibleSpeed: 8,
		MinMovementM:      2,
	}
}

// DefaultSegmenterConfig returns the stock stop detection thresholds.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		MaxStopSpeedMPS:  0.5,
		MinStopDurationS: 3,
		MinPointsForStop: 2,
		HighJitterDeg:    30,
		WaitMaxSpeedMPS:  0.1,
		WaitMinDurationS: 10,
	}
}

// DefaultSyncConfig returns the stock sync engine tuning.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		BatchSize:      100,
		InitialBackoff: time.Second,
		MaxBackoff:     5 * time.Minute,
		FlushInterval:  0,
	}
}

// Load loads configuration from the environment.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/walks/walks.db"
	}

	remoteURL := os.Getenv("REMOTE_SYNC_URL")
	if remoteURL == "" {
		remoteURL = "http://localhost:9090"
	}

	deviceToken := os.Getenv("DEVICE_TOKEN_SECRET")
	if deviceToken == "" {
		deviceToken = "your-secret-key-change-in-production"
	}

	deviceID := os.Getenv("DEVICE_ID")
	if deviceID == "" {
		deviceID = "dev-local"
	}

	return &Config{
		Port:         port,
		DBPath:       dbPath,
		RemoteURL:    remoteURL,
		DeviceToken:  deviceToken,
		DeviceID:     deviceID,
		IngestBuffer: 64,
		Filter:       DefaultFilterConfig(),
		Segmenter:    DefaultSegmenterConfig(),
		Sync:         DefaultSyncConfig(),
	}
}
