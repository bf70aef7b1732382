package domain

import "time"

// SyncState reports how far event ingestion lags behind wall time.
type SyncState string

const (
	SyncUnknown  SyncState = "unknown"
	SyncSynced   SyncState = "synced"
	SyncUnsynced SyncState = "unsynced"
)

// PlaybackState is a snapshot of the playback owner's position and the
// engine's synchronization health. The sync core only reads CurrentTime;
// seeks may move it backwards at any point.
type PlaybackState struct {
	FileID      string    `json:"file_id,omitempty"`
	CurrentTime float64   `json:"current_time"`
	Duration    float64   `json:"duration"`
	Playing     bool      `json:"is_playing"`
	Paused      bool      `json:"is_paused"`
	Seeking     bool      `json:"is_seeking"`
	SyncState   SyncState `json:"sync_status"`
	SyncOffset  float64   `json:"sync_offset"`
	LastSyncAt  time.Time `json:"last_sync_at,omitzero"`
}
