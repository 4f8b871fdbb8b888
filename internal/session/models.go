// Package session owns the editing session: the media assets bound into its
// three slots, the single-live-URL guarantee per slot, and the recording
// history. State lives in an in-memory SQLite database and asset bytes live
// under the session's assets directory; both are gone when the agent exits.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Slot identifies one media binding point.
type Slot string

const (
	SlotImage Slot = "image"
	SlotVideo Slot = "video"
	SlotAudio Slot = "audio"
)

// Per-slot byte limits, enforced before binding.
const (
	MaxImageBytes = 4 * 1024 * 1024
	MaxVideoBytes = 50 * 1024 * 1024
	MaxAudioBytes = 10 * 1024 * 1024
)

var (
	ErrOversizedFile   = errors.New("file exceeds the slot's size limit")
	ErrUnsupportedType = errors.New("file type not allowed for this slot")
	ErrUnknownSlot     = errors.New("unknown media slot")
	ErrNotFound        = errors.New("not found")
)

// slotTypes is the per-slot MIME allow-list.
var slotTypes = map[Slot][]string{
	SlotImage: {"image/png", "image/jpeg", "image/webp"},
	SlotVideo: {"video/mp4", "video/webm", "video/quicktime"},
	SlotAudio: {"audio/mpeg", "audio/wav", "audio/ogg"},
}

// slotLimits maps each slot to its byte budget.
var slotLimits = map[Slot]int64{
	SlotImage: MaxImageBytes,
	SlotVideo: MaxVideoBytes,
	SlotAudio: MaxAudioBytes,
}

// ParseSlot validates a slot name from the wire.
func ParseSlot(s string) (Slot, error) {
	switch Slot(s) {
	case SlotImage, SlotVideo, SlotAudio:
		return Slot(s), nil
	}
	return "", ErrUnknownSlot
}

// TypeAllowed reports whether a declared MIME type passes the slot's
// allow-list. Content sniffing is deliberately not attempted.
func TypeAllowed(slot Slot, mimeType string) bool {
	for _, t := range slotTypes[slot] {
		if t == mimeType {
			return true
		}
	}
	return false
}

// Limit returns the byte budget for a slot.
func Limit(slot Slot) int64 {
	return slotLimits[slot]
}

// MediaAsset is one user-supplied file bound into the session.
type MediaAsset struct {
	ID          string    `json:"id"`
	Slot        Slot      `json:"slot"`
	DisplayName string    `json:"display_name"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	Path        string    `json:"-"`
	StreamToken string    `json:"stream_token"`
	Duration    float64   `json:"duration_s"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	HasAudio    bool      `json:"has_audio"`
	CreatedAt   time.Time `json:"created_at"`
}

// Recording state names, stored with each recording row.
const (
	RecordingStatusRunning   = "running"
	RecordingStatusCompleted = "completed"
	RecordingStatusAborted   = "aborted"
)

// Recording is one export attempt of the composite recorder.
type Recording struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	AssetID    string    `json:"asset_id"`
	Filter     string    `json:"filter"`
	Rate       float64   `json:"rate"`
	OutputPath string    `json:"-"`
	OutputName string    `json:"output_name,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewID returns a fresh RFC 4122 identifier.
func NewID() string {
	return uuid.NewString()
}
