package api

import (
	"time"

	"github.com/clipdeck/clipdeck-agent/internal/player"
	"github.com/clipdeck/clipdeck-agent/internal/session"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type SessionResponse struct {
	Assets    []AssetResponse  `json:"assets"`
	Filter    string           `json:"filter"`
	Rate      float64          `json:"rate"`
	Transport player.Status    `json:"transport"`
	Recorder  RecorderResponse `json:"recorder"`
}

type AssetResponse struct {
	ID          string  `json:"id"`
	Slot        string  `json:"slot"`
	DisplayName string  `json:"display_name"`
	MimeType    string  `json:"mime_type"`
	Size        int64   `json:"size"`
	StreamURL   string  `json:"stream_url"`
	DurationS   float64 `json:"duration_s"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	HasAudio    bool    `json:"has_audio"`
	CreatedAt   string  `json:"created_at"`
}

type FilterResponse struct {
	Name string `json:"name"`
	CSS  string `json:"css"`
}

type FiltersResponse struct {
	Filters []FilterResponse `json:"filters"`
}

type SetFilterRequest struct {
	Filter string `json:"filter"`
}

type SetFilterResponse struct {
	Filter string `json:"filter"`
}

type SetRateRequest struct {
	Rate float64 `json:"rate"`
}

type SetRateResponse struct {
	Rate float64 `json:"rate"`
}

type SeekRequest struct {
	PositionS float64 `json:"position_s"`
}

type RecorderResponse struct {
	State  string             `json:"state"`
	Latest *RecordingResponse `json:"latest,omitempty"`
}

type RecordingResponse struct {
	ID         string  `json:"id"`
	Status     string  `json:"status"`
	Filter     string  `json:"filter"`
	Rate       float64 `json:"rate"`
	OutputName string  `json:"output_name,omitempty"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type PromptResponse struct {
	Prompt string `json:"prompt"`
}

type GenerateImageRequest struct {
	Prompt string `json:"prompt"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func AssetToResponse(a *session.MediaAsset) AssetResponse {
	return AssetResponse{
		ID:          a.ID,
		Slot:        string(a.Slot),
		DisplayName: a.DisplayName,
		MimeType:    a.MimeType,
		Size:        a.Size,
		StreamURL:   "/session/assets/" + string(a.Slot) + "/stream?token=" + a.StreamToken,
		DurationS:   a.Duration,
		Width:       a.Width,
		Height:      a.Height,
		HasAudio:    a.HasAudio,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
}

func RecordingToResponse(rec *session.Recording) RecordingResponse {
	return RecordingResponse{
		ID:         rec.ID,
		Status:     rec.Status,
		Filter:     rec.Filter,
		Rate:       rec.Rate,
		OutputName: rec.OutputName,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  rec.UpdatedAt.Format(time.RFC3339),
	}
}
