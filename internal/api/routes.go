package api

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipdeck/clipdeck-agent/internal/filter"
	"github.com/clipdeck/clipdeck-agent/internal/session"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	// Stream requests authenticate with the per-asset token instead of the
	// bearer token, so media elements can use plain URLs.
	r.Get("/session/assets/{slot}/stream", streamHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/session", sessionHandler(cfg))
		r.Post("/session/assets/{slot}", bindAssetHandler(cfg))
		r.Delete("/session/assets/{slot}", clearAssetHandler(cfg))

		r.Get("/session/filters", listFiltersHandler(cfg))
		r.Post("/session/filter", setFilterHandler(cfg))
		r.Post("/session/filter/recommend", recommendFilterHandler(cfg))
		r.Post("/session/rate", setRateHandler(cfg))
		r.Post("/session/transport/{action}", transportHandler(cfg))

		r.Post("/session/recorder/start", startRecorderHandler(cfg))
		r.Post("/session/recorder/stop", stopRecorderHandler(cfg))
		r.Get("/session/recorder", recorderStatusHandler(cfg))
		r.Get("/session/export", exportHandler(cfg))

		r.Post("/ai/prompt-from-image", promptFromImageHandler(cfg))
		r.Post("/ai/audio-prompt", audioPromptHandler(cfg))
		r.Post("/ai/video-details", videoDetailsHandler(cfg))
		r.Post("/ai/generate-image", generateImageHandler(cfg))
		r.Post("/ai/generate-video", generateVideoHandler(cfg))
		r.Post("/ai/speaking-video", speakingVideoHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func sessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		assets, err := cfg.Sessions.Assets(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := SessionResponse{
			Assets:    make([]AssetResponse, len(assets)),
			Filter:    string(cfg.Sessions.Filter(ctx)),
			Rate:      cfg.Sessions.Rate(ctx),
			Transport: cfg.Player.Status(),
			Recorder:  recorderResponse(cfg, r),
		}
		for i, a := range assets {
			resp.Assets[i] = AssetToResponse(a)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func bindAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := session.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "multipart field 'file' is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		asset, err := cfg.Sessions.Bind(r.Context(), slot, header.Filename, mimeType, header.Size, file)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// A fresh binding replaces the slot's preview element; the
		// synchronizer re-locks automatically when both are live.
		switch slot {
		case session.SlotVideo:
			cfg.Player.BindVideo(asset.Duration)
		case session.SlotAudio:
			cfg.Player.BindAudio(asset.Duration)
		}

		WriteJSON(w, http.StatusCreated, AssetToResponse(asset))
	}
}

func clearAssetHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := session.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if err := cfg.Sessions.Clear(r.Context(), slot); err != nil {
			writeDomainError(w, err)
			return
		}

		switch slot {
		case session.SlotVideo:
			cfg.Player.ClearVideo()
		case session.SlotAudio:
			cfg.Player.ClearAudio()
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func streamHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slot, err := session.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		asset, err := cfg.Sessions.AssetByToken(r.Context(), slot, r.URL.Query().Get("token"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if asset == nil {
			// Revoked tokens are indistinguishable from unknown ones.
			WriteError(w, http.StatusNotFound, "no asset for this token", "NOT_FOUND")
			return
		}

		if err := cfg.Stream.ServeFile(w, r, asset.Path, asset.MimeType); err != nil {
			cfg.Logger.Error("stream error", "error", err, "slot", slot)
		}
	}
}

func listFiltersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := filter.Entries()
		resp := FiltersResponse{Filters: make([]FilterResponse, len(entries))}
		for i, e := range entries {
			resp.Filters[i] = FilterResponse{Name: string(e.Name), CSS: e.CSS}
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func setFilterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetFilterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sel, err := filter.Parse(req.Filter)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		if err := cfg.Sessions.SetFilter(r.Context(), sel); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SetFilterResponse{Filter: string(sel)})
	}
}

func recommendFilterHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		asset, err := cfg.Sessions.Asset(ctx, session.SlotVideo)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if asset == nil {
			WriteError(w, http.StatusBadRequest, "no video is bound to judge", "MISSING_INPUT")
			return
		}

		data, err := os.ReadFile(asset.Path)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		entries := filter.Entries()
		choices := make([]string, len(entries))
		for i, e := range entries {
			choices[i] = string(e.Name)
		}

		name, err := cfg.AI.RecommendFilter(ctx, data, asset.MimeType, choices)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// An answer outside the registry never touches the selection.
		sel, err := filter.Parse(name)
		if err != nil {
			WriteError(w, http.StatusBadGateway, "collaborator recommended an unknown filter", "COLLABORATOR_UNAVAILABLE")
			return
		}

		if err := cfg.Sessions.SetFilter(ctx, sel); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SetFilterResponse{Filter: string(sel)})
	}
}

func setRateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SetRateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if err := cfg.Sessions.SetRate(r.Context(), req.Rate); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := cfg.Player.SetRate(req.Rate); err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, SetRateResponse{Rate: req.Rate})
	}
}

func transportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		switch chi.URLParam(r, "action") {
		case "play":
			ok = cfg.Player.Play()
		case "pause":
			ok = cfg.Player.Pause()
		case "seek":
			var req SeekRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
			ok = cfg.Player.Seek(req.PositionS)
		default:
			WriteError(w, http.StatusBadRequest, "unknown transport action", "BAD_REQUEST")
			return
		}

		if !ok {
			WriteError(w, http.StatusBadRequest, "no video is bound", "MISSING_INPUT")
			return
		}
		WriteJSON(w, http.StatusOK, cfg.Player.Status())
	}
}

func startRecorderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := cfg.Recorder.Start(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := RecordingToResponse(rec)
		WriteJSON(w, http.StatusAccepted, resp)
	}
}

func stopRecorderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := cfg.Recorder.Stop()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, RecordingToResponse(rec))
	}
}

func recorderStatusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, recorderResponse(cfg, r))
	}
}

func recorderResponse(cfg ServerConfig, r *http.Request) RecorderResponse {
	resp := RecorderResponse{State: string(cfg.Recorder.State())}
	if latest, err := cfg.Recorder.Latest(r.Context()); err == nil && latest != nil {
		rec := RecordingToResponse(latest)
		resp.Latest = &rec
	}
	return resp
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, err := cfg.Recorder.Latest(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if latest == nil || latest.Status != session.RecordingStatusCompleted {
			WriteError(w, http.StatusNotFound, "no completed export", "NOT_FOUND")
			return
		}

		w.Header().Set("Content-Disposition", `attachment; filename="`+latest.OutputName+`"`)
		if err := cfg.Stream.ServeFile(w, r, latest.OutputPath, "video/x-msvideo"); err != nil {
			cfg.Logger.Error("export stream error", "error", err, "recording_id", latest.ID)
		}
	}
}

// readUpload pulls one multipart media file into memory for a collaborator
// call, enforcing the given byte limit.
func readUpload(r *http.Request, limit int64) ([]byte, string, bool) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", false
	}
	defer file.Close()

	if header.Size > limit {
		return nil, "", false
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil || int64(len(data)) > limit {
		return nil, "", false
	}
	return data, header.Header.Get("Content-Type"), true
}

func promptFromImageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, mimeType, ok := readUpload(r, session.MaxImageBytes)
		if !ok {
			WriteError(w, http.StatusBadRequest, "an image file is required", "MISSING_INPUT")
			return
		}

		prompt, err := cfg.AI.GeneratePromptFromImage(r.Context(), data, mimeType)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, PromptResponse{Prompt: prompt})
	}
}

func audioPromptHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, mimeType, ok := readUpload(r, session.MaxVideoBytes)
		if !ok {
			WriteError(w, http.StatusBadRequest, "a video file is required", "MISSING_INPUT")
			return
		}

		prompt, err := cfg.AI.GenerateAudioPromptFromVideo(r.Context(), data, mimeType)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, PromptResponse{Prompt: prompt})
	}
}

func videoDetailsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, mimeType, ok := readUpload(r, session.MaxVideoBytes)
		if !ok {
			WriteError(w, http.StatusBadRequest, "a video file is required", "MISSING_INPUT")
			return
		}

		details, err := cfg.AI.GenerateVideoDetails(r.Context(), data, mimeType)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, details)
	}
}

func generateImageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateImageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
			WriteError(w, http.StatusBadRequest, "prompt is required", "BAD_REQUEST")
			return
		}

		data, err := cfg.AI.GenerateImage(r.Context(), req.Prompt)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}

func generateVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prompt := r.FormValue("prompt")
		if prompt == "" {
			WriteError(w, http.StatusBadRequest, "prompt is required", "BAD_REQUEST")
			return
		}

		// The still frame seed is optional.
		data, mimeType, _ := readUpload(r, session.MaxImageBytes)

		video, err := cfg.AI.GenerateVideo(r.Context(), prompt, data, mimeType)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		w.Write(video)
	}
}

func speakingVideoHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		script := r.FormValue("script")
		data, mimeType, ok := readUpload(r, session.MaxImageBytes)
		if script == "" || !ok {
			WriteError(w, http.StatusBadRequest, "an image file and a script are required", "MISSING_INPUT")
			return
		}

		video, err := cfg.AI.GenerateSpeakingVideo(r.Context(), data, mimeType, script)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(http.StatusOK)
		w.Write(video)
	}
}
