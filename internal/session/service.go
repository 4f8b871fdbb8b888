package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/clipdeck/clipdeck-agent/internal/media"
)

// Service binds files into slots and guards the session's invariants: size
// and type limits checked before anything is touched, and at most one live
// stream token per slot, with the prior one revoked on every rebind.
type Service struct {
	repo      Repository
	ffmpeg    media.FFmpeg
	assetsDir string
	logger    *slog.Logger
}

func NewService(repo Repository, ffmpeg media.FFmpeg, assetsDir string, logger *slog.Logger) *Service {
	return &Service{repo: repo, ffmpeg: ffmpeg, assetsDir: assetsDir, logger: logger}
}

// Bind stores a newly selected file into a slot and mints its stream token.
// A failed bind leaves the previously bound asset untouched.
func (s *Service) Bind(ctx context.Context, slot Slot, displayName, mimeType string, declaredSize int64, r io.Reader) (*MediaAsset, error) {
	limit, ok := slotLimits[slot]
	if !ok {
		return nil, ErrUnknownSlot
	}
	if !TypeAllowed(slot, mimeType) {
		return nil, fmt.Errorf("%w: %s for slot %s", ErrUnsupportedType, mimeType, slot)
	}
	if declaredSize > limit {
		return nil, fmt.Errorf("%w: %d bytes over the %d byte limit", ErrOversizedFile, declaredSize, limit)
	}

	path := filepath.Join(s.assetsDir, NewID()+extensionFor(mimeType))
	size, err := s.store(path, r, limit)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	asset := &MediaAsset{
		ID:          NewID(),
		Slot:        slot,
		DisplayName: displayName,
		MimeType:    mimeType,
		Size:        size,
		Path:        path,
		StreamToken: NewID(),
		CreatedAt:   time.Now(),
	}

	// Probe failures degrade to an asset with unknown properties; binding
	// itself never depends on the toolchain.
	if slot == SlotVideo || slot == SlotAudio {
		if probe, err := s.ffmpeg.Probe(ctx, path); err == nil {
			asset.Duration = probe.Duration
			asset.Width = probe.Width
			asset.Height = probe.Height
			asset.HasAudio = probe.HasAudio
			if slot == SlotAudio {
				asset.HasAudio = true
			}
		} else {
			s.logger.Warn("probe failed, binding without media properties", "slot", slot, "error", err)
		}
	}

	prior, err := s.repo.GetAssetBySlot(ctx, slot)
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	if err := s.repo.UpsertAsset(ctx, asset); err != nil {
		os.Remove(path)
		return nil, err
	}

	// The upsert replaced the row, so the prior token is already dead;
	// dropping the bytes finishes the revocation.
	if prior != nil {
		os.Remove(prior.Path)
	}

	s.logger.Info("asset bound",
		"slot", slot,
		"asset_id", asset.ID,
		"name", displayName,
		"size", size,
		"duration_s", asset.Duration,
	)
	return asset, nil
}

// Clear unbinds a slot, revoking its stream token and removing its bytes.
// Clearing an empty slot is a no-op.
func (s *Service) Clear(ctx context.Context, slot Slot) error {
	if _, ok := slotLimits[slot]; !ok {
		return ErrUnknownSlot
	}

	asset, err := s.repo.GetAssetBySlot(ctx, slot)
	if err != nil {
		return err
	}
	if asset == nil {
		return nil
	}

	if err := s.repo.DeleteAssetBySlot(ctx, slot); err != nil {
		return err
	}
	os.Remove(asset.Path)

	s.logger.Info("asset cleared", "slot", slot, "asset_id", asset.ID)
	return nil
}

// Asset returns the bound asset for a slot, or nil.
func (s *Service) Asset(ctx context.Context, slot Slot) (*MediaAsset, error) {
	return s.repo.GetAssetBySlot(ctx, slot)
}

// Assets returns every bound asset.
func (s *Service) Assets(ctx context.Context) ([]*MediaAsset, error) {
	return s.repo.ListAssets(ctx)
}

// AssetByToken resolves a slot's asset only when the presented stream token
// is the live one. Revoked tokens behave like an unbound slot.
func (s *Service) AssetByToken(ctx context.Context, slot Slot, token string) (*MediaAsset, error) {
	asset, err := s.repo.GetAssetBySlot(ctx, slot)
	if err != nil {
		return nil, err
	}
	if asset == nil || token == "" || asset.StreamToken != token {
		return nil, nil
	}
	return asset, nil
}

// Recordings exposes the recording history store.
func (s *Service) Recordings() Repository {
	return s.repo
}

// Close releases every bound asset's bytes. Tokens die with the in-memory
// database.
func (s *Service) Close(ctx context.Context) {
	assets, err := s.repo.ListAssets(ctx)
	if err != nil {
		return
	}
	for _, a := range assets {
		os.Remove(a.Path)
	}
}

// store copies the upload to disk, enforcing the byte limit on the actual
// stream rather than trusting the declared size.
func (s *Service) store(path string, r io.Reader, limit int64) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to store asset: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		return 0, fmt.Errorf("failed to store asset: %w", err)
	}
	if n > limit {
		return 0, fmt.Errorf("%w: stream exceeds the %d byte limit", ErrOversizedFile, limit)
	}
	return n, nil
}

// extensionFor picks a storage extension from the declared type so external
// tools recognize the file.
func extensionFor(mimeType string) string {
	switch mimeType {
	case "video/quicktime":
		return ".mov"
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
