package session

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	UpsertAsset(ctx context.Context, asset *MediaAsset) error
	GetAssetBySlot(ctx context.Context, slot Slot) (*MediaAsset, error)
	ListAssets(ctx context.Context) ([]*MediaAsset, error)
	DeleteAssetBySlot(ctx context.Context, slot Slot) error

	CreateRecording(ctx context.Context, rec *Recording) error
	GetRecording(ctx context.Context, id string) (*Recording, error)
	LatestRecording(ctx context.Context) (*Recording, error)
	ListRecordings(ctx context.Context, limit int) ([]*Recording, error)
	UpdateRecording(ctx context.Context, rec *Recording) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) UpsertAsset(ctx context.Context, a *MediaAsset) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO assets (id, slot, display_name, mime_type, size, path, stream_token, duration_s, width, height, has_audio, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			display_name = excluded.display_name,
			mime_type = excluded.mime_type,
			size = excluded.size,
			path = excluded.path,
			stream_token = excluded.stream_token,
			duration_s = excluded.duration_s,
			width = excluded.width,
			height = excluded.height,
			has_audio = excluded.has_audio,
			created_at = excluded.created_at
	`, a.ID, string(a.Slot), a.DisplayName, a.MimeType, a.Size, a.Path, a.StreamToken,
		a.Duration, a.Width, a.Height, boolToInt(a.HasAudio), a.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (r *SQLiteRepository) GetAssetBySlot(ctx context.Context, slot Slot) (*MediaAsset, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slot, display_name, mime_type, size, path, stream_token, duration_s, width, height, has_audio, created_at
		FROM assets WHERE slot = ?
	`, string(slot))
	return scanAsset(row)
}

func (r *SQLiteRepository) ListAssets(ctx context.Context) ([]*MediaAsset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, slot, display_name, mime_type, size, path, stream_token, duration_s, width, height, has_audio, created_at
		FROM assets ORDER BY slot
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []*MediaAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *SQLiteRepository) DeleteAssetBySlot(ctx context.Context, slot Slot) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE slot = ?`, string(slot))
	return err
}

func (r *SQLiteRepository) CreateRecording(ctx context.Context, rec *Recording) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recordings (id, status, asset_id, filter, rate, output_path, output_name, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Status, rec.AssetID, rec.Filter, rec.Rate, rec.OutputPath, rec.OutputName,
		rec.Error, rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (r *SQLiteRepository) GetRecording(ctx context.Context, id string) (*Recording, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, asset_id, filter, rate, output_path, output_name, error, created_at, updated_at
		FROM recordings WHERE id = ?
	`, id)
	return scanRecording(row)
}

func (r *SQLiteRepository) LatestRecording(ctx context.Context) (*Recording, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, status, asset_id, filter, rate, output_path, output_name, error, created_at, updated_at
		FROM recordings ORDER BY created_at DESC LIMIT 1
	`)
	return scanRecording(row)
}

func (r *SQLiteRepository) ListRecordings(ctx context.Context, limit int) ([]*Recording, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, status, asset_id, filter, rate, output_path, output_name, error, created_at, updated_at
		FROM recordings ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *SQLiteRepository) UpdateRecording(ctx context.Context, rec *Recording) error {
	rec.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE recordings SET status = ?, output_path = ?, output_name = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, rec.Status, rec.OutputPath, rec.OutputName, rec.Error, rec.UpdatedAt.Format(time.RFC3339Nano), rec.ID)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*MediaAsset, error) {
	var a MediaAsset
	var slot, createdAt string
	var hasAudio int
	err := row.Scan(&a.ID, &slot, &a.DisplayName, &a.MimeType, &a.Size, &a.Path,
		&a.StreamToken, &a.Duration, &a.Width, &a.Height, &hasAudio, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.Slot = Slot(slot)
	a.HasAudio = hasAudio == 1
	a.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &a, nil
}

func scanRecording(row rowScanner) (*Recording, error) {
	var rec Recording
	var createdAt, updatedAt string
	err := row.Scan(&rec.ID, &rec.Status, &rec.AssetID, &rec.Filter, &rec.Rate,
		&rec.OutputPath, &rec.OutputName, &rec.Error, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
