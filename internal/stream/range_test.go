package stream

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"log/slog"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantNil   bool
		wantErr   error
	}{
		{"empty header", "", 1000, 0, 0, true, nil},
		{"full range", "bytes=0-999", 1000, 0, 999, false, nil},
		{"partial start", "bytes=500-", 1000, 500, 999, false, nil},
		{"suffix range", "bytes=-500", 1000, 500, 999, false, nil},
		{"single byte", "bytes=0-0", 1000, 0, 0, false, nil},
		{"middle range", "bytes=100-199", 1000, 100, 199, false, nil},
		{"beyond size clamped", "bytes=0-2000", 1000, 0, 999, false, nil},
		{"suffix larger than file", "bytes=-2000", 500, 0, 499, false, nil},
		{"last byte", "bytes=999-", 1000, 999, 999, false, nil},
		{"multi range takes first", "bytes=0-99, 200-299", 1000, 0, 99, false, nil},

		{"unsatisfiable start", "bytes=1000-", 1000, 0, 0, false, ErrUnsatisfiable},
		{"unsatisfiable beyond", "bytes=1500-2000", 1000, 0, 0, false, ErrUnsatisfiable},
		{"invalid format no bytes", "invalid", 1000, 0, 0, false, ErrInvalidRange},
		{"wrong unit", "chars=0-100", 1000, 0, 0, false, ErrInvalidRange},
		{"invalid start", "bytes=abc-100", 1000, 0, 0, false, ErrInvalidRange},
		{"invalid end", "bytes=0-abc", 1000, 0, 0, false, ErrInvalidRange},
		{"negative suffix", "bytes=-0", 1000, 0, 0, false, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)

			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("ParseRange() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Errorf("ParseRange() unexpected error: %v", err)
				return
			}

			if tt.wantNil {
				if got != nil {
					t.Errorf("ParseRange() = %v, want nil", got)
				}
				return
			}

			if got == nil {
				t.Errorf("ParseRange() = nil, want non-nil")
				return
			}

			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("ParseRange() = {%d, %d}, want {%d, %d}", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestServeFile_FullAndPartial(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := NewServer(logger)

	path := filepath.Join(t.TempDir(), "clip.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Full request.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/stream", nil)
	if err := srv.ServeFile(rec, req, path, "video/mp4"); err != nil {
		t.Fatalf("ServeFile: %v", err)
	}
	if rec.Code != 200 || rec.Body.String() != "0123456789" {
		t.Fatalf("full response = %d %q", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q, want declared type", ct)
	}

	// Partial request.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "bytes=2-4")
	if err := srv.ServeFile(rec, req, path, "video/mp4"); err != nil {
		t.Fatalf("ServeFile: %v", err)
	}
	if rec.Code != 206 || rec.Body.String() != "234" {
		t.Fatalf("partial response = %d %q", rec.Code, rec.Body.String())
	}
	if cr := rec.Header().Get("Content-Range"); cr != "bytes 2-4/10" {
		t.Fatalf("content range = %q", cr)
	}

	// Unsatisfiable request.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/stream", nil)
	req.Header.Set("Range", "bytes=50-")
	if err := srv.ServeFile(rec, req, path, ""); err != nil {
		t.Fatalf("ServeFile: %v", err)
	}
	if rec.Code != 416 {
		t.Fatalf("unsatisfiable status = %d, want 416", rec.Code)
	}
}
