package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// memStorage keeps objects in a map.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
	delErr  error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memStorage) Put(_ context.Context, key, contentType string, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) URL(key string) string { return "http://cdn.test/" + key }

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestSaveSmallImage(t *testing.T) {
	st := newMemStorage()
	p := NewProcessor(st, slog.Default())

	key, err := p.Save(context.Background(), pngDataURI(t, 40, 30))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(key, "recipes/") || !strings.HasSuffix(key, ".png") {
		t.Errorf("key = %q, want recipes/<uuid>.png", key)
	}
	if st.types[key] != "image/png" {
		t.Errorf("content type = %q", st.types[key])
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(st.objects[key]))
	if err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("stored size = %dx%d, want 40x30 (no upscaling)", cfg.Width, cfg.Height)
	}
	if got := p.URL(key); got != "http://cdn.test/"+key {
		t.Errorf("URL = %q", got)
	}
}

func TestSaveFitsLargeImage(t *testing.T) {
	st := newMemStorage()
	p := NewProcessor(st, slog.Default())

	key, err := p.Save(context.Background(), pngDataURI(t, 3200, 800))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(st.objects[key]))
	if err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	if cfg.Width != MaxWidth || cfg.Height != 400 {
		t.Errorf("stored size = %dx%d, want %dx400", cfg.Width, cfg.Height, MaxWidth)
	}
}

func TestSaveReencodesUnknownSubtypeAsJPEG(t *testing.T) {
	st := newMemStorage()
	p := NewProcessor(st, slog.Default())

	uri := strings.Replace(pngDataURI(t, 10, 10), "image/png", "image/x-anything", 1)
	key, err := p.Save(context.Background(), uri)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key = %q, want .jpg", key)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(st.objects[key])); err != nil || format != "jpeg" {
		t.Errorf("stored format = %q, err = %v", format, err)
	}
}

func TestSaveRejectsBadInput(t *testing.T) {
	p := NewProcessor(newMemStorage(), slog.Default())

	tests := []struct {
		name string
		uri  string
	}{
		{"empty", ""},
		{"not a data uri", "http://example.com/a.png"},
		{"not base64 encoded", "data:image/png,abc"},
		{"bad base64", "data:image/png;base64,!!!"},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"no subtype", "data:image/;base64,AAAA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Save(context.Background(), tt.uri)
			if !errors.Is(err, ErrInvalidImage) {
				t.Errorf("err = %v, want ErrInvalidImage", err)
			}
		})
	}
}

func TestSaveStorageError(t *testing.T) {
	st := newMemStorage()
	st.putErr = errors.New("disk full")
	p := NewProcessor(st, slog.Default())

	_, err := p.Save(context.Background(), pngDataURI(t, 5, 5))
	if err == nil || errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want storage error", err)
	}
}

func TestRemove(t *testing.T) {
	st := newMemStorage()
	p := NewProcessor(st, slog.Default())
	key, err := p.Save(context.Background(), pngDataURI(t, 5, 5))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	p.Remove(context.Background(), key)
	if _, ok := st.objects[key]; ok {
		t.Error("object still present after Remove")
	}

	// Errors and empty keys are swallowed.
	st.delErr = errors.New("boom")
	p.Remove(context.Background(), "recipes/x.png")
	p.Remove(context.Background(), "")
}
