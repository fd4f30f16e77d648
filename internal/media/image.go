// Package media turns uploaded data-URI images into stored files.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxWidth  = 1600
	MaxHeight = 1600

	// maxDecodedBytes caps the raw upload size.
	maxDecodedBytes = 10 << 20
	keyPrefix       = "recipes/"
)

// ErrInvalidImage is returned when the payload is not a decodable image data URI.
var ErrInvalidImage = errors.New("invalid image")

type format struct {
	ext      string
	mime     string
	encoding imaging.Format
}

var (
	formatJPEG = format{"jpg", "image/jpeg", imaging.JPEG}
	formatPNG  = format{"png", "image/png", imaging.PNG}
	formatGIF  = format{"gif", "image/gif", imaging.GIF}
)

// outputFormat maps the declared subtype to the stored format. Anything that
// is not png or gif is re-encoded as JPEG.
func outputFormat(subtype string) format {
	switch strings.ToLower(subtype) {
	case "png":
		return formatPNG
	case "gif":
		return formatGIF
	default:
		return formatJPEG
	}
}

// Processor decodes, resizes and stores recipe images.
type Processor struct {
	storage Storage
	logger  *slog.Logger
}

// NewProcessor creates a Processor writing to storage.
func NewProcessor(storage Storage, logger *slog.Logger) *Processor {
	return &Processor{storage: storage, logger: logger}
}

// URL returns the public URL for a stored key. An empty key gives "".
func (p *Processor) URL(key string) string {
	if key == "" {
		return ""
	}
	return p.storage.URL(key)
}

// Save decodes a "data:image/<fmt>;base64,<payload>" string, fits the image
// inside MaxWidth x MaxHeight and stores it. It returns the storage key.
func (p *Processor) Save(ctx context.Context, dataURI string) (string, error) {
	subtype, raw, err := parseDataURI(dataURI)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = imaging.Fit(img, MaxWidth, MaxHeight, imaging.Lanczos)

	out := outputFormat(subtype)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, out.encoding, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	key := keyPrefix + uuid.NewString() + "." + out.ext
	if err := p.storage.Put(ctx, key, out.mime, buf.Bytes()); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

// Remove deletes a stored image. Failures are logged, not returned, since
// an orphaned file never blocks the caller.
func (p *Processor) Remove(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := p.storage.Delete(ctx, key); err != nil {
		p.logger.Warn("remove image", "key", key, "error", err)
	}
}

func parseDataURI(s string) (subtype string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:image/")
	if !ok {
		return "", nil, fmt.Errorf("%w: expected data:image/<format>;base64,...", ErrInvalidImage)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}
	subtype, enc, ok := strings.Cut(header, ";")
	if !ok || enc != "base64" || subtype == "" {
		return "", nil, fmt.Errorf("%w: expected base64 encoding", ErrInvalidImage)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxDecodedBytes {
		return "", nil, fmt.Errorf("%w: image too large", ErrInvalidImage)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return subtype, data, nil
}
