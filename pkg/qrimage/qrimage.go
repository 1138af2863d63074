package qrimage

import (
	"encoding/base64"
	"fmt"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/scanlyhq/scanly-backend/pkg/enums"
)

const (
	minSize     = 64
	maxSize     = 2048
	defaultSize = 256
)

// Options selects the presentation of a rendered symbol. Colors are
// "#rrggbb" strings straight from the record's presentation columns.
type Options struct {
	Size            int
	ErrorCorrection enums.ErrorCorrection
	ForegroundColor string
	BackgroundColor string
}

// RenderPNG encodes the payload into a PNG symbol.
func RenderPNG(payload string, opts Options) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("payload is required")
	}

	q, err := qrcode.New(payload, recoveryLevel(opts.ErrorCorrection))
	if err != nil {
		return nil, fmt.Errorf("build symbol: %w", err)
	}

	if fg, err := parseHexColor(opts.ForegroundColor); err == nil {
		q.ForegroundColor = fg
	}
	if bg, err := parseHexColor(opts.BackgroundColor); err == nil {
		q.BackgroundColor = bg
	}

	png, err := q.PNG(normalizeSize(opts.Size))
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return png, nil
}

// RenderDataURL renders the symbol and wraps it as a base64 PNG data URL,
// the shape browser clients embed directly into an <img> src.
func RenderDataURL(payload string, opts Options) (string, error) {
	png, err := RenderPNG(payload, opts)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func normalizeSize(size int) int {
	if size <= 0 {
		return defaultSize
	}
	if size < minSize {
		return minSize
	}
	if size > maxSize {
		return maxSize
	}
	return size
}

func recoveryLevel(level enums.ErrorCorrection) qrcode.RecoveryLevel {
	switch level {
	case enums.ErrorCorrectionLow:
		return qrcode.Low
	case enums.ErrorCorrectionQuart:
		return qrcode.High
	case enums.ErrorCorrectionHighest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

func parseHexColor(value string) (color.Color, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(raw) != 6 {
		return nil, fmt.Errorf("invalid hex color %q", value)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(raw, "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", value, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
