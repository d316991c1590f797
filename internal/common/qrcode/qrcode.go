// Package qrcode provides QR code generation.
package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/skip2/go-qrcode"
)

// RecoveryLevel is the error correction level.
type RecoveryLevel int

const (
	// Low is 7% correction.
	Low RecoveryLevel = iota
	// Medium is 15% correction.
	Medium
	// High is 25% correction.
	High
	// Highest is 30% correction.
	Highest
)

// Generator produces QR code images.
type Generator struct {
	size          int
	recoveryLevel RecoveryLevel
}

// Option configures a Generator.
type Option func(*Generator)

// WithSize sets the image size in pixels.
func WithSize(size int) Option {
	return func(g *Generator) {
		g.size = size
	}
}

// WithRecoveryLevel sets the error correction level.
func WithRecoveryLevel(level RecoveryLevel) Option {
	return func(g *Generator) {
		g.recoveryLevel = level
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		size:          256,
		recoveryLevel: Medium,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) toQRCodeLevel() qrcode.RecoveryLevel {
	switch g.recoveryLevel {
	case Low:
		return qrcode.Low
	case Medium:
		return qrcode.Medium
	case High:
		return qrcode.High
	case Highest:
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// Generate renders the QR code as an image.
func (g *Generator) Generate(content string) (image.Image, error) {
	qr, err := qrcode.New(content, g.toQRCodeLevel())
	if err != nil {
		return nil, fmt.Errorf("create qrcode: %w", err)
	}
	return qr.Image(g.size), nil
}

// GeneratePNG renders the QR code as PNG bytes.
func (g *Generator) GeneratePNG(content string) ([]byte, error) {
	return qrcode.Encode(content, g.toQRCodeLevel(), g.size)
}

// GenerateBase64 renders the QR code as base64 PNG.
func (g *Generator) GenerateBase64(content string) (string, error) {
	data, err := g.GeneratePNG(content)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// GenerateDataURL renders the QR code as a data URL.
func (g *Generator) GenerateDataURL(content string) (string, error) {
	b64, err := g.GenerateBase64(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + b64, nil
}

// WriteToWriter renders the QR code to w.
func (g *Generator) WriteToWriter(content string, w io.Writer) error {
	img, err := g.Generate(content)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// GenerateToBuffer renders the QR code into a buffer.
func (g *Generator) GenerateToBuffer(content string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	if err := g.WriteToWriter(content, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
