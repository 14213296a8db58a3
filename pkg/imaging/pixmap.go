// Package imaging holds the pixel-level primitives used by document quality
// scoring, live frame detection and enhancement. Everything operates on a
// flat RGBA buffer plus dimensions so it can run without any rendering
// surface.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Pixmap is a decoded image as a flat RGBA byte buffer.
type Pixmap struct {
	Pix    []uint8 // 4 bytes per pixel, row-major
	Width  int
	Height int
}

// NewPixmap allocates a zeroed pixmap of the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{Pix: make([]uint8, width*height*4), Width: width, Height: height}
}

// Decode parses JPEG, PNG or GIF bytes into a Pixmap.
func Decode(data []byte) (*Pixmap, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// DecodeConfig returns the dimensions of an encoded image without a full
// pixel decode.
func DecodeConfig(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// FromImage converts any image.Image into an RGBA pixmap.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	}
	return &Pixmap{Pix: rgba.Pix, Width: bounds.Dx(), Height: bounds.Dy()}
}

// ToImage wraps the pixmap buffer as an image.RGBA without copying.
func (p *Pixmap) ToImage() *image.RGBA {
	return &image.RGBA{Pix: p.Pix, Stride: p.Width * 4, Rect: image.Rect(0, 0, p.Width, p.Height)}
}

// Clone returns an independent copy of the pixmap.
func (p *Pixmap) Clone() *Pixmap {
	pix := make([]uint8, len(p.Pix))
	copy(pix, p.Pix)
	return &Pixmap{Pix: pix, Width: p.Width, Height: p.Height}
}

// At returns the RGBA channels at (x, y).
func (p *Pixmap) At(x, y int) (r, g, b, a uint8) {
	i := (y*p.Width + x) * 4
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3]
}

// Set writes the RGBA channels at (x, y).
func (p *Pixmap) Set(x, y int, r, g, b, a uint8) {
	i := (y*p.Width + x) * 4
	p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3] = r, g, b, a
}

// Fill paints the whole pixmap with one color. Mostly useful for building
// synthetic frames in tests.
func (p *Pixmap) Fill(c color.RGBA) {
	for i := 0; i < len(p.Pix); i += 4 {
		p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3] = c.R, c.G, c.B, c.A
	}
}

// Downscale returns the pixmap scaled to fit within maxW×maxH, preserving
// aspect ratio. Returns the receiver unchanged when it already fits.
func (p *Pixmap) Downscale(maxW, maxH int) *Pixmap {
	if p.Width <= maxW && p.Height <= maxH {
		return p
	}
	scale := float64(maxW) / float64(p.Width)
	if s := float64(maxH) / float64(p.Height); s < scale {
		scale = s
	}
	w := int(float64(p.Width) * scale)
	h := int(float64(p.Height) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), p.ToImage(), p.ToImage().Bounds(), xdraw.Src, nil)
	return &Pixmap{Pix: dst.Pix, Width: w, Height: h}
}

// EncodeJPEG serializes the pixmap as JPEG at the given quality factor.
func (p *Pixmap) EncodeJPEG(quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, p.ToImage(), &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
