package imaging_test

import (
	"image/color"
	"testing"

	"github.com/relayhr/doccapture/pkg/imaging"
)

func uniform(w, h int, c color.RGBA) *imaging.Pixmap {
	p := imaging.NewPixmap(w, h)
	p.Fill(c)
	return p
}

// halves builds a pixmap whose left half is one color and right half another.
func halves(w, h int, left, right color.RGBA) *imaging.Pixmap {
	p := imaging.NewPixmap(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := left
			if x >= w/2 {
				c = right
			}
			p.Set(x, y, c.R, c.G, c.B, c.A)
		}
	}
	return p
}

func TestDecode_InvalidData(t *testing.T) {
	if _, err := imaging.Decode([]byte("not an image")); err == nil {
		t.Fatal("expected decode error for garbage input")
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	src := uniform(40, 30, color.RGBA{200, 100, 50, 255})
	data, err := src.EncodeJPEG(80)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	p, err := imaging.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Width != 40 || p.Height != 30 {
		t.Fatalf("expected 40x30, got %dx%d", p.Width, p.Height)
	}

	w, h, err := imaging.DecodeConfig(data)
	if err != nil || w != 40 || h != 30 {
		t.Fatalf("DecodeConfig = %dx%d, %v", w, h, err)
	}
}

func TestMeanLuminance(t *testing.T) {
	black := uniform(10, 10, color.RGBA{0, 0, 0, 255})
	if got := black.MeanLuminance(); got != 0 {
		t.Fatalf("black mean luminance = %f, want 0", got)
	}

	white := uniform(10, 10, color.RGBA{255, 255, 255, 255})
	if got := white.MeanLuminance(); got < 254 || got > 255 {
		t.Fatalf("white mean luminance = %f, want ~255", got)
	}
}

func TestLuminanceRange(t *testing.T) {
	flat := uniform(10, 10, color.RGBA{128, 128, 128, 255})
	if got := flat.LuminanceRange(); got != 0 {
		t.Fatalf("flat range = %f, want 0", got)
	}

	split := halves(10, 10, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})
	if got := split.LuminanceRange(); got < 254 {
		t.Fatalf("split range = %f, want ~255", got)
	}
}

func TestEdgeRatio(t *testing.T) {
	flat := uniform(20, 20, color.RGBA{128, 128, 128, 255})
	if got := flat.EdgeRatio(30); got != 0 {
		t.Fatalf("flat edge ratio = %f, want 0", got)
	}

	split := halves(20, 20, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})
	got := split.EdgeRatio(30)
	if got <= 0 {
		t.Fatal("expected split image to have edges")
	}
	// One vertical edge column in an otherwise flat image: a small ratio.
	if got > 0.2 {
		t.Fatalf("split edge ratio = %f, want small", got)
	}
}

func TestSampledEdgeRatio_Deterministic(t *testing.T) {
	split := halves(64, 64, color.RGBA{0, 0, 0, 255}, color.RGBA{255, 255, 255, 255})

	a := split.SampledEdgeRatio(500, 30, 42)
	b := split.SampledEdgeRatio(500, 30, 42)
	if a != b {
		t.Fatalf("same seed produced different ratios: %f vs %f", a, b)
	}
}

func TestDownscale_Bounds(t *testing.T) {
	big := uniform(2400, 1800, color.RGBA{10, 10, 10, 255})
	small := big.Downscale(1200, 900)
	if small.Width > 1200 || small.Height > 900 {
		t.Fatalf("downscale exceeded bounds: %dx%d", small.Width, small.Height)
	}

	fits := uniform(100, 100, color.RGBA{10, 10, 10, 255})
	if got := fits.Downscale(1200, 900); got != fits {
		t.Fatal("expected no-op downscale to return the receiver")
	}
}

func TestAdjustBrightnessContrast_Clamps(t *testing.T) {
	p := uniform(4, 4, color.RGBA{250, 250, 250, 255})
	p.AdjustBrightnessContrast(40, 0)
	r, g, b, _ := p.At(0, 0)
	if r != 255 || g != 255 || b != 255 {
		t.Fatalf("expected clamp to 255, got %d %d %d", r, g, b)
	}

	p2 := uniform(4, 4, color.RGBA{5, 5, 5, 255})
	p2.AdjustBrightnessContrast(-40, 0)
	r, _, _, _ = p2.At(0, 0)
	if r != 0 {
		t.Fatalf("expected clamp to 0, got %d", r)
	}
}

func TestAdjustBrightnessContrast_ZeroIsIdentity(t *testing.T) {
	p := uniform(4, 4, color.RGBA{100, 150, 200, 255})
	p.AdjustBrightnessContrast(0, 0)
	r, g, b, _ := p.At(2, 2)
	if r != 100 || g != 150 || b != 200 {
		t.Fatalf("zero deltas mutated pixels: %d %d %d", r, g, b)
	}
}

func TestSharpen_ReadsFromUnmodifiedCopy(t *testing.T) {
	// A single bright impulse on a dark field. If the convolution read its
	// own output, the pixel right of center would see an already-darkened
	// neighbor and diverge from the expected value computed from source data.
	p := uniform(7, 7, color.RGBA{100, 100, 100, 255})
	p.Set(3, 3, 200, 200, 200, 255)

	p.Sharpen(40)

	// center: (5+2)*200 - 4*100 = 1000 -> clamped 255
	r, _, _, _ := p.At(3, 3)
	if r != 255 {
		t.Fatalf("center after sharpen = %d, want 255", r)
	}
	// orthogonal neighbor: 7*100 - (3*100 + 200) = 200
	r, _, _, _ = p.At(4, 3)
	if r != 200 {
		t.Fatalf("neighbor after sharpen = %d, want 200", r)
	}
	// far corner untouched region: 7*100 - 4*100 = 300 -> clamped 255
	r, _, _, _ = p.At(5, 5)
	if r != 255 {
		t.Fatalf("flat region after sharpen = %d, want 255", r)
	}
}

func TestSharpen_TinyImageNoop(t *testing.T) {
	p := uniform(2, 2, color.RGBA{100, 100, 100, 255})
	p.Sharpen(40)
	r, _, _, _ := p.At(0, 0)
	if r != 100 {
		t.Fatalf("2x2 sharpen mutated pixels: %d", r)
	}
}

func TestClone_Independent(t *testing.T) {
	p := uniform(3, 3, color.RGBA{10, 20, 30, 255})
	c := p.Clone()
	c.Set(0, 0, 99, 99, 99, 255)
	r, _, _, _ := p.At(0, 0)
	if r != 10 {
		t.Fatal("clone shares storage with original")
	}
}
