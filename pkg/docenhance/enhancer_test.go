package docenhance_test

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/relayhr/doccapture/pkg/docenhance"
	"github.com/relayhr/doccapture/pkg/docquality"
	"github.com/relayhr/doccapture/pkg/imaging"
)

func darkPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 40, 40, 40, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestEnhance_ProducesNewEncoding(t *testing.T) {
	e := docenhance.NewEnhancer(85)
	src := darkPNG(t, 64, 48)

	res, err := e.Enhance(src, docquality.Report{Score: 60}, docenhance.DefaultParams())
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if len(res.Data) == 0 {
		t.Fatal("expected encoded output")
	}
	if bytes.Equal(res.Data, src) {
		t.Fatal("enhancement must produce a new file, not the source bytes")
	}

	pix, derr := imaging.Decode(res.Data)
	if derr != nil {
		t.Fatalf("decode enhanced output: %v", derr)
	}
	if pix.Width != 64 || pix.Height != 48 {
		t.Fatalf("dimensions changed: %dx%d", pix.Width, pix.Height)
	}
}

func TestEnhance_BrightensDarkImage(t *testing.T) {
	e := docenhance.NewEnhancer(85)
	src := darkPNG(t, 64, 48)

	srcPix, _ := imaging.Decode(src)
	before := srcPix.MeanLuminance()

	res, err := e.Enhance(src, docquality.Report{Score: 60}, docenhance.Params{Brightness: 40, Contrast: 0})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	outPix, _ := imaging.Decode(res.Data)
	if after := outPix.MeanLuminance(); after <= before {
		t.Fatalf("expected brighter output: before=%f after=%f", before, after)
	}
}

func TestEnhance_ScoreNeverDecreases(t *testing.T) {
	e := docenhance.NewEnhancer(85)
	src := darkPNG(t, 64, 48)

	for _, sourceScore := range []int{0, 40, 70, 95, 100} {
		res, err := e.Enhance(src, docquality.Report{Score: sourceScore}, docenhance.DefaultParams())
		if err != nil {
			t.Fatalf("enhance: %v", err)
		}
		if res.Quality.Score < sourceScore {
			t.Fatalf("score decreased: %d -> %d", sourceScore, res.Quality.Score)
		}
		if res.Quality.Score > 100 {
			t.Fatalf("score exceeded 100: %d", res.Quality.Score)
		}
	}
}

func TestEnhance_DropsAddressedIssues(t *testing.T) {
	e := docenhance.NewEnhancer(85)
	src := darkPNG(t, 64, 48)

	quality := docquality.Report{
		Score:           40,
		Issues:          []string{docquality.IssueLowResolution, docquality.IssueTooDark, docquality.IssueBlurry},
		Recommendations: []string{"a", "b", "c"},
	}
	res, err := e.Enhance(src, quality, docenhance.DefaultParams())
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if len(res.Quality.Issues) != 1 || res.Quality.Issues[0] != docquality.IssueLowResolution {
		t.Fatalf("expected only the resolution issue to survive, got %v", res.Quality.Issues)
	}
	if len(res.Quality.Recommendations) != 1 || res.Quality.Recommendations[0] != "a" {
		t.Fatalf("recommendations out of sync: %v", res.Quality.Recommendations)
	}
}

func TestEnhance_CleanReportKeepsCanonicalShape(t *testing.T) {
	e := docenhance.NewEnhancer(85)
	src := darkPNG(t, 64, 48)

	for _, quality := range []docquality.Report{
		{Score: 90, Issues: []string{}, Recommendations: []string{docquality.RecGoodQuality}},
		{Score: 50, Issues: []string{docquality.IssueTooDark}, Recommendations: []string{"b"}},
	} {
		res, err := e.Enhance(src, quality, docenhance.DefaultParams())
		if err != nil {
			t.Fatalf("enhance: %v", err)
		}
		if len(res.Quality.Issues) != 0 {
			t.Fatalf("issues survived: %v", res.Quality.Issues)
		}
		if len(res.Quality.Recommendations) != 1 || res.Quality.Recommendations[0] != docquality.RecGoodQuality {
			t.Fatalf("clean report recommendations = %v, want [%s]",
				res.Quality.Recommendations, docquality.RecGoodQuality)
		}
	}
}

func TestEnhance_UndecodableSource(t *testing.T) {
	e := docenhance.NewEnhancer(85)
	if _, err := e.Enhance([]byte("not an image"), docquality.Report{}, docenhance.DefaultParams()); err == nil {
		t.Fatal("expected error for undecodable source")
	}
}
