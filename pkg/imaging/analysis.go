package imaging

// Luminance returns the perceptual luma of an RGB triple, 0–255.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func (p *Pixmap) lumaAt(i int) float64 {
	return Luminance(p.Pix[i], p.Pix[i+1], p.Pix[i+2])
}

// MeanLuminance returns the average luma across all pixels.
func (p *Pixmap) MeanLuminance() float64 {
	n := p.Width * p.Height
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < len(p.Pix); i += 4 {
		sum += p.lumaAt(i)
	}
	return sum / float64(n)
}

// LuminanceRange returns max−min luma across all pixels, a cheap contrast
// proxy.
func (p *Pixmap) LuminanceRange() float64 {
	if p.Width*p.Height == 0 {
		return 0
	}
	lo, hi := 255.0, 0.0
	for i := 0; i < len(p.Pix); i += 4 {
		l := p.lumaAt(i)
		if l < lo {
			lo = l
		}
		if l > hi {
			hi = l
		}
	}
	return hi - lo
}

// EdgeRatio returns the fraction of 4-connected neighbor pairs whose luma
// delta exceeds threshold. Both the horizontal and vertical neighbor of
// every interior pixel are considered.
func (p *Pixmap) EdgeRatio(threshold float64) float64 {
	if p.Width < 2 || p.Height < 2 {
		return 0
	}
	edges, total := 0, 0
	for y := 0; y < p.Height-1; y++ {
		for x := 0; x < p.Width-1; x++ {
			i := (y*p.Width + x) * 4
			l := p.lumaAt(i)
			if diff := l - p.lumaAt(i+4); diff > threshold || diff < -threshold {
				edges++
			}
			if diff := l - p.lumaAt(i+p.Width*4); diff > threshold || diff < -threshold {
				edges++
			}
			total += 2
		}
	}
	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

// SampledEdgeRatio estimates the edge ratio from a bounded number of
// horizontally adjacent pixel pairs chosen by a seeded generator, so the
// estimate is reproducible for a given seed.
func (p *Pixmap) SampledEdgeRatio(samples int, threshold float64, seed uint64) float64 {
	if p.Width < 2 || p.Height < 1 || samples <= 0 {
		return 0
	}
	rng := newSplitMix(seed)
	edges := 0
	for s := 0; s < samples; s++ {
		x := int(rng.next() % uint64(p.Width-1))
		y := int(rng.next() % uint64(p.Height))
		i := (y*p.Width + x) * 4
		diff := p.lumaAt(i) - p.lumaAt(i+4)
		if diff > threshold || diff < -threshold {
			edges++
		}
	}
	return float64(edges) / float64(samples)
}

// splitMix is a tiny deterministic generator for sampling patterns.
// Quality of randomness is irrelevant here; reproducibility is the point.
type splitMix struct{ state uint64 }

func newSplitMix(seed uint64) *splitMix { return &splitMix{state: seed} }

func (s *splitMix) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
