package imaging

// AdjustBrightnessContrast applies a linear brightness offset followed by a
// contrast remap of the form factor*(v-128)+128, in place. The factor is the
// standard (259*(c+255))/(255*(259-c)) transform of the contrast delta c,
// with c in [-255, 255]. Alpha is left untouched.
func (p *Pixmap) AdjustBrightnessContrast(brightness, contrast float64) {
	factor := (259.0 * (contrast + 255.0)) / (255.0 * (259.0 - contrast))
	for i := 0; i < len(p.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(p.Pix[i+c]) + brightness
			v = factor*(v-128.0) + 128.0
			p.Pix[i+c] = clamp255(v)
		}
	}
}

// Sharpen applies a 3×3 sharpening convolution in place. The kernel center
// weighs 5 + strength/20, the four orthogonal neighbors −1 and the corners 0.
// Neighbor reads come from an unmodified copy of the buffer so already
// sharpened pixels never feed later convolution steps. Border pixels are
// left as-is.
func (p *Pixmap) Sharpen(strength float64) {
	if p.Width < 3 || p.Height < 3 {
		return
	}
	center := 5.0 + strength/20.0
	src := make([]uint8, len(p.Pix))
	copy(src, p.Pix)

	row := p.Width * 4
	for y := 1; y < p.Height-1; y++ {
		for x := 1; x < p.Width-1; x++ {
			i := y*row + x*4
			for c := 0; c < 3; c++ {
				v := center*float64(src[i+c]) -
					float64(src[i-4+c]) - float64(src[i+4+c]) -
					float64(src[i-row+c]) - float64(src[i+row+c])
				p.Pix[i+c] = clamp255(v)
			}
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
