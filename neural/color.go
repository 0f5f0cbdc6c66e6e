package neural

// RGB is an 8-bit color.
type RGB struct {
	R, G, B uint8
}

const (
	maxColorVal = 0xb0
	maxLumaVal  = 0xb0
)

// Color derives a display color from the first and last genes, so related
// genomes tend to share a hue. Bright colors are folded back below 0xb0 per channel.
func Color(genome []Gene) RGB {
	if len(genome) == 0 {
		return RGB{}
	}
	first, last := genome[0], genome[len(genome)-1]

	c := b2u(first.Head().IsInput()) |
		b2u(last.Head().IsInput())<<1 |
		b2u(first.Tail().IsInner())<<2 |
		b2u(last.Tail().IsInner())<<3 |
		uint32(first.Head()&1)<<4 |
		uint32(first.Tail()&1)<<5 |
		uint32(last.Head()&1)<<6 |
		uint32(last.Tail()&1)<<7

	r, g, b := c, (c&0x1f)<<3, (c&7)<<5

	if (r*3+g+b*4)/8 > maxLumaVal {
		if r > maxColorVal {
			r %= maxColorVal
		}
		if g > maxColorVal {
			g %= maxColorVal
		}
		if b > maxColorVal {
			b %= maxColorVal
		}
	}
	return RGB{R: uint8(r), G: uint8(g), B: uint8(b)}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
