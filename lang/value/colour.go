package value

import (
	"fmt"
	"math"
)

// ColourFormat names the colour-space a Colour's four components are
// expressed in (spec.md §3 "Colour").
type ColourFormat uint8

const (
	RGB ColourFormat = iota
	HSL
	HSLuv
	HSV
	LAB
)

func (f ColourFormat) String() string {
	switch f {
	case RGB:
		return "RGB"
	case HSL:
		return "HSL"
	case HSLuv:
		return "HSLuv"
	case HSV:
		return "HSV"
	case LAB:
		return "LAB"
	default:
		return fmt.Sprintf("ColourFormat(%d)", f)
	}
}

// Colour is a 4-component colour value in one of the formats above. Alpha
// is always E3, regardless of format (spec.md §3).
type Colour struct {
	Format         ColourFormat
	E0, E1, E2, E3 float64
}

func (Colour) Type() string { return "colour" }
func (c Colour) String() string {
	return fmt.Sprintf("Colour(%s %g %g %g %g)", c.Format, c.E0, c.E1, c.E2, c.E3)
}

// RGBTolerance is the documented round-trip epsilon for Colour.Convert
// (spec.md §8 "colour c and format f").
const RGBTolerance = 0.02

// NewRGB builds a Colour in the RGB format from sRGB-ish inputs in [0, 1].
func NewRGB(r, g, b, a float64) Colour { return Colour{Format: RGB, E0: r, E1: g, E2: b, E3: a} }

// ParseHex parses a hex colour literal's "rrggbb" digits, with or without a
// leading '#', into an RGB Colour with alpha 1.
func ParseHex(s string) (Colour, error) {
	if len(s) == 7 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return Colour{}, fmt.Errorf("invalid hex colour literal: %q", s)
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return Colour{}, fmt.Errorf("invalid hex colour literal: %q: %w", s, err)
	}
	return NewRGB(float64(r)/255, float64(g)/255, float64(b)/255, 1), nil
}

// Convert returns c expressed in the target format, total for every pair of
// formats (spec.md §8 invariant "c.convert(c.format) == c").
func (c Colour) Convert(target ColourFormat) (Colour, error) {
	if c.Format == target {
		return c, nil
	}
	rgb, err := c.toRGB()
	if err != nil {
		return Colour{}, err
	}
	switch target {
	case RGB:
		return rgb, nil
	case HSL:
		return rgbToHSL(rgb), nil
	case HSV:
		return rgbToHSV(rgb), nil
	case LAB:
		return rgbToLAB(rgb), nil
	case HSLuv:
		return rgbToHSLuv(rgb), nil
	default:
		return Colour{}, fmt.Errorf("unknown colour format: %d", target)
	}
}

func (c Colour) toRGB() (Colour, error) {
	switch c.Format {
	case RGB:
		return c, nil
	case HSL:
		return hslToRGB(c), nil
	case HSV:
		return hsvToRGB(c), nil
	case LAB:
		return labToRGB(c), nil
	case HSLuv:
		return hsluvToRGB(c), nil
	default:
		return Colour{}, fmt.Errorf("unknown colour format: %d", c.Format)
	}
}

// --- RGB <-> HSL ---

func rgbToHSL(c Colour) Colour {
	r, g, b := c.E0, c.E1, c.E2
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l := (max + min) / 2
	var h, s float64
	if max != min {
		d := max - min
		if l > 0.5 {
			s = d / (2 - max - min)
		} else {
			s = d / (max + min)
		}
		switch max {
		case r:
			h = (g - b) / d
			if g < b {
				h += 6
			}
		case g:
			h = (b-r)/d + 2
		case b:
			h = (r-g)/d + 4
		}
		h /= 6
	}
	return Colour{Format: HSL, E0: h * 360, E1: s, E2: l, E3: c.E3}
}

func hslToRGB(c Colour) Colour {
	h, s, l := c.E0/360, c.E1, c.E2
	if s == 0 {
		return Colour{Format: RGB, E0: l, E1: l, E2: l, E3: c.E3}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	r := hueToRGB(p, q, h+1.0/3)
	g := hueToRGB(p, q, h)
	b := hueToRGB(p, q, h-1.0/3)
	return Colour{Format: RGB, E0: r, E1: g, E2: b, E3: c.E3}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// --- RGB <-> HSV ---

func rgbToHSV(c Colour) Colour {
	r, g, b := c.E0, c.E1, c.E2
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	d := max - min
	var h float64
	if d != 0 {
		switch max {
		case r:
			h = math.Mod((g-b)/d, 6)
		case g:
			h = (b-r)/d + 2
		case b:
			h = (r-g)/d + 4
		}
		h *= 60
		if h < 0 {
			h += 360
		}
	}
	var s float64
	if max != 0 {
		s = d / max
	}
	return Colour{Format: HSV, E0: h, E1: s, E2: max, E3: c.E3}
}

func hsvToRGB(c Colour) Colour {
	h, s, v := c.E0, c.E1, c.E2
	cc := v * s
	x := cc * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - cc
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = cc, x, 0
	case h < 120:
		r, g, b = x, cc, 0
	case h < 180:
		r, g, b = 0, cc, x
	case h < 240:
		r, g, b = 0, x, cc
	case h < 300:
		r, g, b = x, 0, cc
	default:
		r, g, b = cc, 0, x
	}
	return Colour{Format: RGB, E0: r + m, E1: g + m, E2: b + m, E3: c.E3}
}

// --- RGB <-> CIE-XYZ <-> LAB, shared pivot per spec.md §3 ---

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

func rgbToXYZ(r, g, b float64) (x, y, z float64) {
	r, g, b = srgbToLinear(r), srgbToLinear(g), srgbToLinear(b)
	x = r*0.4124564 + g*0.3575761 + b*0.1804375
	y = r*0.2126729 + g*0.7151522 + b*0.0721750
	z = r*0.0193339 + g*0.1191920 + b*0.9503041
	return
}

func xyzToRGB(x, y, z float64) (r, g, b float64) {
	r = x*3.2404542 + y*-1.5371385 + z*-0.4985314
	g = x*-0.9692660 + y*1.8760108 + z*0.0415560
	b = x*0.0556434 + y*-0.2040259 + z*1.0572252
	return clamp01(linearToSRGB(r)), clamp01(linearToSRGB(g)), clamp01(linearToSRGB(b))
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

const (
	refWhiteX = 0.95047
	refWhiteY = 1.0
	refWhiteZ = 1.08883
)

func labF(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta*delta*delta {
		return math.Cbrt(t)
	}
	return t/(3*delta*delta) + 4.0/29.0
}

func labFInv(t float64) float64 {
	const delta = 6.0 / 29.0
	if t > delta {
		return t * t * t
	}
	return 3 * delta * delta * (t - 4.0/29.0)
}

func rgbToLAB(c Colour) Colour {
	x, y, z := rgbToXYZ(c.E0, c.E1, c.E2)
	fx, fy, fz := labF(x/refWhiteX), labF(y/refWhiteY), labF(z/refWhiteZ)
	l := 116*fy - 16
	a := 500 * (fx - fy)
	b := 200 * (fy - fz)
	return Colour{Format: LAB, E0: l, E1: a, E2: b, E3: c.E3}
}

func labToRGB(c Colour) Colour {
	l, a, b := c.E0, c.E1, c.E2
	fy := (l + 16) / 116
	fx := fy + a/500
	fz := fy - b/200
	x := refWhiteX * labFInv(fx)
	y := refWhiteY * labFInv(fy)
	z := refWhiteZ * labFInv(fz)
	r, g, bb := xyzToRGB(x, y, z)
	return Colour{Format: RGB, E0: r, E1: g, E2: bb, E3: c.E3}
}

// --- RGB <-> HSLuv, via CIE-LUV, following the public HSLuv reference
// algorithm (bounded-chroma-per-hue-and-lightness). ---

func xyzToLuv(x, y, z float64) (l, u, v float64) {
	if y <= 0 {
		return 0, 0, 0
	}
	varU := (4 * x) / (x + 15*y + 3*z)
	varV := (9 * y) / (x + 15*y + 3*z)
	l = 116*labF(y/refWhiteY) - 16
	refU := (4 * refWhiteX) / (refWhiteX + 15*refWhiteY + 3*refWhiteZ)
	refV := (9 * refWhiteY) / (refWhiteX + 15*refWhiteY + 3*refWhiteZ)
	u = 13 * l * (varU - refU)
	v = 13 * l * (varV - refV)
	return
}

func luvToXYZ(l, u, v float64) (x, y, z float64) {
	if l <= 0 {
		return 0, 0, 0
	}
	refU := (4 * refWhiteX) / (refWhiteX + 15*refWhiteY + 3*refWhiteZ)
	refV := (9 * refWhiteY) / (refWhiteX + 15*refWhiteY + 3*refWhiteZ)
	varU := u/(13*l) + refU
	varV := v/(13*l) + refV
	y = refWhiteY * labFInv((l+16)/116)
	x = -(9 * y * varU) / ((varU-4)*varV - varU*varV)
	z = (9*y - 15*varV*y - varV*x) / (3 * varV)
	return
}

// getBounds computes, for a given L, the set of line constraints (as
// slope/intercept pairs in the u,v plane) that bound the sRGB gamut.
func getBounds(l float64) [6][2]float64 {
	var bounds [6][2]float64
	sub1 := math.Pow(l+16, 3) / 1560896
	sub2 := sub1
	if sub1 <= 0.0088564516790356308 {
		sub2 = l / 903.2962962962963
	}
	m := [3][3]float64{
		{3.2404542, -1.5371385, -0.4985314},
		{-0.9692660, 1.8760108, 0.0415560},
		{0.0556434, -0.2040259, 1.0572252},
	}
	idx := 0
	for i := 0; i < 3; i++ {
		m1, m2, m3 := m[i][0], m[i][1], m[i][2]
		for t := 0.0; t < 2; t++ {
			top1 := (284517*m1 - 94839*m3) * sub2
			top2 := (838422*m3+769860*m2+731718*m1)*l*sub2 - 769860*t*l
			bottom := (632260*m3-126452*m2)*sub2 + 126452*t
			bounds[idx] = [2]float64{top1 / bottom, top2 / bottom}
			idx++
		}
	}
	return bounds
}

func distanceFromOrigin(slope, intercept float64) float64 {
	return math.Abs(intercept) / math.Sqrt(slope*slope+1)
}

func maxChromaForLH(l, h float64) float64 {
	hrad := h / 360 * math.Pi * 2
	bounds := getBounds(l)
	minLen := math.MaxFloat64
	for _, b := range bounds {
		length := distanceFromOrigin(b[0], b[1])
		if length < 0 {
			continue
		}
		sinH, cosH := math.Sin(hrad), math.Cos(hrad)
		lenRay := b[1] / (sinH - b[0]*cosH)
		if lenRay >= 0 && lenRay < minLen {
			minLen = lenRay
		}
		_ = length
	}
	if minLen == math.MaxFloat64 {
		return 0
	}
	return minLen
}

func luvToLCH(l, u, v float64) (ll, c, h float64) {
	c = math.Sqrt(u*u + v*v)
	if c < 0.00000001 {
		h = 0
	} else {
		h = math.Atan2(v, u) * 180 / math.Pi
		if h < 0 {
			h += 360
		}
	}
	return l, c, h
}

func lchToLuv(l, c, h float64) (ll, u, v float64) {
	hrad := h / 360 * 2 * math.Pi
	return l, math.Cos(hrad) * c, math.Sin(hrad) * c
}

func rgbToHSLuv(c Colour) Colour {
	x, y, z := rgbToXYZ(c.E0, c.E1, c.E2)
	l, u, v := xyzToLuv(x, y, z)
	ll, cc, h := luvToLCH(l, u, v)
	var s float64
	if ll > 99.9999999 {
		s = 0
		ll = 100
	} else if ll < 0.00000001 {
		s = 0
	} else {
		maxC := maxChromaForLH(ll, h)
		if maxC > 0 {
			s = cc / maxC * 100
		}
	}
	return Colour{Format: HSLuv, E0: h, E1: clamp01(s/100) * 100, E2: ll, E3: c.E3}
}

func hsluvToRGB(c Colour) Colour {
	h, s, l := c.E0, c.E1, c.E2
	var cc float64
	if l > 99.9999999 || l < 0.00000001 {
		cc = 0
	} else {
		cc = maxChromaForLH(l, h) * s / 100
	}
	ll, u, v := lchToLuv(l, cc, h)
	x, y, z := luvToXYZ(ll, u, v)
	r, g, b := xyzToRGB(x, y, z)
	return Colour{Format: RGB, E0: r, E1: g, E2: b, E3: c.E3}
}

// --- element accessors, used by col/get-*, col/set-* natives ---

// ElementIndex maps a get/set-accessor keyword suffix to the Colour element
// it addresses. "a" and "s" are deliberately aliased to index 1, per
// spec.md §9's documented (and preserved) legacy behaviour.
func ElementIndex(suffix string) (int, bool) {
	switch suffix {
	case "r", "h":
		return 0, true
	case "g", "s", "a":
		return 1, true
	case "b", "l", "v":
		return 2, true
	case "alpha":
		return 3, true
	default:
		return 0, false
	}
}

// Element returns c's component at idx (0..3).
func (c Colour) Element(idx int) float64 {
	switch idx {
	case 0:
		return c.E0
	case 1:
		return c.E1
	case 2:
		return c.E2
	default:
		return c.E3
	}
}

// WithElement returns a copy of c with component idx (0..3) set to v.
func (c Colour) WithElement(idx int, v float64) Colour {
	switch idx {
	case 0:
		c.E0 = v
	case 1:
		c.E1 = v
	case 2:
		c.E2 = v
	default:
		c.E3 = v
	}
	return c
}
