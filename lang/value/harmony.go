package value

// Colour harmony helpers (spec.md §5 supplement), grounded on
// original_source's colour.rs angle-on-the-HSLuv-wheel scheme: all harmony
// relationships are expressed as a hue rotation in HSLuv space, then
// converted back to the input's original format.
const (
	colourUnitAngle         = 360.0 / 12.0
	colourComplimentaryAngle = colourUnitAngle * 6.0
	colourTriadAngle         = colourUnitAngle * 4.0
)

func (c Colour) addAngleHSLuv(delta float64) (Colour, error) {
	hsluv, err := c.Convert(HSLuv)
	if err != nil {
		return Colour{}, err
	}
	h := hsluv.E0 + delta
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	hsluv.E0 = h
	return hsluv.Convert(c.Format)
}

func (c Colour) pair(angle float64) (Colour, Colour, error) {
	c1, err := c.addAngleHSLuv(angle)
	if err != nil {
		return Colour{}, Colour{}, err
	}
	c2, err := c.addAngleHSLuv(-angle)
	if err != nil {
		return Colour{}, Colour{}, err
	}
	return c1, c2, nil
}

// Complementary returns the colour directly opposite c on the hue wheel.
func (c Colour) Complementary() (Colour, error) { return c.addAngleHSLuv(colourComplimentaryAngle) }

// SplitComplementary returns the two colours adjacent to c's complementary.
func (c Colour) SplitComplementary() (Colour, Colour, error) {
	comp, err := c.addAngleHSLuv(colourComplimentaryAngle)
	if err != nil {
		return Colour{}, Colour{}, err
	}
	return comp.pair(colourUnitAngle)
}

// Analagous returns the two colours adjacent to c on the hue wheel.
func (c Colour) Analagous() (Colour, Colour, error) { return c.pair(colourUnitAngle) }

// Triad returns the two colours that, with c, are evenly spaced on the hue
// wheel.
func (c Colour) Triad() (Colour, Colour, error) { return c.pair(colourTriadAngle) }

// Darken reduces c's LAB lightness by amount (0..100), clamped.
func (c Colour) Darken(amount float64) (Colour, error) {
	lab, err := c.Convert(LAB)
	if err != nil {
		return Colour{}, err
	}
	lab.E0 = clamp01(lab.E0/100-amount/100) * 100
	return lab.Convert(c.Format)
}

// Lighten increases c's LAB lightness by amount (0..100), clamped.
func (c Colour) Lighten(amount float64) (Colour, error) {
	lab, err := c.Convert(LAB)
	if err != nil {
		return Colour{}, err
	}
	lab.E0 = clamp01(lab.E0/100+amount/100) * 100
	return lab.Convert(c.Format)
}
