package capture

// Upright maps a point given in normalized top-left image coordinates to the
// same point in the upright scene.
func (o Orientation) Upright(u, v float64) (float64, float64) {
	switch o {
	case Down:
		return 1 - u, 1 - v
	case UpMirrored:
		return 1 - u, v
	case Left:
		return 1 - v, u
	case Right:
		return v, 1 - u
	default:
		return u, v
	}
}

// Transposed reports whether width and height swap once upright.
func (o Orientation) Transposed() bool {
	return o == Left || o == Right
}
