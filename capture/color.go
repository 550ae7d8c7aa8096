package capture

const (
	darkLevel   = 80
	minDarkness = 0.1
	maxDarkness = 0.7
)

// hasGoodBlackLevel rejects gray frames that are nearly all dark (lens
// covered) or nearly all bright (emitter saturating the sensor).
func hasGoodBlackLevel(img []byte) bool {
	if len(img) == 0 {
		return false
	}
	dark := 0
	for _, px := range img {
		if px < darkLevel {
			dark++
		}
	}
	darkness := float64(dark) / float64(len(img))
	return darkness > minDarkness && darkness < maxDarkness
}
