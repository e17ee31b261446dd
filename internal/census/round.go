package census

import "strconv"

// Round rounds x to places decimal digits. Ties on the exact binary value
// go to even, so Round(0.125, 2) is 0.12 and Round(2.675, 2) is 2.67.
func Round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}
