package census

// Fill colors consumed by the pyramid and map renderers.
const (
	ColorDecrease       = "darkred"
	ColorMaleIncrease   = "steelblue"
	ColorFemaleIncrease = "lightcoral"
	ColorTotalIncrease  = "#30664B"
)

// ChangeColor picks the decrease color for negative deltas and increase
// otherwise.
func ChangeColor(delta int, increase string) string {
	if delta < 0 {
		return ColorDecrease
	}
	return increase
}
