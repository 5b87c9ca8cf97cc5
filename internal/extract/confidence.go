package extract

import "math"

const (
	nameWeight  = 0.40
	priceWeight = 0.25
	sizeWeight  = 0.25
	brandWeight = 0.05
	colorWeight = 0.05
)

// Score weighs which fields were found. It is a completeness signal in
// [0, 1], not a probability.
func Score(name, price, size, brand, color string) float64 {
	score := 0.0
	for _, f := range []struct {
		value  string
		weight float64
	}{
		{name, nameWeight},
		{price, priceWeight},
		{size, sizeWeight},
		{brand, brandWeight},
		{color, colorWeight},
	} {
		if f.value != "" {
			score += f.weight
		}
	}
	return math.Round(score*100) / 100
}
