package calculator

import "math"

// ComputeVolume returns the volume of a cylindrical pot, in the cube of the
// input length unit (cm in, cm³ out).
func ComputeVolume(diameter, height float64) float64 {
	radius := diameter / 2
	return math.Pi * radius * radius * height
}
