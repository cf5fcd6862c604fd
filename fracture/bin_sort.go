package fracture

import (
	"math"

	"golang.org/x/exp/constraints"
)

// BinSort performs a stable counting sort of the first n elements of input
// according to their bin numbers, which must lie in [0, binCount).
//
// Elements past n are copied to the end of the result unchanged. The result is
// a newly allocated slice of the same length as input, unless binCount <= 1,
// in which case input is returned as-is.
func BinSort[T any](input []T, n, binCount int, bin func(T) int) []T {
	if binCount <= 1 {
		return input
	}
	if n > len(input) {
		n = len(input)
	}

	counts := make([]int, binCount)
	for _, x := range input[:n] {
		counts[bin(x)]++
	}

	// Convert counts into exclusive prefix sums (output offsets).
	var offset int
	for i, c := range counts {
		counts[i] = offset
		offset += c
	}

	output := make([]T, len(input))
	for _, x := range input[:n] {
		b := bin(x)
		output[counts[b]] = x
		counts[b]++
	}
	copy(output[n:], input[n:])
	return output
}

// binsPerRow picks the grid resolution for n points, such that each bin holds
// roughly sqrt(n) points.
func binsPerRow(n int) int {
	return int(math.Ceil(math.Pow(float64(n), 0.25)))
}

// binIndex computes the serpentine bin of a point with coordinates in [0, 1].
//
// Even rows are numbered left to right and odd rows right to left, so that
// consecutive bins are always spatially adjacent.
func binIndex[F constraints.Float](x, y F, perRow int) int {
	row := clampBin(int(F(0.99)*F(perRow)*y), perRow)
	col := clampBin(int(F(0.99)*F(perRow)*x), perRow)
	if row%2 == 0 {
		return row*perRow + col
	}
	return (row+1)*perRow - col - 1
}

func clampBin(i, perRow int) int {
	if i < 0 {
		return 0
	} else if i >= perRow {
		return perRow - 1
	}
	return i
}
