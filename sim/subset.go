package sim

import "fmt"

// SampleUnique moves k elements of seq, drawn uniformly without replacement, to the front of
// seq and returns seq[:k]. Every ordered k-prefix is equally likely, so every k-subset is too.
// The order of the remaining n-k elements is unspecified.
//
// Runs a partial Fisher-Yates shuffle: O(k) draws and swaps regardless of len(seq).
func SampleUnique[T any](seq []T, k int, src Source) ([]T, error) {
	n := len(seq)
	if k < 0 || k > n {
		return nil, fmt.Errorf("sample %d unique elements from %d: %w", k, n, ErrInvalidArgument)
	}
	front := 0
	left := n
	for ; k > 0; k-- {
		r := front + src.IntN(left)
		seq[front], seq[r] = seq[r], seq[front]
		front++
		left--
	}
	return seq[:front], nil
}

// SampleUniqueIndices returns k distinct indices from [0,n) in selection order.
func SampleUniqueIndices(n, k int, src Source) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample from range of size %d: %w", n, ErrInvalidArgument)
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return SampleUnique(indices, k, src)
}
