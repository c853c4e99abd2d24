/*
Package index implements sampled lookup trees for paths.

A Map stores 2^k samples (key, value), ordered by non-decreasing key, and a
complete binary tree of k layers of branches above them. Each branch caches
the key separating its two children, plus the key range it covers. A query
descends the tree and interpolates linearly between the two samples
bracketing the key.

Two maps are built for every path segment: the arc-length index
(distance → pose) and the time index (time → distance).

Maps are immutable. Rebuilding means building a new map and swapping it in.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package index

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'autopath.index'
func tracer() tracing.Trace {
	return tracing.Select("autopath.index")
}

// Limits and default for sample exponents.
const (
	MinExponent     = 1
	MaxExponent     = 16
	DefaultExponent = 7 // 128 samples
)

// SampleCount returns 2^exp. It panics if exp is outside
// [MinExponent, MaxExponent].
func SampleCount(exp int) int {
	if exp < MinExponent || exp > MaxExponent {
		panic(fmt.Sprintf("sample exponent %d out of range [%d,%d]", exp, MinExponent, MaxExponent))
	}
	return 1 << exp
}

// Sample is a leaf of a lookup tree.
type Sample[T any] struct {
	Key   float64
	Value T
}

// LerpFunc interpolates between two sample values, t ∈ [0,1].
type LerpFunc[T any] func(a, b T, t float64) T

type branch struct {
	sep float64 // keys greater than sep are found in the greater child
	min float64
	max float64
}

// Map is a balanced lookup tree over 2^k samples.
type Map[T any] struct {
	leaves []Sample[T]
	layers [][]branch // layers[0] is the root, the last layer references leaves
	lerp   LerpFunc[T]
}

// New builds a tree over the given samples. The number of samples has to be
// a power of two (at least 2), keys have to be non-decreasing. Samples are
// copied.
//
// New panics if the sample count is not a power of two.
func New[T any](samples []Sample[T], lerp LerpFunc[T]) *Map[T] {
	n := len(samples)
	if n < 2 || n&(n-1) != 0 {
		panic(fmt.Sprintf("lookup tree needs 2^k samples, has %d", n))
	}
	m := &Map[T]{
		leaves: make([]Sample[T], n),
		lerp:   lerp,
	}
	copy(m.leaves, samples)
	k := 0
	for 1<<k < n {
		k++
	}
	m.layers = make([][]branch, k)
	bottom := make([]branch, n/2)
	for j := range bottom {
		a, b := m.leaves[2*j].Key, m.leaves[2*j+1].Key
		bottom[j] = branch{sep: (a + b) / 2, min: a, max: b}
	}
	m.layers[k-1] = bottom
	for l := k - 2; l >= 0; l-- {
		children := m.layers[l+1]
		layer := make([]branch, len(children)/2)
		for j := range layer {
			less, greater := children[2*j], children[2*j+1]
			layer[j] = branch{
				sep: (less.max + greater.min) / 2,
				min: less.min,
				max: greater.max,
			}
		}
		m.layers[l] = layer
	}
	tracer().Debugf("built lookup tree with %d samples, %d layers, keys [%.4g,%.4g]",
		n, k, m.leaves[0].Key, m.leaves[n-1].Key)
	return m
}

// Query returns the value at key, interpolated between the two bracketing
// samples. Keys outside the sampled range are clamped to the boundary
// samples.
func (m *Map[T]) Query(key float64) T {
	j := 0
	for l := 0; l < len(m.layers)-1; l++ {
		br := m.layers[l][j]
		j = 2 * j
		if key > br.sep {
			j++
		}
	}
	lo := 2 * j
	if key >= m.leaves[lo+1].Key {
		lo++
	} else if key < m.leaves[lo].Key {
		lo--
	}
	if lo < 0 {
		lo = 0
	} else if lo > len(m.leaves)-2 {
		lo = len(m.leaves) - 2
	}
	a, b := m.leaves[lo], m.leaves[lo+1]
	span := b.Key - a.Key
	if span <= 0 {
		if key < a.Key {
			return a.Value
		}
		return b.Value
	}
	t := (key - a.Key) / span
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return m.lerp(a.Value, b.Value, t)
}

// Len is the number of samples.
func (m *Map[T]) Len() int {
	return len(m.leaves)
}

// Depth is the number of branch layers, i.e. the sample exponent.
func (m *Map[T]) Depth() int {
	return len(m.layers)
}

// MaxKey is the key of the last sample, e.g. the total length of a path.
func (m *Map[T]) MaxKey() float64 {
	return m.leaves[len(m.leaves)-1].Key
}

// At returns sample i.
func (m *Map[T]) At(i int) Sample[T] {
	return m.leaves[i]
}

// Samples returns a copy of all samples.
func (m *Map[T]) Samples() []Sample[T] {
	s := make([]Sample[T], len(m.leaves))
	copy(s, m.leaves)
	return s
}
