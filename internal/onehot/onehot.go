// Package onehot assigns categorical labels fixed-width one-hot codes.
package onehot

import (
	"errors"
	"fmt"

	"github.com/pbaille/katas/internal/domain"
)

// ErrNoCategories is returned when Encode is called without labels
var ErrNoCategories = errors.New("expected at least 1 category, got 0")

// Codebook maps each distinct label to an index in order of first appearance
type Codebook struct {
	labels []string
	index  map[string]int
}

// NewCodebook scans labels once and records every distinct value
func NewCodebook(labels []string) *Codebook {
	cb := &Codebook{index: make(map[string]int)}
	for _, l := range labels {
		if _, ok := cb.index[l]; ok {
			continue
		}
		cb.index[l] = len(cb.labels)
		cb.labels = append(cb.labels, l)
	}
	return cb
}

// Width returns the number of bits in every code
func (c *Codebook) Width() int {
	return len(c.labels)
}

// Labels returns the distinct labels in first-appearance order
func (c *Codebook) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Index returns the first-appearance position of label
func (c *Codebook) Index(label string) (int, bool) {
	i, ok := c.index[label]
	return i, ok
}

// Code returns the big-endian bits of 2^i for label's index i
func (c *Codebook) Code(label string) ([]int, bool) {
	i, ok := c.index[label]
	if !ok {
		return nil, false
	}
	return bitsOf(i, c.Width()), true
}

func bitsOf(i, width int) []int {
	code := make([]int, width)
	code[width-1-i] = 1
	return code
}

// Encode returns one row per label, in input order. Repeated labels share
// the code assigned when they were first seen.
func Encode(labels ...string) ([]domain.EncodedRow, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("encode: %w", ErrNoCategories)
	}

	cb := NewCodebook(labels)
	codes := make([][]int, cb.Width())

	rows := make([]domain.EncodedRow, 0, len(labels))
	for _, l := range labels {
		i := cb.index[l]
		if codes[i] == nil {
			codes[i] = bitsOf(i, cb.Width())
		}
		rows = append(rows, domain.EncodedRow{Label: l, Code: codes[i]})
	}

	return rows, nil
}
