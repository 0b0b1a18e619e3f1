// Package util provides a collection of domain-agnostic helpers.
package util

import (
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/exp/constraints"
)

// Clamp bounds value to the closed interval [lo, hi]. When lo > hi, lo wins.
func Clamp[T constraints.Integer | constraints.Float](value, lo, hi T) T {
	if value > hi {
		value = hi
	}
	if value < lo {
		value = lo
	}
	return value
}

// Ignore executes a function and explicitly discards its error return value.
func Ignore(f func() error) {
	_ = f()
}

// FormatSeconds renders a playback offset as H:MM:SS or M:SS.
func FormatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// PrintErasable prints msg on the current line and returns a function that blanks it.
func PrintErasable(msg string) (eraser func()) {
	fmt.Fprintf(os.Stdout, "\r%s", msg)
	return func() {
		fmt.Fprintf(os.Stdout, "\r%s\r", strings.Repeat(" ", len(msg)))
	}
}
