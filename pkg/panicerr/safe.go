package panicerr

import (
	"github.com/sourcegraph/conc/panics"
)

// Call runs fn and converts a panic into an error, so that one branch of a
// fan-out cannot take down the process or its siblings.
func Call[T any](fn func() (T, error)) (T, error) {
	var (
		catcher panics.Catcher
		result  T
		err     error
	)
	catcher.Try(func() {
		result, err = fn()
	})
	if r := catcher.Recovered(); r != nil {
		var zero T
		return zero, r.AsError()
	}
	return result, err
}

// Safe wraps a function that returns an error, catching any panics and returning them as an error.
func Safe(fn func() error) func() error {
	return func() error {
		_, err := Call(func() (struct{}, error) {
			return struct{}{}, fn()
		})
		return err
	}
}
