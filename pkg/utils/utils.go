package utils

// Must unwraps a (value, error) pair, panicking on error.
func Must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Cast asserts v to T, panicking on mismatch.
func Cast[T any](v any) T {
	return v.(T)
}

// TryCast asserts v to T.
func TryCast[T any](v any) (T, bool) {
	t, ok := v.(T)
	return t, ok
}

// Or returns a if it is non-zero, otherwise b.
func Or[T comparable](a, b T) T {
	var zero T
	if a != zero {
		return a
	}
	return b
}

// Ternary returns a when pred is true, otherwise b. Both arguments are
// evaluated.
func Ternary[T any](pred bool, a, b T) T {
	if pred {
		return a
	}
	return b
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
