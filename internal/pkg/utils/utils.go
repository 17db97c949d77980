// Package utils holds tiny shared helpers.
package utils

// Ptr returns a pointer to v, for building partial updates concisely.
func Ptr[T any](v T) *T {
	return &v
}
