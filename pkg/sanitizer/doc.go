// Package sanitizer normalizes free-text input before validation and storage.
//
// Normalization is idempotent: applying it twice yields the same result.
package sanitizer
