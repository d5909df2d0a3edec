// Package sanitizer normalises free-form input before validation and storage.
//
// Every function is idempotent and never fails: unusable input collapses to an
// empty string or is dropped from a slice, leaving validation to report it.
package sanitizer
