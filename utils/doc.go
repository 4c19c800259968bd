// Package utils provides small shared helpers for the relay packages.
//
// It contains:
//   - ISO-8601 and fractional Unix second timestamps
//   - Great-circle distance and unit constants
package utils
