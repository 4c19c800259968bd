// Package distance estimates walking distance and duration between two
// coordinates.
//
// Estimate asks a routing service first and falls back to a great-circle
// distance scaled by a detour factor when routing is not configured or
// fails. Both paths return the same Result shape; only Method differs.
package distance
