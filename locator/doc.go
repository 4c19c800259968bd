// Package locator estimates where the relay host is from its public IP.
//
// Locate asks a chain of free geolocation services in order and caches the
// first answer as JSON on disk. When every provider fails, an expired cache
// entry is still returned, marked stale.
package locator
