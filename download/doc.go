// Package download refreshes the static GTFS dataset on disk.
//
// A Manager fetches the dataset archive, validates and extracts it next to
// the live directory, then swaps it in. The previous directory and the
// .last_download timestamp are only replaced after every step succeeded,
// so a failed refresh leaves the relay serving the old data.
//
// Refreshes are rate limited: within the configured interval a non-forced
// call fails with *RateLimitedError carrying the remaining wait.
package download
