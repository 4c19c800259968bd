// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml, overridden from the environment
// (MTA_API_KEY, ORS_API_KEY, RELAY_PORT, RELAY_DATA_DIR, RELAY_LOG_LEVEL)
// and validated using struct tags. Unset values fall back to the defaults
// in Default().
package config
