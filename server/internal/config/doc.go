// Package config loads the server configuration from the `server:` section
// of a YAML file.
//
// Config fields:
//   - HTTPPort            port for the API, /metrics and /ws/stream (default 5000)
//   - Sources.Epochs      location, format and entry path of the epoch document
//   - Sources.Sightings   location, format and entry path of the sighting document
//   - Fetch.Timeout       per-attempt timeout for http(s) sources (default 30s)
//   - Fetch.RetryMax      retries for http(s) sources (default 3)
//   - Preload             load both sources at startup
//   - Watch               reload when a local source file changes
//   - Stream.Interval     WebSocket status broadcast period (default 5s)
//
// ISSTRACKER_EPOCH_SOURCE, ISSTRACKER_SIGHTING_SOURCE and ISSTRACKER_HTTP_PORT
// override the file. Load(path) applies defaults before unmarshalling, then
// environment overrides, then validates.
package config
