// Package iconcache remembers resolved icon URLs per target URL.
//
// Records are stored as JSON in a kv.Store under a key derived from the
// target URL:
//
//	bookie_icon_cache_<encodeURIComponent(url)> -> {"iconUrl": "...", "timestamp": <unix millis>}
//
// A record is fresh while its age is below the cache duration. Stale and
// undecodable records are reported as misses and left in the store until
// the next Put for the same URL overwrites them.
package iconcache
