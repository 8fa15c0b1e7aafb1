package models

import "encoding/json"

// CacheStatus describes how a response was obtained
type CacheStatus string

const (
	CacheStatusHit     CacheStatus = "HIT"
	CacheStatusMiss    CacheStatus = "MISS"
	CacheStatusRefresh CacheStatus = "REFRESH" // recomputed on request, cache bypassed
)

// Envelope is the response wrapper returned for every resource request,
// whether the result came from the cache or was just produced.
type Envelope struct {
	LastUpdated string          `json:"last_updated"`
	Result      json.RawMessage `json:"result"`

	// Status and Key are reported via response headers, not in the body
	Status CacheStatus `json:"-"`
	Key    string      `json:"-"`
}
