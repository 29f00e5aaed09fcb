package model

// Source records which path produced a provider result.
type Source string

const (
	SourceFresh    Source = "fresh"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)
