package models

import "time"

// SystemMetrics is the aggregated snapshot served by the stats endpoint.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	ValidationsRun           uint64    `json:"validationsRun"`
	ConflictsFound           uint64    `json:"conflictsFound"`
	RejectedEdits            uint64    `json:"rejectedEdits"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
