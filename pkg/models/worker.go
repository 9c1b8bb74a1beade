package models

import "time"

// PollerStats représente les statistiques des pollers de statut
// @Description Compteurs du pool de pollers
type PollerStats struct {
	Active            int   `json:"active" example:"3"`
	Started           int64 `json:"started" example:"42"`
	PollsIssued       int64 `json:"polls_issued" example:"1250"`
	TransientFailures int64 `json:"transient_failures" example:"4"`
	JobsCompleted     int64 `json:"jobs_completed" example:"37"`
	JobsFailed        int64 `json:"jobs_failed" example:"2"`
	Stopped           int64 `json:"stopped" example:"3"`
} // @name PollerStats

// PollerStatsResponse enveloppe les statistiques avec un horodatage
// @Description Statistiques des pollers à un instant donné
type PollerStatsResponse struct {
	Pollers      PollerStats `json:"pollers"`
	Sessions     int         `json:"sessions" example:"2"`
	PollInterval string      `json:"poll_interval" example:"5s"`
	Timestamp    time.Time   `json:"timestamp" example:"2025-01-17T10:30:00Z"`
} // @name PollerStatsResponse
