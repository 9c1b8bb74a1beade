package poller

import (
	"veo-console/internal/backend"
	"veo-console/pkg/models"
)

// Sentinelles du vocabulaire backend
const (
	backendComplete   = "COMPLETE"
	backendError      = "ERROR"
	backendPolling    = "POLLING"
	backendProcessing = "PROCESSING"
)

// Normalize traduit une réponse /status dans l'énumération client.
// ok=false signale une réponse inexploitable: échec transitoire, statut inchangé.
func Normalize(report *backend.StatusReport) (models.JobStatus, bool) {
	if report == nil {
		return "", false
	}

	if (report.Done != nil && *report.Done) || report.Status == backendComplete {
		return models.StatusCompleted, true
	}

	switch report.Status {
	case backendError:
		return models.StatusFailed, true
	case backendPolling, backendProcessing:
		return models.StatusProcessing, true
	}

	return "", false
}
