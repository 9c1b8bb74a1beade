package presentation

import (
	"testing"
	"time"

	"veo-console/pkg/models"

	"github.com/stretchr/testify/assert"
)

func TestDisplayFor(t *testing.T) {
	tests := []struct {
		status  models.JobStatus
		icon    string
		tone    string
		animate bool
	}{
		{models.StatusQueued, "clock", "slate", false},
		{models.StatusProcessing, "loader", "blue", true},
		{models.StatusCompleted, "check-circle", "emerald", false},
		{models.StatusFailed, "alert-circle", "red", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			d := DisplayFor(tt.status)
			assert.Equal(t, tt.icon, d.Icon)
			assert.Equal(t, tt.tone, d.Tone)
			assert.Equal(t, tt.animate, d.Animate)
			assert.Equal(t, string(tt.status), d.Label)
		})
	}

	assert.Equal(t, "clock", DisplayFor("bogus").Icon)
}

func TestNewJobView_MediaOnlyWhenCompleted(t *testing.T) {
	op := "models/veo-3.1-fast-generate-preview/operations/abc123"

	for _, status := range []models.JobStatus{models.StatusQueued, models.StatusProcessing, models.StatusFailed} {
		view := NewJobView(&models.Job{ID: op, Status: status, Prompt: "x"})
		assert.Empty(t, view.VideoURL, "status %s", status)
		assert.Empty(t, view.DownloadURL, "status %s", status)
	}

	view := NewJobView(&models.Job{ID: op, Status: models.StatusCompleted, Prompt: "x"})
	assert.Equal(t, "/download/"+op, view.VideoURL)
	assert.Equal(t, view.VideoURL, view.DownloadURL)
}

func TestNewJobView_Fields(t *testing.T) {
	created := time.Date(2025, 1, 17, 10, 30, 0, 0, time.UTC)
	view := NewJobView(&models.Job{
		ID:        "1700000000000",
		Status:    models.StatusQueued,
		Type:      models.FlowFirstLast,
		CreatedAt: created,
	})

	assert.Equal(t, "17000000", view.ShortID)
	assert.Equal(t, NoPromptText, view.PromptDisplay)
	assert.Empty(t, view.Prompt)
	assert.Equal(t, models.FlowFirstLast, view.Type)
	assert.Equal(t, created, view.CreatedAt)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", ShortID("abc"))
	assert.Equal(t, "opératio", ShortID("opérations/x"))
	assert.Equal(t, "éééééééé", ShortID("éééééééééé"))
}

func TestNewJobViews_KeepsOrder(t *testing.T) {
	views := NewJobViews([]*models.Job{{ID: "b"}, {ID: "a"}})
	assert.Equal(t, "b", views[0].ID)
	assert.Equal(t, "a", views[1].ID)
}

func TestDownloadURL_EscapesSegments(t *testing.T) {
	cases := []struct{ operation, want string }{
		{"models/veo-3.1-fast-generate-preview/operations/abc123", "/download/models/veo-3.1-fast-generate-preview/operations/abc123"},
		{"operations/a?b#c%", "/download/operations/a%3Fb%23c%25"},
		{"operations/with space", "/download/operations/with%20space"},
		{"/operations/trimmed/", "/download/operations/trimmed"},
		{"1700000000000", "/download/1700000000000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DownloadURL(tc.operation), tc.operation)
	}
}
