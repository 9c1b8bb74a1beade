package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"veo-console/pkg/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/sessions/" + sessionID + "/events"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var message outgoingMessage
	require.NoError(t, conn.ReadJSON(&message))
	return message
}

func TestEventFeed(t *testing.T) {
	env := setupTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	sessionID := env.openSession(t)
	conn := dialEvents(t, server, sessionID)

	snapshot := readMessage(t, conn)
	assert.Equal(t, messageSnapshot, snapshot.Type)
	assert.Empty(t, snapshot.Jobs)

	w := env.do(multipartRequest(t, "/api/v1/sessions/"+sessionID+"/generate/text_to_video",
		map[string]string{"prompt": "sunrise"}))
	require.Equal(t, http.StatusCreated, w.Code)

	created := readMessage(t, conn)
	assert.Equal(t, models.EventJobCreated, created.Type)
	require.NotNil(t, created.Job)
	assert.Equal(t, models.StatusQueued, created.Job.Status)
	assert.Equal(t, "sunrise", created.Job.Prompt)

	processing := readMessage(t, conn)
	assert.Equal(t, models.EventJobStatus, processing.Type)
	assert.Equal(t, models.StatusProcessing, processing.Job.Status)

	env.backend.set(func(f *fakeGenerationBackend) { f.statusBody = `{"done": true}` })

	completed := readMessage(t, conn)
	assert.Equal(t, models.EventJobStatus, completed.Type)
	assert.Equal(t, models.StatusCompleted, completed.Job.Status)
	assert.NotEmpty(t, completed.Job.DownloadURL)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return env.service.SessionCount(context.Background()) == 0
	}, 2*time.Second, 10*time.Millisecond, "disconnect closes the session")
}

func TestEventFeedUnmountFromClient(t *testing.T) {
	env := setupTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	sessionID := env.openSession(t)
	w := env.do(multipartRequest(t, "/api/v1/sessions/"+sessionID+"/generate/text_to_video",
		map[string]string{"prompt": "waves"}))
	require.Equal(t, http.StatusCreated, w.Code)

	conn := dialEvents(t, server, sessionID)
	defer conn.Close()

	snapshot := readMessage(t, conn)
	require.Len(t, snapshot.Jobs, 1)
	jobID := snapshot.Jobs[0].ID

	require.NoError(t, conn.WriteJSON(incomingMessage{Type: messageUnmount, JobID: jobID}))
	assert.Eventually(t, func() bool {
		return env.service.PollerStats().Active == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(incomingMessage{Type: messageMount, JobID: jobID}))
	assert.Eventually(t, func() bool {
		return env.service.PollerStats().Active == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventFeedUnknownSession(t *testing.T) {
	env := setupTestEnv(t)
	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/sessions/550e8400-e29b-41d4-a716-446655440000/events"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
