package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/growda/pneumonia-api/internal/config"
	"github.com/growda/pneumonia-api/internal/handlers"
	"github.com/growda/pneumonia-api/internal/server"
	"github.com/growda/pneumonia-api/internal/training"
	"github.com/growda/pneumonia-api/internal/ws"
)

func TestEventStreamReceivesPredictions(t *testing.T) {
	hub := ws.NewHub(zap.NewNop())
	go hub.Run()

	h := handlers.New(&stubEngine{pred: positivePrediction()}, training.Default(), nil, nil, hub, 10, zap.NewNop())
	r := server.New(&config.Config{Port: 8080, MaxUploadMB: 10}, zap.NewNop(), h).Router()

	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	body, ct := uploadBody(t, "file", "xray.png", "image/png", pngBytes(t))
	resp, err := http.Post(srv.URL+"/predict", ct, body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var event map[string]any
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "PNEUMONIA", event["prediction"])
	assert.Equal(t, "Severe", event["severity_level"])
	assert.NotEmpty(t, event["id"])
}
