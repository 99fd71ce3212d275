package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	var received AlertEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, zap.NewNop())
	err := notifier.Notify(context.Background(), models.PropagationAlert{
		AlertID:   "alert-1",
		PlotID:    "plot-1",
		DiseaseID: "d-1",
		RiskLevel: models.RiskCritical,
	})

	require.NoError(t, err)
	assert.Equal(t, "plot.propagation.alert", received.Event)
	assert.Equal(t, "alert-1", received.Alert.AlertID)
	assert.Equal(t, models.RiskCritical, received.Alert.RiskLevel)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(server.URL, zap.NewNop())
	err := notifier.Notify(context.Background(), models.PropagationAlert{AlertID: "alert-1"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}
