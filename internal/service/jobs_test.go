package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

func TestJobRunner_DeliversWebhook(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	svc, _ := newTestService(nil, nil)
	runner := NewJobRunner(svc)

	jobID := runner.Start([]model.Booking{testBooking("A")}, webhook.URL)
	require.NotEmpty(t, jobID)

	select {
	case payload := <-received:
		assert.Equal(t, jobID, payload.JobID)
		assert.Equal(t, JobCompleted, payload.Status)
		require.NotNil(t, payload.OptimizedRoutes)
		assert.Len(t, payload.OptimizedRoutes.Clusters, 1)
		assert.Empty(t, payload.OptimizedRoutes.DroppedBookings)
	case <-time.After(10 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}

func TestJobRunner_ReportsFailure(t *testing.T) {
	received := make(chan WebhookPayload, 1)
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload WebhookPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		received <- payload
	}))
	defer webhook.Close()

	svc, _ := newTestService(nil, failingProvider{})
	runner := NewJobRunner(svc)

	jobID := runner.Start([]model.Booking{testBooking("A")}, webhook.URL)

	select {
	case payload := <-received:
		assert.Equal(t, jobID, payload.JobID)
		assert.Equal(t, JobFailed, payload.Status)
		assert.Nil(t, payload.OptimizedRoutes)
		assert.NotEmpty(t, payload.Error)
	case <-time.After(10 * time.Second):
		t.Fatal("webhook was not delivered")
	}
}
