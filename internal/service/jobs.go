package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// Job statuses reported to the webhook.
const (
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// WebhookPayload is POSTed to the caller's webhook when a job finishes.
type WebhookPayload struct {
	JobID           string                 `json:"job_id"`
	Status          string                 `json:"status"`
	OptimizedRoutes *model.OptimizeResult  `json:"optimized_routes,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// JobRunner executes solves in the background and notifies a webhook on
// completion. Jobs are fire-and-forget: the caller gets a job id
// immediately and everything else arrives at the webhook. Cancellation is
// observed only between solves, never mid-solve.
type JobRunner struct {
	svc    *OptimizationService
	client *http.Client
}

// NewJobRunner creates a runner posting webhooks with a 30-second timeout.
func NewJobRunner(svc *OptimizationService) *JobRunner {
	return &JobRunner{
		svc:    svc,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Start launches a background solve and returns its job id.
func (j *JobRunner) Start(bookings []model.Booking, webhookURL string) string {
	jobID := uuid.NewString()
	log.Printf("[job] %s started: %d bookings → %s", jobID, len(bookings), webhookURL)

	go j.run(jobID, bookings, webhookURL)
	return jobID
}

func (j *JobRunner) run(jobID string, bookings []model.Booking, webhookURL string) {
	result, err := j.svc.Optimize(context.Background(), bookings)

	payload := WebhookPayload{JobID: jobID}
	if err != nil {
		log.Printf("[job] %s failed: %v", jobID, err)
		payload.Status = JobFailed
		payload.Error = err.Error()
	} else {
		payload.Status = JobCompleted
		payload.OptimizedRoutes = &result
	}

	if err := j.notify(webhookURL, payload); err != nil {
		log.Printf("[job] %s webhook delivery failed: %v", jobID, err)
		return
	}
	log.Printf("[job] %s webhook delivered (%s)", jobID, payload.Status)
}

func (j *JobRunner) notify(webhookURL string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("job: marshal payload: %w", err)
	}

	resp, err := j.client.Post(webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("job: post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("job: webhook returned %s", resp.Status)
	}
	return nil
}
