package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/ingest"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/optimizer"
	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/service"
)

// maxUploadBytes caps CSV uploads at 8 MiB — a day's planning export is
// a few hundred kilobytes.
const maxUploadBytes = 8 << 20

// OptimizeHandler handles the optimization endpoints.
type OptimizeHandler struct {
	svc  *service.OptimizationService
	jobs *service.JobRunner
}

// NewOptimizeHandler creates a handler wired to the optimization service
// and the background job runner.
func NewOptimizeHandler(svc *service.OptimizationService, jobs *service.JobRunner) *OptimizeHandler {
	return &OptimizeHandler{svc: svc, jobs: jobs}
}

// optimizeRequest is the synchronous solve body. A bare JSON array of
// bookings is also accepted.
type optimizeRequest struct {
	Bookings []model.Booking `json:"bookings"`
}

// webhookJobRequest is the asynchronous solve body.
type webhookJobRequest struct {
	Data       []model.Booking `json:"data"`
	WebhookURL string          `json:"webhook_url"`
}

// Optimize handles POST /api/v1/optimize/
//
// Runs a synchronous solve and returns the clusters and dropped bookings.
//
// Response codes:
//
//	200 — solve finished (possibly with dropped bookings)
//	400 — malformed JSON
//	422 — booking validation failed
//	502 — geocoder or distance-matrix provider failed
//	500 — internal solver error
func (h *OptimizeHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	bookings, ok := h.decodeBookings(w, r)
	if !ok {
		return
	}

	result, err := h.svc.Optimize(r.Context(), bookings)
	if err != nil {
		h.writeOptimizeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// StartJobWithWebhook handles POST /api/v1/optimize/start-job-with-webhook
//
// Validates the request, starts a background solve, and returns the job
// id immediately. The result is POSTed to the webhook on completion.
func (h *OptimizeHandler) StartJobWithWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return
	}

	u, err := url.ParseRequestURI(req.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		writeError(w, http.StatusUnprocessableEntity, "invalid_webhook", "webhook_url must be an absolute http(s) URL")
		return
	}
	for i := range req.Data {
		if err := req.Data[i].Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_booking", err.Error())
			return
		}
	}

	jobID := h.jobs.Start(req.Data, req.WebhookURL)
	writeJSON(w, http.StatusOK, map[string]string{
		"job_id":  jobID,
		"message": "Job started. A webhook will be sent upon completion.",
	})
}

// LastResult handles GET /api/v1/optimize/
//
// Returns the last persisted solve result, or 404 when nothing has been
// solved yet.
func (h *OptimizeHandler) LastResult(w http.ResponseWriter, r *http.Request) {
	result, found, err := h.svc.LastResult()
	if err != nil {
		log.Printf("[handler] load last result: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "could not read last result")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no_result", "no optimization has been run yet")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UploadCSV handles POST /api/v1/optimize/upload
//
// Accepts the dispatcher's planning CSV (multipart field "bookings_file"
// or a raw body), geocodes the addresses, and solves synchronously.
func (h *OptimizeHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	content, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_upload", err.Error())
		return
	}

	bookings, err := ingest.ParseCSV(content)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_csv", err.Error())
		return
	}

	result, err := h.svc.Optimize(r.Context(), bookings)
	if err != nil {
		h.writeOptimizeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeBookings reads either {"bookings": [...]} or a bare [...] body.
func (h *OptimizeHandler) decodeBookings(w http.ResponseWriter, r *http.Request) ([]model.Booking, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "could not read body")
		return nil, false
	}

	var req optimizeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var bare []model.Booking
		if err2 := json.Unmarshal(body, &bare); err2 != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return nil, false
		}
		req.Bookings = bare
	}

	for i := range req.Bookings {
		if err := req.Bookings[i].Validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_booking", err.Error())
			return nil, false
		}
	}
	return req.Bookings, true
}

func (h *OptimizeHandler) writeOptimizeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "invalid_booking", err.Error())
	case errors.Is(err, service.ErrProvider):
		writeError(w, http.StatusBadGateway, "provider_error", err.Error())
	case errors.Is(err, optimizer.ErrMatrixShape):
		log.Printf("[handler] matrix shape violation: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "matrix provider returned malformed data")
	default:
		log.Printf("[handler] optimize error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "optimization failed")
	}
}

func readUpload(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, err := r.FormFile("bookings_file")
		if err != nil {
			return nil, errors.New("multipart form must carry a bookings_file field")
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxUploadBytes))
	}
	// Not multipart: treat the raw body as the CSV.
	return io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
}
