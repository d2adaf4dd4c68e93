// Package handler provides HTTP request handlers for the application.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"go.uber.org/zap"

	"github.com/popeskul/cadence/internal/api"
	"github.com/popeskul/cadence/internal/middleware"
	"github.com/popeskul/cadence/internal/models"
	"github.com/popeskul/cadence/internal/scheduler"
	"github.com/popeskul/cadence/internal/service"
)

const (
	errorCodeSchedulerAlreadyRunning = "SCHEDULER_ALREADY_RUNNING"
	errorCodeSchedulerNotRunning     = "SCHEDULER_NOT_RUNNING"
	errorCodeInvalidRequest          = "INVALID_REQUEST"
	errorCodeNotFound                = "NOT_FOUND"
	errorCodeLimitReached            = "SUBMISSION_LIMIT_REACHED"
)

const (
	errorMessageSchedulerAlreadyRunning = "Scheduler is already running"
	errorMessageSchedulerNotRunning     = "Scheduler is not running"
	errorMessageFailedToStartScheduler  = "Failed to start scheduler"
	errorMessageFailedToStopScheduler   = "Failed to stop scheduler"
	errorMessageInvalidBody             = "Request body must be a JSON submission"
	errorMessageLimitReached            = "Free users can only have a limited number of submissions. Upgrade to add more."
	errorMessageFailedSubmissions       = "Failed to process submission request"
)

const (
	schedulerMessageStarted = "Scheduler started successfully"
	schedulerMessageStopped = "Scheduler stopped successfully"
)

type Handler struct {
	service *service.Service
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates a new handler instance that implements api.ServerInterface.
func NewHandler(service *service.Service, logger *zap.Logger) api.ServerInterface {
	return &Handler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// SendMessages implements api.ServerInterface. With a submission_id it sends
// that submission's next message immediately; otherwise it delivers every
// due submission.
func (h *Handler) SendMessages(w http.ResponseWriter, r *http.Request, params api.SendMessagesParams) {
	var opts models.DispatchOptions
	if params.SubmissionId != nil {
		id := *params.SubmissionId
		opts.SubmissionID = &id
	}

	result, err := h.service.Dispatch.Run(r.Context(), h.now(), opts)
	if err != nil {
		h.logger.Error("Dispatch run failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
	}
	if result == nil {
		result = &models.DispatchResult{Results: []models.SubmissionResult{}}
		if err != nil {
			result.Error = err.Error()
		}
	}

	render.JSON(w, r, toDispatchResponse(result))
}

// ProcessSubmissions implements api.ServerInterface.
func (h *Handler) ProcessSubmissions(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Processing.ProcessPending(r.Context())
	if err != nil {
		h.logger.Error("Processing run failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		render.Status(r, http.StatusInternalServerError)
	}
	if result == nil {
		result = &models.ProcessResult{}
		if err != nil {
			result.Error = err.Error()
		}
	}

	render.JSON(w, r, toProcessResponse(result))
}

// CreateSubmission implements api.ServerInterface.
func (h *Handler) CreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSubmissionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, errorMessageInvalidBody)
		return
	}

	input := service.CreateSubmissionInput{
		UserID:   req.UserId,
		Text:     deref(req.TextField),
		Cadence:  string(req.Cadence),
		Timezone: deref(req.Timezone),
	}
	if req.Repeat != nil {
		input.Repeat = string(*req.Repeat)
	}
	if req.UploadedFiles != nil {
		input.Files = *req.UploadedFiles
	}

	sub, err := h.service.Submission.Create(r.Context(), input)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toSubmission(sub))
}

// ListSubmissions implements api.ServerInterface.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request, params api.ListSubmissionsParams) {
	subs, err := h.service.Submission.List(r.Context(), params.UserId)
	if err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	out := api.SubmissionList{Submissions: make([]api.Submission, 0, len(subs))}
	for _, sub := range subs {
		out.Submissions = append(out.Submissions, toSubmission(sub))
	}

	render.JSON(w, r, out)
}

// DeleteSubmission implements api.ServerInterface.
func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request, submissionId openapi_types.UUID) {
	if err := h.service.Submission.Delete(r.Context(), submissionId); err != nil {
		h.sendServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StartScheduler implements api.ServerInterface.
func (h *Handler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	err := h.service.Scheduler.Start()
	if err != nil {
		if errors.Is(err, scheduler.ErrSchedulerAlreadyRunning) {
			h.sendError(w, r, http.StatusConflict, errorCodeSchedulerAlreadyRunning, errorMessageSchedulerAlreadyRunning)
			return
		}

		h.logger.Error("Failed to start scheduler",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToStartScheduler)
		return
	}

	render.JSON(w, r, api.SchedulerResponse{
		Status:  api.SchedulerResponseStatusStarted,
		Message: schedulerMessageStarted,
	})
}

// StopScheduler implements api.ServerInterface.
func (h *Handler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	err := h.service.Scheduler.Stop()
	if err != nil {
		if errors.Is(err, scheduler.ErrSchedulerNotRunning) {
			h.sendError(w, r, http.StatusConflict, errorCodeSchedulerNotRunning, errorMessageSchedulerNotRunning)
			return
		}

		h.logger.Error("Failed to stop scheduler",
			zap.String("request_id", requestID),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedToStopScheduler)
		return
	}

	render.JSON(w, r, api.SchedulerResponse{
		Status:  api.SchedulerResponseStatusStopped,
		Message: schedulerMessageStopped,
	})
}

// HealthCheck implements api.ServerInterface.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health.GetHealth(r.Context())

	response := api.HealthResponse{
		Status:    health.Status,
		Timestamp: h.now(),
	}

	if health.SchedulerStatus != "" {
		status := health.SchedulerStatus
		response.SchedulerStatus = &status
	}

	if health.DatabaseStatus != "" {
		status := health.DatabaseStatus
		response.DatabaseStatus = &status
	}

	if health.RedisStatus != "" {
		status := health.RedisStatus
		response.RedisStatus = &status
	}

	if health.CircuitBreakerStatus != "" {
		status := health.CircuitBreakerStatus
		response.CircuitBreakerStatus = &status
	}

	if health.CircuitBreakerState != "" {
		state := health.CircuitBreakerState
		response.CircuitBreakerState = &state
	}

	// Degraded still answers 200 so the service stays in rotation.
	if health.Status == api.Unhealthy {
		render.Status(r, http.StatusServiceUnavailable)
	}

	render.JSON(w, r, response)
}

// sendServiceError maps domain errors of the submission operations to
// responses.
func (h *Handler) sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCadence),
		errors.Is(err, models.ErrInvalidRepeat),
		errors.Is(err, models.ErrInvalidTimezone),
		errors.Is(err, models.ErrMissingSource):
		h.sendError(w, r, http.StatusBadRequest, errorCodeInvalidRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		h.sendError(w, r, http.StatusNotFound, errorCodeNotFound, err.Error())
	case errors.Is(err, models.ErrSubmissionLimitReached):
		h.sendError(w, r, http.StatusForbidden, errorCodeLimitReached, errorMessageLimitReached)
	default:
		h.logger.Error("Submission request failed",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err))
		h.sendError(w, r, http.StatusInternalServerError, middleware.ErrorCodeInternal, errorMessageFailedSubmissions)
	}
}

func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	middleware.WriteError(w, r, statusCode, errorCode, message)
}
