package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// JobService is the job supervisor surface the API depends on
type JobService interface {
	CreateJob(ctx context.Context, userID string, mode models.SyncMode) (*models.SyncJob, error)
	GetJob(ctx context.Context, jobID string) (*models.SyncJob, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.SyncJob, int64, error)
	RetryJob(ctx context.Context, jobID string) (*models.SyncJob, error)
	AbortJob(ctx context.Context, jobID string) error
	GetJobLogs(ctx context.Context, jobID string) ([]*models.SyncLogEntry, error)
	ResetUserState(ctx context.Context, userID string) (int64, error)
}

// CredentialService is the credential admin surface the API depends on
type CredentialService interface {
	Save(ctx context.Context, userID string, input models.CredentialInput) error
	Get(ctx context.Context, userID string) (*models.CredentialInfo, error)
	Delete(ctx context.Context, userID string) error
}

type Handler struct {
	jobs   JobService
	creds  CredentialService
	logger *logrus.Logger
}

func NewHandler(jobs JobService, creds CredentialService, logger *logrus.Logger) *Handler {
	return &Handler{
		jobs:   jobs,
		creds:  creds,
		logger: logger,
	}
}

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

// JobListResponse wraps a page of jobs
type JobListResponse struct {
	Jobs  []*models.SyncJob `json:"jobs"`
	Total int64             `json:"total"`
}

type createJobRequest struct {
	UserID string          `json:"user_id"`
	Mode   models.SyncMode `json:"mode"`
}

// CreateJob godoc
// @Summary Trigger a sync job
// @Description Creates a sync job for a user and starts it asynchronously
// @Tags sync
// @Accept json
// @Produce json
// @Param request body createJobRequest true "Job parameters"
// @Success 202 {object} models.SyncJob
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sync [post]
func (h *Handler) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.NewValidationError("invalid request body", err))
		return
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), req.UserID, req.Mode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// GetJob godoc
// @Summary Get a sync job
// @Description Returns the job record for status polling
// @Tags sync
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.SyncJob
// @Failure 404 {object} ErrorResponse
// @Router /sync/jobs/{id} [get]
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs godoc
// @Summary List sync jobs
// @Description Returns jobs newest-first, filterable by user, status and date range
// @Tags sync
// @Produce json
// @Param user_id query string false "Filter by user"
// @Param status query string false "Filter by status"
// @Param since query string false "Created at or after (RFC3339)"
// @Param until query string false "Created at or before (RFC3339)"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} JobListResponse
// @Failure 400 {object} ErrorResponse
// @Router /sync/jobs [get]
func (h *Handler) ListJobs(c *gin.Context) {
	filter := models.JobFilter{
		UserID: c.Query("user_id"),
		Status: models.JobStatus(c.Query("status")),
	}

	var err error
	if filter.Since, err = parseTimeQuery(c, "since"); err != nil {
		respondWithError(c, apperrors.NewValidationError("invalid since parameter (use RFC3339 format)", err))
		return
	}
	if filter.Until, err = parseTimeQuery(c, "until"); err != nil {
		respondWithError(c, apperrors.NewValidationError("invalid until parameter (use RFC3339 format)", err))
		return
	}

	if filter.Limit, err = getIntQueryParam(c, "limit", 50); err != nil {
		respondWithError(c, apperrors.NewValidationError("invalid limit parameter", err))
		return
	}
	if filter.Offset, err = getIntQueryParam(c, "offset", 0); err != nil {
		respondWithError(c, apperrors.NewValidationError("invalid offset parameter", err))
		return
	}

	jobs, total, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if jobs == nil {
		jobs = []*models.SyncJob{}
	}
	c.JSON(http.StatusOK, JobListResponse{Jobs: jobs, Total: total})
}

// RetryJob godoc
// @Summary Retry a failed sync job
// @Description Creates a new job with the same user and mode as the failed one
// @Tags sync
// @Produce json
// @Param id path string true "Job ID"
// @Success 202 {object} models.SyncJob
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sync/jobs/{id}/retry [post]
func (h *Handler) RetryJob(c *gin.Context) {
	job, err := h.jobs.RetryJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// AbortJob godoc
// @Summary Abort a sync job
// @Description Best-effort status override; in-flight calls are not interrupted
// @Tags sync
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sync/jobs/{id}/abort [post]
func (h *Handler) AbortJob(c *gin.Context) {
	if err := h.jobs.AbortJob(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "aborted"})
}

// GetJobLogs godoc
// @Summary Get sync job logs
// @Description Returns the ordered diagnostic trail for a job
// @Tags sync
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {array} models.SyncLogEntry
// @Failure 404 {object} ErrorResponse
// @Router /sync/jobs/{id}/logs [get]
func (h *Handler) GetJobLogs(c *gin.Context) {
	logs, err := h.jobs.GetJobLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	if logs == nil {
		logs = []*models.SyncLogEntry{}
	}
	c.JSON(http.StatusOK, logs)
}

// SaveCredentials godoc
// @Summary Store user credentials
// @Description Encrypts and stores a user's token bundle
// @Tags credentials
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body models.CredentialInput true "Plaintext credential bundle"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Router /users/{id}/credentials [put]
func (h *Handler) SaveCredentials(c *gin.Context) {
	var input models.CredentialInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondWithError(c, apperrors.NewValidationError("invalid request body", err))
		return
	}

	if err := h.creds.Save(c.Request.Context(), c.Param("id"), input); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetCredentials godoc
// @Summary Get masked credential info
// @Description Returns credential presence and container id, never token material
// @Tags credentials
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.CredentialInfo
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/credentials [get]
func (h *Handler) GetCredentials(c *gin.Context) {
	info, err := h.creds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeleteCredentials godoc
// @Summary Delete user credentials
// @Tags credentials
// @Produce json
// @Param id path string true "User ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/credentials [delete]
func (h *Handler) DeleteCredentials(c *gin.Context) {
	if err := h.creds.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ResetUserState godoc
// @Summary Reset a user's sync state
// @Description Operator escape hatch: deletes all note-to-page linkage rows so the next full sync re-creates destination pages
// @Tags sync
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} ErrorResponse
// @Router /users/{id}/state [delete]
func (h *Handler) ResetUserState(c *gin.Context) {
	deleted, err := h.jobs.ResetUserState(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func respondWithError(c *gin.Context, err error) {
	c.JSON(statusForError(err), ErrorResponse{
		Error: err.Error(),
		Type:  string(apperrors.TypeOf(err)),
	})
}

func statusForError(err error) int {
	switch {
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsInvalidInput(err):
		return http.StatusBadRequest
	case apperrors.IsAlreadyRunning(err), apperrors.IsInvalidState(err):
		return http.StatusConflict
	case apperrors.IsUnauthorized(err):
		return http.StatusUnauthorized
	case apperrors.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseTimeQuery(c *gin.Context, param string) (*time.Time, error) {
	value := c.Query(param)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func getIntQueryParam(c *gin.Context, param string, defaultValue int) (int, error) {
	value := c.Query(param)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
