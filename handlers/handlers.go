package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/nijaru/yt-channel-text/archive"
	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/middleware"
	"github.com/nijaru/yt-channel-text/models"
	"github.com/nijaru/yt-channel-text/transcription"
	"github.com/nijaru/yt-channel-text/utils"
	"github.com/nijaru/yt-channel-text/youtube"
)

const (
	maxBodyBytes     = 1 << 20
	defaultListLimit = 20
	maxListLimit     = 100
)

type JobService interface {
	SubmitVideo(ctx context.Context, rawURL string) (*models.Job, error)
	SubmitChannel(ctx context.Context, query string, filter youtube.DurationFilter) (*models.Job, error)
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context, limit int) ([]*models.Job, error)
	Results(ctx context.Context, id string) ([]transcription.Result, *models.Job, error)
	Cancel(id string) bool
}

type Uploader interface {
	UploadArchive(ctx context.Context, name string, data []byte) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	jobs     JobService
	builder  *archive.Builder
	uploader Uploader
	health   Pinger
}

// New creates the HTTP handlers. uploader and health may be nil.
func New(jobs JobService, builder *archive.Builder, uploader Uploader, health Pinger) *Handler {
	return &Handler{jobs: jobs, builder: builder, uploader: uploader, health: health}
}

// Router wires every route. Job submissions go through limiter.
func (h *Handler) Router(limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware, middleware.Recovery)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	submit := func(fn http.HandlerFunc) http.Handler {
		if limiter == nil {
			return fn
		}
		return limiter.Middleware(fn)
	}
	api.Handle("/video", submit(h.SubmitVideo)).Methods(http.MethodPost)
	api.Handle("/channel", submit(h.SubmitChannel)).Methods(http.MethodPost)
	api.HandleFunc("/jobs", h.ListJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", h.CancelJob).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id}/document", h.Document).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}/archive", h.Archive).Methods(http.MethodGet)
	api.Handle("/jobs/{id}/upload", submit(h.Upload)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, apperrors.NotFound("router", nil, "route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.HandleError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

type videoRequest struct {
	URL string `json:"url"`
}

type channelRequest struct {
	Channel string `json:"channel"`
	Filter  string `json:"filter"`
}

type uploadResponse struct {
	Key string `json:"key"`
}

func decode(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.InvalidInput("handlers.decode", err, "invalid JSON body")
	}
	return nil
}

func (h *Handler) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req videoRequest
	if err := decode(r, w, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	job, err := h.jobs.SubmitVideo(r.Context(), req.URL)
	if err != nil {
		logger.WithError(err).WithField("url", req.URL).Warn("Video job rejected")
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *Handler) SubmitChannel(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	var req channelRequest
	if err := decode(r, w, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	filter, err := youtube.ParseFilter(req.Filter)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	job, err := h.jobs.SubmitChannel(r.Context(), req.Channel, filter)
	if err != nil {
		logger.WithError(err).WithField("channel", req.Channel).Warn("Channel job rejected")
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, job)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			utils.RespondWithError(w, apperrors.InvalidInput("handlers.ListJobs", err, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxListLimit)
	}

	jobs, err := h.jobs.List(r.Context(), limit)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, jobs)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, job)
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.jobs.Cancel(id) {
		utils.RespondWithError(w, apperrors.Conflict("handlers.CancelJob", "job is not running"))
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	results, job, err := h.jobs.Results(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	name := archive.DocumentName
	if job.Kind == models.JobKindVideo && len(results) == 1 {
		name = archive.EntryName(results[0].Video.ID)
	}
	utils.SendAttachment(w, "text/plain; charset=utf-8", name, []byte(h.builder.BuildSingleDocument(results)))
}

func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	results, _, err := h.jobs.Results(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	data, err := h.builder.BuildZipArchive(results)
	if err != nil {
		utils.RespondWithError(w, apperrors.Internal("handlers.Archive", err, "failed to build archive"))
		return
	}
	utils.SendAttachment(w, "application/zip", archive.ArchiveName, data)
}

// Upload stores the job archive in the configured bucket.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.Upload"

	if h.uploader == nil {
		utils.RespondWithError(w, apperrors.NotFound(op, nil, "archive upload is not configured"))
		return
	}

	id := mux.Vars(r)["id"]
	results, _, err := h.jobs.Results(r.Context(), id)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	data, err := h.builder.BuildZipArchive(results)
	if err != nil {
		utils.RespondWithError(w, apperrors.Internal(op, err, "failed to build archive"))
		return
	}

	key, err := h.uploader.UploadArchive(r.Context(), id+"/"+archive.ArchiveName, data)
	if err != nil {
		middleware.GetLogger(r.Context()).WithError(err).Error("Archive upload failed")
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, uploadResponse{Key: key})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			middleware.GetLogger(r.Context()).WithError(err).Error("Health check failed")
			utils.HandleError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
