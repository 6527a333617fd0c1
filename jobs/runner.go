package jobs

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/models"
	"github.com/nijaru/yt-channel-text/transcription"
	"github.com/nijaru/yt-channel-text/validation"
	"github.com/nijaru/yt-channel-text/youtube"
)

var ErrQueueFull = apperrors.E(apperrors.KindRateLimited, http.StatusServiceUnavailable, "Runner.Submit", nil, "job queue is full")

type Store interface {
	CreateJob(ctx context.Context, job *models.Job) error
	UpdateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
	SaveResults(ctx context.Context, jobID string, results []models.Result) error
	GetResults(ctx context.Context, jobID string) ([]models.Result, error)
}

type VideoFinder interface {
	Find(ctx context.Context, query string, filter youtube.DurationFilter, progress youtube.FindProgress) ([]youtube.VideoRef, error)
}

type Transcriber interface {
	FetchAll(ctx context.Context, videos []youtube.VideoRef, progress transcription.Progress) (transcription.Batch, error)
}

type Config struct {
	Workers   int
	QueueSize int
	// Timeout bounds a whole job, discovery and transcripts included.
	Timeout time.Duration
}

// Runner executes jobs on a fixed set of workers and records their progress
// in the store.
type Runner struct {
	store       Store
	finder      VideoFinder
	transcriber Transcriber
	config      Config

	queue  chan *models.Job
	quit   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	active map[string]context.CancelFunc
	once   sync.Once
}

// NewRunner creates a Runner. finder may be nil, in which case channel jobs
// are rejected.
func NewRunner(store Store, finder VideoFinder, transcriber Transcriber, config Config) *Runner {
	if config.Workers <= 0 {
		config.Workers = 2
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Minute
	}
	return &Runner{
		store:       store,
		finder:      finder,
		transcriber: transcriber,
		config:      config,
		queue:       make(chan *models.Job, config.QueueSize),
		quit:        make(chan struct{}),
		active:      make(map[string]context.CancelFunc),
	}
}

func (r *Runner) Start() {
	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Close stops the workers and cancels running jobs.
func (r *Runner) Close() {
	r.once.Do(func() {
		close(r.quit)

		r.mu.Lock()
		for _, cancel := range r.active {
			cancel()
		}
		r.mu.Unlock()

		r.wg.Wait()
	})
}

func (r *Runner) worker(id int) {
	defer r.wg.Done()
	logger := logrus.WithField("worker_id", id)
	logger.Debug("Starting job worker")

	for {
		select {
		case <-r.quit:
			logger.Debug("Job worker shutting down")
			return
		case job := <-r.queue:
			start := time.Now()
			err := r.Run(context.Background(), job)
			entry := logger.WithFields(logrus.Fields{
				"job_id":      job.ID,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if err != nil {
				entry.WithError(err).Error("Job failed")
			} else {
				entry.Info("Job completed")
			}
		}
	}
}

// NewVideoJob validates rawURL and returns a queued job for it.
func NewVideoJob(rawURL string) (*models.Job, error) {
	if _, err := validation.ValidateVideoURL(rawURL); err != nil {
		return nil, err
	}
	return &models.Job{
		ID:     uuid.New().String(),
		Kind:   models.JobKindVideo,
		Input:  rawURL,
		Status: models.StatusQueued,
	}, nil
}

// NewChannelJob validates the channel query and returns a queued job for it.
func NewChannelJob(query string, filter youtube.DurationFilter) (*models.Job, error) {
	if err := validation.ValidateChannelQuery(query); err != nil {
		return nil, err
	}
	return &models.Job{
		ID:     uuid.New().String(),
		Kind:   models.JobKindChannel,
		Input:  query,
		Filter: filter.String(),
		Status: models.StatusQueued,
	}, nil
}

func (r *Runner) SubmitVideo(ctx context.Context, rawURL string) (*models.Job, error) {
	job, err := NewVideoJob(rawURL)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, job)
}

func (r *Runner) SubmitChannel(ctx context.Context, query string, filter youtube.DurationFilter) (*models.Job, error) {
	if r.finder == nil {
		return nil, apperrors.InvalidInput("Runner.SubmitChannel", nil, "channel discovery requires a YouTube API key")
	}
	job, err := NewChannelJob(query, filter)
	if err != nil {
		return nil, err
	}
	return r.submit(ctx, job)
}

func (r *Runner) submit(ctx context.Context, job *models.Job) (*models.Job, error) {
	if err := r.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	// Workers mutate the queued job, callers get a snapshot.
	snapshot := *job

	select {
	case r.queue <- job:
	default:
		job.Status = models.StatusFailed
		job.Error = ErrQueueFull.Message
		if err := r.store.UpdateJob(ctx, job); err != nil {
			logrus.WithError(err).WithField("job_id", job.ID).Error("Failed to record rejected job")
		}
		return nil, ErrQueueFull
	}

	logrus.WithFields(logrus.Fields{
		"job_id": job.ID,
		"kind":   job.Kind,
		"input":  job.Input,
	}).Info("Job queued")
	return &snapshot, nil
}

// Cancel stops a running job. It reports false when the job is not running.
func (r *Runner) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.active[id]
	if ok {
		cancel()
	}
	return ok
}

func (r *Runner) Get(ctx context.Context, id string) (*models.Job, error) {
	return r.store.GetJob(ctx, id)
}

func (r *Runner) List(ctx context.Context, limit int) ([]*models.Job, error) {
	return r.store.ListJobs(ctx, limit)
}

// Results returns the successful transcripts of a completed job in order.
func (r *Runner) Results(ctx context.Context, id string) ([]transcription.Result, *models.Job, error) {
	const op = "Runner.Results"

	job, err := r.store.GetJob(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !job.IsCompleted() {
		return nil, job, apperrors.Conflict(op, "job is not completed")
	}

	job.Results, err = r.store.GetResults(ctx, id)
	if err != nil {
		return nil, job, err
	}

	succeeded := job.Succeeded()
	results := make([]transcription.Result, len(succeeded))
	for i, s := range succeeded {
		results[i] = transcription.Result{
			Index: s.Position,
			Video: youtube.VideoRef{ID: s.VideoID, Title: s.Title},
			Body:  s.Text,
		}
	}
	return results, job, nil
}
