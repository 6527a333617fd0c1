package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-channel-text/models"
	"github.com/nijaru/yt-channel-text/transcription"
	"github.com/nijaru/yt-channel-text/validation"
	"github.com/nijaru/yt-channel-text/youtube"
)

// Run executes job synchronously and leaves it completed or failed in the
// store. The returned error is the reason the job failed; per-video failures
// are recorded in the results and do not fail the job.
func (r *Runner) Run(ctx context.Context, job *models.Job) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	r.mu.Lock()
	r.active[job.ID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.active, job.ID)
		r.mu.Unlock()
	}()

	// Status writes must survive the job context being cancelled.
	persist := context.WithoutCancel(ctx)
	logger := logrus.WithFields(logrus.Fields{"job_id": job.ID, "kind": job.Kind})

	videos, err := r.discover(ctx, persist, job)
	if err != nil {
		return r.fail(persist, job, err)
	}

	job.Status = models.StatusTranscribing
	job.Total = len(videos)
	r.update(persist, job)

	batch, err := r.transcriber.FetchAll(ctx, videos, func(done, total int) {
		job.Done, job.Total = done, total
		r.update(persist, job)
	})
	if err != nil {
		return r.fail(persist, job, err)
	}

	if err := r.store.SaveResults(persist, job.ID, manifest(videos, batch)); err != nil {
		return r.fail(persist, job, err)
	}

	job.Status = models.StatusCompleted
	job.Done = len(videos)
	r.update(persist, job)

	logger.WithFields(logrus.Fields{
		"transcribed": len(batch.Results),
		"failed":      len(batch.Failures),
	}).Info("Job finished")
	return nil
}

func (r *Runner) discover(ctx, persist context.Context, job *models.Job) ([]youtube.VideoRef, error) {
	switch job.Kind {
	case models.JobKindChannel:
		filter, err := youtube.ParseFilter(job.Filter)
		if err != nil {
			return nil, err
		}

		job.Status = models.StatusDiscovering
		r.update(persist, job)

		videos, err := r.finder.Find(ctx, job.Input, filter, func(examined, accepted int) {
			job.Examined, job.Found = examined, accepted
			r.update(persist, job)
		})
		if err != nil {
			return nil, err
		}
		job.Found = len(videos)
		return videos, nil

	default:
		id, err := validation.ValidateVideoURL(job.Input)
		if err != nil {
			return nil, err
		}
		job.Examined, job.Found = 1, 1
		return []youtube.VideoRef{{ID: id}}, nil
	}
}

func (r *Runner) update(ctx context.Context, job *models.Job) {
	if err := r.store.UpdateJob(ctx, job); err != nil {
		logrus.WithError(err).WithField("job_id", job.ID).Warn("Failed to update job progress")
	}
}

func (r *Runner) fail(ctx context.Context, job *models.Job, err error) error {
	job.Status = models.StatusFailed
	job.Error = err.Error()
	r.update(ctx, job)
	return err
}

// manifest merges the batch back into discovery order by input index.
// Videos the batch never reached are marked as not processed.
func manifest(videos []youtube.VideoRef, batch transcription.Batch) []models.Result {
	out := make([]models.Result, len(videos))
	for i, v := range videos {
		out[i] = models.Result{Position: i, VideoID: v.ID, Title: v.Title, URL: v.WatchURL(), Error: "not processed"}
	}
	for _, r := range batch.Results {
		if r.Index >= 0 && r.Index < len(out) {
			out[r.Index].OK = true
			out[r.Index].Text = r.Body
			out[r.Index].Error = ""
		}
	}
	for _, f := range batch.Failures {
		if f.Index >= 0 && f.Index < len(out) {
			out[f.Index].Error = f.Err.Error()
		}
	}
	return out
}
