package db

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/models"
)

const (
	insertJobQuery = `
        INSERT INTO jobs (
            id, kind, input, filter, status, examined, found, done, total,
            error, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

	getJobQuery = `
        SELECT id, kind, input, filter, status, examined, found, done, total,
               error, created_at, updated_at
        FROM jobs WHERE id = ?
    `

	listJobsQuery = `
        SELECT id, kind, input, filter, status, examined, found, done, total,
               error, created_at, updated_at
        FROM jobs ORDER BY created_at DESC LIMIT ?
    `

	updateJobQuery = `
        UPDATE jobs SET
            status = ?, examined = ?, found = ?, done = ?, total = ?,
            error = ?, updated_at = ?
        WHERE id = ?
    `

	failStaleJobsQuery = `
        UPDATE jobs SET status = ?, error = ?, updated_at = ?
        WHERE status NOT IN (?, ?) AND updated_at < ?
    `

	deleteResultsQuery = `DELETE FROM job_results WHERE job_id = ?`

	insertResultQuery = `
        INSERT INTO job_results (job_id, position, video_id, title, url, ok, text, error)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `

	getResultsQuery = `
        SELECT position, video_id, title, url, ok, error
        FROM job_results WHERE job_id = ? ORDER BY position
    `

	getResultsWithTextQuery = `
        SELECT position, video_id, title, url, ok, error, text
        FROM job_results WHERE job_id = ? ORDER BY position
    `
)

// CreateJob inserts job, filling in timestamps when they are zero.
func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	const op = "Store.CreateJob"

	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	err := withRetry(ctx, op, func() error {
		_, err := s.db.ExecContext(ctx, insertJobQuery,
			job.ID, string(job.Kind), job.Input, job.Filter, string(job.Status),
			job.Examined, job.Found, job.Done, job.Total,
			job.Error, job.CreatedAt, job.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return apperrors.Internal(op, err, "failed to create job")
	}
	return nil
}

// UpdateJob persists the status and counters of job.
func (s *Store) UpdateJob(ctx context.Context, job *models.Job) error {
	const op = "Store.UpdateJob"

	job.UpdatedAt = time.Now().UTC()

	var affected int64
	err := withRetry(ctx, op, func() error {
		res, err := s.db.ExecContext(ctx, updateJobQuery,
			string(job.Status), job.Examined, job.Found, job.Done, job.Total,
			job.Error, job.UpdatedAt, job.ID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return apperrors.Internal(op, err, "failed to update job")
	}
	if affected == 0 {
		return apperrors.NotFound(op, nil, "job not found")
	}
	return nil
}

// GetJob loads a job and its manifest, without transcript text.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	const op = "Store.GetJob"

	job, err := scanJob(s.db.QueryRowContext(ctx, getJobQuery, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(op, nil, "job not found")
	}
	if err != nil {
		return nil, apperrors.Internal(op, err, "failed to query job")
	}

	job.Results, err = s.results(ctx, getResultsQuery, id, false)
	if err != nil {
		return nil, apperrors.Internal(op, err, "failed to query job results")
	}
	return job, nil
}

// GetResults returns the results of a job including transcript text.
func (s *Store) GetResults(ctx context.Context, jobID string) ([]models.Result, error) {
	const op = "Store.GetResults"

	results, err := s.results(ctx, getResultsWithTextQuery, jobID, true)
	if err != nil {
		return nil, apperrors.Internal(op, err, "failed to query job results")
	}
	return results, nil
}

// ListJobs returns the most recent jobs first, without results.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*models.Job, error) {
	const op = "Store.ListJobs"

	rows, err := s.db.QueryContext(ctx, listJobsQuery, limit)
	if err != nil {
		return nil, apperrors.Internal(op, err, "failed to list jobs")
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, apperrors.Internal(op, err, "failed to scan job")
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(op, err, "failed to list jobs")
	}
	return jobs, nil
}

// SaveResults replaces the results of a job in one transaction.
func (s *Store) SaveResults(ctx context.Context, jobID string, results []models.Result) error {
	const op = "Store.SaveResults"

	err := s.WithTransaction(ctx, func(tx Executor) error {
		if _, err := tx.ExecContext(ctx, deleteResultsQuery, jobID); err != nil {
			return err
		}
		for i, r := range results {
			if _, err := tx.ExecContext(ctx, insertResultQuery,
				jobID, i, r.VideoID, r.Title, r.URL, r.OK, r.Text, r.Error,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Internal(op, err, "failed to save job results")
	}
	return nil
}

// FailStaleJobs marks unfinished jobs not updated within timeout as failed
// and returns how many were changed.
func (s *Store) FailStaleJobs(ctx context.Context, timeout time.Duration) (int64, error) {
	const op = "Store.FailStaleJobs"

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, failStaleJobsQuery,
		string(models.StatusFailed), "job timed out", now,
		string(models.StatusCompleted), string(models.StatusFailed), now.Add(-timeout),
	)
	if err != nil {
		return 0, apperrors.Internal(op, err, "failed to expire stale jobs")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperrors.Internal(op, err, "failed to get rows affected")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (*models.Job, error) {
	job := &models.Job{}
	var kind, status string
	err := row.Scan(
		&job.ID, &kind, &job.Input, &job.Filter, &status,
		&job.Examined, &job.Found, &job.Done, &job.Total,
		&job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Kind = models.JobKind(kind)
	job.Status = models.Status(status)
	return job, nil
}

func (s *Store) results(ctx context.Context, query, jobID string, withText bool) ([]models.Result, error) {
	rows, err := s.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.Result
	for rows.Next() {
		var r models.Result
		dest := []any{&r.Position, &r.VideoID, &r.Title, &r.URL, &r.OK, &r.Error}
		if withText {
			dest = append(dest, &r.Text)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
