package db

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/models"
)

// GetTranscript returns a cached transcript. found is false when the video
// has not been fetched before.
func (s *Store) GetTranscript(ctx context.Context, videoID string) (models.Transcript, bool, error) {
	const op = "Store.GetTranscript"

	t := models.Transcript{VideoID: videoID}
	err := s.db.QueryRowContext(ctx,
		"SELECT language, text FROM transcripts WHERE video_id = ?", videoID,
	).Scan(&t.Language, &t.Text)
	if err == sql.ErrNoRows {
		return models.Transcript{}, false, nil
	}
	if err != nil {
		return models.Transcript{}, false, apperrors.Internal(op, err, "failed to query transcript")
	}
	return t, true, nil
}

func (s *Store) SaveTranscript(ctx context.Context, videoID, language, text string) error {
	const op = "Store.SaveTranscript"

	err := withRetry(ctx, op, func() error {
		_, err := s.db.ExecContext(ctx, `
            INSERT INTO transcripts (video_id, language, text, created_at)
            VALUES (?, ?, ?, ?)
            ON CONFLICT(video_id)
            DO UPDATE SET language=excluded.language, text=excluded.text`,
			videoID, language, text, time.Now().UTC())
		return err
	})
	if err != nil {
		return apperrors.Internal(op, err, "failed to save transcript")
	}
	return nil
}
