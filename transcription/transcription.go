package transcription

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/nijaru/yt-channel-text/errors"
	"github.com/nijaru/yt-channel-text/models"
	"github.com/nijaru/yt-channel-text/youtube"
)

var fetchLocks sync.Map

// fetchLock serializes fetches of the same video across concurrent jobs so
// the second caller is served from the cache.
func fetchLock(videoID string) *sync.Mutex {
	lock, _ := fetchLocks.LoadOrStore(videoID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Cache stores fetched transcript text keyed by video id.
type Cache interface {
	GetTranscript(ctx context.Context, videoID string) (models.Transcript, bool, error)
	SaveTranscript(ctx context.Context, videoID, language, text string) error
}

type Config struct {
	Languages []string
	// Workers bounds concurrent fetches in FetchAll. 1 fetches sequentially.
	Workers int
}

func DefaultConfig() Config {
	return Config{
		Languages: []string{"pt", "en"},
		Workers:   1,
	}
}

// Result is a fetched transcript. Body is the segment texts joined by
// newlines. Index is the position of Video in the FetchAll input.
type Result struct {
	Index    int
	Video    youtube.VideoRef
	Language string
	Body     string
}

type Failure struct {
	Index int
	Video youtube.VideoRef
	Err   error
}

// Batch holds the outcome of FetchAll. Results and Failures each keep the
// order of the input list.
type Batch struct {
	Results  []Result
	Failures []Failure
}

// Progress is called after each video completes, successfully or not.
type Progress func(done, total int)

type Service struct {
	fetcher Fetcher
	cache   Cache
	config  Config
}

// NewService creates a Service. cache may be nil.
func NewService(fetcher Fetcher, cache Cache, config Config) *Service {
	defaults := DefaultConfig()
	if len(config.Languages) == 0 {
		config.Languages = defaults.Languages
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	return &Service{fetcher: fetcher, cache: cache, config: config}
}

// Fetch returns the transcript text of one video, using the cache when one
// is configured.
func (s *Service) Fetch(ctx context.Context, video youtube.VideoRef) (Result, error) {
	const op = "Service.Fetch"

	lock := fetchLock(video.ID)
	lock.Lock()
	defer lock.Unlock()

	logger := logrus.WithField("video_id", video.ID)

	if s.cache != nil {
		cached, found, err := s.cache.GetTranscript(ctx, video.ID)
		if err != nil {
			logger.WithError(err).Warn("Transcript cache lookup failed")
		} else if found {
			logger.Debug("Transcript found in cache")
			return Result{Video: video, Language: cached.Language, Body: cached.Text}, nil
		}
	}

	transcript, err := s.fetcher.Fetch(ctx, video.ID, s.config.Languages)
	if err != nil {
		return Result{}, err
	}

	text := transcript.Text()
	if strings.TrimSpace(text) == "" {
		return Result{}, apperrors.NoTranscriptAvailable(op, video.ID, nil)
	}

	if s.cache != nil {
		if err := s.cache.SaveTranscript(ctx, video.ID, transcript.Language, text); err != nil {
			logger.WithError(err).Warn("Failed to cache transcript")
		}
	}

	logger.WithField("language", transcript.Language).Info("Transcript fetched")
	return Result{Video: video, Language: transcript.Language, Body: text}, nil
}

// FetchAll fetches every video, recording per-video failures without
// aborting the batch. The only error returned is context cancellation.
func (s *Service) FetchAll(ctx context.Context, videos []youtube.VideoRef, progress Progress) (Batch, error) {
	type outcome struct {
		result Result
		err    error
	}

	outcomes := make([]outcome, len(videos))
	total := len(videos)

	var (
		mu   sync.Mutex
		done int
	)

	g := &errgroup.Group{}
	g.SetLimit(s.config.Workers)

	for i, video := range videos {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = outcome{result: Result{Index: i, Video: video}, err: err}
				return nil
			}
			result, err := s.Fetch(ctx, video)
			if err != nil {
				logrus.WithError(err).WithField("video_id", video.ID).Warn("Transcript unavailable")
				result.Video = video
			}
			result.Index = i
			outcomes[i] = outcome{result: result, err: err}

			mu.Lock()
			done++
			if progress != nil {
				progress(done, total)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{}, err
	}

	if err := ctx.Err(); err != nil {
		return Batch{}, apperrors.ExternalServiceFailure("Service.FetchAll", err, "transcript batch cancelled")
	}

	batch := Batch{Results: []Result{}, Failures: []Failure{}}
	for _, o := range outcomes {
		if o.err != nil {
			batch.Failures = append(batch.Failures, Failure{Index: o.result.Index, Video: o.result.Video, Err: o.err})
			continue
		}
		batch.Results = append(batch.Results, o.result)
	}
	return batch, nil
}
