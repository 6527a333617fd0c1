package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nijaru/yt-channel-text/archive"
	"github.com/nijaru/yt-channel-text/config"
	"github.com/nijaru/yt-channel-text/db"
	"github.com/nijaru/yt-channel-text/handlers"
	"github.com/nijaru/yt-channel-text/jobs"
	"github.com/nijaru/yt-channel-text/storage"
	"github.com/nijaru/yt-channel-text/transcription"
	"github.com/nijaru/yt-channel-text/youtube"
)

// app holds the components shared by every command.
type app struct {
	store    *db.Store
	runner   *jobs.Runner
	builder  *archive.Builder
	uploader handlers.Uploader
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening store")
	}

	// Left as a nil interface without a key so channel jobs are refused.
	var finder jobs.VideoFinder
	if cfg.YouTubeAPIKey != "" {
		api, err := youtube.NewDataAPI(ctx, cfg.YouTubeAPIKey)
		if err != nil {
			store.Close()
			return nil, err
		}
		finder = youtube.NewFinder(api, youtube.FinderConfig{
			Ceiling: cfg.ChannelVideoCeiling,
			Listing: cfg.ChannelListing,
		})
	} else {
		logrus.Warn("YOUTUBE_API_KEY is not set, channel discovery is disabled")
	}

	transcriber := transcription.NewService(
		transcription.NewKkdaiFetcher(nil),
		store,
		transcription.Config{Languages: cfg.Languages, Workers: cfg.TranscriptWorkers},
	)

	a := &app{
		store:  store,
		runner: jobs.NewRunner(store, finder, transcriber, jobs.Config{Timeout: cfg.TranscribeTimeout}),
		builder: archive.NewBuilder(archive.Template{
			Header:    cfg.Archive.Header,
			Separator: cfg.Archive.Separator,
		}),
	}

	if cfg.S3.Enabled() {
		uploader, err := storage.NewArchiveStore(ctx, storage.Config{
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			store.Close()
			return nil, err
		}
		a.uploader = uploader
	}
	return a, nil
}

func (a *app) Close() {
	a.runner.Close()
	if err := a.store.Close(); err != nil {
		logrus.WithError(err).Error("Failed to close store")
	}
}
