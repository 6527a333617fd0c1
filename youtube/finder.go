package youtube

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	apperrors "github.com/nijaru/yt-channel-text/errors"
)

const (
	ListingUploads = "uploads"
	ListingSearch  = "search"

	DefaultCeiling  = 200
	DefaultPageSize = 50
)

type FinderConfig struct {
	// Ceiling caps the number of videos examined, accepted or not.
	Ceiling  int
	PageSize int
	Listing  string
}

// FindProgress is called after every listing page.
type FindProgress func(examined, accepted int)

type Finder struct {
	platform Platform
	config   FinderConfig
}

func NewFinder(platform Platform, config FinderConfig) *Finder {
	if config.Ceiling <= 0 {
		config.Ceiling = DefaultCeiling
	}
	if config.PageSize <= 0 || config.PageSize > DefaultPageSize {
		config.PageSize = DefaultPageSize
	}
	if config.Listing != ListingSearch {
		config.Listing = ListingUploads
	}
	return &Finder{platform: platform, config: config}
}

// ResolveChannel turns a channel query into a channel. Handles are looked up
// directly first and fall back to a name search using the handle text.
func (f *Finder) ResolveChannel(ctx context.Context, query string) (Channel, error) {
	const op = "Finder.ResolveChannel"

	cq, ok := ParseChannelQuery(query)
	if !ok {
		return Channel{}, apperrors.InvalidInput(op, nil, "channel query is required")
	}
	if cq.ChannelID != "" {
		return Channel{ID: cq.ChannelID}, nil
	}

	if cq.Handle != "" {
		ch, err := f.platform.ChannelByHandle(ctx, cq.Handle)
		if err != nil {
			return Channel{}, apperrors.ExternalServiceFailure(op, err, "channel lookup by handle failed")
		}
		if ch != nil {
			return *ch, nil
		}
	}

	ch, err := f.platform.SearchChannel(ctx, cq.SearchTerm())
	if err != nil {
		return Channel{}, apperrors.ExternalServiceFailure(op, err, "channel search failed")
	}
	if ch == nil || ch.ID == "" {
		return Channel{}, apperrors.ChannelNotFound(op, query)
	}
	return *ch, nil
}

// Find lists the videos of the channel matching query and returns those
// accepted by filter, in listing order. Any platform failure aborts the whole
// discovery and no partial list is returned.
func (f *Finder) Find(ctx context.Context, query string, filter DurationFilter, progress FindProgress) ([]VideoRef, error) {
	const op = "Finder.Find"

	channel, err := f.ResolveChannel(ctx, query)
	if err != nil {
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"channel_id": channel.ID,
		"listing":    f.config.Listing,
		"filter":     filter.String(),
		"ceiling":    f.config.Ceiling,
	})
	logger.Info("Listing channel videos")

	listPage, err := f.lister(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	if listPage == nil {
		logger.Warn("Channel has no uploads playlist")
		return []VideoRef{}, nil
	}

	accepted := []VideoRef{}
	seenTokens := map[string]bool{}
	examined := 0
	token := ""

	for {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.ExternalServiceFailure(op, err, "channel listing cancelled")
		}

		page, err := listPage(token)
		if err != nil {
			return nil, apperrors.ExternalServiceFailure(op, err, "channel listing failed")
		}

		candidates := page.Videos
		if remaining := f.config.Ceiling - examined; len(candidates) > remaining {
			candidates = candidates[:remaining]
		}

		durations, err := f.platform.Durations(ctx, videoIDs(candidates))
		if err != nil {
			return nil, apperrors.ExternalServiceFailure(op, err, "duration lookup failed")
		}

		for _, video := range candidates {
			if d, ok := durations[video.ID]; ok {
				video.Duration = d
			}
			examined++
			if filter.Accept(video.Duration) {
				accepted = append(accepted, video)
			}
		}

		if progress != nil {
			progress(examined, len(accepted))
		}

		next := page.NextPageToken
		switch {
		case next == "":
		case examined >= f.config.Ceiling:
			logger.WithField("examined", examined).Info("Video ceiling reached")
		case len(page.Videos) == 0:
			logger.Warn("Empty listing page with continuation token, stopping")
		case seenTokens[next]:
			logger.WithField("page_token", next).Warn("Repeated continuation token, stopping")
		default:
			seenTokens[next] = true
			token = next
			continue
		}
		break
	}

	logger.WithFields(logrus.Fields{
		"examined": examined,
		"accepted": len(accepted),
	}).Info("Channel listing complete")
	return accepted, nil
}

// lister returns a page function for the configured listing strategy, or nil
// when the channel has nothing to list.
func (f *Finder) lister(ctx context.Context, channelID string) (func(token string) (Page, error), error) {
	const op = "Finder.lister"

	if f.config.Listing == ListingSearch {
		return func(token string) (Page, error) {
			return f.platform.ChannelVideoPage(ctx, channelID, token, f.config.PageSize)
		}, nil
	}

	playlistID, err := f.platform.UploadsPlaylist(ctx, channelID)
	if err != nil {
		return nil, apperrors.ExternalServiceFailure(op, err, fmt.Sprintf("uploads playlist lookup failed for %s", channelID))
	}
	if playlistID == "" {
		return nil, nil
	}
	return func(token string) (Page, error) {
		return f.platform.PlaylistPage(ctx, playlistID, token, f.config.PageSize)
	}, nil
}

func videoIDs(videos []VideoRef) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ID)
	}
	return ids
}
