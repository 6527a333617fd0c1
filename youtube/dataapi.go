package youtube

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"
)

// maxIDsPerLookup is the Data API limit for ids in one videos.list call.
const maxIDsPerLookup = 50

// DataAPI implements Platform on the YouTube Data API v3.
type DataAPI struct {
	svc *ytapi.Service
}

// NewDataAPI creates a client authenticated with a static API key. Extra
// options are appended, which lets tests point the client at a fake server.
func NewDataAPI(ctx context.Context, apiKey string, opts ...option.ClientOption) (*DataAPI, error) {
	if apiKey == "" {
		return nil, errors.New("youtube data API key is required")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating youtube data API client")
	}
	return &DataAPI{svc: svc}, nil
}

func (d *DataAPI) ChannelByHandle(ctx context.Context, handle string) (*Channel, error) {
	resp, err := d.svc.Channels.List([]string{"id", "snippet"}).
		ForHandle(handle).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "channels.list forHandle=%s", handle)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}
	item := resp.Items[0]
	ch := &Channel{ID: item.Id}
	if item.Snippet != nil {
		ch.Title = item.Snippet.Title
	}
	return ch, nil
}

func (d *DataAPI) SearchChannel(ctx context.Context, query string) (*Channel, error) {
	resp, err := d.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "search.list channel q=%s", query)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	ch := &Channel{}
	if item.Snippet != nil {
		ch.ID = item.Snippet.ChannelId
		ch.Title = item.Snippet.ChannelTitle
	}
	if ch.ID == "" && item.Id != nil {
		ch.ID = item.Id.ChannelId
	}
	return ch, nil
}

func (d *DataAPI) UploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	resp, err := d.svc.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrapf(err, "channels.list id=%s", channelID)
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	details := resp.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil {
		return "", nil
	}
	return details.RelatedPlaylists.Uploads, nil
}

func (d *DataAPI) PlaylistPage(ctx context.Context, playlistID, pageToken string, size int) (Page, error) {
	call := d.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(int64(size)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return Page{}, errors.Wrapf(err, "playlistItems.list playlistId=%s", playlistID)
	}

	page := Page{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		var ref VideoRef
		if item.ContentDetails != nil {
			ref.ID = item.ContentDetails.VideoId
		}
		if item.Snippet != nil {
			ref.Title = item.Snippet.Title
			if ref.ID == "" && item.Snippet.ResourceId != nil {
				ref.ID = item.Snippet.ResourceId.VideoId
			}
		}
		if ref.ID != "" {
			page.Videos = append(page.Videos, ref)
		}
	}
	return page, nil
}

func (d *DataAPI) ChannelVideoPage(ctx context.Context, channelID, pageToken string, size int) (Page, error) {
	call := d.svc.Search.List([]string{"id", "snippet"}).
		ChannelId(channelID).
		Type("video").
		Order("date").
		MaxResults(int64(size)).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Do()
	if err != nil {
		return Page{}, errors.Wrapf(err, "search.list video channelId=%s", channelID)
	}

	page := Page{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		ref := VideoRef{ID: item.Id.VideoId}
		if item.Snippet != nil {
			ref.Title = item.Snippet.Title
		}
		page.Videos = append(page.Videos, ref)
	}
	return page, nil
}

// Durations looks up ids in batches of 50.
func (d *DataAPI) Durations(ctx context.Context, ids []string) (map[string]Duration, error) {
	out := make(map[string]Duration, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerLookup {
		end := min(start+maxIDsPerLookup, len(ids))
		resp, err := d.svc.Videos.List([]string{"contentDetails"}).
			Id(ids[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, errors.Wrapf(err, "videos.list %d ids", end-start)
		}
		for _, v := range resp.Items {
			if v.ContentDetails == nil {
				continue
			}
			if dur := durationFromISO(v.ContentDetails.Duration); dur.Known {
				out[v.Id] = dur
			}
		}
	}
	return out, nil
}
