package youtube

import "context"

// Platform is the set of video platform calls the Finder depends on.
// Lookups that find nothing return a nil *Channel or an empty string rather
// than an error.
type Platform interface {
	ChannelByHandle(ctx context.Context, handle string) (*Channel, error)
	SearchChannel(ctx context.Context, query string) (*Channel, error)
	UploadsPlaylist(ctx context.Context, channelID string) (string, error)
	PlaylistPage(ctx context.Context, playlistID, pageToken string, size int) (Page, error)
	ChannelVideoPage(ctx context.Context, channelID, pageToken string, size int) (Page, error)
	// Durations returns known durations keyed by video id. Ids missing from
	// the map have an unknown duration.
	Durations(ctx context.Context, ids []string) (map[string]Duration, error)
}
