package youtube

const watchURLPrefix = "https://www.youtube.com/watch?v="

// Duration is a video length that may be unknown. Lookups that fail or return
// nothing produce the zero value, which is Unknown.
type Duration struct {
	Seconds int64
	Known   bool
}

func KnownDuration(seconds int64) Duration {
	return Duration{Seconds: seconds, Known: true}
}

var UnknownDuration = Duration{}

// VideoRef identifies a video discovered on a channel or parsed from a URL.
// Title is empty when the listing did not carry one.
type VideoRef struct {
	ID       string   `json:"video_id"`
	Title    string   `json:"title,omitempty"`
	Duration Duration `json:"-"`
}

// WatchURL returns the canonical watch URL for id.
func WatchURL(id string) string {
	return watchURLPrefix + id
}

func (v VideoRef) WatchURL() string {
	return WatchURL(v.ID)
}

// DisplayName is the title when known, otherwise the watch URL.
func (v VideoRef) DisplayName() string {
	if v.Title != "" {
		return v.Title
	}
	return v.WatchURL()
}

type Channel struct {
	ID    string
	Title string
}

// Page is one page of a channel listing.
type Page struct {
	Videos        []VideoRef
	NextPageToken string
}
