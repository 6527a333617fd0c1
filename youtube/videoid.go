package youtube

import "strings"

const (
	shortDomainMarker = "youtu.be/"
	longDomainMarker  = "youtube.com"
	embedMarker       = "/embed/"
)

// ExtractVideoID pulls the video id out of a short, watch or embed URL. It is
// total over all inputs: anything it cannot parse reports false.
func ExtractVideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)

	switch {
	case strings.Contains(rawURL, shortDomainMarker):
		_, path, _ := strings.Cut(rawURL, shortDomainMarker)
		path = strings.TrimRight(cutAny(path, "?#"), "/")
		i := strings.LastIndex(path, "/")
		return nonEmpty(path[i+1:])

	case strings.Contains(rawURL, longDomainMarker):
		if id, ok := queryParam(rawURL, "v"); ok {
			return id, true
		}
	}

	if _, after, found := strings.Cut(rawURL, embedMarker); found {
		return nonEmpty(cutAny(after, "?#/&"))
	}
	return "", false
}

// queryParam finds key in the query string without url.Parse so that
// scheme-less inputs like "youtube.com/watch?v=x" still work.
func queryParam(rawURL, key string) (string, bool) {
	_, query, found := strings.Cut(rawURL, "?")
	if !found {
		return "", false
	}
	query = cutAny(query, "#")
	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			return nonEmpty(v)
		}
	}
	return "", false
}

func cutAny(s, chars string) string {
	if i := strings.IndexAny(s, chars); i >= 0 {
		return s[:i]
	}
	return s
}

func nonEmpty(s string) (string, bool) {
	return s, s != ""
}
