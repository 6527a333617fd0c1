package youtube

import "strings"

// ChannelQuery is a user supplied channel reference in one of three shapes:
// a channel id URL, an @handle (bare or inside a URL), or a free-text name.
type ChannelQuery struct {
	Raw       string
	ChannelID string
	Handle    string
	Name      string
}

// ParseChannelQuery reports false for blank input.
func ParseChannelQuery(q string) (ChannelQuery, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return ChannelQuery{}, false
	}
	cq := ChannelQuery{Raw: q}

	if _, after, found := strings.Cut(q, "/channel/"); found {
		if id := cutAny(after, "/?#"); strings.HasPrefix(id, "UC") {
			cq.ChannelID = id
			return cq, true
		}
	}

	if i := strings.LastIndex(q, "@"); i >= 0 {
		if handle := cutAny(q[i+1:], "/?# "); handle != "" {
			cq.Handle = "@" + handle
			return cq, true
		}
	}

	cq.Name = q
	return cq, true
}

// SearchTerm is the text used for a name search.
func (q ChannelQuery) SearchTerm() string {
	if q.Handle != "" {
		return q.Handle
	}
	return q.Name
}
