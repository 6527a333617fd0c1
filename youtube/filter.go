package youtube

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/nijaru/yt-channel-text/errors"
)

type FilterKind int

const (
	FilterAll FilterKind = iota
	FilterLongerThan
	FilterShorterOrEqual
)

// Thresholds used by the "long" and "short" presets.
const (
	LongVideoSeconds  = 3600
	ShortVideoSeconds = 120
)

// DurationFilter selects videos by length. Unknown durations are only accepted
// by FilterAll, or by the other kinds when IncludeUnknown is set.
type DurationFilter struct {
	Kind           FilterKind
	Seconds        int64
	IncludeUnknown bool
}

func All() DurationFilter {
	return DurationFilter{Kind: FilterAll}
}

func LongerThan(seconds int64) DurationFilter {
	return DurationFilter{Kind: FilterLongerThan, Seconds: seconds}
}

func ShorterOrEqualTo(seconds int64) DurationFilter {
	return DurationFilter{Kind: FilterShorterOrEqual, Seconds: seconds}
}

func (f DurationFilter) Accept(d Duration) bool {
	if f.Kind == FilterAll {
		return true
	}
	if !d.Known {
		return f.IncludeUnknown
	}
	switch f.Kind {
	case FilterLongerThan:
		return d.Seconds > f.Seconds
	case FilterShorterOrEqual:
		return d.Seconds <= f.Seconds
	}
	return false
}

func (f DurationFilter) String() string {
	var s string
	switch f.Kind {
	case FilterLongerThan:
		s = fmt.Sprintf("longer:%d", f.Seconds)
	case FilterShorterOrEqual:
		s = fmt.Sprintf("shorter:%d", f.Seconds)
	default:
		return "all"
	}
	if f.IncludeUnknown {
		s += "+unknown"
	}
	return s
}

// ParseFilter accepts "all", "long", "short", "longer:<seconds>" and
// "shorter:<seconds>", optionally suffixed with "+unknown".
func ParseFilter(s string) (DurationFilter, error) {
	const op = "youtube.ParseFilter"

	s = strings.ToLower(strings.TrimSpace(s))
	preset, includeUnknown := strings.CutSuffix(s, "+unknown")

	var f DurationFilter
	switch {
	case preset == "" || preset == "all":
		return All(), nil
	case preset == "long":
		f = LongerThan(LongVideoSeconds)
	case preset == "short":
		f = ShorterOrEqualTo(ShortVideoSeconds)
	default:
		name, value, found := strings.Cut(preset, ":")
		if !found {
			return DurationFilter{}, apperrors.InvalidInput(op, nil, fmt.Sprintf("unknown duration filter %q", s))
		}
		seconds, err := strconv.ParseInt(value, 10, 64)
		if err != nil || seconds < 0 {
			return DurationFilter{}, apperrors.InvalidInput(op, err, fmt.Sprintf("invalid seconds in duration filter %q", s))
		}
		switch name {
		case "longer":
			f = LongerThan(seconds)
		case "shorter":
			f = ShorterOrEqualTo(seconds)
		default:
			return DurationFilter{}, apperrors.InvalidInput(op, nil, fmt.Sprintf("unknown duration filter %q", s))
		}
	}
	f.IncludeUnknown = includeUnknown
	return f, nil
}
