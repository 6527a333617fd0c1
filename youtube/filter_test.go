package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nijaru/yt-channel-text/errors"
)

func TestFilterAccept(t *testing.T) {
	tests := []struct {
		name   string
		filter DurationFilter
		d      Duration
		want   bool
	}{
		{"all known", All(), KnownDuration(10), true},
		{"all unknown", All(), UnknownDuration, true},
		{"longer above", LongerThan(600), KnownDuration(601), true},
		{"longer boundary", LongerThan(600), KnownDuration(600), false},
		{"shorter boundary", ShorterOrEqualTo(600), KnownDuration(600), true},
		{"shorter above", ShorterOrEqualTo(600), KnownDuration(601), false},
		{"shorter zero", ShorterOrEqualTo(600), KnownDuration(0), true},
		{"longer unknown", LongerThan(600), UnknownDuration, false},
		{"shorter unknown", ShorterOrEqualTo(600), UnknownDuration, false},
		{"shorter unknown included", DurationFilter{Kind: FilterShorterOrEqual, Seconds: 600, IncludeUnknown: true}, UnknownDuration, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Accept(tt.d))
		})
	}
}

func TestFilterPartition(t *testing.T) {
	var videos []VideoRef
	for _, s := range []int64{0, 1, 120, 599, 600, 601, 3600, 7200} {
		videos = append(videos, VideoRef{ID: "v", Duration: KnownDuration(s)})
	}

	short, long := ShorterOrEqualTo(600), LongerThan(600)
	var nShort, nLong int
	for _, v := range videos {
		s, l := short.Accept(v.Duration), long.Accept(v.Duration)
		assert.False(t, s && l, "filters overlap at %d", v.Duration.Seconds)
		assert.True(t, s || l, "filters miss %d", v.Duration.Seconds)
		if s {
			nShort++
		}
		if l {
			nLong++
		}
	}
	assert.Equal(t, len(videos), nShort+nLong)
	assert.Equal(t, 5, nShort)
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in   string
		want DurationFilter
	}{
		{"", All()},
		{"all", All()},
		{"long", LongerThan(3600)},
		{"short", ShorterOrEqualTo(120)},
		{"longer:600", LongerThan(600)},
		{"Shorter:90", ShorterOrEqualTo(90)},
		{"short+unknown", DurationFilter{Kind: FilterShorterOrEqual, Seconds: 120, IncludeUnknown: true}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilter(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, in := range []string{"medium", "longer:", "longer:-1", "between:1"} {
		_, err := ParseFilter(in)
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidInput), in)
	}
}

func TestFilterStringRoundTrip(t *testing.T) {
	for _, f := range []DurationFilter{All(), LongerThan(10), ShorterOrEqualTo(5)} {
		got, err := ParseFilter(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}
