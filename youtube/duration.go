package youtube

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseISODuration parses the ISO-8601 durations returned by the Data API,
// e.g. "PT1H2M3S" or "P1DT2H".
func ParseISODuration(s string) (time.Duration, error) {
	m := isoDurationRE.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, errors.Errorf("invalid ISO-8601 duration %q", s)
	}

	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute}
	var total time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid ISO-8601 duration %q", s)
		}
		total += time.Duration(n) * unit
	}
	if m[5] != "" {
		secs, err := strconv.ParseFloat(m[5], 64)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid ISO-8601 duration %q", s)
		}
		total += time.Duration(math.Round(secs * float64(time.Second)))
	}
	return total, nil
}

// durationFromISO converts an API duration to a Duration. "P0D" is what the
// API reports for live and upcoming broadcasts, so it is treated as unknown.
func durationFromISO(s string) Duration {
	if s == "" || s == "P0D" {
		return UnknownDuration
	}
	d, err := ParseISODuration(s)
	if err != nil {
		return UnknownDuration
	}
	return KnownDuration(int64(d / time.Second))
}
