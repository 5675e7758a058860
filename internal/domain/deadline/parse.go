package deadline

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// offsetLayouts carry their own UTC offset and ignore the zone.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
}

// localLayouts are read in the configured time zone.
var localLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse reads a deadline written in local time of tz and returns epoch
// seconds. See ParseAt.
func Parse(text, tz string) (int64, error) {
	return ParseAt(text, tz, time.Now())
}

// ParseAt reads a deadline such as "2026-02-25 20:00" in the IANA zone tz.
// Values carrying their own offset ("2026-02-25 20:00+01:00") keep it. As a last resort a
// natural phrase ("next wednesday 8pm") is resolved relative to ref; the
// phrase must be recognized in full.
func ParseAt(text, tz string, ref time.Time) (int64, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrUnknownTimezone, tz, err)
	}

	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrUnparsableDeadline)
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.Unix(), nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(s, ref.In(loc))
	if err == nil && r != nil && strings.EqualFold(strings.TrimSpace(r.Text), s) {
		return r.Time.Unix(), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnparsableDeadline, text)
}
