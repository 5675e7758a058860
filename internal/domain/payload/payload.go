// Package payload reads loosely structured JSON, tolerating missing or oddly typed fields.
//
// Values are gjson.Result nodes, a tagged union of null, bool, number,
// string and nested object/array. Every accessor returns (value, ok) and never
// fails: the caller decides what a missing value defaults to.
package payload

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Plausibility bounds for epoch values.
const (
	millisThreshold  = 10_000_000_000 // above: epoch milliseconds
	secondsThreshold = 1_000_000_000  // above: epoch seconds
)

var (
	epochRe = regexp.MustCompile(`^\d{10,13}$`)
	isoRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

// isoLayouts are tried in order; naive values are read as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Attempt is one way of obtaining an integer.
type Attempt func() (int64, bool)

// FirstInt returns the result of the first successful attempt.
func FirstInt(attempts ...Attempt) (int64, bool) {
	for _, a := range attempts {
		if v, ok := a(); ok {
			return v, true
		}
	}
	return 0, false
}

// IntAt builds an Attempt reading an integer at path below v.
func IntAt(v gjson.Result, path string) Attempt {
	return func() (int64, bool) { return Int(v.Get(path)) }
}

// Int interprets v as a non-fractional integer. Numbers are truncated;
// strings may carry thousands separators ("12,345"). Booleans, nulls,
// objects and anything else are absent.
func Int(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		return v.Int(), true
	case gjson.String:
		s := strings.ReplaceAll(strings.TrimSpace(v.Str), ",", "")
		if s == "" || !allDigits(s) {
			return 0, false
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// String returns the trimmed string at v when it is a non-blank string.
func String(v gjson.Result) (string, bool) {
	if v.Type != gjson.String {
		return "", false
	}
	s := strings.TrimSpace(v.Str)
	return s, s != ""
}

// IsTrue reports whether v is the JSON literal true.
func IsTrue(v gjson.Result) bool { return v.Type == gjson.True }

// IsFalse reports whether v is the JSON literal false.
func IsFalse(v gjson.Result) bool { return v.Type == gjson.False }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Walk visits every key/value pair of every object reachable from v,
// descending into arrays and nested objects. Parents are visited before
// their children.
func Walk(v gjson.Result, fn func(key string, val gjson.Result)) {
	switch {
	case v.IsObject():
		v.ForEach(func(k, val gjson.Result) bool {
			fn(k.String(), val)
			Walk(val, fn)
			return true
		})
	case v.IsArray():
		v.ForEach(func(_, val gjson.Result) bool {
			Walk(val, fn)
			return true
		})
	}
}

// ParseEpoch interprets v as epoch seconds, epoch milliseconds or an ISO
// date-time and returns epoch seconds. Values too small to be a plausible
// recent timestamp are rejected.
func ParseEpoch(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		return plausibleEpoch(v.Int())
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if epochRe.MatchString(s) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				if ep, ok := plausibleEpoch(n); ok {
					return ep, true
				}
			}
		}
		if isoRe.MatchString(s) {
			return parseISO(s)
		}
	}
	return 0, false
}

func plausibleEpoch(x int64) (int64, bool) {
	switch {
	case x > millisThreshold:
		return x / 1000, true
	case x > secondsThreshold:
		return x, true
	default:
		return 0, false
	}
}

func parseISO(s string) (int64, bool) {
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}

// timestampKeys are matched exactly, timestampFragments as substrings.
var (
	timestampKeys = map[string]struct{}{
		"createdat": {}, "created": {}, "updatedat": {}, "updated": {},
		"finishedat": {}, "endedat": {}, "endtime": {}, "completedat": {}, "completed": {},
		"startedat": {}, "starttime": {},
		"timestamp": {}, "time": {},
	}
	timestampFragments = []string{"created", "finished", "ended", "completed", "start", "end", "updated"}
)

// IsTimestampKey reports whether a key name looks like it holds a point in time.
func IsTimestampKey(key string) bool {
	lk := strings.ToLower(key)
	if _, ok := timestampKeys[lk]; ok {
		return true
	}
	for _, frag := range timestampFragments {
		if strings.Contains(lk, frag) {
			return true
		}
	}
	return false
}

// LatestTimestamp scans the whole document for timestamp-like keys and
// returns the latest plausible value. Finish and end times sort after start
// times, so the latest value approximates completion.
func LatestTimestamp(v gjson.Result) (int64, bool) {
	var (
		best  int64
		found bool
	)
	Walk(v, func(key string, val gjson.Result) {
		if !IsTimestampKey(key) {
			return
		}
		ep, ok := ParseEpoch(val)
		if !ok {
			return
		}
		if !found || ep > best {
			best, found = ep, true
		}
	})
	return best, found
}
