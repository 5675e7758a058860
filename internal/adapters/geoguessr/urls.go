package geoguessr

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var tokenRe = regexp.MustCompile(`/challenge/([A-Za-z0-9_-]+)`)

// ChallengeToken extracts the challenge token from a map URL. URLs that are
// not /challenge/ links yield their last path segment.
func ChallengeToken(raw string) (string, error) {
	if m := tokenRe.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrNoToken, raw, err)
	}
	segs := strings.Split(strings.TrimRight(u.Path, "/"), "/")
	last := segs[len(segs)-1]
	if last == "" {
		return "", fmt.Errorf("%w: %q", ErrNoToken, raw)
	}
	return last, nil
}

// LoadURLs reads one URL per line, skipping blank lines and # comments.
// A file without any URL is an error.
func LoadURLs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadURLList, err)
	}

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadURLList, path, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyURLList, path)
	}
	return out, nil
}
