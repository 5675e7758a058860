package geoguessr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

type dumpFile struct {
	Token string            `json:"token"`
	Items []json.RawMessage `json:"items"`
}

// DumpPath names the dump file of one map: spaces in the week label become
// underscores.
func DumpPath(dir, week string, index int) string {
	name := fmt.Sprintf("%s_map%d_highscores.json", strings.ReplaceAll(week, " ", "_"), index)
	return filepath.Join(dir, name)
}

// Dump writes the raw highscore rows of one map for debugging and returns
// the file path.
func Dump(dir, week string, index int, token string, items []gjson.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDump, err)
	}

	doc := dumpFile{Token: token, Items: make([]json.RawMessage, 0, len(items))}
	for _, it := range items {
		doc.Items = append(doc.Items, json.RawMessage(it.Raw))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDump, err)
	}

	path := DumpPath(dir, week, index)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDump, err)
	}
	return path, nil
}
