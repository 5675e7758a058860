package xlsx

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// sheetNames hands out valid, unique sheet names. Excel forbids some
// characters, limits names to 31 characters and compares them ignoring case.
type sheetNames struct {
	reserved map[string]bool
	used     map[string]bool
}

func newSheetNames(reserved ...string) *sheetNames {
	n := &sheetNames{reserved: map[string]bool{}, used: map[string]bool{}}
	for _, r := range reserved {
		n.reserved[strings.ToLower(r)] = true
	}
	return n
}

var sheetNameReplacer = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// claim returns a free name for a week label. Reserved names are skipped so
// a week called "Total" cannot collide with the fixed sheets.
func (n *sheetNames) claim(label string) string {
	return n.take(label, true)
}

// fixed returns the name of one of the fixed sheets.
func (n *sheetNames) fixed(name string) string {
	return n.take(name, false)
}

func (n *sheetNames) take(label string, avoidReserved bool) string {
	base := truncate(strings.Trim(sheetNameReplacer.Replace(label), "'"), maxSheetName)
	if strings.TrimSpace(base) == "" {
		base = "Sheet"
	}

	taken := func(name string) bool {
		key := strings.ToLower(name)
		return n.used[key] || (avoidReserved && n.reserved[key])
	}
	name := base
	for i := 2; taken(name); i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
