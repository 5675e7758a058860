package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/geoleague/internal/domain/payload"
	"github.com/tidwall/gjson"
)

// RuleText summarizes the movement restrictions and time limit of a game,
// e.g. "NMPZ - 1 min", "NM - 90s" or "Moving".
func RuleText(game gjson.Result) string {
	moving := game.Get("forbidMoving")
	zooming := game.Get("forbidZooming")
	rotating := game.Get("forbidRotating")

	var parts []string
	switch {
	case payload.IsTrue(moving) && payload.IsTrue(zooming) && payload.IsTrue(rotating):
		parts = append(parts, "NMPZ")
	case payload.IsTrue(moving) && payload.IsTrue(rotating) && payload.IsFalse(zooming):
		parts = append(parts, "NMP")
	case payload.IsTrue(moving):
		parts = append(parts, "NM")
	default:
		parts = append(parts, "Moving")
	}

	if limit, ok := timeLimit(game.Get("timeLimit")); ok {
		if limit%60 == 0 {
			parts = append(parts, strconv.FormatInt(limit/60, 10)+" min")
		} else {
			parts = append(parts, strconv.FormatInt(limit, 10)+"s")
		}
	}
	return strings.Join(parts, " - ")
}

// timeLimit accepts positive JSON integers only; 60.0 or 6e1 do not count.
func timeLimit(v gjson.Result) (int64, bool) {
	if v.Type != gjson.Number || strings.ContainsAny(v.Raw, ".eE") {
		return 0, false
	}
	if v.Num != math.Trunc(v.Num) || v.Num <= 0 {
		return 0, false
	}
	return int64(v.Num), true
}
