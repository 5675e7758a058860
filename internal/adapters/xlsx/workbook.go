// Package xlsx renders standings reports as Excel workbooks.
package xlsx

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

// Fixed sheet names.
const (
	SheetTotal = "Total"
	SheetStats = "Stats"
	SheetRaw   = "Raw"

	defaultSheet = "Sheet1"
	maxSheetName = 31
)

// Column headers.
var (
	weekHeaders  = []string{"#", "Spelare", "Poäng"}
	totalHeaders = []string{"#", "Spelare", "Poäng (Borda)", "Total pts", "Kartor", "Veckor"}
	statsHeaders = []string{
		"#", "Spelare",
		"Total Borda", "Total pts",
		"Kartor", "Veckor",
		"Snitt Borda / karta", "Snitt Borda / vecka",
		"Snitt pts / karta",
		"Bästa vecka", "Bästa vecka Borda", "Bästa vecka pts",
	}
	rawHeaders = []string{
		"week", "map_index", "map_url", "map_token", "map_name", "rule_text",
		"player", "total_pts", "total_time", "played_at_epoch", "rank_best", "borda_points",
	}
)

// Render lays out rep as a workbook: one sheet per week, then Total, Stats
// and Raw. The caller owns the returned file and must close it.
func Render(rep *report.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: styles: %w", ErrRender, err)
	}

	b := &builder{f: f, st: st, names: newSheetNames(SheetTotal, SheetStats, SheetRaw, defaultSheet)}
	weekLabels := make([]string, 0, len(rep.Weeks))
	for _, wt := range rep.Weeks {
		b.weekSheet(wt)
		weekLabels = append(weekLabels, wt.Label)
	}
	b.totalSheet(rep.Season, weekLabels)
	b.statsSheet(rep.Season)
	b.rawSheet(rep.Rows)

	if b.err == nil {
		b.err = f.DeleteSheet(defaultSheet)
	}
	if b.err == nil {
		if idx, err := f.GetSheetIndex(b.first); err == nil && idx >= 0 {
			f.SetActiveSheet(idx)
		}
	}
	if b.err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", ErrRender, b.err)
	}
	return f, nil
}

// builder accumulates the first error so layout code stays linear.
type builder struct {
	f     *excelize.File
	st    *styles
	names *sheetNames
	first string
	err   error
}

// newSheet adds a sheet for a week label, or for a fixed sheet when fixed
// is set, and returns the name it got.
func (b *builder) newSheet(label string, fixed bool) string {
	var name string
	if fixed {
		name = b.names.fixed(label)
	} else {
		name = b.names.claim(label)
	}
	if b.err != nil {
		return name
	}
	if _, err := b.f.NewSheet(name); err != nil {
		b.err = err
	}
	if b.first == "" {
		b.first = name
	}
	return name
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func (b *builder) set(sheet string, col, row int, v any, style int) {
	if b.err != nil {
		return
	}
	c := cell(col, row)
	if err := b.f.SetCellValue(sheet, c, v); err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellStyle(sheet, c, c, style)
}

func (b *builder) merge(sheet string, col1, row1, col2, row2 int, v any, style int) {
	if b.err != nil {
		return
	}
	from, to := cell(col1, row1), cell(col2, row2)
	if from != to {
		if err := b.f.MergeCell(sheet, from, to); err != nil {
			b.err = err
			return
		}
	}
	if err := b.f.SetCellValue(sheet, from, v); err != nil {
		b.err = err
		return
	}
	b.err = b.f.SetCellStyle(sheet, from, to, style)
}

func (b *builder) widths(sheet string, widths map[int]float64) {
	for col, w := range widths {
		if b.err != nil {
			return
		}
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			b.err = err
			return
		}
		b.err = b.f.SetColWidth(sheet, name, name, w)
	}
}

// freeze keeps rows above firstDataRow visible while scrolling.
func (b *builder) freeze(sheet string, firstDataRow int) {
	if b.err != nil {
		return
	}
	b.err = b.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      firstDataRow - 1,
		TopLeftCell: cell(1, firstDataRow),
		ActivePane:  "bottomLeft",
	})
}

func (b *builder) weekSheet(wt report.WeekTable) {
	const (
		colRank, colPlayer, colTotal, colMapStart = 1, 2, 3, 4
		firstRow                                  = 4
	)
	sheet := b.newSheet(wt.Label, false)

	b.merge(sheet, 1, 1, colTotal, 1, wt.Label, b.st.title)
	b.merge(sheet, 1, 2, colTotal, 2, wt.DeadlineText, b.st.subtitle)
	for i, h := range weekHeaders {
		b.set(sheet, i+1, 3, h, b.st.header)
	}

	widths := map[int]float64{colRank: 4.5, colPlayer: 22, colTotal: 8}
	for i, m := range wt.Maps {
		col := colMapStart + i
		b.set(sheet, col, 1, fmt.Sprintf("Map %d", i+1), b.st.subtitle)
		b.set(sheet, col, 2, mapName(m, i+1), b.st.subtitle)
		b.set(sheet, col, 3, strings.TrimSpace("🔗 "+m.RuleText), b.st.link)
		if m.URL != "" && b.err == nil {
			b.err = b.f.SetCellHyperLink(sheet, cell(col, 3), m.URL, "External")
		}
		widths[col] = 14
	}
	b.widths(sheet, widths)
	b.freeze(sheet, firstRow)

	for i, r := range wt.Rows {
		row := firstRow + i
		p := parity(r.Position)
		b.set(sheet, colRank, row, r.Position, b.st.body[p])
		b.set(sheet, colPlayer, row, r.Player, b.st.bodyLeft[p])
		b.set(sheet, colTotal, row, number(r.Borda), b.st.bodyBold[p])
		for j, m := range wt.Maps {
			var v any = ""
			if borda, ok := r.MapBorda[m.Index]; ok {
				v = number(borda)
			}
			b.set(sheet, colMapStart+j, row, v, b.st.body[p])
		}
	}
}

func mapName(m model.MapMeta, pos int) string {
	if m.Name != "" {
		return m.Name
	}
	return fmt.Sprintf("Map %d", pos)
}

func (b *builder) totalSheet(season []model.SeasonRow, weeks []string) {
	const firstRow = 3
	sheet := b.newSheet(SheetTotal, true)
	lastCol := len(totalHeaders) + len(weeks)

	b.merge(sheet, 1, 1, lastCol, 1, "Totalställning", b.st.title)
	for i, h := range totalHeaders {
		b.set(sheet, i+1, 2, h, b.st.header)
	}
	for j, w := range weeks {
		b.set(sheet, len(totalHeaders)+1+j, 2, w, b.st.header)
	}
	b.freeze(sheet, firstRow)

	widths := map[int]float64{1: 4.5, 2: 22, 3: 14, 4: 10, 5: 8, 6: 8}
	for j := range weeks {
		widths[len(totalHeaders)+1+j] = 12
	}
	b.widths(sheet, widths)

	for i, s := range season {
		idx, row := i+1, firstRow+i
		p := parity(idx)
		b.set(sheet, 1, row, idx, b.st.body[p])
		b.set(sheet, 2, row, s.Player, b.st.bodyLeft[p])
		b.set(sheet, 3, row, number(s.Borda), b.st.bodyBold[p])
		b.set(sheet, 4, row, s.Points, b.st.body[p])
		b.set(sheet, 5, row, s.Maps, b.st.body[p])
		b.set(sheet, 6, row, s.Weeks, b.st.body[p])
		for j, w := range weeks {
			var v any = ""
			if borda, ok := s.WeekBorda[w]; ok {
				v = number(borda)
			}
			b.set(sheet, len(totalHeaders)+1+j, row, v, b.st.body[p])
		}
	}
}

func (b *builder) statsSheet(season []model.SeasonRow) {
	const firstRow = 3
	sheet := b.newSheet(SheetStats, true)

	b.merge(sheet, 1, 1, len(statsHeaders), 1, "Statistik", b.st.title)
	for i, h := range statsHeaders {
		b.set(sheet, i+1, 2, h, b.st.header)
	}
	b.freeze(sheet, firstRow)
	b.widths(sheet, map[int]float64{
		1: 4.5, 2: 22,
		3: 12, 4: 10,
		5: 8, 6: 8,
		7: 14, 8: 14,
		9:  12,
		10: 14, 11: 16, 12: 14,
	})

	for i, s := range season {
		idx, row := i+1, firstRow+i
		p := parity(idx)
		values := []any{
			idx, s.Player,
			number(s.Borda), s.Points,
			s.Maps, s.Weeks,
			number(s.AvgBordaPerMap), number(s.AvgBordaPerWeek),
			number(s.AvgPointsPerMap),
			s.Best.Week, number(s.Best.Borda), s.Best.Points,
		}
		for c, v := range values {
			style := b.st.body[p]
			switch c + 1 {
			case 2:
				style = b.st.bodyLeft[p]
			case 3:
				style = b.st.bodyBold[p]
			}
			b.set(sheet, c+1, row, v, style)
		}
	}
}

func (b *builder) rawSheet(rows []model.StandingsRow) {
	sheet := b.newSheet(SheetRaw, true)
	if len(rows) == 0 {
		if b.err == nil {
			b.err = b.f.SetCellValue(sheet, "A1", "No data")
		}
		return
	}

	widths := make(map[int]float64, len(rawHeaders))
	for i, h := range rawHeaders {
		b.set(sheet, i+1, 1, h, b.st.title)
		widths[i+1] = math.Min(math.Max(float64(len(h)+2), 10), 40)
	}
	b.widths(sheet, widths)
	b.freeze(sheet, 2)

	for i, r := range rows {
		var playedAt any = ""
		if r.PlayedAtEpoch != nil {
			playedAt = *r.PlayedAtEpoch
		}
		values := []any{
			r.Week, r.MapIndex, r.MapURL, r.MapToken, r.MapName, r.RuleText,
			r.Player, r.TotalPoints, r.TotalTime, playedAt, number(r.RankBest), number(r.Borda),
		}
		for c, v := range values {
			style := b.st.raw
			if rawHeaders[c] == "player" {
				style = b.st.rawLeft
			}
			b.set(sheet, c+1, i+2, v, style)
		}
	}
}

// number renders integral floats as integers.
func number(v float64) any {
	if math.Abs(v-math.Round(v)) < 1e-9 && math.Abs(v) < 1<<53 {
		return int64(math.Round(v))
	}
	return v
}
