package xlsx

import (
	"github.com/xuri/excelize/v2"
)

// Palette.
const (
	colorDark   = "2B2B2B"
	colorMid    = "3A3A3A"
	colorRowA   = "D9EAD3"
	colorRowB   = "C9E2BC"
	colorWhite  = "FFFFFF"
	colorBorder = "1F1F1F"
	colorText   = "000000"
)

// styles holds the style ids registered on one workbook.
type styles struct {
	title    int // big header on dark fill
	subtitle int // medium header on dark fill
	header   int // column header on mid fill
	link     int // underlined column header on mid fill
	raw      int // raw sheet body
	rawLeft  int

	// body styles indexed by row parity
	body     [2]int
	bodyLeft [2]int
	bodyBold [2]int
}

func fill(color string) excelize.Fill {
	return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
}

func thinBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: colorBorder, Style: 1},
		{Type: "right", Color: colorBorder, Style: 1},
		{Type: "top", Color: colorBorder, Style: 1},
		{Type: "bottom", Color: colorBorder, Style: 1},
	}
}

func align(horizontal string) *excelize.Alignment {
	return &excelize.Alignment{Horizontal: horizontal, Vertical: "center", WrapText: true}
}

type styleDef struct {
	id    *int
	style *excelize.Style
}

func newStyles(f *excelize.File) (*styles, error) {
	s := &styles{}
	defs := []styleDef{
		{&s.title, &excelize.Style{Fill: fill(colorDark), Font: &excelize.Font{Bold: true, Color: colorWhite, Size: 16}, Alignment: align("center"), Border: thinBorder()}},
		{&s.subtitle, &excelize.Style{Fill: fill(colorDark), Font: &excelize.Font{Bold: true, Color: colorWhite, Size: 12}, Alignment: align("center"), Border: thinBorder()}},
		{&s.header, &excelize.Style{Fill: fill(colorMid), Font: &excelize.Font{Bold: true, Color: colorWhite}, Alignment: align("center"), Border: thinBorder()}},
		{&s.link, &excelize.Style{Fill: fill(colorMid), Font: &excelize.Font{Bold: true, Color: colorWhite, Underline: "single"}, Alignment: align("center"), Border: thinBorder()}},
		{&s.raw, &excelize.Style{Fill: fill(colorWhite), Font: &excelize.Font{Color: colorText}, Alignment: align("center"), Border: thinBorder()}},
		{&s.rawLeft, &excelize.Style{Fill: fill(colorWhite), Font: &excelize.Font{Color: colorText}, Alignment: align("left"), Border: thinBorder()}},
	}
	for i, color := range []string{colorRowA, colorRowB} {
		defs = append(defs,
			styleDef{&s.body[i], &excelize.Style{Fill: fill(color), Font: &excelize.Font{Color: colorText}, Alignment: align("center"), Border: thinBorder()}},
			styleDef{&s.bodyLeft[i], &excelize.Style{Fill: fill(color), Font: &excelize.Font{Color: colorText}, Alignment: align("left"), Border: thinBorder()}},
			styleDef{&s.bodyBold[i], &excelize.Style{Fill: fill(color), Font: &excelize.Font{Color: colorText, Bold: true}, Alignment: align("center"), Border: thinBorder()}},
		)
	}

	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return nil, err
		}
		*d.id = id
	}
	return s, nil
}

// parity picks the fill of a 1-based data row: odd rows use the first color.
func parity(idx int) int {
	if idx%2 == 1 {
		return 0
	}
	return 1
}
