package sheet

import (
	"regexp"
	"strings"

	"github.com/tripdesk/tripdesk-go/internal/model"
)

// RowKind tags a raw sheet row once at read time so downstream logic
// never re-derives row kind from cell patterns.
type RowKind int

const (
	KindActivity RowKind = iota
	KindColumnHeader
	KindDivider
)

var (
	datePattern = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?$`)
	dayPattern  = regexp.MustCompile(`^[Dd]ay \d+$`)
)

// Classify tags one raw row. A column-header row carries the literal
// "Date" in its first cell; a divider row carries a date in the first
// cell and "Day N" in the second. Everything else is an activity row.
func Classify(cells []string) RowKind {
	if cell(cells, 0) == "Date" {
		return KindColumnHeader
	}
	if datePattern.MatchString(cell(cells, 0)) && dayPattern.MatchString(cell(cells, 1)) {
		return KindDivider
	}
	return KindActivity
}

// ParseActivity decodes a ragged activity row. Visibility defaults to
// true; only the literal "false" hides a row.
func ParseActivity(cells []string) model.Activity {
	return model.Activity{
		Time:     cell(cells, 0),
		Activity: cell(cells, 1),
		Notes:    cell(cells, 2),
		Cost:     cell(cells, 3),
		Link:     cell(cells, 4),
		Visible:  cell(cells, 5) != "false",
		ImageURL: cell(cells, 6),
	}
}

// ActivityCells encodes an activity across the A:G span. This is the
// only place the boolean becomes the store's "true"/"false" literals.
func ActivityCells(a model.Activity) []string {
	visible := "true"
	if !a.Visible {
		visible = "false"
	}
	return []string{a.Time, a.Activity, a.Notes, a.Cost, a.Link, visible, a.ImageURL}
}

// BlankCells is the degraded-delete payload: empty values across the
// full column span, leaving the row in place instead of shifting.
func BlankCells() []string {
	return make([]string, Columns)
}

func cell(cells []string, i int) string {
	if i < len(cells) {
		return strings.TrimSpace(cells[i])
	}
	return ""
}
