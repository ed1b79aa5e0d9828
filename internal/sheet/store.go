package sheet

import (
	"context"
	"errors"
)

// ErrNoSuchSheet is returned when a sheet title has no matching tab in
// the spreadsheet.
var ErrNoSuchSheet = errors.New("no such sheet")

// Columns is the activity row span (A:G): time, activity, notes,
// cost, link, visible, imageUrl.
const Columns = 7

// RowStore is the remote spreadsheet boundary. Row indexes are
// 1-based, matching the remote store's own numbering. The store offers
// no transactions; callers own the ordering of composed mutations.
type RowStore interface {
	// ReadSheet returns the sheet's rows top to bottom. Rows are ragged:
	// trailing empty cells are not padded.
	ReadSheet(ctx context.Context, sheetName string) ([][]string, error)

	// SheetID resolves a sheet's display title to the internal numeric
	// ID that structural mutations require.
	SheetID(ctx context.Context, sheetName string) (int64, error)

	// InsertRowAt inserts a blank row at the given position, shifting
	// subsequent rows down.
	InsertRowAt(ctx context.Context, sheetID int64, row int) error

	// DeleteRowAt removes the row at the given position, shifting
	// subsequent rows up.
	DeleteRowAt(ctx context.Context, sheetID int64, row int) error

	// WriteRange overwrites one row's cells across the activity column
	// span without shifting anything.
	WriteRange(ctx context.Context, sheetName string, row int, values []string) error

	// AppendRow appends values past the sheet's last data row. Used only
	// as an insert fallback; it ignores sort order.
	AppendRow(ctx context.Context, sheetName string, values []string) error
}
