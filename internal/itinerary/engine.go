// Package itinerary is the positioning engine over the spreadsheet
// row store: it keeps each day sheet's activity rows sorted by time,
// routes around divider and header rows, and keeps the read cache
// coherent with destructive remote mutations.
package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tripdesk/tripdesk-go/internal/cache"
	"github.com/tripdesk/tripdesk-go/internal/clock"
	"github.com/tripdesk/tripdesk-go/internal/model"
	"github.com/tripdesk/tripdesk-go/internal/retry"
	"github.com/tripdesk/tripdesk-go/internal/sheet"
)

// TripDays is the fixed number of day sheets in the trip spreadsheet.
const TripDays = 10

// Options configures an Engine beyond its collaborators.
type Options struct {
	// HeadersSheet is the sheet holding one divider row per trip day.
	HeadersSheet string

	// Policy wraps every remote-store call.
	Policy retry.Policy

	// DividerAdjustedInsert subtracts the running divider count from
	// the physical insert index. The default (false) passes the
	// physical index straight through; see DESIGN.md.
	DividerAdjustedInsert bool
}

// Engine coordinates reads and mutations on the trip spreadsheet.
// Mutations on the same day are serialized through a per-day lock so
// their read-scan-write sequences cannot interleave.
type Engine struct {
	store sheet.RowStore
	cache *cache.Cache
	opts  Options

	mu       sync.Mutex
	dayLocks map[int]*sync.Mutex
}

func New(store sheet.RowStore, c *cache.Cache, opts Options) *Engine {
	if opts.HeadersSheet == "" {
		opts.HeadersSheet = "Headers"
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	return &Engine{
		store:    store,
		cache:    c,
		opts:     opts,
		dayLocks: make(map[int]*sync.Mutex),
	}
}

// InsertResult reports where an insert landed. Appended is set when
// the sorted insert failed and the row went through the append
// fallback, past all existing rows.
type InsertResult struct {
	Range    string `json:"range"`
	Appended bool   `json:"appended,omitempty"`
}

// DeleteResult reports how a delete completed. Cleared is set when the
// hard delete failed and the row's cells were blanked in place
// instead, a degraded success that avoids shifting row indexes under
// partial failure.
type DeleteResult struct {
	Cleared bool `json:"cleared,omitempty"`
}

// List returns the merged itinerary: divider metadata from the
// headers sheet plus each day's activity rows, fetched concurrently.
// A day whose fetch fails contributes zero rows rather than failing
// the whole listing. Hidden activities are filtered out unless
// includeHidden is set.
func (e *Engine) List(ctx context.Context, includeHidden bool) ([]model.DayListing, error) {
	dividers := make(map[int]model.DayListing)
	dayRows := make([][][]string, TripDays+1)

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	g.Go(func() error {
		rows, err := e.headerRows(gctx)
		if err != nil {
			slog.Warn("headers sheet read failed, listing without divider metadata", "error", err)
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		for _, row := range rows {
			if sheet.Classify(row) != sheet.KindDivider {
				continue
			}
			day := dividerDay(row)
			if day < 1 || day > TripDays {
				continue
			}
			d := model.DayListing{Day: day, Date: strings.TrimSpace(row[0])}
			if len(row) > 2 {
				d.Title = strings.TrimSpace(row[2])
			}
			dividers[day] = d
		}
		return nil
	})

	for day := 1; day <= TripDays; day++ {
		g.Go(func() error {
			rows, err := e.dayRowsCached(gctx, day)
			if err != nil {
				slog.Warn("day fetch failed, contributing zero rows", "day", day, "error", err)
				return nil
			}
			mu.Lock()
			dayRows[day] = rows
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	listing := make([]model.DayListing, 0, TripDays)
	for day := 1; day <= TripDays; day++ {
		d, ok := dividers[day]
		if !ok {
			d = model.DayListing{Day: day}
		}
		d.Activities = []model.Activity{}
		for _, row := range dayRows[day] {
			if sheet.Classify(row) != sheet.KindActivity || isBlankRow(row) {
				continue
			}
			a := sheet.ParseActivity(row)
			if !a.Visible && !includeHidden {
				continue
			}
			d.Activities = append(d.Activities, a)
		}
		listing = append(listing, d)
	}
	return listing, nil
}

// Insert places a new activity at the position that keeps the day's
// activity rows ascending by time, never disturbing divider or header
// rows. If the sorted insert fails at any remote step it falls back to
// a plain append, which ignores sort order.
func (e *Engine) Insert(ctx context.Context, day int, a model.Activity) (InsertResult, error) {
	if err := validateDay("day", day); err != nil {
		return InsertResult{}, err
	}
	if strings.TrimSpace(a.Activity) == "" {
		return InsertResult{}, &ValidationError{Field: "activity", Msg: "must not be empty"}
	}

	unlock := e.lockDays(day)
	defer unlock()
	defer e.cache.InvalidatePrefix(dayKey(day))

	name := daySheetName(day)
	cells := sheet.ActivityCells(a)

	res, err := e.sortedInsert(ctx, day, name, a, cells)
	if err == nil {
		return res, nil
	}

	slog.Warn("sorted insert failed, falling back to append", "day", day, "error", err)
	if appendErr := e.opts.Policy.Do(ctx, func() error {
		return e.store.AppendRow(ctx, name, cells)
	}); appendErr != nil {
		return InsertResult{}, appendErr
	}
	return InsertResult{Range: fmt.Sprintf("'%s'!A:G", name), Appended: true}, nil
}

func (e *Engine) sortedInsert(ctx context.Context, day int, name string, a model.Activity, cells []string) (InsertResult, error) {
	rows, err := e.dayRowsCached(ctx, day)
	if err != nil {
		return InsertResult{}, err
	}

	row := e.insertionRow(rows, a.Time)

	sheetID, err := retry.DoValue(ctx, e.opts.Policy, func() (int64, error) {
		return e.store.SheetID(ctx, name)
	})
	if err != nil {
		return InsertResult{}, err
	}
	if err := e.opts.Policy.Do(ctx, func() error {
		return e.store.InsertRowAt(ctx, sheetID, row)
	}); err != nil {
		return InsertResult{}, err
	}
	if err := e.opts.Policy.Do(ctx, func() error {
		return e.store.WriteRange(ctx, name, row, cells)
	}); err != nil {
		return InsertResult{}, err
	}
	return InsertResult{Range: fmt.Sprintf("'%s'!A%d:G%d", name, row, row)}, nil
}

// insertionRow scans for the first activity row with an equal-or-later
// time and returns the 1-based row to insert at, counting dividers
// along the way. The physical index (divider rows included) is what
// the store needs; the divider-adjusted variant is kept behind the
// option flag until the reference behavior is settled.
func (e *Engine) insertionRow(rows [][]string, newTime string) int {
	offset := 0
	if len(rows) > 0 && sheet.Classify(rows[0]) == sheet.KindColumnHeader {
		offset = 1
	}

	dividerCount := 0
	for i := offset; i < len(rows); i++ {
		switch sheet.Classify(rows[i]) {
		case sheet.KindDivider:
			dividerCount++
			continue
		case sheet.KindColumnHeader:
			continue
		}
		if isBlankRow(rows[i]) {
			continue
		}
		if clock.Compare(newTime, rows[i][0]) <= 0 {
			row := i + 1 // physical, 1-based
			if e.opts.DividerAdjustedInsert {
				row -= dividerCount
			}
			return row
		}
	}
	return len(rows) + 1
}

// Update locates a row by its original (time, activity) pair and
// overwrites its full field set in place. The cache is invalidated
// before the read so the scan cannot act on rows moved by a
// concurrent mutation, and again after the write.
func (e *Engine) Update(ctx context.Context, day int, key model.MatchKey, updated model.Activity) error {
	if err := validateDay("day", day); err != nil {
		return err
	}

	unlock := e.lockDays(day)
	defer unlock()

	e.cache.InvalidatePrefix(dayKey(day))
	defer e.cache.InvalidatePrefix(dayKey(day))

	row, existing, err := e.locate(ctx, day, key)
	if err != nil {
		return err
	}

	// Fields the caller does not supply carry over from the row.
	updated.Visible = existing.Visible
	if updated.ImageURL == "" {
		updated.ImageURL = existing.ImageURL
	}

	return e.opts.Policy.Do(ctx, func() error {
		return e.store.WriteRange(ctx, daySheetName(day), row, sheet.ActivityCells(updated))
	})
}

// SetVisibility flips one row's visibility flag, leaving every other
// field untouched.
func (e *Engine) SetVisibility(ctx context.Context, day int, key model.MatchKey, visible bool) error {
	if err := validateDay("day", day); err != nil {
		return err
	}

	unlock := e.lockDays(day)
	defer unlock()

	e.cache.InvalidatePrefix(dayKey(day))
	defer e.cache.InvalidatePrefix(dayKey(day))

	row, existing, err := e.locate(ctx, day, key)
	if err != nil {
		return err
	}
	existing.Visible = visible

	return e.opts.Policy.Do(ctx, func() error {
		return e.store.WriteRange(ctx, daySheetName(day), row, sheet.ActivityCells(existing))
	})
}

// Delete removes the row matching key. If the hard delete fails the
// row's cells are blanked in place instead of shifting subsequent
// rows, and the result reports the degradation.
func (e *Engine) Delete(ctx context.Context, day int, key model.MatchKey) (DeleteResult, error) {
	if err := validateDay("day", day); err != nil {
		return DeleteResult{}, err
	}

	unlock := e.lockDays(day)
	defer unlock()
	defer e.cache.InvalidatePrefix(dayKey(day))

	name := daySheetName(day)
	sheetID, err := retry.DoValue(ctx, e.opts.Policy, func() (int64, error) {
		return e.store.SheetID(ctx, name)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	row, _, err := e.locate(ctx, day, key)
	if err != nil {
		return DeleteResult{}, err
	}

	delErr := e.opts.Policy.Do(ctx, func() error {
		return e.store.DeleteRowAt(ctx, sheetID, row)
	})
	if delErr == nil {
		return DeleteResult{}, nil
	}

	slog.Warn("hard delete failed, blanking row in place", "day", day, "row", row, "error", delErr)
	if err := e.opts.Policy.Do(ctx, func() error {
		return e.store.WriteRange(ctx, name, row, sheet.BlankCells())
	}); err != nil {
		return DeleteResult{}, delErr
	}
	return DeleteResult{Cleared: true}, nil
}

// Move relocates a row from one day sheet to the end of another. The
// destination append is a looser guarantee than Insert: the row is not
// time-sorted there. A delete failure after the target write succeeds
// surfaces as *PartialMoveError, since the row then exists in both
// sheets.
func (e *Engine) Move(ctx context.Context, srcDay, dstDay int, key model.MatchKey, fields model.Activity) error {
	if err := validateDay("sourceDay", srcDay); err != nil {
		return err
	}
	if err := validateDay("targetDay", dstDay); err != nil {
		return err
	}
	if srcDay == dstDay {
		return &ValidationError{Field: "targetDay", Msg: "must differ from sourceDay"}
	}

	unlock := e.lockDays(srcDay, dstDay)
	defer unlock()

	e.cache.InvalidatePrefix(dayKey(srcDay))
	e.cache.InvalidatePrefix(dayKey(dstDay))
	defer e.cache.InvalidatePrefix(dayKey(srcDay))
	defer e.cache.InvalidatePrefix(dayKey(dstDay))

	srcRow, moved, err := e.locate(ctx, srcDay, key)
	if err != nil {
		return err
	}
	if fields.Notes != "" {
		moved.Notes = fields.Notes
	}
	if fields.Cost != "" {
		moved.Cost = fields.Cost
	}
	if fields.Link != "" {
		moved.Link = fields.Link
	}

	dstName := daySheetName(dstDay)
	dstRows, err := e.dayRowsCached(ctx, dstDay)
	if err != nil {
		return err
	}
	if err := e.opts.Policy.Do(ctx, func() error {
		return e.store.WriteRange(ctx, dstName, len(dstRows)+1, sheet.ActivityCells(moved))
	}); err != nil {
		return err
	}

	srcName := daySheetName(srcDay)
	srcSheetID, err := retry.DoValue(ctx, e.opts.Policy, func() (int64, error) {
		return e.store.SheetID(ctx, srcName)
	})
	if err == nil {
		err = e.opts.Policy.Do(ctx, func() error {
			return e.store.DeleteRowAt(ctx, srcSheetID, srcRow)
		})
	}
	if err != nil {
		return &PartialMoveError{SourceDay: srcDay, TargetDay: dstDay, Key: key, Err: err}
	}
	return nil
}

// locate fetches the day's rows and scans for the first activity row
// whose trimmed (time, activity) pair equals key. Returns the 1-based
// physical row and the parsed activity.
func (e *Engine) locate(ctx context.Context, day int, key model.MatchKey) (int, model.Activity, error) {
	rows, err := e.dayRowsCached(ctx, day)
	if err != nil {
		return 0, model.Activity{}, err
	}

	wantTime := strings.TrimSpace(key.Time)
	wantActivity := strings.TrimSpace(key.Activity)

	offset := 0
	if len(rows) > 0 && sheet.Classify(rows[0]) == sheet.KindColumnHeader {
		offset = 1
	}
	for i := offset; i < len(rows); i++ {
		if sheet.Classify(rows[i]) != sheet.KindActivity {
			continue
		}
		a := sheet.ParseActivity(rows[i])
		if a.Time == wantTime && a.Activity == wantActivity {
			return i + 1, a, nil
		}
	}
	return 0, model.Activity{}, fmt.Errorf("%w: %q at %q on day %d", ErrNotFound, wantActivity, wantTime, day)
}

// dayRowsCached returns the day's rows from cache or from a
// retry-wrapped remote read, caching the result.
func (e *Engine) dayRowsCached(ctx context.Context, day int) ([][]string, error) {
	k := dayKey(day)
	if v, ok := e.cache.Get(k); ok {
		return v.([][]string), nil
	}
	rows, err := retry.DoValue(ctx, e.opts.Policy, func() ([][]string, error) {
		return e.store.ReadSheet(ctx, daySheetName(day))
	})
	if err != nil {
		return nil, err
	}
	e.cache.Set(k, rows)
	return rows, nil
}

func (e *Engine) headerRows(ctx context.Context) ([][]string, error) {
	if v, ok := e.cache.Get(cache.HeaderPrefix); ok {
		return v.([][]string), nil
	}
	rows, err := retry.DoValue(ctx, e.opts.Policy, func() ([][]string, error) {
		return e.store.ReadSheet(ctx, e.opts.HeadersSheet)
	})
	if err != nil {
		return nil, err
	}
	e.cache.Set(cache.HeaderPrefix, rows)
	return rows, nil
}

// lockDays acquires the per-day mutexes in ascending order (stable
// order prevents a Move(2,3) / Move(3,2) deadlock) and returns the
// combined unlock.
func (e *Engine) lockDays(days ...int) func() {
	sorted := append([]int(nil), days...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	locks := make([]*sync.Mutex, 0, len(sorted))
	for _, d := range sorted {
		locks = append(locks, e.dayLock(d))
	}
	for _, l := range locks {
		l.Lock()
	}
	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

func (e *Engine) dayLock(day int) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.dayLocks[day]
	if !ok {
		l = &sync.Mutex{}
		e.dayLocks[day] = l
	}
	return l
}

var dayNumber = regexp.MustCompile(`^[Dd]ay (\d+)$`)

func dividerDay(row []string) int {
	if len(row) < 2 {
		return 0
	}
	m := dayNumber.FindStringSubmatch(strings.TrimSpace(row[1]))
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func daySheetName(day int) string { return fmt.Sprintf("Day %d", day) }

func dayKey(day int) string { return fmt.Sprintf("day:%d", day) }

func validateDay(field string, day int) error {
	if day < 1 || day > TripDays {
		return &ValidationError{Field: field, Msg: fmt.Sprintf("must be between 1 and %d", TripDays)}
	}
	return nil
}
