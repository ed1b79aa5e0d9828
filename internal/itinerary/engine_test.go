package itinerary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/tripdesk-go/internal/cache"
	"github.com/tripdesk/tripdesk-go/internal/model"
	"github.com/tripdesk/tripdesk-go/internal/retry"
	"github.com/tripdesk/tripdesk-go/internal/sheet"
)

// fakeStore is an in-memory RowStore with fault injection and call
// accounting, mirroring the remote store's 1-based shifting semantics.
type fakeStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
	ids    map[string]int64

	readCalls map[string]int

	failRead   error
	failInsert error
	failDelete error
	failWrite  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sheets:    make(map[string][][]string),
		ids:       make(map[string]int64),
		readCalls: make(map[string]int),
	}
}

func (f *fakeStore) setSheet(name string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[name] = rows
	if _, ok := f.ids[name]; !ok {
		f.ids[name] = int64(len(f.ids) + 100)
	}
}

func (f *fakeStore) nameByID(id int64) string {
	for name, sid := range f.ids {
		if sid == id {
			return name
		}
	}
	return ""
}

func (f *fakeStore) ReadSheet(_ context.Context, name string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls[name]++
	if f.failRead != nil {
		return nil, f.failRead
	}
	rows, ok := f.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sheet.ErrNoSuchSheet, name)
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *fakeStore) SheetID(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.ids[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", sheet.ErrNoSuchSheet, name)
	}
	return id, nil
}

func (f *fakeStore) InsertRowAt(_ context.Context, sheetID int64, row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return f.failInsert
	}
	name := f.nameByID(sheetID)
	rows := f.sheets[name]
	i := row - 1
	if i < 0 || i > len(rows) {
		return fmt.Errorf("insert index %d out of range", row)
	}
	rows = append(rows[:i], append([][]string{nil}, rows[i:]...)...)
	f.sheets[name] = rows
	return nil
}

func (f *fakeStore) DeleteRowAt(_ context.Context, sheetID int64, row int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	name := f.nameByID(sheetID)
	rows := f.sheets[name]
	i := row - 1
	if i < 0 || i >= len(rows) {
		return fmt.Errorf("delete index %d out of range", row)
	}
	f.sheets[name] = append(rows[:i], rows[i+1:]...)
	return nil
}

func (f *fakeStore) WriteRange(_ context.Context, name string, row int, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return f.failWrite
	}
	rows := f.sheets[name]
	for len(rows) < row {
		rows = append(rows, nil)
	}
	rows[row-1] = append([]string(nil), values...)
	f.sheets[name] = rows
	return nil
}

func (f *fakeStore) AppendRow(_ context.Context, name string, values []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[name] = append(f.sheets[name], append([]string(nil), values...))
	return nil
}

func (f *fakeStore) rows(name string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets[name]
}

func noDelayPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Backoff: nil, PostCallDelay: 0}
}

func newTestEngine(store *fakeStore) *Engine {
	return New(store, cache.New(), Options{Policy: noDelayPolicy()})
}

func activityRow(t, name string) []string {
	return []string{t, name, "", "", "", "true", ""}
}

func sortedDayFixture() [][]string {
	return [][]string{
		activityRow("8:00am", "Breakfast"),
		activityRow("10:00am", "Museum"),
		activityRow("2:00pm", "Beach"),
	}
}

func TestInsertBetweenExistingTimes(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	res, err := e.Insert(context.Background(), 1, model.Activity{Time: "9:00am", Activity: "Walk", Visible: true})
	require.NoError(t, err)
	assert.Equal(t, "'Day 1'!A2:G2", res.Range)
	assert.False(t, res.Appended)

	rows := store.rows("Day 1")
	require.Len(t, rows, 4)
	assert.Equal(t, "Breakfast", rows[0][1])
	assert.Equal(t, "Walk", rows[1][1])
	assert.Equal(t, "Museum", rows[2][1])
	assert.Equal(t, "Beach", rows[3][1])
}

func TestInsertBeforeEverything(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	_, err := e.Insert(context.Background(), 1, model.Activity{Time: "7:00am", Activity: "Run", Visible: true})
	require.NoError(t, err)

	rows := store.rows("Day 1")
	require.Len(t, rows, 4)
	assert.Equal(t, "Run", rows[0][1])
	assert.Equal(t, "Breakfast", rows[1][1])
}

func TestInsertAfterEverythingAppendsAtEnd(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	res, err := e.Insert(context.Background(), 1, model.Activity{Time: "3:00pm", Activity: "Dinner", Visible: true})
	require.NoError(t, err)
	assert.Equal(t, "'Day 1'!A4:G4", res.Range)

	rows := store.rows("Day 1")
	require.Len(t, rows, 4)
	assert.Equal(t, "Dinner", rows[3][1])
}

func dividerDayFixture() [][]string {
	return [][]string{
		{"Date", "Activity", "Notes"},
		{"12/04", "Day 2", "Old Town"},
		activityRow("8:00am", "Breakfast"),
		activityRow("10:00am", "Museum"),
		{"13/04", "Day 2", "continued"},
		activityRow("2:00pm", "Beach"),
	}
}

func TestInsertSkipsHeaderAndDividers(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 2", dividerDayFixture())
	e := newTestEngine(store)

	_, err := e.Insert(context.Background(), 2, model.Activity{Time: "1:00pm", Activity: "Lunch", Visible: true})
	require.NoError(t, err)

	rows := store.rows("Day 2")
	require.Len(t, rows, 7)
	// Physical interpretation: inserted directly before the 2:00pm row,
	// after the second divider.
	assert.Equal(t, "Lunch", rows[5][1])
	assert.Equal(t, "Beach", rows[6][1])
	// Dividers and header are untouched and in order.
	assert.Equal(t, sheet.KindColumnHeader, sheet.Classify(rows[0]))
	assert.Equal(t, sheet.KindDivider, sheet.Classify(rows[1]))
	assert.Equal(t, sheet.KindDivider, sheet.Classify(rows[4]))
}

func TestInsertDividerAdjustedInterpretation(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 2", dividerDayFixture())
	e := New(store, cache.New(), Options{Policy: noDelayPolicy(), DividerAdjustedInsert: true})

	_, err := e.Insert(context.Background(), 2, model.Activity{Time: "1:00pm", Activity: "Lunch", Visible: true})
	require.NoError(t, err)

	rows := store.rows("Day 2")
	require.Len(t, rows, 7)
	// Adjusted interpretation subtracts the two dividers seen so far,
	// landing the row inside the earlier block, before the 10:00am
	// activity rather than before 2:00pm. This misplacement is why the
	// physical interpretation is the default.
	assert.Equal(t, "Lunch", rows[3][1])
}

func TestInsertFallsBackToAppendOnInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	store.failInsert = errors.New("insertDimension rejected")
	e := newTestEngine(store)

	res, err := e.Insert(context.Background(), 1, model.Activity{Time: "9:00am", Activity: "Walk", Visible: true})
	require.NoError(t, err)
	assert.True(t, res.Appended)

	rows := store.rows("Day 1")
	require.Len(t, rows, 4)
	// Appended past everything, sort order knowingly broken.
	assert.Equal(t, "Walk", rows[3][1])
}

func TestInsertRejectsOutOfRangeDay(t *testing.T) {
	e := newTestEngine(newFakeStore())

	var verr *ValidationError
	_, err := e.Insert(context.Background(), 0, model.Activity{Time: "9am", Activity: "X"})
	require.ErrorAs(t, err, &verr)
	_, err = e.Insert(context.Background(), 11, model.Activity{Time: "9am", Activity: "X"})
	require.ErrorAs(t, err, &verr)
	_, err = e.Insert(context.Background(), 3, model.Activity{Time: "9am", Activity: "   "})
	require.ErrorAs(t, err, &verr)
}

func TestUpdateRewritesRowAndBustsCache(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	// Prime the cache.
	_, err := e.List(context.Background(), true)
	require.NoError(t, err)
	readsAfterList := store.readCalls["Day 1"]

	err = e.Update(context.Background(), 1,
		model.MatchKey{Time: "10:00am", Activity: "Museum"},
		model.Activity{Time: "10:30am", Activity: "Museum", Notes: "tickets booked"})
	require.NoError(t, err)

	// Update reads fresh (invalidate-before-read) and invalidates after,
	// so the next listing must hit the remote store again.
	assert.Greater(t, store.readCalls["Day 1"], readsAfterList)
	readsAfterUpdate := store.readCalls["Day 1"]

	_, err = e.List(context.Background(), true)
	require.NoError(t, err)
	assert.Greater(t, store.readCalls["Day 1"], readsAfterUpdate)

	rows := store.rows("Day 1")
	assert.Equal(t, "10:30am", rows[1][0])
	assert.Equal(t, "tickets booked", rows[1][2])
}

func TestUpdateCarriesVisibilityOver(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", [][]string{
		{"2pm", "Backup plan", "", "", "", "false", "https://img.example/x.jpg"},
	})
	e := newTestEngine(store)

	err := e.Update(context.Background(), 1,
		model.MatchKey{Time: "2pm", Activity: "Backup plan"},
		model.Activity{Time: "3pm", Activity: "Backup plan", Visible: true})
	require.NoError(t, err)

	rows := store.rows("Day 1")
	assert.Equal(t, "false", rows[0][5], "visibility must carry over from the existing row")
	assert.Equal(t, "https://img.example/x.jpg", rows[0][6], "image must carry over when not supplied")
}

func TestUpdateNotFound(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	err := e.Update(context.Background(), 1,
		model.MatchKey{Time: "5:00am", Activity: "Nope"},
		model.Activity{Time: "5:00am", Activity: "Nope"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetVisibility(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	err := e.SetVisibility(context.Background(), 1, model.MatchKey{Time: "10:00am", Activity: "Museum"}, false)
	require.NoError(t, err)

	rows := store.rows("Day 1")
	assert.Equal(t, "false", rows[1][5])
	assert.Equal(t, "Museum", rows[1][1], "other fields untouched")
}

func TestDeleteRemovesExactlyOneRow(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	res, err := e.Delete(context.Background(), 1, model.MatchKey{Time: "10:00am", Activity: "Museum"})
	require.NoError(t, err)
	assert.False(t, res.Cleared)

	rows := store.rows("Day 1")
	require.Len(t, rows, 2)
	assert.Equal(t, "Breakfast", rows[0][1])
	assert.Equal(t, "Beach", rows[1][1])
}

func TestDeleteFallbackBlanksRowInPlace(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	store.failDelete = errors.New("deleteDimension rejected")
	e := newTestEngine(store)

	res, err := e.Delete(context.Background(), 1, model.MatchKey{Time: "10:00am", Activity: "Museum"})
	require.NoError(t, err)
	assert.True(t, res.Cleared)

	rows := store.rows("Day 1")
	require.Len(t, rows, 3, "fallback must not shift subsequent rows")
	for _, c := range rows[1] {
		assert.Empty(t, c)
	}
	assert.Equal(t, "Beach", rows[2][1])
}

func TestDeleteNotFound(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 1", sortedDayFixture())
	e := newTestEngine(store)

	_, err := e.Delete(context.Background(), 1, model.MatchKey{Time: "midnight", Activity: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMoveAppendsUnsortedAtTarget(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 2", sortedDayFixture())
	store.setSheet("Day 3", [][]string{activityRow("6:00pm", "Dinner")})
	e := newTestEngine(store)

	err := e.Move(context.Background(), 2, 3,
		model.MatchKey{Time: "8:00am", Activity: "Breakfast"}, model.Activity{})
	require.NoError(t, err)

	src := store.rows("Day 2")
	require.Len(t, src, 2)
	assert.Equal(t, "Museum", src[0][1])

	dst := store.rows("Day 3")
	require.Len(t, dst, 2)
	// Appended at the end even though 8:00am sorts before 6:00pm.
	assert.Equal(t, "Breakfast", dst[1][1])
}

func TestMovePartialFailureIsDistinct(t *testing.T) {
	store := newFakeStore()
	store.setSheet("Day 2", sortedDayFixture())
	store.setSheet("Day 3", nil)
	store.failDelete = errors.New("deleteDimension rejected")
	e := newTestEngine(store)

	err := e.Move(context.Background(), 2, 3,
		model.MatchKey{Time: "8:00am", Activity: "Breakfast"}, model.Activity{})

	var pmerr *PartialMoveError
	require.ErrorAs(t, err, &pmerr)
	assert.Equal(t, 2, pmerr.SourceDay)
	assert.Equal(t, 3, pmerr.TargetDay)

	// Duplicated state: row still in source and already in target.
	assert.Len(t, store.rows("Day 2"), 3)
	assert.Len(t, store.rows("Day 3"), 1)
}

func TestMoveRejectsSameDay(t *testing.T) {
	e := newTestEngine(newFakeStore())
	var verr *ValidationError
	err := e.Move(context.Background(), 2, 2, model.MatchKey{Time: "8am", Activity: "X"}, model.Activity{})
	require.ErrorAs(t, err, &verr)
}

func listFixtureStore() *fakeStore {
	store := newFakeStore()
	store.setSheet("Headers", [][]string{
		{"Date", "Day", "Title"},
		{"12/04", "Day 1", "Arrival"},
		{"13/04", "Day 2", "Old Town"},
	})
	for day := 1; day <= TripDays; day++ {
		store.setSheet(fmt.Sprintf("Day %d", day), nil)
	}
	store.setSheet("Day 1", [][]string{
		activityRow("9:00am", "Landing"),
		{"2pm", "Secret dinner", "", "", "", "false", ""},
	})
	return store
}

func TestListMergesDividersAndFiltersHidden(t *testing.T) {
	store := listFixtureStore()
	e := newTestEngine(store)

	listing, err := e.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, listing, TripDays)

	assert.Equal(t, 1, listing[0].Day)
	assert.Equal(t, "12/04", listing[0].Date)
	assert.Equal(t, "Arrival", listing[0].Title)
	require.Len(t, listing[0].Activities, 1, "hidden row filtered for viewer listing")
	assert.Equal(t, "Landing", listing[0].Activities[0].Activity)

	admin, err := e.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, admin[0].Activities, 2, "admin listing includes hidden rows")
}

func TestListToleratesFailedDay(t *testing.T) {
	store := listFixtureStore()
	e := newTestEngine(store)

	// Poison every read, then verify the listing still returns all ten
	// days with zero rows each instead of failing outright.
	store.mu.Lock()
	store.failRead = errors.New("backend unavailable")
	store.mu.Unlock()

	listing, err := e.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, listing, TripDays)
	for _, d := range listing {
		assert.Empty(t, d.Activities)
	}
}
