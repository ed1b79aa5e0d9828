// Package reservation persists venue reservations in a local SQLite
// file, a side store independent of the trip spreadsheet.
package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tripdesk/tripdesk-go/internal/model"
)

var ErrReservationNotFound = errors.New("reservation not found")

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	time TEXT NOT NULL,
	activity TEXT NOT NULL,
	guests INTEGER,
	venue_name TEXT,
	venue_address TEXT,
	reservation_name TEXT,
	notes TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(date);
CREATE INDEX IF NOT EXISTS idx_reservations_time ON reservations(time);
CREATE INDEX IF NOT EXISTS idx_reservations_venue ON reservations(venue_name);`

// Store wraps the reservations table.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and
// ensures the schema. WAL mode keeps readers unblocked during writes.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening reservations db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating reservations schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

const selectCols = `id, date, time, activity, guests, venue_name, venue_address, reservation_name, notes, created_at, updated_at`

func (s *Store) Create(ctx context.Context, r *model.Reservation) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (date, time, activity, guests, venue_name, venue_address, reservation_name, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Date, r.Time, r.Activity, r.Guests,
		nullable(r.VenueName), nullable(r.VenueAddress), nullable(r.ReservationName), nullable(r.Notes),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Update(ctx context.Context, id int64, r *model.Reservation) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reservations SET
			date = ?, time = ?, activity = ?, guests = ?,
			venue_name = ?, venue_address = ?, reservation_name = ?,
			notes = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		r.Date, r.Time, r.Activity, r.Guests,
		nullable(r.VenueName), nullable(r.VenueAddress), nullable(r.ReservationName), nullable(r.Notes),
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

func (s *Store) ByID(ctx context.Context, id int64) (*model.Reservation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectCols+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	return r, err
}

func (s *Store) ByDate(ctx context.Context, date string) ([]model.Reservation, error) {
	return s.query(ctx,
		`SELECT `+selectCols+` FROM reservations WHERE date = ? ORDER BY time ASC`, date)
}

func (s *Store) ByDateRange(ctx context.Context, start, end string) ([]model.Reservation, error) {
	return s.query(ctx,
		`SELECT `+selectCols+` FROM reservations WHERE date >= ? AND date <= ? ORDER BY date ASC, time ASC`,
		start, end)
}

func (s *Store) SearchVenue(ctx context.Context, venue string) ([]model.Reservation, error) {
	return s.query(ctx,
		`SELECT `+selectCols+` FROM reservations WHERE venue_name LIKE ? ORDER BY date ASC, time ASC`,
		"%"+venue+"%")
}

func (s *Store) All(ctx context.Context) ([]model.Reservation, error) {
	return s.query(ctx,
		`SELECT `+selectCols+` FROM reservations ORDER BY date ASC, time ASC`)
}

func (s *Store) Stats(ctx context.Context) (model.ReservationStats, error) {
	var stats model.ReservationStats
	var earliest, latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(date), MAX(date) FROM reservations`,
	).Scan(&stats.Total, &earliest, &latest)
	if err != nil {
		return model.ReservationStats{}, err
	}
	stats.EarliestDate = earliest.String
	stats.LatestDate = latest.String
	return stats, nil
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReservation(row scanner) (*model.Reservation, error) {
	var r model.Reservation
	var guests sql.NullInt64
	var venueName, venueAddress, reservationName, notes sql.NullString
	err := row.Scan(
		&r.ID, &r.Date, &r.Time, &r.Activity, &guests,
		&venueName, &venueAddress, &reservationName, &notes,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if guests.Valid {
		n := int(guests.Int64)
		r.Guests = &n
	}
	r.VenueName = venueName.String
	r.VenueAddress = venueAddress.String
	r.ReservationName = reservationName.String
	r.Notes = notes.String
	return &r, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
