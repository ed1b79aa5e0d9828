package model

import "time"

// Reservation is one row of the local reservations table. Unlike
// activities this store is SQL-native, so rows carry a surrogate ID.
type Reservation struct {
	ID              int64     `json:"id"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Activity        string    `json:"activity"`
	Guests          *int      `json:"guests,omitempty"`
	VenueName       string    `json:"venueName,omitempty"`
	VenueAddress    string    `json:"venueAddress,omitempty"`
	ReservationName string    `json:"reservationName,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ReservationStats summarizes the reservations table.
type ReservationStats struct {
	Total        int    `json:"totalReservations"`
	EarliestDate string `json:"earliestDate,omitempty"`
	LatestDate   string `json:"latestDate,omitempty"`
}
