package model

// Activity is one trip event row. Visible is a real boolean here; the
// sheet stores it as the literal strings "true"/"false" and the
// conversion happens at the sheet boundary only.
type Activity struct {
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Notes    string `json:"notes,omitempty"`
	Cost     string `json:"cost,omitempty"`
	Link     string `json:"link,omitempty"`
	Visible  bool   `json:"visible"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// MatchKey locates an activity row by its natural (time, activity)
// identity. No surrogate row ID survives a round-trip to the frontend,
// so updates and deletes match on these two fields after trimming.
type MatchKey struct {
	Time     string
	Activity string
}

// DayListing is one trip day in the merged itinerary response: divider
// metadata from the headers sheet plus that day's activity rows.
type DayListing struct {
	Day        int        `json:"day"`
	Date       string     `json:"date"`
	Title      string     `json:"title,omitempty"`
	Activities []Activity `json:"activities"`
}
