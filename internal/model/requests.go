package model

// AddActivityRequest is the body of POST /api/itinerary/add.
type AddActivityRequest struct {
	Day      int    `json:"day"`
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Notes    string `json:"notes,omitempty"`
	Cost     string `json:"cost,omitempty"`
	Link     string `json:"link,omitempty"`
	Image    string `json:"image,omitempty"`
}

// UpdateActivityRequest is the body of PUT /api/itinerary/update.
// The original pair locates the row; the remaining fields replace it.
type UpdateActivityRequest struct {
	Day              int    `json:"day"`
	OriginalTime     string `json:"originalTime"`
	OriginalActivity string `json:"originalActivity"`
	Time             string `json:"time"`
	Activity         string `json:"activity"`
	Notes            string `json:"notes,omitempty"`
	Cost             string `json:"cost,omitempty"`
	Link             string `json:"link,omitempty"`
	Image            string `json:"image,omitempty"`
}

// DeleteActivityRequest is the body of DELETE /api/itinerary/delete.
type DeleteActivityRequest struct {
	Day      int    `json:"day"`
	Time     string `json:"time"`
	Activity string `json:"activity"`
}

// VisibilityRequest is the body of PUT /api/itinerary/visibility.
type VisibilityRequest struct {
	Day      int    `json:"day"`
	Time     string `json:"time"`
	Activity string `json:"activity"`
	Visible  bool   `json:"visible"`
}

// MoveActivityRequest is the body of POST /api/itinerary/move.
type MoveActivityRequest struct {
	SourceDay  int    `json:"sourceDay"`
	TargetDay  int    `json:"targetDay"`
	TargetDate string `json:"targetDate,omitempty"`
	Time       string `json:"time"`
	Activity   string `json:"activity"`
	Notes      string `json:"notes,omitempty"`
	Cost       string `json:"cost,omitempty"`
	Link       string `json:"link,omitempty"`
}
