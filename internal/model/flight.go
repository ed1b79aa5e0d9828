package model

// FlightStatus is the trimmed view of one AviationStack flight record
// returned by GET /api/flight-status.
type FlightStatus struct {
	FlightDate string         `json:"flightDate"`
	Status     string         `json:"status"`
	Airline    FlightAirline  `json:"airline"`
	Flight     FlightNumber   `json:"flight"`
	Departure  FlightEndpoint `json:"departure"`
	Arrival    FlightEndpoint `json:"arrival"`
}

type FlightAirline struct {
	Name string `json:"name"`
	IATA string `json:"iata"`
}

type FlightNumber struct {
	Number string `json:"number"`
	IATA   string `json:"iata"`
}

type FlightEndpoint struct {
	Airport   string `json:"airport"`
	IATA      string `json:"iata"`
	Terminal  string `json:"terminal,omitempty"`
	Gate      string `json:"gate,omitempty"`
	Scheduled string `json:"scheduled,omitempty"`
	Estimated string `json:"estimated,omitempty"`
	DelayMin  int    `json:"delayMinutes,omitempty"`
}
