// Package flight proxies flight-status lookups to the AviationStack
// API, trimming its verbose records down to what the frontend shows.
package flight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tripdesk/tripdesk-go/internal/model"
)

var ErrNotConfigured = errors.New("flight lookup not configured")

// UpstreamError wraps any AviationStack-side failure so handlers can
// attach the upstream message for diagnostics.
type UpstreamError struct {
	Status int
	Msg    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("flight api upstream failure (status %d): %s", e.Status, e.Msg)
}

type Client struct {
	baseURL string
	key     string
	client  *http.Client
}

func NewClient(baseURL, key string) *Client {
	return &Client{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool { return c.key != "" }

// aviationStack mirrors the subset of the upstream response we read.
type aviationStack struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		FlightDate   string `json:"flight_date"`
		FlightStatus string `json:"flight_status"`
		Airline      struct {
			Name string `json:"name"`
			IATA string `json:"iata"`
		} `json:"airline"`
		Flight struct {
			Number string `json:"number"`
			IATA   string `json:"iata"`
		} `json:"flight"`
		Departure aviationEndpoint `json:"departure"`
		Arrival   aviationEndpoint `json:"arrival"`
	} `json:"data"`
}

type aviationEndpoint struct {
	Airport   string `json:"airport"`
	IATA      string `json:"iata"`
	Terminal  string `json:"terminal"`
	Gate      string `json:"gate"`
	Scheduled string `json:"scheduled"`
	Estimated string `json:"estimated"`
	Delay     int    `json:"delay"`
}

// Status looks up a flight by IATA number and date (YYYY-MM-DD).
func (c *Client) Status(ctx context.Context, flightNumber, date string) ([]model.FlightStatus, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{
		"access_key":  {c.key},
		"flight_iata": {flightNumber},
	}
	if date != "" {
		q.Set("flight_date", date)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/flights?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Status: 0, Msg: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Msg: string(raw)}
	}

	var parsed aviationStack
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Msg: "invalid JSON from upstream"}
	}
	if parsed.Error != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Msg: parsed.Error.Message}
	}

	out := make([]model.FlightStatus, 0, len(parsed.Data))
	for _, d := range parsed.Data {
		out = append(out, model.FlightStatus{
			FlightDate: d.FlightDate,
			Status:     d.FlightStatus,
			Airline:    model.FlightAirline{Name: d.Airline.Name, IATA: d.Airline.IATA},
			Flight:     model.FlightNumber{Number: d.Flight.Number, IATA: d.Flight.IATA},
			Departure:  trimEndpoint(d.Departure),
			Arrival:    trimEndpoint(d.Arrival),
		})
	}
	return out, nil
}

func trimEndpoint(e aviationEndpoint) model.FlightEndpoint {
	return model.FlightEndpoint{
		Airport:   e.Airport,
		IATA:      e.IATA,
		Terminal:  e.Terminal,
		Gate:      e.Gate,
		Scheduled: e.Scheduled,
		Estimated: e.Estimated,
		DelayMin:  e.Delay,
	}
}
