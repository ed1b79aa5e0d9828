package flight

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusParsesUpstreamResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("flight_iata"); got != "EK29" {
			t.Errorf("expected flight_iata EK29, got %q", got)
		}
		if got := r.URL.Query().Get("flight_date"); got != "2026-04-12" {
			t.Errorf("expected flight_date, got %q", got)
		}
		fmt.Fprint(w, `{"data":[{
			"flight_date":"2026-04-12",
			"flight_status":"active",
			"airline":{"name":"Emirates","iata":"EK"},
			"flight":{"number":"29","iata":"EK29"},
			"departure":{"airport":"Heathrow","iata":"LHR","terminal":"3","scheduled":"2026-04-12T20:40:00+00:00","delay":12},
			"arrival":{"airport":"Dubai Intl","iata":"DXB","terminal":"3"}
		}]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key")
	got, err := c.Status(context.Background(), "EK29", "2026-04-12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 flight, got %d", len(got))
	}
	f := got[0]
	if f.Status != "active" || f.Airline.IATA != "EK" || f.Departure.DelayMin != 12 {
		t.Fatalf("unexpected flight: %+v", f)
	}
	if f.Arrival.IATA != "DXB" {
		t.Fatalf("unexpected arrival: %+v", f.Arrival)
	}
}

func TestStatusUpstreamErrorObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":"usage_limit_reached","message":"monthly limit hit"}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key")
	_, err := c.Status(context.Background(), "EK29", "")
	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if uerr.Msg != "monthly limit hit" {
		t.Fatalf("expected upstream message attached, got %q", uerr.Msg)
	}
}

func TestStatusUpstreamHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "test-key")
	_, err := c.Status(context.Background(), "EK29", "")
	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if uerr.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", uerr.Status)
	}
}

func TestStatusNotConfigured(t *testing.T) {
	c := NewClient("https://api.example", "")
	_, err := c.Status(context.Background(), "EK29", "")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
