package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const klinesBody = `[
  [1700000000000, "100.0", "101.5", "99.2", "100.8", "12.5", 1700000059999, "0", 0, "0", "0", "0"],
  [1700000060000, "100.8", "102.0", "100.1", "101.2", "8.1", 1700000119999, "0", 0, "0", "0", "0"],
  [1700000120000, "101.2", "101.4", "98.9", "99.5", "15.0", 1700000179999, "0", 0, "0", "0", "0"]
]`

func TestKlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("path = %s, want /api/v3/klines", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "1m" || q.Get("limit") != "3" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	candles, err := client.Klines(context.Background(), "BTCUSDT", "1m", 3)
	if err != nil {
		t.Fatalf("Klines: %v", err)
	}

	if len(candles) != 3 {
		t.Fatalf("got %d candles, want 3", len(candles))
	}
	first := candles[0]
	if first.OpenTime != 1700000000000 {
		t.Errorf("open time = %d", first.OpenTime)
	}
	if first.Open != 100.0 || first.High != 101.5 || first.Low != 99.2 || first.Close != 100.8 || first.Volume != 12.5 {
		t.Errorf("unexpected candle: %+v", first)
	}
}

func TestClosesOrderedOldestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(klinesBody))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	closes, err := client.Closes(context.Background(), "BTCUSDT", "1m", 3)
	if err != nil {
		t.Fatalf("Closes: %v", err)
	}

	want := []float64{100.8, 101.2, 99.5}
	if len(closes) != len(want) {
		t.Fatalf("got %d closes, want %d", len(closes), len(want))
	}
	for i := range want {
		if closes[i] != want[i] {
			t.Errorf("closes[%d] = %v, want %v", i, closes[i], want[i])
		}
	}
}

func TestKlinesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": -1121, "msg": "Invalid symbol."}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Klines(context.Background(), "NOPE", "1m", 10)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestKlinesMalformedField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000, "abc", "1", "1", "1", "1", 1700000059999]]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Klines(context.Background(), "BTCUSDT", "1m", 1)
	if err == nil {
		t.Fatal("expected parse error for non-numeric price")
	}
}
