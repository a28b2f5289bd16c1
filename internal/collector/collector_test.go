package collector

import (
	"context"
	"errors"
	"testing"
)

func TestCollect_InsufficientData(t *testing.T) {
	for _, closes := range [][]float64{nil, {42000}} {
		c := NewCollector(&MockFetcher{Closes: closes}, DefaultLookbackDays)
		_, ok, err := c.Collect(context.Background(), "^DJI")
		if err != nil {
			t.Fatalf("%d closes: unexpected error %v", len(closes), err)
		}
		if ok {
			t.Errorf("%d closes: expected ok=false", len(closes))
		}
	}
}

func TestCollect_LastTwoInOrder(t *testing.T) {
	tests := []struct {
		closes           []float64
		latest, previous string
	}{
		{[]float64{41500, 42000}, "42000", "41500"},
		{[]float64{100, 101, 102, 5100, 5000}, "5000", "5100"},
		{[]float64{1, 2, 3, 4, 5, 6, 7}, "7", "6"},
	}
	for _, tt := range tests {
		c := NewCollector(&MockFetcher{Closes: tt.closes}, DefaultLookbackDays)
		obs, ok, err := c.Collect(context.Background(), "^GSPC")
		if err != nil || !ok {
			t.Fatalf("closes %v: ok=%v err=%v", tt.closes, ok, err)
		}
		if obs.Symbol != "^GSPC" {
			t.Errorf("symbol = %q", obs.Symbol)
		}
		if obs.Latest.String() != tt.latest || obs.Previous.String() != tt.previous {
			t.Errorf("closes %v: got (%s, %s), want (%s, %s)",
				tt.closes, obs.Latest, obs.Previous, tt.latest, tt.previous)
		}
	}
}

func TestCollect_PropagatesFetchError(t *testing.T) {
	boom := errors.New("connection reset")
	c := NewCollector(&MockFetcher{Err: boom}, DefaultLookbackDays)
	_, ok, err := c.Collect(context.Background(), "^DJI")
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
	if ok {
		t.Error("expected ok=false on error")
	}
}

func TestNewCollector_DefaultsLookback(t *testing.T) {
	c := NewCollector(&MockFetcher{}, 0)
	if c.LookbackDays != DefaultLookbackDays {
		t.Errorf("LookbackDays = %d, want %d", c.LookbackDays, DefaultLookbackDays)
	}
}
