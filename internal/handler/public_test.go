package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/iliyamo/study-room-reservation/internal/model"
)

func TestPublicVenuesEndpoint(t *testing.T) {
	env := newEnv(t)
	env.seedVenue(1, "Readery", "Haifa")
	env.seedVenue(2, "Deep Work Hub", "Tel Aviv")

	rec := env.do(t, env.public.GetPublicVenues, call{})
	wantStatus(t, rec, http.StatusOK)
	var resp struct {
		Items []PublicVenue `json:"items"`
	}
	decode(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want both venues", len(resp.Items))
	}
	// Sorted by name; owner IDs never leak into the public shape.
	if resp.Items[0].Name != "Deep Work Hub" || resp.Items[1].Name != "Readery" {
		t.Errorf("order = %q, %q, want name ascending", resp.Items[0].Name, resp.Items[1].Name)
	}
}

func TestPublicVenueDetailEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	env.seedCabin(venueID, "1-01")
	env.seedOccupied(venueID, "1-02", 9)
	// A hold that lapsed long ago counts as available again.
	past := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	holder := uint64(7)
	env.st.Seed(model.Cabin{VenueID: venueID, Number: "1-03", Floor: 1, PriceCents: 90000,
		Status: model.CabinHeld, HolderID: &holder, HoldExpiresAt: &past})

	rec := env.do(t, env.public.GetPublicVenue, call{params: idParam(venueID)})
	wantStatus(t, rec, http.StatusOK)
	var resp PublicVenueDetail
	decode(t, rec, &resp)
	if resp.CabinCount != 3 || resp.AvailableCount != 2 {
		t.Errorf("counts = %d/%d, want 3 cabins with 2 available", resp.CabinCount, resp.AvailableCount)
	}

	rec = env.do(t, env.public.GetPublicVenue, call{params: idParam(9999)})
	wantError(t, rec, http.StatusNotFound, "venue not found")
}

func TestPublicCabinsListEffectiveStatus(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	past := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	holder := uint64(7)
	lapsed := env.st.Seed(model.Cabin{VenueID: venueID, Number: "1-01", Floor: 1, PriceCents: 90000,
		Status: model.CabinHeld, HolderID: &holder, HoldExpiresAt: &past})
	future := time.Now().UTC().Add(time.Hour)
	env.st.Seed(model.Cabin{VenueID: venueID, Number: "1-02", Floor: 1, PriceCents: 90000,
		Status: model.CabinHeld, HolderID: &holder, HoldExpiresAt: &future})

	rec := env.do(t, env.public.GetPublicCabins, call{params: idParam(venueID)})
	wantStatus(t, rec, http.StatusOK)
	var resp struct {
		Items []PublicCabin `json:"items"`
	}
	decode(t, rec, &resp)
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].Status != "AVAILABLE" || resp.Items[0].HoldExpiresAt != nil {
		t.Errorf("lapsed cabin = %+v, want AVAILABLE with no deadline", resp.Items[0])
	}
	if resp.Items[1].Status != "HELD" || resp.Items[1].HoldExpiresAt == nil {
		t.Errorf("held cabin = %+v, want HELD with its deadline", resp.Items[1])
	}

	// Listing only resolves the view; the stored row is untouched.
	c, err := env.st.Cabins().Get(context.Background(), lapsed)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != model.CabinHeld {
		t.Errorf("stored = %s, want the lapsed row left as HELD", c.Status)
	}
}

func TestPublicCabinGetRepairs(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	past := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	holder := uint64(7)
	lapsed := env.st.Seed(model.Cabin{VenueID: venueID, Number: "1-01", Floor: 1, PriceCents: 90000,
		Status: model.CabinHeld, HolderID: &holder, HoldExpiresAt: &past})

	rec := env.do(t, env.public.GetPublicCabin, call{params: idParam(lapsed)})
	wantStatus(t, rec, http.StatusOK)
	var resp PublicCabin
	decode(t, rec, &resp)
	if resp.Status != "AVAILABLE" {
		t.Errorf("status = %s, want AVAILABLE", resp.Status)
	}

	// Unlike the list, the single read writes the expiry back.
	c, err := env.st.Cabins().Get(context.Background(), lapsed)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != model.CabinAvailable {
		t.Errorf("stored = %s, want the row repaired to AVAILABLE", c.Status)
	}

	rec = env.do(t, env.public.GetPublicCabin, call{params: idParam(9999)})
	wantError(t, rec, http.StatusNotFound, "cabin not found")
}

func TestSearchPublicVenuesEndpoint(t *testing.T) {
	env := newEnv(t)
	env.seedVenue(1, "Readery", "Haifa")
	env.seedVenue(1, "Readery South", "Tel Aviv")
	env.seedVenue(2, "Deep Work Hub", "Tel Aviv")

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"by city", "/?city=tel%20aviv", 2},
		{"by name fragment", "/?q=readery", 2},
		{"city and name", "/?city=Tel%20Aviv&q=readery", 1},
		{"no filters", "/", 3},
		{"no match", "/?city=Eilat", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, env.public.SearchPublicVenues, call{target: tc.target})
			wantStatus(t, rec, http.StatusOK)
			var resp struct {
				Items []PublicVenue `json:"items"`
			}
			decode(t, rec, &resp)
			if len(resp.Items) != tc.want {
				t.Errorf("items = %d, want %d", len(resp.Items), tc.want)
			}
		})
	}
}
