package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/store"
)

func TestCreateVenueEndpoint(t *testing.T) {
	env := newEnv(t)

	body := `{"name":"Readery","city":"Haifa","address":"Herzl 10","floors":[{"floor":1,"count":3,"price_cents":50000}]}`
	rec := env.do(t, env.owner.CreateVenue, call{method: http.MethodPost, user: 1, body: body})
	wantStatus(t, rec, http.StatusCreated)
	var resp struct {
		Venue  model.Venue `json:"venue"`
		Cabins int         `json:"cabins"`
	}
	decode(t, rec, &resp)
	if resp.Venue.ID == 0 || resp.Venue.OwnerID != 1 || resp.Cabins != 3 {
		t.Fatalf("resp = %+v, want a venue owned by 1 with 3 cabins", resp)
	}

	cabins, err := env.st.Cabins().ListByVenue(context.Background(), resp.Venue.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(cabins) != 3 || cabins[0].Number != "1-01" || cabins[2].Number != "1-03" {
		t.Errorf("cabins = %+v, want three numbered 1-01..1-03", cabins)
	}
	for _, cab := range cabins {
		if cab.Status != model.CabinAvailable || cab.PriceCents != 50000 {
			t.Errorf("cabin %s = %s @ %d, want AVAILABLE @ 50000", cab.Number, cab.Status, cab.PriceCents)
		}
	}
}

func TestCreateVenueEndpointBadBody(t *testing.T) {
	env := newEnv(t)

	rec := env.do(t, env.owner.CreateVenue, call{method: http.MethodPost, user: 1, body: `{"city":"Haifa"}`})
	wantError(t, rec, http.StatusBadRequest, "name and city are required")

	rec = env.do(t, env.owner.CreateVenue, call{method: http.MethodPost, body: `{"name":"X","city":"Y"}`})
	wantStatus(t, rec, http.StatusUnauthorized)
}

func TestUpdateVenueEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")

	// Another owner sees a 404, not a 403, so nothing is revealed.
	rec := env.do(t, env.owner.UpdateVenue, call{
		method: http.MethodPatch, user: 2, body: `{"name":"Mine now"}`, params: idParam(venueID),
	})
	wantError(t, rec, http.StatusNotFound, "venue not found")

	rec = env.do(t, env.owner.UpdateVenue, call{
		method: http.MethodPatch, user: 1, body: `{"name":"Readery North","city":"  Tel Aviv "}`, params: idParam(venueID),
	})
	wantStatus(t, rec, http.StatusOK)
	v, err := env.st.Venues().Get(context.Background(), venueID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Name != "Readery North" || v.City != "Tel Aviv" {
		t.Errorf("venue = %q / %q, want updated and trimmed fields", v.Name, v.City)
	}
}

func TestDeleteVenueEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	// A venue with bookings cannot be deleted.
	if _, _, err := env.engine.BookDirect(context.Background(), 5, bookingParamsFor(cab)); err != nil {
		t.Fatal(err)
	}
	rec := env.do(t, env.owner.DeleteVenue, call{method: http.MethodDelete, user: 1, params: idParam(venueID)})
	wantError(t, rec, http.StatusConflict, "venue has bookings")

	empty := env.seedVenue(1, "Annex", "Haifa")
	rec = env.do(t, env.owner.DeleteVenue, call{method: http.MethodDelete, user: 1, params: idParam(empty)})
	wantStatus(t, rec, http.StatusNoContent)
	if _, err := env.st.Venues().Get(context.Background(), empty); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("venue lookup err = %v, want ErrNotFound after delete", err)
	}
}

func TestAddCabinsEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")

	body := `{"cabins":[{"number":"2-01","floor":2,"price_cents":60000},{"number":"2-02","floor":2,"price_cents":60000}]}`
	rec := env.do(t, env.owner.AddCabins, call{method: http.MethodPost, user: 1, body: body, params: idParam(venueID)})
	wantStatus(t, rec, http.StatusCreated)
	var resp struct {
		Items []model.Cabin `json:"items"`
	}
	decode(t, rec, &resp)
	if len(resp.Items) != 2 || resp.Items[0].Number != "2-01" {
		t.Errorf("items = %+v, want the two created cabins", resp.Items)
	}

	// Someone else's venue does not accept cabins.
	rec = env.do(t, env.owner.AddCabins, call{method: http.MethodPost, user: 2, body: body, params: idParam(venueID)})
	wantError(t, rec, http.StatusNotFound, "venue not found")

	rec = env.do(t, env.owner.AddCabins, call{method: http.MethodPost, user: 1, body: `{"cabins":[]}`, params: idParam(venueID)})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestUpdateCabinPriceEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.owner.UpdateCabinPrice, call{
		method: http.MethodPatch, user: 1, body: `{"price_cents":120000}`, params: idParam(cab),
	})
	wantStatus(t, rec, http.StatusOK)
	c, err := env.st.Cabins().Get(context.Background(), cab)
	if err != nil {
		t.Fatal(err)
	}
	if c.PriceCents != 120000 {
		t.Errorf("price = %d, want 120000", c.PriceCents)
	}

	rec = env.do(t, env.owner.UpdateCabinPrice, call{
		method: http.MethodPatch, user: 2, body: `{"price_cents":1}`, params: idParam(cab),
	})
	wantError(t, rec, http.StatusNotFound, "cabin not found")

	rec = env.do(t, env.owner.UpdateCabinPrice, call{
		method: http.MethodPatch, user: 1, body: `{"price_cents":0}`, params: idParam(cab),
	})
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestMaintenanceEndpoints(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	cab := env.seedCabin(venueID, "1-01")

	rec := env.do(t, env.owner.SetMaintenance, call{method: http.MethodPost, user: 1, params: idParam(cab)})
	wantStatus(t, rec, http.StatusOK)
	c, err := env.st.Cabins().Get(context.Background(), cab)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != model.CabinMaintenance {
		t.Errorf("cabin = %s, want MAINTENANCE", c.Status)
	}

	rec = env.do(t, env.owner.ClearMaintenance, call{method: http.MethodDelete, user: 1, params: idParam(cab)})
	wantStatus(t, rec, http.StatusOK)
	c, err = env.st.Cabins().Get(context.Background(), cab)
	if err != nil {
		t.Fatal(err)
	}
	if c.Status != model.CabinAvailable {
		t.Errorf("cabin = %s, want AVAILABLE again", c.Status)
	}

	// Clearing a cabin that is not closed is a state conflict.
	rec = env.do(t, env.owner.ClearMaintenance, call{method: http.MethodDelete, user: 1, params: idParam(cab)})
	wantError(t, rec, http.StatusConflict, "operation not valid in the current state")

	// An occupied cabin cannot be closed.
	taken := env.seedOccupied(venueID, "1-02", 9)
	rec = env.do(t, env.owner.SetMaintenance, call{method: http.MethodPost, user: 1, params: idParam(taken)})
	wantError(t, rec, http.StatusConflict, "cabin is not available")

	// Foreign owners get a 404.
	rec = env.do(t, env.owner.SetMaintenance, call{method: http.MethodPost, user: 2, params: idParam(cab)})
	wantError(t, rec, http.StatusNotFound, "cabin not found")
}

func TestVenueWaitlistEndpoint(t *testing.T) {
	env := newEnv(t)
	venueID := env.seedVenue(1, "Readery", "Haifa")
	taken := env.seedOccupied(venueID, "1-01", 9)

	if _, err := env.engine.JoinWaitlist(context.Background(), 3, taken); err != nil {
		t.Fatal(err)
	}

	rec := env.do(t, env.owner.VenueWaitlist, call{user: 1, params: idParam(venueID)})
	wantStatus(t, rec, http.StatusOK)
	var resp struct {
		Items []waitlistResp `json:"items"`
	}
	decode(t, rec, &resp)
	if len(resp.Items) != 1 || resp.Items[0].CabinID != taken {
		t.Errorf("items = %+v, want the one queued entry", resp.Items)
	}

	rec = env.do(t, env.owner.VenueWaitlist, call{user: 2, params: idParam(venueID)})
	wantError(t, rec, http.StatusNotFound, "venue not found")
}
