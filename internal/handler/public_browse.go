// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse venues and cabins without requiring
// authentication. Sensitive fields (owner IDs, holder IDs, occupant IDs) are
// filtered from responses.

package handler

import (
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/study-room-reservation/internal/model"
    "github.com/iliyamo/study-room-reservation/internal/notify"
    "github.com/iliyamo/study-room-reservation/internal/service"
    "github.com/iliyamo/study-room-reservation/internal/store"
)

// PublicHandler aggregates the dependencies needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
    Store  store.Store        // read access to venues and cabins
    Engine *service.Engine    // resolves live cabin state on single-cabin reads
    Events *notify.Dispatcher // delivers events produced by read-repair; may be nil
}

// PublicVenue represents a venue exposed via the public API. It contains
// only safe fields.
type PublicVenue struct {
    ID      uint64 `json:"id"`
    Name    string `json:"name"`
    City    string `json:"city"`
    Address string `json:"address,omitempty"`
}

// PublicCabin represents a cabin exposed via the public API. Status is the
// effective status at request time: a cabin whose hold already lapsed reads
// as AVAILABLE even when the stored row still says HELD.
type PublicCabin struct {
    ID            uint64     `json:"id"`
    VenueID       uint64     `json:"venue_id"`
    Number        string     `json:"number"`
    Floor         uint8      `json:"floor"`
    PriceCents    uint32     `json:"price_cents"`
    Status        string     `json:"status"`
    HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

// PublicVenueDetail represents a single venue with occupancy counters.
type PublicVenueDetail struct {
    PublicVenue
    CabinCount     int `json:"cabin_count"`
    AvailableCount int `json:"available_count"`
}

func toPublicVenue(v *model.Venue) PublicVenue {
    return PublicVenue{ID: v.ID, Name: v.Name, City: v.City, Address: v.Address}
}

func toPublicCabin(cab *model.Cabin, now time.Time) PublicCabin {
    status := cab.EffectiveStatus(now)
    out := PublicCabin{
        ID:         cab.ID,
        VenueID:    cab.VenueID,
        Number:     cab.Number,
        Floor:      cab.Floor,
        PriceCents: cab.PriceCents,
        Status:     string(status),
    }
    // expose the deadline only while a hold or offer is actually pending
    if status == model.CabinHeld || status == model.CabinReserved {
        out.HoldExpiresAt = cab.HoldExpiresAt
    }
    return out
}

// GetPublicVenues returns a list of all venues accessible to unauthenticated users.
// Response JSON contains an "items" array of PublicVenue.
func (h *PublicHandler) GetPublicVenues(c echo.Context) error {
    ctx := c.Request().Context()
    venues, err := h.Store.Venues().ListAll(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicVenue, 0, len(venues))
    for i := range venues {
        out = append(out, toPublicVenue(&venues[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicVenue returns details of a single venue together with cabin
// occupancy counters computed from effective status at request time.
func (h *PublicHandler) GetPublicVenue(c echo.Context) error {
    ctx := c.Request().Context()
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    venue, err := h.Store.Venues().Get(ctx, id)
    if err != nil {
        if err == store.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    cabins, err := h.Store.Cabins().ListByVenue(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    now := time.Now().UTC()
    resp := PublicVenueDetail{PublicVenue: toPublicVenue(venue), CabinCount: len(cabins)}
    for i := range cabins {
        if cabins[i].EffectiveStatus(now) == model.CabinAvailable {
            resp.AvailableCount++
        }
    }
    return c.JSON(http.StatusOK, resp)
}

// GetPublicCabins lists cabins of a venue for unauthenticated users. It validates
// the venue exists, then returns only non-sensitive fields. Statuses are resolved
// against the current time but the rows are not repaired here; repair happens on
// single-cabin reads and on every authenticated mutation.
func (h *PublicHandler) GetPublicCabins(c echo.Context) error {
    ctx := c.Request().Context()
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    // ensure venue exists
    if _, err := h.Store.Venues().Get(ctx, id); err != nil {
        if err == store.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    cabins, err := h.Store.Cabins().ListByVenue(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    now := time.Now().UTC()
    out := make([]PublicCabin, 0, len(cabins))
    for i := range cabins {
        out = append(out, toPublicCabin(&cabins[i], now))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetPublicCabin returns the live state of a single cabin. Unlike the list
// endpoint this one runs through the engine, so an expired hold is written
// back as AVAILABLE (or offered to the waitlist) before the response is built.
func (h *PublicHandler) GetPublicCabin(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    view, events, err := h.Engine.CabinState(c.Request().Context(), id)
    emit(h.Events, events)
    if err != nil {
        return fail(c, err)
    }
    out := PublicCabin{
        ID:         view.Cabin.ID,
        VenueID:    view.Cabin.VenueID,
        Number:     view.Cabin.Number,
        Floor:      view.Cabin.Floor,
        PriceCents: view.Cabin.PriceCents,
        Status:     string(view.Status),
    }
    if view.Status == model.CabinHeld || view.Status == model.CabinReserved {
        out.HoldExpiresAt = view.Cabin.HoldExpiresAt
    }
    return c.JSON(http.StatusOK, out)
}

// SearchPublicVenues filters venues by city and an optional name fragment.
// Matching is case-insensitive; an empty query returns every venue.
func (h *PublicHandler) SearchPublicVenues(c echo.Context) error {
    ctx := c.Request().Context()
    city := strings.TrimSpace(c.QueryParam("city"))
    q := strings.TrimSpace(c.QueryParam("q"))
    venues, err := h.Store.Venues().ListAll(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    out := make([]PublicVenue, 0, len(venues))
    for i := range venues {
        v := &venues[i]
        if city != "" && !strings.EqualFold(v.City, city) {
            continue
        }
        if q != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(q)) {
            continue
        }
        out = append(out, toPublicVenue(v))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}
