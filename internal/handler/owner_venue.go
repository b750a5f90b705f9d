package handler // handler package contains owner-specific venue handlers

import (
	"fmt"      // fmt formats generated cabin numbers
	"net/http" // http provides status code constants
	"strings"  // strings offers trimming utilities

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/iliyamo/study-room-reservation/internal/model" // model holds database entities
	"github.com/iliyamo/study-room-reservation/internal/store" // store holds the persistence contracts
)

// floorSpec describes one floor of cabins to generate when creating a venue
type floorSpec struct {
	Floor      uint8  `json:"floor" validate:"required"`            // floor number the cabins sit on
	Count      int    `json:"count" validate:"required,gt=0"`       // how many cabins to create on this floor
	PriceCents uint32 `json:"price_cents" validate:"required,gt=0"` // monthly price applied to each cabin
}

// createVenueReq is the request body for creating a venue with an optional cabin grid
type createVenueReq struct {
	Name    string      `json:"name" validate:"required"` // venue name, unique per owner
	City    string      `json:"city" validate:"required"` // city used by public search
	Address string      `json:"address"`                  // street address, optional
	Floors  []floorSpec `json:"floors" validate:"dive"`   // optional cabin grid to create with the venue
}

// CreateVenue handles POST /v1/venues and creates a new venue for the authenticated owner
func (h *OwnerHandler) CreateVenue(c echo.Context) error { // begin CreateVenue handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // check if the user ID was not available or invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // respond with unauthorized when user ID cannot be obtained
	}
	var body createVenueReq          // declare the request body struct
	if err := c.Bind(&body); err != nil { // attempt to bind the request body into the struct
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"}) // return bad request when binding fails
	}
	if err := c.Validate(&body); err != nil { // run field validation on the bound struct
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and city are required"}) // respond with error when validation fails
	}
	venue := &model.Venue{ // instantiate a new venue model
		OwnerID: ownerID,                        // assign the owner ID to the venue
		Name:    strings.TrimSpace(body.Name),   // assign the trimmed name
		City:    strings.TrimSpace(body.City),   // assign the trimmed city
		Address: strings.TrimSpace(body.Address), // assign the trimmed address
	}
	var cabins []model.Cabin // will collect the cabins created alongside the venue
	err = h.Store.InTx(c.Request().Context(), func(tx store.Store) error { // create venue and cabin grid atomically
		if err := tx.Venues().Create(c.Request().Context(), venue); err != nil { // insert the venue row
			return err // bubble the error to the transaction wrapper
		}
		for _, f := range body.Floors { // walk each requested floor
			for i := 1; i <= f.Count; i++ { // generate the requested number of cabins
				cab := model.Cabin{ // build one cabin row
					VenueID:    venue.ID,                          // attach to the new venue
					Number:     fmt.Sprintf("%d-%02d", f.Floor, i), // label like "2-07" (floor-position)
					Floor:      f.Floor,                           // floor number
					PriceCents: f.PriceCents,                      // monthly price in cents
					Status:     model.CabinAvailable,              // new cabins start available
				}
				if err := tx.Cabins().Create(c.Request().Context(), &cab); err != nil { // insert the cabin row
					return err // abort the whole creation on failure
				}
				cabins = append(cabins, cab) // remember the created cabin for the response
			}
		}
		return nil // commit when everything inserted
	})
	if err != nil { // inspect the transaction outcome
		if strings.Contains(err.Error(), "1062") { // check for duplicate key error
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue name already exists"}) // respond with conflict when the name is not unique
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create venue"}) // respond with internal error for other failures
	}
	return c.JSON(http.StatusCreated, echo.Map{"venue": venue, "cabins": len(cabins)}) // return 201 with the venue and cabin count
}

// ListVenues handles GET /v1/my-venues and returns all venues owned by the authenticated user
func (h *OwnerHandler) ListVenues(c echo.Context) error { // begin ListVenues handler
	ownerID, err := getUserID(c) // extract the user ID from context
	if err != nil {              // invalid user means unauthorized
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // respond unauthorized
	}
	items, err := h.Store.Venues().ListByOwner(c.Request().Context(), ownerID) // fetch venues for this owner
	if err != nil {                                                           // handle repository errors
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"}) // respond with internal server error
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items}) // return the list wrapped in a JSON object
}

// UpdateVenue handles PUT/PATCH /v1/venues/:id and updates venue fields
func (h *OwnerHandler) UpdateVenue(c echo.Context) error { // begin UpdateVenue handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // if user ID is invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // unauthorized error
	}
	id, ok := pathID(c, "id") // parse the venue ID from the URL
	if !ok {                  // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	var body struct { // struct for binding the JSON payload
		Name    string `json:"name"`    // new name, optional
		City    string `json:"city"`    // new city, optional
		Address string `json:"address"` // new address, optional
	}
	if err := c.Bind(&body); err != nil { // attempt to bind the request body
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"}) // return bad request when binding fails
	}
	venue, err := h.Store.Venues().Get(c.Request().Context(), id) // load the venue to verify ownership
	if err != nil {                                               // venue missing or db failure
		return fail(c, err) // translate store errors (404 on missing)
	}
	if venue.OwnerID != ownerID { // venue belongs to a different owner
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"}) // do not reveal other owners' venues
	}
	if v := strings.TrimSpace(body.Name); v != "" { // apply the name when provided
		venue.Name = v // overwrite the name
	}
	if v := strings.TrimSpace(body.City); v != "" { // apply the city when provided
		venue.City = v // overwrite the city
	}
	if v := strings.TrimSpace(body.Address); v != "" { // apply the address when provided
		venue.Address = v // overwrite the address
	}
	if err := h.Store.Venues().Update(c.Request().Context(), venue); err != nil { // persist the changes
		if strings.Contains(err.Error(), "1062") { // duplicate name violation
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue name already exists"}) // respond with conflict
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"}) // respond with generic update failure
	}
	return c.JSON(http.StatusOK, venue) // return the updated venue with OK status
}

// DeleteVenue handles DELETE /v1/venues/:id and removes a venue without bookings
func (h *OwnerHandler) DeleteVenue(c echo.Context) error { // begin DeleteVenue handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // if user ID is invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // unauthorized error
	}
	id, ok := pathID(c, "id") // parse the venue ID from the URL
	if !ok {                  // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	venue, err := h.Store.Venues().Get(c.Request().Context(), id) // load the venue to verify ownership
	if err != nil {                                               // venue missing or db failure
		return fail(c, err) // translate store errors
	}
	if venue.OwnerID != ownerID { // venue belongs to a different owner
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"}) // do not reveal other owners' venues
	}
	n, err := h.Store.Bookings().CountByVenue(c.Request().Context(), id) // count bookings attached to the venue's cabins
	if err != nil {                                                     // counting failed
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"}) // respond with internal server error
	}
	if n > 0 { // bookings exist, deletion is refused
		return c.JSON(http.StatusConflict, echo.Map{"error": "venue has bookings"}) // respond with conflict
	}
	if err := h.Store.Venues().Delete(c.Request().Context(), id); err != nil { // remove venue, cabins and waitlist entries
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"}) // respond with internal server error
	}
	return c.NoContent(http.StatusNoContent) // deletion succeeded with no body
}

// VenueWaitlist handles GET /v1/venues/:id/waitlist and lists the queue across the venue's cabins
func (h *OwnerHandler) VenueWaitlist(c echo.Context) error { // begin VenueWaitlist handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // if user ID is invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // unauthorized error
	}
	id, ok := pathID(c, "id") // parse the venue ID from the URL
	if !ok {                  // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	venue, err := h.Store.Venues().Get(c.Request().Context(), id) // load the venue to verify ownership
	if err != nil {                                               // venue missing or db failure
		return fail(c, err) // translate store errors
	}
	if venue.OwnerID != ownerID { // venue belongs to a different owner
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"}) // do not reveal other owners' venues
	}
	entries, err := h.Store.Waitlist().ListByVenue(c.Request().Context(), id) // fetch every waitlist entry of the venue
	if err != nil {                                                          // listing failed
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"}) // respond with internal server error
	}
	items := make([]waitlistResp, 0, len(entries)) // convert entries into the response shape
	for i := range entries {                       // walk the entries
		items = append(items, toWaitlistResp(&entries[i])) // append the converted entry
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items}) // return the list wrapped in a JSON object
}
