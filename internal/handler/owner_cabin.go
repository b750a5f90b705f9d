package handler // handler package contains owner-specific cabin handlers

import (
	"net/http" // http provides status code constants
	"strings"  // strings offers substring checks for duplicate key errors

	"github.com/labstack/echo/v4" // echo is the web framework used for handlers

	"github.com/iliyamo/study-room-reservation/internal/model" // model holds database entities
)

// cabinSpec describes one cabin to add to an existing venue
type cabinSpec struct {
	Number     string `json:"number" validate:"required"`           // label unique within the venue
	Floor      uint8  `json:"floor" validate:"required"`            // floor the cabin is on
	PriceCents uint32 `json:"price_cents" validate:"required,gt=0"` // monthly price in cents
}

// addCabinsReq is the request body for adding cabins to a venue
type addCabinsReq struct {
	Cabins []cabinSpec `json:"cabins" validate:"required,min=1,dive"` // cabins to insert
}

// ownedCabin loads a cabin and verifies that it belongs to a venue of the given owner.
// It returns the cabin on success, or writes the error response and returns nil.
func (h *OwnerHandler) ownedCabin(c echo.Context, id, ownerID uint64) *model.Cabin { // begin ownership lookup
	cab, err := h.Store.Cabins().Get(c.Request().Context(), id) // load the cabin row
	if err != nil {                                             // cabin missing or db failure
		_ = fail(c, err) // translate store errors (404 on missing)
		return nil       // signal the caller to stop
	}
	venue, err := h.Store.Venues().Get(c.Request().Context(), cab.VenueID) // load the parent venue
	if err != nil {                                                        // venue lookup failed
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"}) // respond with internal server error
		return nil                                                                // signal the caller to stop
	}
	if venue.OwnerID != ownerID { // cabin belongs to a different owner
		_ = c.JSON(http.StatusNotFound, echo.Map{"error": "cabin not found"}) // do not reveal other owners' cabins
		return nil                                                            // signal the caller to stop
	}
	return cab // ownership verified
}

// AddCabins handles POST /v1/venues/:id/cabins and inserts cabins into an owned venue
func (h *OwnerHandler) AddCabins(c echo.Context) error { // begin AddCabins handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // check if the user ID was not available or invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // respond with unauthorized
	}
	venueID, ok := pathID(c, "id") // parse the venue ID from the URL
	if !ok {                       // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	var body addCabinsReq                 // declare the request body struct
	if err := c.Bind(&body); err != nil { // attempt to bind the request body
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"}) // return bad request when binding fails
	}
	if err := c.Validate(&body); err != nil { // run field validation on the bound struct
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cabins with number, floor and price are required"}) // respond when validation fails
	}
	venue, err := h.Store.Venues().Get(c.Request().Context(), venueID) // load the venue to verify ownership
	if err != nil {                                                    // venue missing or db failure
		return fail(c, err) // translate store errors
	}
	if venue.OwnerID != ownerID { // venue belongs to a different owner
		return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"}) // do not reveal other owners' venues
	}
	created := make([]model.Cabin, 0, len(body.Cabins)) // collect the inserted rows for the response
	for _, spec := range body.Cabins {                  // walk the requested cabins
		cab := model.Cabin{ // build one cabin row
			VenueID:    venueID,                        // attach to the venue
			Number:     strings.TrimSpace(spec.Number), // trimmed label
			Floor:      spec.Floor,                     // floor number
			PriceCents: spec.PriceCents,                // monthly price in cents
			Status:     model.CabinAvailable,           // new cabins start available
		}
		if err := h.Store.Cabins().Create(c.Request().Context(), &cab); err != nil { // insert the cabin row
			if strings.Contains(err.Error(), "1062") { // duplicate number within the venue
				return c.JSON(http.StatusConflict, echo.Map{"error": "cabin number already exists", "number": cab.Number}) // respond with conflict naming the duplicate
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create cabin"}) // respond with internal error for other failures
		}
		created = append(created, cab) // remember the created cabin
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": created}) // return 201 with the created cabins
}

// UpdateCabinPrice handles PATCH /v1/cabins/:id/price and changes the monthly price
func (h *OwnerHandler) UpdateCabinPrice(c echo.Context) error { // begin UpdateCabinPrice handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // if user ID is invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // unauthorized error
	}
	id, ok := pathID(c, "id") // parse the cabin ID from the URL
	if !ok {                  // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	var body struct { // struct for binding the JSON payload
		PriceCents uint32 `json:"price_cents" validate:"required,gt=0"` // new monthly price in cents
	}
	if err := c.Bind(&body); err != nil { // attempt to bind the request body
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"}) // return bad request when binding fails
	}
	if err := c.Validate(&body); err != nil { // run field validation on the bound struct
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must be greater than zero"}) // respond when validation fails
	}
	cab := h.ownedCabin(c, id, ownerID) // verify the cabin belongs to this owner
	if cab == nil {                     // ownership check already wrote the response
		return nil // stop here
	}
	if err := h.Store.Cabins().UpdatePrice(c.Request().Context(), id, body.PriceCents); err != nil { // persist the new price
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"}) // respond with internal server error
	}
	cab.PriceCents = body.PriceCents    // reflect the change in the loaded row
	return c.JSON(http.StatusOK, cab) // return the updated cabin with OK status
}

// SetMaintenance handles POST /v1/cabins/:id/maintenance and takes a cabin out of service
func (h *OwnerHandler) SetMaintenance(c echo.Context) error { // begin SetMaintenance handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // if user ID is invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // unauthorized error
	}
	id, ok := pathID(c, "id") // parse the cabin ID from the URL
	if !ok {                  // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	cab := h.ownedCabin(c, id, ownerID) // verify the cabin belongs to this owner
	if cab == nil {                     // ownership check already wrote the response
		return nil // stop here
	}
	events, err := h.Engine.SetMaintenance(c.Request().Context(), id) // flip the cabin to MAINTENANCE
	emit(h.Events, events)                                            // deliver any queued events regardless of outcome
	if err != nil {                                                   // the transition was refused
		return fail(c, err) // translate engine errors (409 while occupied or held)
	}
	return c.JSON(http.StatusOK, echo.Map{"cabin_id": id, "status": model.CabinMaintenance}) // confirm the new state
}

// ClearMaintenance handles DELETE /v1/cabins/:id/maintenance and returns a cabin to service
func (h *OwnerHandler) ClearMaintenance(c echo.Context) error { // begin ClearMaintenance handler
	ownerID, err := getUserID(c) // extract the owner ID from context
	if err != nil {              // if user ID is invalid
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"}) // unauthorized error
	}
	id, ok := pathID(c, "id") // parse the cabin ID from the URL
	if !ok {                  // validate that the ID is numeric
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"}) // invalid ID error response
	}
	cab := h.ownedCabin(c, id, ownerID) // verify the cabin belongs to this owner
	if cab == nil {                     // ownership check already wrote the response
		return nil // stop here
	}
	events, err := h.Engine.ClearMaintenance(c.Request().Context(), id) // return the cabin to service, offering it to the waitlist first
	emit(h.Events, events)                                              // deliver any queued events regardless of outcome
	if err != nil {                                                     // the transition was refused
		return fail(c, err) // translate engine errors
	}
	return c.JSON(http.StatusOK, echo.Map{"cabin_id": id}) // confirm completion; the cabin is AVAILABLE or offered to the queue
}
