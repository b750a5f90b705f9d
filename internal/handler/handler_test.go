package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/service"
	"github.com/iliyamo/study-room-reservation/internal/store/memstore"
)

// fakeClock pins the engine clock so tests decide when holds lapse.
type fakeClock struct{ at time.Time }

func (f *fakeClock) now() time.Time          { return f.at }
func (f *fakeClock) advance(d time.Duration) { f.at = f.at.Add(d) }

// apiEnv wires the handlers against the in-memory store the way main
// wires them against MySQL, minus the network, the JWT middleware and
// the event dispatcher.
type apiEnv struct {
	e       *echo.Echo
	st      *memstore.Store
	clock   *fakeClock
	engine  *service.Engine
	student *StudentHandler
	owner   *OwnerHandler
	public  *PublicHandler
}

func newEnv(t *testing.T) *apiEnv {
	t.Helper()
	st := memstore.New()
	ck := &fakeClock{at: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	engine := service.New(st, service.Options{Now: ck.now})
	e := echo.New()
	e.Validator = NewValidator()
	return &apiEnv{
		e:       e,
		st:      st,
		clock:   ck,
		engine:  engine,
		student: NewStudentHandler(engine, st, nil),
		owner:   NewOwnerHandler(engine, st, nil),
		public:  &PublicHandler{Store: st, Engine: engine},
	}
}

func (env *apiEnv) seedVenue(ownerID uint64, name, city string) uint64 {
	v := &model.Venue{OwnerID: ownerID, Name: name, City: city}
	if err := env.st.Venues().Create(context.Background(), v); err != nil {
		panic(err)
	}
	return v.ID
}

func (env *apiEnv) seedCabin(venueID uint64, number string) uint64 {
	return env.st.Seed(model.Cabin{VenueID: venueID, Number: number, Floor: 1, PriceCents: 90000, Status: model.CabinAvailable})
}

func (env *apiEnv) seedOccupied(venueID uint64, number string, occupant uint64) uint64 {
	return env.st.Seed(model.Cabin{VenueID: venueID, Number: number, Floor: 1, PriceCents: 90000, Status: model.CabinOccupied, OccupantID: &occupant})
}

func bookingParamsFor(cabinID uint64) service.BookingParams {
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	return service.BookingParams{CabinID: cabinID, StartDate: start, EndDate: start.AddDate(0, 1, 0), AmountCents: 90000}
}

// call describes one simulated request against a single handler.
type call struct {
	method string
	target string
	body   string
	user   uint64
	params [][2]string
}

// do runs a handler with the context set up the way the router and the
// JWT middleware would hand it over.
func (env *apiEnv) do(t *testing.T, h echo.HandlerFunc, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	if c.target == "" {
		c.target = "/"
	}
	if c.method == "" {
		c.method = http.MethodGet
	}
	req := httptest.NewRequest(c.method, c.target, body)
	if c.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ec := env.e.NewContext(req, rec)
	if len(c.params) > 0 {
		names := make([]string, 0, len(c.params))
		values := make([]string, 0, len(c.params))
		for _, p := range c.params {
			names = append(names, p[0])
			values = append(values, p[1])
		}
		ec.SetParamNames(names...)
		ec.SetParamValues(values...)
	}
	if c.user != 0 {
		ec.Set("user_id", c.user)
	}
	if err := h(ec); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func idParam(id uint64) [][2]string {
	return [][2]string{{"id", strconv.FormatUint(id, 10)}}
}

type errResp struct {
	Error string `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d body %s, want %d", rec.Code, rec.Body.String(), want)
	}
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, code int, msg string) {
	t.Helper()
	wantStatus(t, rec, code)
	var er errResp
	decode(t, rec, &er)
	if er.Error != msg {
		t.Errorf("error = %q, want %q", er.Error, msg)
	}
}
