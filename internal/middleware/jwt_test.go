package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/study-room-reservation/internal/utils"
)

const testSecret = "test-secret"

// runJWT pushes a request with the given Authorization header through
// JWTAuth and reports the captured context values plus the recorder.
func runJWT(t *testing.T, authHeader string) (echo.Context, *httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	ec := e.NewContext(req, rec)

	reached := false
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(ec); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return ec, rec, reached
}

func TestJWTAuthSetsTypedIdentity(t *testing.T) {
	at, err := utils.NewAccessToken(testSecret, 42, "STUDENT", 5)
	if err != nil {
		t.Fatal(err)
	}

	ec, rec, reached := runJWT(t, "Bearer "+at.Token)
	if !reached || rec.Code != http.StatusOK {
		t.Fatalf("status = %d reached = %v, want 200 and the handler to run", rec.Code, reached)
	}
	// The subject arrives as a JSON number and must come out as uint64.
	if uid, ok := ec.Get("user_id").(uint64); !ok || uid != 42 {
		t.Errorf("user_id = %v (%T), want uint64 42", ec.Get("user_id"), ec.Get("user_id"))
	}
	if role, _ := ec.Get("role").(string); role != "STUDENT" {
		t.Errorf("role = %v, want STUDENT", ec.Get("role"))
	}
}

func TestJWTAuthRejects(t *testing.T) {
	good, err := utils.NewAccessToken(testSecret, 42, "STUDENT", 5)
	if err != nil {
		t.Fatal(err)
	}
	forged, err := utils.NewAccessToken("other-secret", 42, "STUDENT", 5)
	if err != nil {
		t.Fatal(err)
	}
	// Signed with our secret but minted by someone else: no issuer claim.
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 42, "role": "STUDENT", "exp": time.Now().Add(5 * time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer", "Token " + good.Token},
		{"wrong secret", "Bearer " + forged.Token},
		{"wrong issuer", "Bearer " + foreign},
		{"garbage", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, rec, reached := runJWT(t, tc.header)
			if reached {
				t.Fatal("handler ran on a rejected token")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}
