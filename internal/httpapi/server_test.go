package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openmakerlabs/janus/internal/httpapi"
	"github.com/openmakerlabs/janus/internal/janus/service"
	"github.com/openmakerlabs/janus/internal/janus/store/memory"
	"github.com/openmakerlabs/janus/internal/janus/types"
)

// testServer wires the full dependency graph over in-memory stores and
// exposes the services for direct seeding.
type testServer struct {
	ts       *httptest.Server
	accounts *service.Admins
	ledger   *service.KeycardLedger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	runner := memory.NewRunner()
	adminStore := memory.NewAdminStore()
	doorStore := memory.NewDoorStore()
	capStore := memory.NewCapabilityStore()
	userStore := memory.NewLockUserStore()
	cardStore := memory.NewKeycardStore()
	sessionStore := memory.NewScanSessionStore()
	eventStore := memory.NewAccessEventStore()

	logger := log.New(io.Discard, "", 0)
	clock := service.UTCNow

	ledger := service.NewKeycardLedger(cardStore, clock)
	tracker := service.NewScanTracker(sessionStore, runner, service.DefaultScanTimeout, clock)
	registry := service.NewDoorRegistry(doorStore, capStore, userStore, ledger, runner, clock)
	directory := service.NewLockUserDirectory(userStore, ledger, tracker, runner, clock)
	scope := service.NewAdminScope(doorStore, capStore, userStore)
	accounts := service.NewAdmins(adminStore, capStore, doorStore, clock)
	ingest := service.NewIngest(doorStore, userStore, cardStore, eventStore, tracker, clock, logger)

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      ":0",
		JWTSecret: "test-secret",
		JWTTTL:    time.Hour,
		Admins:    accounts,
		Doors:     registry,
		Directory: directory,
		Ledger:    ledger,
		Tracker:   tracker,
		Scope:     scope,
		Ingest:    ingest,
		Clock:     clock,
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testServer{
		ts:       ts,
		accounts: accounts,
		ledger:   ledger,
	}
}

func (s *testServer) mustCreateAdmin(t *testing.T, username, password string, superuser bool) string {
	t.Helper()
	rec, err := s.accounts.Create(context.Background(), username, password, superuser)
	if err != nil {
		t.Fatalf("create admin %q: %v", username, err)
	}
	return rec.ID
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/v1/admin/login", "",
		types.LoginRequest{Username: username, Password: password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %q: status %d", username, resp.StatusCode)
	}
	var out types.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return out.Token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateAdmin(t, "root", "secret", true)

	token := s.login(t, "root", "secret")
	if token == "" {
		t.Fatal("expected a token")
	}

	resp := s.do(t, http.MethodPost, "/v1/admin/login", "",
		types.LoginRequest{Username: "root", Password: "wrong"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/v1/doors", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodGet, "/v1/doors", "not-a-jwt", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", resp.StatusCode)
	}
}

func TestDoorCreationAndScoping(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateAdmin(t, "root", "secret", true)
	adminID := s.mustCreateAdmin(t, "staff", "secret", false)
	rootToken := s.login(t, "root", "secret")
	staffToken := s.login(t, "staff", "secret")

	// Only superusers may create doors.
	resp := s.do(t, http.MethodPost, "/v1/doors", staffToken,
		types.DoorRequest{Name: "Makerspace"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("staff create door: expected 403, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/v1/doors", rootToken,
		types.DoorRequest{Name: "Makerspace"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create door: expected 201, got %d", resp.StatusCode)
	}
	door := decodeBody[types.DoorResponse](t, resp)

	resp = s.do(t, http.MethodPost, "/v1/doors", rootToken,
		types.DoorRequest{Name: "Makerspace"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate door: expected 409, got %d", resp.StatusCode)
	}

	// Listings are scoped: the staff admin manages nothing yet.
	doors := decodeBody[[]types.DoorResponse](t, s.do(t, http.MethodGet, "/v1/doors", staffToken, nil))
	if len(doors) != 0 {
		t.Fatalf("staff should see no doors, got %d", len(doors))
	}

	resp = s.do(t, http.MethodPost, fmt.Sprintf("/v1/doors/%s/grants", door.DoorID), rootToken,
		types.GrantRequest{AdminID: adminID})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("grant: expected 204, got %d", resp.StatusCode)
	}

	doors = decodeBody[[]types.DoorResponse](t, s.do(t, http.MethodGet, "/v1/doors", staffToken, nil))
	if len(doors) != 1 || doors[0].DoorID != door.DoorID {
		t.Fatalf("staff should now see the granted door, got %+v", doors)
	}
}

// Full assignment round trip over HTTP: open a session, scan at the
// reader, save the lock user, then the same card opens the door.
func TestScanAssignmentAndAccessFlow(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateAdmin(t, "root", "secret", true)
	token := s.login(t, "root", "secret")

	door := decodeBody[types.DoorResponse](t, s.do(t, http.MethodPost, "/v1/doors", token,
		types.DoorRequest{Name: "Makerspace"}))

	user := decodeBody[types.LockUserResponse](t, s.do(t, http.MethodPost, "/v1/lockusers", token,
		types.LockUserRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			DoorIDs: []string{door.DoorID},
		}))

	// A scan before any card is issued is denied and unlogged.
	scan := decodeBody[types.ScanResponse](t, s.do(t, http.MethodPost, "/v1/scan", "",
		types.ScanRequest{DoorID: door.DoorID, RFID: "RFID123"}))
	if scan.Outcome != service.OutcomeDenied {
		t.Fatalf("expected denied before assignment, got %+v", scan)
	}

	resp := s.do(t, http.MethodPost, fmt.Sprintf("/v1/doors/%s/scan_sessions", door.DoorID), token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("begin session: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	scan = decodeBody[types.ScanResponse](t, s.do(t, http.MethodPost, "/v1/scan", "",
		types.ScanRequest{DoorID: door.DoorID, RFID: "RFID123"}))
	if scan.Outcome != service.OutcomeAssignmentPending {
		t.Fatalf("expected assignment_pending, got %+v", scan)
	}

	updated := decodeBody[types.LockUserResponse](t, s.do(t, http.MethodPut,
		"/v1/lockusers/"+user.LockUserID, token,
		types.LockUserRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			DoorIDs: []string{door.DoorID},
		}))
	if updated.Current == nil || updated.Current.RFID != "RFID123" {
		t.Fatalf("expected RFID123 assigned, got %+v", updated.Current)
	}
	if !updated.Active {
		t.Error("user with a card should be active")
	}

	scan = decodeBody[types.ScanResponse](t, s.do(t, http.MethodPost, "/v1/scan", "",
		types.ScanRequest{DoorID: door.DoorID, RFID: "RFID123"}))
	if scan.Outcome != service.OutcomeGranted || !scan.Granted {
		t.Fatalf("expected granted, got %+v", scan)
	}

	// The granted entry shows up in the user's event history.
	events := decodeBody[[]types.AccessEventView](t, s.do(t, http.MethodGet,
		"/v1/lockusers/"+user.LockUserID+"/events", token, nil))
	if len(events) != 1 || events[0].RFID != "RFID123" {
		t.Fatalf("expected 1 event for RFID123, got %+v", events)
	}

	profile := decodeBody[types.LockUserResponse](t, s.do(t, http.MethodGet,
		"/v1/lockusers/"+user.LockUserID, token, nil))
	if profile.LastAccess == "" {
		t.Error("expected last_access after a granted scan")
	}

	rfids := decodeBody[types.AllowedRFIDsResponse](t, s.do(t, http.MethodGet,
		fmt.Sprintf("/v1/doors/%s/allowed_rfids", door.DoorID), token, nil))
	if len(rfids.RFIDs) != 1 || rfids.RFIDs[0] != "RFID123" {
		t.Fatalf("expected allowed rfids [RFID123], got %+v", rfids)
	}
}

// A limited admin editing a user with grants outside their scope: the
// out-of-scope door is retained and the deactivation is overridden.
func TestLockUserUpdateScopingReview(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateAdmin(t, "root", "secret", true)
	staffID := s.mustCreateAdmin(t, "staff", "secret", false)
	rootToken := s.login(t, "root", "secret")
	staffToken := s.login(t, "staff", "secret")

	doorA := decodeBody[types.DoorResponse](t, s.do(t, http.MethodPost, "/v1/doors", rootToken,
		types.DoorRequest{Name: "Door A"}))
	doorB := decodeBody[types.DoorResponse](t, s.do(t, http.MethodPost, "/v1/doors", rootToken,
		types.DoorRequest{Name: "Door B"}))

	resp := s.do(t, http.MethodPost, fmt.Sprintf("/v1/doors/%s/grants", doorA.DoorID), rootToken,
		types.GrantRequest{AdminID: staffID})
	resp.Body.Close()

	user := decodeBody[types.LockUserResponse](t, s.do(t, http.MethodPost, "/v1/lockusers", rootToken,
		types.LockUserRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			DoorIDs: []string{doorA.DoorID, doorB.DoorID},
		}))

	// Give the user an active card so the deactivation attempt has a target.
	if _, err := s.ledger.Issue(context.Background(), user.LockUserID, "RFID123", staffID); err != nil {
		t.Fatalf("issue: %v", err)
	}

	// The staff admin submits only door A and asks to deactivate.
	updated := decodeBody[types.LockUserResponse](t, s.do(t, http.MethodPut,
		"/v1/lockusers/"+user.LockUserID, staffToken,
		types.LockUserRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			DoorIDs:    []string{doorA.DoorID},
			Deactivate: true,
		}))

	if len(updated.DoorIDs) != 2 {
		t.Fatalf("out-of-scope grant dropped: %v", updated.DoorIDs)
	}
	if updated.Note == "" {
		t.Error("expected an override note")
	}
	if updated.Current == nil || updated.Current.RFID != "RFID123" {
		t.Fatalf("card should remain active, got %+v", updated.Current)
	}
}

func TestLockUserCreateRejectsUnmanageableDoor(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateAdmin(t, "root", "secret", true)
	s.mustCreateAdmin(t, "staff", "secret", false)
	rootToken := s.login(t, "root", "secret")
	staffToken := s.login(t, "staff", "secret")

	door := decodeBody[types.DoorResponse](t, s.do(t, http.MethodPost, "/v1/doors", rootToken,
		types.DoorRequest{Name: "Makerspace"}))

	resp := s.do(t, http.MethodPost, "/v1/lockusers", staffToken,
		types.LockUserRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			DoorIDs: []string{door.DoorID},
		})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for unmanageable door, got %d", resp.StatusCode)
	}
}

func TestScanValidation(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodPost, "/v1/scan", "",
		types.ScanRequest{DoorID: "no-such-door", RFID: "RFID123"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown door: expected 404, got %d", resp.StatusCode)
	}

	resp = s.do(t, http.MethodPost, "/v1/scan", "",
		types.ScanRequest{RFID: "RFID123"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing door_id: expected 400, got %d", resp.StatusCode)
	}
}

func TestCreateLockUserValidation(t *testing.T) {
	s := newTestServer(t)
	s.mustCreateAdmin(t, "root", "secret", true)
	token := s.login(t, "root", "secret")

	resp := s.do(t, http.MethodPost, "/v1/lockusers", token,
		types.LockUserRequest{FirstName: "Ada", Email: "ada@example.com"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing last name: expected 400, got %d", resp.StatusCode)
	}
}
