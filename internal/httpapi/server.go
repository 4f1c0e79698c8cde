package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/openmakerlabs/janus/internal/janus/service"
	"github.com/openmakerlabs/janus/internal/janus/store"
	"github.com/openmakerlabs/janus/internal/janus/types"
)

type Dependencies struct {
	Logger    *log.Logger
	Addr      string
	JWTSecret string
	JWTTTL    time.Duration
	Admins    *service.Admins
	Doors     *service.DoorRegistry
	Directory *service.LockUserDirectory
	Ledger    *service.KeycardLedger
	Tracker   *service.ScanTracker
	Scope     *service.AdminScope
	Ingest    *service.Ingest
	Clock     service.Clock
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	jwtSecret  []byte
	jwtTTL     time.Duration
	admins     *service.Admins
	doors      *service.DoorRegistry
	directory  *service.LockUserDirectory
	ledger     *service.KeycardLedger
	tracker    *service.ScanTracker
	scope      *service.AdminScope
	ingest     *service.Ingest
	clock      service.Clock
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	ttl := d.JWTTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	s := &Server{
		logger:    d.Logger,
		mux:       mux,
		jwtSecret: []byte(d.JWTSecret),
		jwtTTL:    ttl,
		admins:    d.Admins,
		doors:     d.Doors,
		directory: d.Directory,
		ledger:    d.Ledger,
		tracker:   d.Tracker,
		scope:     d.Scope,
		ingest:    d.Ingest,
		clock:     d.Clock,
	}
	if s.clock == nil {
		s.clock = service.UTCNow
	}

	mux.HandleFunc("POST /v1/scan", s.handleScan)
	mux.HandleFunc("POST /v1/admin/login", s.handleLogin)
	mux.HandleFunc("POST /v1/admins", s.requireAdmin(s.handleCreateAdmin))

	mux.HandleFunc("POST /v1/doors", s.requireAdmin(s.handleCreateDoor))
	mux.HandleFunc("GET /v1/doors", s.requireAdmin(s.handleListDoors))
	mux.HandleFunc("GET /v1/doors/{id}", s.requireAdmin(s.handleGetDoor))
	mux.HandleFunc("PUT /v1/doors/{id}", s.requireAdmin(s.handleUpdateDoor))
	mux.HandleFunc("GET /v1/doors/{id}/allowed_rfids", s.requireAdmin(s.handleAllowedRFIDs))
	mux.HandleFunc("GET /v1/doors/{id}/events", s.requireAdmin(s.handleDoorEvents))
	mux.HandleFunc("POST /v1/doors/{id}/scan_sessions", s.requireAdmin(s.handleBeginScanSession))
	mux.HandleFunc("POST /v1/doors/{id}/grants", s.requireAdmin(s.handleGrantDoor))

	mux.HandleFunc("POST /v1/lockusers", s.requireAdmin(s.handleCreateLockUser))
	mux.HandleFunc("GET /v1/lockusers", s.requireAdmin(s.handleListLockUsers))
	mux.HandleFunc("GET /v1/lockusers/{id}", s.requireAdmin(s.handleGetLockUser))
	mux.HandleFunc("PUT /v1/lockusers/{id}", s.requireAdmin(s.handleUpdateLockUser))
	mux.HandleFunc("GET /v1/lockusers/{id}/events", s.requireAdmin(s.handleLockUserEvents))

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// serviceError translates service and store failures into one HTTP error
// response. Handlers call it for anything they do not map themselves.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	var integrity *service.IntegrityError
	var expired *service.SessionExpiredError
	switch {
	case errors.Is(err, service.ErrNoPendingSession):
		writeError(w, http.StatusConflict, "no_pending_session", err.Error())
	case errors.As(err, &expired):
		writeError(w, http.StatusConflict, "session_expired", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrDuplicateDoorName):
		writeError(w, http.StatusConflict, "duplicate_door_name", err.Error())
	case errors.Is(err, store.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "duplicate_email", err.Error())
	case errors.Is(err, store.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, "duplicate_username", err.Error())
	case errors.Is(err, service.ErrInvalidDoorName),
		errors.Is(err, service.ErrInvalidDoorID),
		errors.Is(err, service.ErrInvalidRFID),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidUsername),
		errors.Is(err, service.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "bad_credentials", err.Error())
	case errors.Is(err, service.ErrNotSuperuser),
		errors.Is(err, service.ErrDoorNotManageable):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.As(err, &integrity):
		s.logger.Printf("integrity violation: %v", err)
		writeError(w, http.StatusInternalServerError, "integrity_violation", err.Error())
	default:
		s.logger.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

// requireDoorCapability loads the door and verifies the authenticated
// administrator manages it. Writes the error response itself on failure.
func (s *Server) requireDoorCapability(w http.ResponseWriter, r *http.Request, doorID string) (store.DoorRecord, bool) {
	door, err := s.doors.Door(r.Context(), doorID)
	if err != nil {
		s.serviceError(w, err)
		return store.DoorRecord{}, false
	}

	admin := adminFrom(r.Context())
	held, err := s.scope.HasCapability(r.Context(), admin, doorID)
	if err != nil {
		s.serviceError(w, err)
		return store.DoorRecord{}, false
	}
	if !held {
		s.serviceError(w, service.ErrDoorNotManageable)
		return store.DoorRecord{}, false
	}
	return door, true
}

func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ── Reader ingestion ─────────────────────────────────────────────────────

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req types.ScanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if req.DoorID == "" {
		s.serviceError(w, service.ErrInvalidDoorID)
		return
	}

	result, err := s.ingest.HandleScan(r.Context(), req.DoorID, req.RFID, req.Payload)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.ScanResponse{
		OK:         true,
		Granted:    result.Granted,
		Outcome:    result.Outcome,
		Reason:     result.Reason,
		DoorID:     req.DoorID,
		ServerTime: s.clock().Format(time.RFC3339),
	})
}

// ── Administrators ───────────────────────────────────────────────────────

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	admin, err := s.admins.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	token, err := mintToken(s.jwtSecret, admin, s.jwtTTL, s.clock())
	if err != nil {
		s.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, types.LoginResponse{
		Token:     token,
		AdminID:   admin.ID,
		Username:  admin.Username,
		Superuser: admin.Superuser,
	})
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	if !adminFrom(r.Context()).Superuser {
		s.serviceError(w, service.ErrNotSuperuser)
		return
	}

	var req types.AdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.admins.Create(r.Context(), req.Username, req.Password, req.Superuser)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, types.AdminResponse{
		AdminID:   rec.ID,
		Username:  rec.Username,
		Superuser: rec.Superuser,
	})
}

func (s *Server) handleGrantDoor(w http.ResponseWriter, r *http.Request) {
	var req types.GrantRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	actor := adminFrom(r.Context())
	if err := s.admins.GrantDoor(r.Context(), actor, req.AdminID, r.PathValue("id")); err != nil {
		s.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Doors ────────────────────────────────────────────────────────────────

func (s *Server) handleCreateDoor(w http.ResponseWriter, r *http.Request) {
	if !adminFrom(r.Context()).Superuser {
		s.serviceError(w, service.ErrNotSuperuser)
		return
	}

	var req types.DoorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.doors.CreateDoor(r.Context(), req.Name, req.Description)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doorToResponse(rec))
}

// handleListDoors returns only the doors the caller manages.
func (s *Server) handleListDoors(w http.ResponseWriter, r *http.Request) {
	admin := adminFrom(r.Context())
	doors, err := s.scope.ManageableDoors(r.Context(), admin)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	out := make([]types.DoorResponse, len(doors))
	for i, d := range doors {
		out[i] = doorToResponse(d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetDoor(w http.ResponseWriter, r *http.Request) {
	door, ok := s.requireDoorCapability(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doorToResponse(door))
}

func (s *Server) handleUpdateDoor(w http.ResponseWriter, r *http.Request) {
	door, ok := s.requireDoorCapability(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	var req types.DoorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	rec, err := s.doors.UpdateDoor(r.Context(), door.ID, req.Name, req.Description)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doorToResponse(rec))
}

func (s *Server) handleAllowedRFIDs(w http.ResponseWriter, r *http.Request) {
	door, ok := s.requireDoorCapability(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	rfids, err := s.doors.ListAllowedRFIDs(r.Context(), door.ID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if rfids == nil {
		rfids = []string{}
	}
	writeJSON(w, http.StatusOK, types.AllowedRFIDsResponse{DoorID: door.ID, RFIDs: rfids})
}

func (s *Server) handleDoorEvents(w http.ResponseWriter, r *http.Request) {
	door, ok := s.requireDoorCapability(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	events, err := s.ingest.EventsForDoor(r.Context(), door.ID, limitParam(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsToViews(events))
}

func (s *Server) handleBeginScanSession(w http.ResponseWriter, r *http.Request) {
	door, ok := s.requireDoorCapability(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	admin := adminFrom(r.Context())
	sess, err := s.tracker.Begin(r.Context(), door.ID, admin.ID)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

// ── Lock users ───────────────────────────────────────────────────────────

// requireRequestedDoors rejects grant requests naming doors the caller
// does not manage. Doors already granted to the user are handled by the
// scoping review, not here.
func (s *Server) requireRequestedDoors(w http.ResponseWriter, r *http.Request, doorIDs []string) bool {
	admin := adminFrom(r.Context())
	for _, doorID := range doorIDs {
		if _, err := s.doors.Door(r.Context(), doorID); err != nil {
			s.serviceError(w, err)
			return false
		}
		held, err := s.scope.HasCapability(r.Context(), admin, doorID)
		if err != nil {
			s.serviceError(w, err)
			return false
		}
		if !held {
			s.serviceError(w, service.ErrDoorNotManageable)
			return false
		}
	}
	return true
}

func (s *Server) handleCreateLockUser(w http.ResponseWriter, r *http.Request) {
	var req types.LockUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}
	if !s.requireRequestedDoors(w, r, req.DoorIDs) {
		return
	}

	rec, err := s.directory.Create(r.Context(), lockUserFromRequest(req), req.DoorIDs)
	if err != nil {
		s.serviceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, lockUserToResponse(rec, req.DoorIDs, nil, nil))
}

func (s *Server) handleUpdateLockUser(w http.ResponseWriter, r *http.Request) {
	var req types.LockUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return
	}

	ctx := r.Context()
	rec, err := s.directory.LockUser(ctx, r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	if !s.requireRequestedDoors(w, r, req.DoorIDs) {
		return
	}

	admin := adminFrom(ctx)
	outOfScope, err := s.scope.OutOfScopeDoors(ctx, rec.ID, admin)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	reviewed := service.ReviewProposal(service.Proposal{
		DoorIDs:    req.DoorIDs,
		Deactivate: req.Deactivate,
	}, outOfScope)

	rec.FirstName = req.FirstName
	rec.MiddleName = req.MiddleName
	rec.LastName = req.LastName
	rec.Address = req.Address
	rec.Email = req.Email
	rec.Phone = req.Phone
	rec.Birthdate = req.Birthdate
	rec.DeactivateKeycard = reviewed.Deactivate
	if reviewed.Deactivate {
		rec.KeycardRevokerID = admin.ID
	}

	saved, err := s.directory.Save(ctx, service.SaveInput{
		LockUser: rec,
		DoorIDs:  reviewed.DoorIDs,
		ActorID:  admin.ID,
	})
	if err != nil {
		s.serviceError(w, err)
		return
	}

	resp, err := s.fullLockUserResponse(ctx, saved)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	resp.Note = reviewed.Note
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListLockUsers(w http.ResponseWriter, r *http.Request) {
	recs, err := s.directory.LockUsers(r.Context())
	if err != nil {
		s.serviceError(w, err)
		return
	}

	out := make([]types.LockUserResponse, 0, len(recs))
	for _, rec := range recs {
		grants, err := s.directory.DoorGrants(r.Context(), rec.ID)
		if err != nil {
			s.serviceError(w, err)
			return
		}
		current, err := s.ledger.ActiveCardFor(r.Context(), rec.ID)
		if err != nil {
			s.serviceError(w, err)
			return
		}
		out = append(out, lockUserToResponse(rec, grants, current, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLockUser(w http.ResponseWriter, r *http.Request) {
	rec, err := s.directory.LockUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}

	resp, err := s.fullLockUserResponse(r.Context(), rec)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLockUserEvents(w http.ResponseWriter, r *http.Request) {
	rec, err := s.directory.LockUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.serviceError(w, err)
		return
	}

	events, err := s.ingest.EventsForLockUser(r.Context(), rec.ID, limitParam(r))
	if err != nil {
		s.serviceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsToViews(events))
}

func (s *Server) fullLockUserResponse(ctx context.Context, rec store.LockUserRecord) (types.LockUserResponse, error) {
	grants, err := s.directory.DoorGrants(ctx, rec.ID)
	if err != nil {
		return types.LockUserResponse{}, err
	}
	current, err := s.ledger.ActiveCardFor(ctx, rec.ID)
	if err != nil {
		return types.LockUserResponse{}, err
	}
	history, err := s.ledger.HistoryFor(ctx, rec.ID)
	if err != nil {
		return types.LockUserResponse{}, err
	}
	resp := lockUserToResponse(rec, grants, current, history)

	events, err := s.ingest.EventsForLockUser(ctx, rec.ID, 1)
	if err != nil {
		return types.LockUserResponse{}, err
	}
	if len(events) > 0 {
		resp.LastAccess = events[0].OccurredAt.Format(time.RFC3339)
	}
	return resp, nil
}
