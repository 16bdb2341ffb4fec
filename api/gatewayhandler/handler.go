package gatewayhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/nfc-attendance/api"
	"github.com/ruteri/nfc-attendance/gateway"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// maxBodyBytes bounds request bodies; every request carries a tag and a name at most.
const maxBodyBytes = 64 << 10

// Service is the gateway behaviour the handler exposes over HTTP.
type Service interface {
	OpenRegistrationWindow(ctx context.Context) error
	PollCapturedTag(ctx context.Context) (interfaces.TagID, bool, error)
	RegisterStudent(ctx context.Context, tag interfaces.TagID, name string) (*interfaces.Registration, error)
	MarkAttendance(ctx context.Context, tag interfaces.TagID) (interfaces.AttendanceEvent, error)
	RecentEvents(since float64) []interfaces.AttendanceEvent
	ViewHistory(ctx context.Context, tag interfaces.TagID) (*gateway.History, error)
	ListStudents(ctx context.Context) ([]interfaces.Student, error)
	Health(ctx context.Context) gateway.Health
	StoreName() string
}

// Handler serves the attendance gateway routes.
type Handler struct {
	service Service
	log     *slog.Logger
}

// NewHandler creates a handler backed by the given gateway service.
func NewHandler(service Service, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes configures the router with the gateway endpoints:
//   - POST /mark
//   - POST /register
//   - GET /view/{tag_id}
//   - GET /dashboard
//   - GET /api/attendance/recent
//   - POST /request_registration_scan
//   - GET /get_scanned_uid
//   - GET /api/health
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/mark", h.HandleMark)
	r.Post("/register", h.HandleRegister)
	r.Get("/view/{tag_id}", h.HandleView)
	r.Get("/dashboard", h.HandleDashboard)
	r.Get("/api/attendance/recent", h.HandleRecent)
	r.Post("/request_registration_scan", h.HandleRequestRegistrationScan)
	r.Get("/get_scanned_uid", h.HandleGetScannedUID)
	r.Get("/api/health", h.HandleHealth)
}

// HandleMark records attendance for a tag.
//
// Body: JSON api.MarkRequest, or a form with nfc_id.
//
// Status codes:
//   - 200 OK: attendance recorded, body is api.MarkResponse
//   - 400 Bad Request: missing or malformed tag
//   - 503 Service Unavailable: ledger unreachable
//   - 502 Bad Gateway: ledger rejected the transaction
func (h *Handler) HandleMark(w http.ResponseWriter, r *http.Request) {
	var req api.MarkRequest
	if err := h.decode(w, r, &req, func(form func(string) string) {
		req.TagID = form("tag_id")
		req.NfcID = form("nfc_id")
	}); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	tag, err := interfaces.NewTagID(req.Tag())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	event, err := h.service.MarkAttendance(r.Context(), tag)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.MarkResponse{Status: api.StatusMarked, Event: event})
}

// HandleRegister registers a student for a tag with a freshly generated account.
//
// Body: JSON api.RegisterRequest, or a form with nfc_id and name.
//
// Status codes:
//   - 200 OK: student registered, body is api.RegisterResponse
//   - 400 Bad Request: missing tag or name
//   - 409 Conflict: the tag is already registered
//   - 503 Service Unavailable: ledger unreachable
//   - 502 Bad Gateway: ledger rejected the transaction
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := h.decode(w, r, &req, func(form func(string) string) {
		req.TagID = form("tag_id")
		req.NfcID = form("nfc_id")
		req.Name = form("name")
	}); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	tag, err := interfaces.NewTagID(req.Tag())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	registration, err := h.service.RegisterStudent(r.Context(), tag, req.Name)
	if err != nil {
		h.writeError(w, statusForError(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, api.RegisterResponse{Status: api.StatusRegistered, Registration: *registration})
}

// HandleView returns the attendance history of a tag. Ledger failures produce an
// empty history with the error message rather than an error status.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	tag, err := interfaces.NewTagID(chi.URLParam(r, "tag_id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	history, err := h.service.ViewHistory(r.Context(), tag)
	if err != nil {
		h.writeJSON(w, http.StatusOK, api.HistoryResponse{
			History: gateway.History{TagID: tag, Records: []interfaces.AttendanceRecord{}},
			Error:   err.Error(),
		})
		return
	}

	if history.Records == nil {
		history.Records = []interfaces.AttendanceRecord{}
	}
	h.writeJSON(w, http.StatusOK, api.HistoryResponse{History: *history})
}

// HandleDashboard lists registered students, one entry per tag.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	students, err := h.service.ListStudents(r.Context())
	if err != nil {
		h.writeJSON(w, http.StatusOK, api.DashboardResponse{Students: []interfaces.Student{}, Error: err.Error()})
		return
	}

	if students == nil {
		students = []interfaces.Student{}
	}
	h.writeJSON(w, http.StatusOK, api.DashboardResponse{Students: students})
}

// HandleRecent returns the confirmed attendance events newer than the since query
// parameter (unix seconds, default 0) as a JSON array.
func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	since := 0.0
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid since %q", raw))
			return
		}
		since = parsed
	}

	h.writeJSON(w, http.StatusOK, h.service.RecentEvents(since))
}

// HandleRequestRegistrationScan opens the registration window.
func (h *Handler) HandleRequestRegistrationScan(w http.ResponseWriter, r *http.Request) {
	if err := h.service.OpenRegistrationWindow(r.Context()); err != nil {
		h.writeJSON(w, http.StatusInternalServerError, api.ScanResponse{Status: api.StatusError, Message: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, api.ScanResponse{Status: api.StatusReady})
}

// HandleGetScannedUID claims the captured tag. uid is null until a tag is captured.
func (h *Handler) HandleGetScannedUID(w http.ResponseWriter, r *http.Request) {
	tag, ok, err := h.service.PollCapturedTag(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := api.ScannedUIDResponse{}
	if ok {
		resp.UID = &tag
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleHealth reports ledger connectivity. It always answers 200 so the UI can
// show the state; status is "degraded" when the ledger is unreachable.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.service.Health(r.Context())

	status := api.StatusOK
	if !health.LedgerConnected {
		status = api.StatusDegraded
	}
	h.writeJSON(w, http.StatusOK, api.HealthResponse{Status: status, Health: health, Store: h.service.StoreName()})
}

// decode fills dst from a JSON body, or through fromForm for form posts.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, fromForm func(form func(string) string)) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("invalid form body: %w", err)
	}
	fromForm(r.PostForm.Get)
	return nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrInvalidTagID), errors.Is(err, gateway.ErrMissingName):
		return http.StatusBadRequest
	case errors.Is(err, interfaces.ErrDuplicateRegistration):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrLedgerUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) writeError(w http.ResponseWriter, code int, err error) {
	message := err.Error()
	if errors.Is(err, interfaces.ErrDuplicateRegistration) {
		message = interfaces.ErrDuplicateRegistration.Error()
	}
	h.writeJSON(w, code, api.ErrorResponse{Status: api.StatusError, Message: message})
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
