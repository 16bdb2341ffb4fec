package api

import (
	"github.com/ruteri/nfc-attendance/gateway"
	"github.com/ruteri/nfc-attendance/interfaces"
)

// Response status values.
const (
	StatusMarked     = "marked"
	StatusRegistered = "registered"
	StatusReady      = "ready"
	StatusError      = "error"
	StatusOK         = "ok"
	StatusDegraded   = "degraded"
)

// MarkRequest is the JSON body of POST /mark. Form posts use the nfc_id field.
type MarkRequest struct {
	TagID string `json:"tag_id"`
	NfcID string `json:"nfc_id,omitempty"`
}

// Tag returns whichever tag field the caller filled in.
func (r *MarkRequest) Tag() string {
	if r.TagID != "" {
		return r.TagID
	}
	return r.NfcID
}

// MarkResponse confirms a recorded attendance mark.
type MarkResponse struct {
	Status string                     `json:"status"`
	Event  interfaces.AttendanceEvent `json:"event"`
}

// RegisterRequest is the JSON body of POST /register. Form posts use nfc_id and name.
type RegisterRequest struct {
	TagID string `json:"tag_id"`
	NfcID string `json:"nfc_id,omitempty"`
	Name  string `json:"name"`
}

// Tag returns whichever tag field the caller filled in.
func (r *RegisterRequest) Tag() string {
	if r.TagID != "" {
		return r.TagID
	}
	return r.NfcID
}

// RegisterResponse confirms a registration and reports the generated student account.
type RegisterResponse struct {
	Status string `json:"status"`
	interfaces.Registration
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HistoryResponse is returned by GET /view/{tag_id}. Ledger failures leave the
// history empty and set Error.
type HistoryResponse struct {
	gateway.History
	Error string `json:"error,omitempty"`
}

// DashboardResponse is returned by GET /dashboard.
type DashboardResponse struct {
	Students []interfaces.Student `json:"students"`
	Error    string               `json:"error,omitempty"`
}

// ScanResponse is returned by POST /request_registration_scan.
type ScanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ScannedUIDResponse is returned by GET /get_scanned_uid. UID is null until a tag is captured.
type ScannedUIDResponse struct {
	UID *interfaces.TagID `json:"uid"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
	gateway.Health
	Store string `json:"rendezvous_store"`
}
