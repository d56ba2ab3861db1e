package server

import "time"

// ErrorResponse is returned on errors
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	StorageBackend  string `json:"storage_backend"`
	ComplaintsTotal int64  `json:"complaints_total"`
}

// ComplaintData is one stored complaint in admin listings.
type ComplaintData struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Reporter string    `json:"reporter"`
	Text     string    `json:"text"`
	Channel  string    `json:"channel,omitempty"`
	Command  string    `json:"command,omitempty"`
}

// ComplaintListResponse is returned by GET /admin/complaints.
type ComplaintListResponse struct {
	Total      int64           `json:"total"`
	Complaints []ComplaintData `json:"complaints"`
}
