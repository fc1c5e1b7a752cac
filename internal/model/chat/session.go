package chat

import "time"

// Capture states a session moves through. Submitted is terminal: a session
// produces at most one lead.
const (
	StateCollecting = "collecting"
	StateSubmitted  = "submitted"
)

// Session captures a transient anonymous conversation.
type Session struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	LeadID    int64     `json:"leadId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Odoo carries per-session credential overrides supplied by the UI's
	// configuration fields. Held in memory only.
	Odoo *OdooCredentials `json:"-"`
}

// OdooCredentials overrides the server-wide ERP connection for one session.
type OdooCredentials struct {
	URL      string `json:"url"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}
