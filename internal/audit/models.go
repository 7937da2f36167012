package audit

import "time"

// Action names the state change an Event records.
type Action string

const (
	ActionUserRegistered  Action = "user_registered"
	ActionUserLoggedIn    Action = "user_login"
	ActionAgencyOnboarded Action = "agency_onboarded"
	ActionAgencyRollback  Action = "agency_rolled_back"
	ActionClientUpdated   Action = "client_updated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    Action            `json:"action"`
	UserID    string            `json:"user_id,omitempty"`
	Subject   string            `json:"subject"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}
