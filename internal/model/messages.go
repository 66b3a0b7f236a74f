package model

// Kind names one of the synchronized entity kinds.
type Kind string

const (
	KindUnit Kind = "unit"
	KindCall Kind = "call"
	KindBolo Kind = "bolo"
	KindNote Kind = "note"
)

func (k Kind) Valid() bool {
	switch k {
	case KindUnit, KindCall, KindBolo, KindNote:
		return true
	}

	return false
}

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Notice is the lightweight change signal fanned out to every observer
// after an accepted mutation.
type Notice struct {
	Kind   Kind   `json:"entity_kind"`
	Action Action `json:"action"`
	ID     string `json:"id"`
}

// Ack is the success acknowledgment returned to the mutation originator.
type Ack struct {
	ID         string `json:"id"`
	CallNumber string `json:"call_number,omitempty"`
	Message    string `json:"message"`
}

// WebMessage is the outbound WebSocket envelope. Typ is one of
// "status", "ack", "error", "<kind>_update" or "<kind>_data".
type WebMessage struct {
	Typ     string  `json:"type"`
	Notice  *Notice `json:"notice,omitempty"`
	Data    any     `json:"data,omitempty"`
	Ack     *Ack    `json:"ack,omitempty"`
	Error   string  `json:"error,omitempty"`
	Message string  `json:"message,omitempty"`
}

// PushRequest is an inbound WebSocket message: either a data pull
// (get_units, get_calls, ...) or a push-style mutation (add_unit,
// update_call, delete_bolo, ...).
type PushRequest struct {
	Typ  string         `json:"type"`
	Data map[string]any `json:"data"`
}
