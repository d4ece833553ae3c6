package messages

import (
	"encoding/json"
	"time"
)

const (
	OutboundKindPush = "push"
	OutboundKindCAPI = "capi"
)

// OutboundDispatch is the envelope for best-effort third-party calls taken
// off the request path. One message = one delivery attempt series.
type OutboundDispatch struct {
	Kind       string    `json:"kind"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	Push *PushNotification `json:"push,omitempty"`

	// CAPI carries the ready-to-send conversion API request body. PII in it
	// is already hashed by the producer side.
	CAPI json.RawMessage `json:"capi,omitempty"`
}

type PushNotification struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}
