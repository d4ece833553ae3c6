package tracking

import "time"

// UserData is the raw (unhashed) identity of the visitor as collected by
// the site. fbc/fbp come from the click URL param and the browser cookie;
// absent values stay absent and are never fabricated.
type UserData struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string

	ClientIPAddress string
	ClientUserAgent string
	FBC             string
	FBP             string
}

type CustomData struct {
	Currency    string
	Value       float64
	ContentIDs  []string
	ContentName string
	ContentType string
}

// WireUserData is the hashed form that crosses the process boundary.
type WireUserData struct {
	EM []string `json:"em,omitempty"`
	PH []string `json:"ph,omitempty"`
	FN []string `json:"fn,omitempty"`
	LN []string `json:"ln,omitempty"`

	ClientIPAddress string `json:"client_ip_address,omitempty"`
	ClientUserAgent string `json:"client_user_agent,omitempty"`
	FBC             string `json:"fbc,omitempty"`
	FBP             string `json:"fbp,omitempty"`
}

type WireCustomData struct {
	Currency    string   `json:"currency,omitempty"`
	Value       float64  `json:"value,omitempty"`
	ContentIDs  []string `json:"content_ids,omitempty"`
	ContentName string   `json:"content_name,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
}

type WireEvent struct {
	EventName      string          `json:"event_name"`
	EventTime      int64           `json:"event_time"`
	EventID        string          `json:"event_id,omitempty"`
	ActionSource   string          `json:"action_source"`
	EventSourceURL string          `json:"event_source_url,omitempty"`
	UserData       WireUserData    `json:"user_data"`
	CustomData     *WireCustomData `json:"custom_data,omitempty"`
}

// EventsRequest is the conversion API ingestion body.
type EventsRequest struct {
	Data []WireEvent `json:"data"`
}

const actionSourceWebsite = "website"

// BuildEvent hashes the PII fields (em/ph/fn/ln) and passes the technical
// identifiers through untouched. event_time is "now" in unix seconds.
func BuildEvent(name string, user UserData, custom CustomData, eventID, sourceURL string) WireEvent {
	wu := WireUserData{
		ClientIPAddress: user.ClientIPAddress,
		ClientUserAgent: user.ClientUserAgent,
		FBC:             user.FBC,
		FBP:             user.FBP,
	}
	if user.Email != "" {
		wu.EM = []string{Hash(user.Email)}
	}
	if user.Phone != "" {
		wu.PH = []string{Hash(NormalizePhone(user.Phone))}
	}
	if user.FirstName != "" {
		wu.FN = []string{Hash(user.FirstName)}
	}
	if user.LastName != "" {
		wu.LN = []string{Hash(user.LastName)}
	}

	ev := WireEvent{
		EventName:      name,
		EventTime:      time.Now().Unix(),
		EventID:        eventID,
		ActionSource:   actionSourceWebsite,
		EventSourceURL: sourceURL,
		UserData:       wu,
	}
	if custom.Currency != "" || custom.Value != 0 || len(custom.ContentIDs) > 0 ||
		custom.ContentName != "" || custom.ContentType != "" {
		ev.CustomData = &WireCustomData{
			Currency:    custom.Currency,
			Value:       custom.Value,
			ContentIDs:  custom.ContentIDs,
			ContentName: custom.ContentName,
			ContentType: custom.ContentType,
		}
	}
	return ev
}
