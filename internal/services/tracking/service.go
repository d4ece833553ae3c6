package tracking

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/ZenGummies/ShopBox/internal/apperr"
	"github.com/ZenGummies/ShopBox/internal/broker/messages"
	"github.com/pkg/errors"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service relays tracking events off the request path: it hashes PII,
// builds the wire event and enqueues it for the dispatch worker.
type Service struct {
	producer   Producer
	topic      string
	appBaseURL string
}

func New(producer Producer, topic, appBaseURL string) *Service {
	return &Service{
		producer:   producer,
		topic:      topic,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

type RelayInput struct {
	EventName      string
	UserData       UserData
	CustomData     CustomData
	EventID        string
	EventSourceURL string
}

// Relay validates and enqueues one event. The event id is kept as provided
// so the browser pixel copy of the same action deduplicates; a missing id
// gets a fresh one (server-only events have no browser twin).
func (s *Service) Relay(ctx context.Context, in RelayInput) (WireEvent, error) {
	if strings.TrimSpace(in.EventName) == "" {
		return WireEvent{}, apperr.InvalidErr("eventName is required")
	}

	eventID := in.EventID
	if eventID == "" {
		eventID = NewEventID()
	}
	sourceURL := in.EventSourceURL
	if sourceURL == "" {
		sourceURL = s.appBaseURL + "/"
	}

	ev := BuildEvent(in.EventName, in.UserData, in.CustomData, eventID, sourceURL)
	if err := s.enqueue(ctx, ev); err != nil {
		return WireEvent{}, err
	}
	return ev, nil
}

// Convenience wrappers for the events the site fires, each with its
// event-specific default source URL.

func (s *Service) Purchase(ctx context.Context, user UserData, custom CustomData, eventID string) (WireEvent, error) {
	return s.Relay(ctx, RelayInput{
		EventName:      "Purchase",
		UserData:       user,
		CustomData:     custom,
		EventID:        eventID,
		EventSourceURL: s.appBaseURL + "/thank-you",
	})
}

func (s *Service) InitiateCheckout(ctx context.Context, user UserData, custom CustomData, eventID string) (WireEvent, error) {
	return s.Relay(ctx, RelayInput{
		EventName:      "InitiateCheckout",
		UserData:       user,
		CustomData:     custom,
		EventID:        eventID,
		EventSourceURL: s.appBaseURL + "/checkout",
	})
}

func (s *Service) ViewContent(ctx context.Context, user UserData, custom CustomData, eventID string) (WireEvent, error) {
	return s.Relay(ctx, RelayInput{
		EventName:      "ViewContent",
		UserData:       user,
		CustomData:     custom,
		EventID:        eventID,
		EventSourceURL: s.appBaseURL + "/",
	})
}

func (s *Service) AddToCart(ctx context.Context, user UserData, custom CustomData, eventID string) (WireEvent, error) {
	return s.Relay(ctx, RelayInput{
		EventName:      "AddToCart",
		UserData:       user,
		CustomData:     custom,
		EventID:        eventID,
		EventSourceURL: s.appBaseURL + "/#bundles",
	})
}

func (s *Service) enqueue(ctx context.Context, ev WireEvent) error {
	body, err := json.Marshal(EventsRequest{Data: []WireEvent{ev}})
	if err != nil {
		return errors.Wrap(err, "marshal events request")
	}
	env := messages.OutboundDispatch{
		Kind:       messages.OutboundKindCAPI,
		EnqueuedAt: time.Now().UTC(),
		CAPI:       body,
	}
	b, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "marshal outbound dispatch")
	}
	if err := s.producer.Publish(ctx, s.topic, []byte(ev.EventID), b); err != nil {
		return errors.Wrap(err, "enqueue tracking event")
	}
	return nil
}
