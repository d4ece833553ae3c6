package tracking

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/ZenGummies/ShopBox/internal/apperr"
	"github.com/ZenGummies/ShopBox/internal/broker/messages"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic string
	key   []byte
	value []byte
	err   error
	calls int
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, key, value []byte) error {
	p.calls++
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

func TestHash_CaseAndWhitespaceInsensitive(t *testing.T) {
	require.Equal(t, Hash("foo@bar.com"), Hash(" Foo@Bar.com "))
	require.NotEqual(t, Hash("foo@bar.com"), Hash("bar@foo.com"))
	require.Len(t, Hash("foo@bar.com"), 64)
	require.Empty(t, Hash("   "))
}

func TestNormalizePhone(t *testing.T) {
	require.Equal(t, "971501234567", NormalizePhone("+971 50-123 4567"))
	require.Equal(t, "971501234567", NormalizePhone("971501234567"))
	require.Equal(t, "", NormalizePhone("abc"))
}

func TestNewEventID_Shape(t *testing.T) {
	id := NewEventID()
	require.Regexp(t, regexp.MustCompile(`^\d+-[0-9a-f]{8}$`), id)
	require.NotEqual(t, id, NewEventID())
}

func TestBuildEvent_HashesPIIAndPassesTechFieldsThrough(t *testing.T) {
	ev := BuildEvent("Purchase", UserData{
		Email:           " Sara@X.com ",
		Phone:           "+971 50-123 4567",
		FirstName:       "Sara",
		LastName:        "K",
		ClientIPAddress: "10.0.0.1",
		ClientUserAgent: "UA",
		FBC:             "fb.1.123.abc",
		FBP:             "fb.1.456.def",
	}, CustomData{
		Currency: "AED",
		Value:    199,
	}, "ev-1", "https://zengummies.ae/thank-you")

	require.Equal(t, "Purchase", ev.EventName)
	require.Equal(t, "website", ev.ActionSource)
	require.Equal(t, "ev-1", ev.EventID)
	require.Equal(t, "https://zengummies.ae/thank-you", ev.EventSourceURL)
	require.InDelta(t, time.Now().Unix(), ev.EventTime, 5)

	require.Equal(t, []string{Hash("sara@x.com")}, ev.UserData.EM)
	require.Equal(t, []string{Hash("971501234567")}, ev.UserData.PH)
	require.Equal(t, []string{Hash("sara")}, ev.UserData.FN)
	require.Equal(t, []string{Hash("k")}, ev.UserData.LN)

	// Non-PII identifiers travel unhashed.
	require.Equal(t, "10.0.0.1", ev.UserData.ClientIPAddress)
	require.Equal(t, "UA", ev.UserData.ClientUserAgent)
	require.Equal(t, "fb.1.123.abc", ev.UserData.FBC)
	require.Equal(t, "fb.1.456.def", ev.UserData.FBP)

	require.NotNil(t, ev.CustomData)
	require.Equal(t, "AED", ev.CustomData.Currency)
	require.Equal(t, float64(199), ev.CustomData.Value)
}

func TestBuildEvent_AbsentFieldsStayAbsent(t *testing.T) {
	ev := BuildEvent("ViewContent", UserData{}, CustomData{}, "ev-2", "")
	require.Empty(t, ev.UserData.EM)
	require.Empty(t, ev.UserData.PH)
	require.Empty(t, ev.UserData.FBC)
	require.Empty(t, ev.UserData.FBP)
	require.Nil(t, ev.CustomData)

	b, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NotContains(t, string(b), "fbc")
	require.NotContains(t, string(b), "custom_data")
}

func TestService_Relay_RequiresEventName(t *testing.T) {
	s := New(&fakeProducer{}, "shop.outbound", "https://zengummies.ae")
	_, err := s.Relay(context.Background(), RelayInput{EventName: "  "})
	ae, ok := apperr.As(err)
	require.True(t, ok)
	require.Equal(t, apperr.Invalid, ae.Kind)
}

func TestService_Relay_EnqueuesEnvelopeKeyedByEventID(t *testing.T) {
	p := &fakeProducer{}
	s := New(p, "shop.outbound", "https://zengummies.ae")

	ev, err := s.Relay(context.Background(), RelayInput{
		EventName: "Purchase",
		UserData:  UserData{Email: "sara@x.com"},
		EventID:   "1700000000000-aabbccdd",
	})
	require.NoError(t, err)
	// The client-provided id is preserved for pixel deduplication.
	require.Equal(t, "1700000000000-aabbccdd", ev.EventID)
	require.Equal(t, "shop.outbound", p.topic)
	require.Equal(t, []byte("1700000000000-aabbccdd"), p.key)

	var env messages.OutboundDispatch
	require.NoError(t, json.Unmarshal(p.value, &env))
	require.Equal(t, messages.OutboundKindCAPI, env.Kind)

	var req EventsRequest
	require.NoError(t, json.Unmarshal(env.CAPI, &req))
	require.Len(t, req.Data, 1)
	require.Equal(t, "Purchase", req.Data[0].EventName)
	require.Equal(t, []string{Hash("sara@x.com")}, req.Data[0].UserData.EM)
}

func TestService_Relay_GeneratesIDWhenAbsent(t *testing.T) {
	p := &fakeProducer{}
	s := New(p, "shop.outbound", "https://zengummies.ae")

	ev, err := s.Relay(context.Background(), RelayInput{EventName: "ViewContent"})
	require.NoError(t, err)
	require.NotEmpty(t, ev.EventID)
}

func TestService_Relay_PublishFailure(t *testing.T) {
	p := &fakeProducer{err: errors.New("kafka down")}
	s := New(p, "shop.outbound", "https://zengummies.ae")
	_, err := s.Relay(context.Background(), RelayInput{EventName: "Purchase"})
	require.Error(t, err)
}

func TestService_Wrappers_DefaultSourceURLs(t *testing.T) {
	p := &fakeProducer{}
	s := New(p, "shop.outbound", "https://zengummies.ae/")

	ev, err := s.Purchase(context.Background(), UserData{}, CustomData{}, "id-1")
	require.NoError(t, err)
	require.Equal(t, "https://zengummies.ae/thank-you", ev.EventSourceURL)

	ev, err = s.InitiateCheckout(context.Background(), UserData{}, CustomData{}, "id-2")
	require.NoError(t, err)
	require.Equal(t, "https://zengummies.ae/checkout", ev.EventSourceURL)

	ev, err = s.ViewContent(context.Background(), UserData{}, CustomData{}, "id-3")
	require.NoError(t, err)
	require.Equal(t, "https://zengummies.ae/", ev.EventSourceURL)

	ev, err = s.AddToCart(context.Background(), UserData{}, CustomData{}, "id-4")
	require.NoError(t, err)
	require.Equal(t, "https://zengummies.ae/#bundles", ev.EventSourceURL)
	require.Equal(t, 4, p.calls)
}
