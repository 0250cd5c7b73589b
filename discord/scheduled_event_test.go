package discord

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
)

type restCall struct {
	method   string
	endpoint string
	body     []byte
}

// fakeRESTInterface records every request and answers them through a
// scripted handler.
type fakeRESTInterface struct {
	handler func(method, endpoint string, body []byte) ([]byte, error)
	calls   []restCall
}

func (f *fakeRESTInterface) Fetch(s *Session, method, endpoint, contentType string, body []byte, headers http.Header) ([]byte, error) {
	f.calls = append(f.calls, restCall{method: method, endpoint: endpoint, body: body})

	if f.handler == nil {
		return []byte("{}"), nil
	}

	return f.handler(method, endpoint, body)
}

func (f *fakeRESTInterface) FetchBJ(s *Session, method, endpoint, contentType string, body []byte, headers http.Header, response interface{}) error {
	resp, err := f.Fetch(s, method, endpoint, contentType, body, headers)
	if err != nil {
		return err
	}

	if response != nil {
		return stagehandjson.Unmarshal(resp, response)
	}

	return nil
}

func (f *fakeRESTInterface) FetchJJ(s *Session, method, endpoint string, payload interface{}, headers http.Header, response interface{}) error {
	body, err := stagehandjson.Marshal(payload)
	if err != nil {
		return err
	}

	return f.FetchBJ(s, method, endpoint, "application/json", body, headers, response)
}

func (f *fakeRESTInterface) SetDebug(value bool) {}

type fakeState struct {
	users    map[UserID]*User
	channels map[ChannelID]*Channel
}

func newFakeState() *fakeState {
	return &fakeState{
		users:    make(map[UserID]*User),
		channels: make(map[ChannelID]*Channel),
	}
}

func (s *fakeState) StoreUser(user User) *User {
	if existing, ok := s.users[user.ID]; ok {
		*existing = user

		return existing
	}

	stored := user
	s.users[user.ID] = &stored

	return &stored
}

func (s *fakeState) GetChannel(guildID GuildID, channelID ChannelID) (*Channel, bool) {
	channel, ok := s.channels[channelID]

	return channel, ok
}

func newFakeSession(handler func(method, endpoint string, body []byte) ([]byte, error)) (*Session, *fakeRESTInterface) {
	rest := &fakeRESTInterface{handler: handler}

	return NewSession(context.TODO(), "Bot token", rest), rest
}

const sampleEventPayload = `{
	"id": "500",
	"guild_id": "10",
	"channel_id": "20",
	"creator_id": "30",
	"creator": {"id": "30", "username": "organizer", "discriminator": "0001"},
	"name": "Movie Night",
	"description": "Bring snacks",
	"scheduled_start_time": "2026-09-01T18:00:00Z",
	"scheduled_end_time": "2026-09-01T20:00:00Z",
	"privacy_level": 2,
	"status": 1,
	"entity_type": 2,
	"entity_id": null,
	"image": "abc123"
}`

func TestNewScheduledEvent(t *testing.T) {
	state := newFakeState()

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	if ev.ID != 500 || ev.GuildID != 10 || ev.Name != "Movie Night" {
		t.Errorf("unexpected identity fields: %d %d %q", ev.ID, ev.GuildID, ev.Name)
	}

	if ev.Status != EventStatusScheduled || ev.EntityType != ScheduledEntityTypeVoice {
		t.Errorf("unexpected status %d or entity type %d", ev.Status, ev.EntityType)
	}

	if ev.Creator == nil || ev.Creator != state.users[30] {
		t.Error("creator was not resolved through the user cache")
	}

	if ev.Subscribers() == nil {
		t.Error("subscriber cache was not initialized")
	}
}

func TestScheduledEventHydrateIdempotent(t *testing.T) {
	state := newFakeState()

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	before, err := stagehandjson.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	ev.Hydrate(state)

	after, err := stagehandjson.Marshal(ev)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	if string(before) != string(after) {
		t.Errorf("hydrating twice changed the event: %s != %s", before, after)
	}
}

func TestScheduledEventUpdateKeepsSubscribers(t *testing.T) {
	state := newFakeState()

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	ev.AddSubscriber(&User{ID: 77, Username: "attendee"})

	err = ev.Update(state, []byte(`{"id": "500", "guild_id": "10", "name": "Movie Night II", "scheduled_start_time": "2026-09-02T18:00:00Z", "privacy_level": 2, "status": 1, "entity_type": 2, "channel_id": "20"}`))
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if ev.Name != "Movie Night II" {
		t.Errorf("expected updated name, got %q", ev.Name)
	}

	if ev.Description != "" {
		t.Errorf("field absent from payload was retained: %q", ev.Description)
	}

	if _, ok := ev.Subscribers()[77]; !ok {
		t.Error("subscriber cache was lost across update")
	}
}

func TestScheduledEventAccessors(t *testing.T) {
	state := newFakeState()
	state.channels[20] = &Channel{ID: 20, GuildID: ptr(GuildID(10)), Name: "events"}

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	if got := ev.CoverImageURL(); got != EndpointCDN+"/guild-events/500/abc123.png" {
		t.Errorf("unexpected cover image url %q", got)
	}

	if channel := ev.Channel(state); channel == nil || channel.Name != "events" {
		t.Errorf("unexpected channel %+v", channel)
	}

	if ev.Location() != "" {
		t.Errorf("expected empty location for a channel event, got %q", ev.Location())
	}

	ev.Image = nil

	if ev.CoverImageURL() != "" {
		t.Error("expected empty cover image url without an image hash")
	}

	ev.ChannelID = nil
	ev.EntityType = ScheduledEntityTypeExternal
	ev.EntityMetadata = &EventMetadata{Location: "Town Hall"}

	if ev.Channel(state) != nil {
		t.Error("expected nil channel for an external event")
	}

	if ev.Location() != "Town Hall" {
		t.Errorf("unexpected location %q", ev.Location())
	}
}

func TestScheduledEventPayloadValidation(t *testing.T) {
	endTime := Some(mustTime(t, "2026-09-01T20:00:00Z"))

	tests := []struct {
		name        string
		params      ScheduledEventParams
		currentType ScheduledEntityType
		wantField   string
		wantEnum    string
	}{
		{
			name:        "voice without channel",
			params:      ScheduledEventParams{EntityType: Some(ScheduledEntityTypeVoice)},
			currentType: ScheduledEntityTypeVoice,
			wantField:   "channel_id",
		},
		{
			name:        "stage with location",
			params:      ScheduledEventParams{ChannelID: Some(ChannelID(20)), Location: Some("Town Hall")},
			currentType: ScheduledEntityTypeStage,
			wantField:   "location",
		},
		{
			name:        "external with channel",
			params:      ScheduledEventParams{ChannelID: Some(ChannelID(20)), Location: Some("Town Hall"), EndTime: endTime},
			currentType: ScheduledEntityTypeExternal,
			wantField:   "channel_id",
		},
		{
			name:        "external without location",
			params:      ScheduledEventParams{EntityType: Some(ScheduledEntityTypeExternal), EndTime: endTime},
			currentType: ScheduledEntityTypeExternal,
			wantField:   "location",
		},
		{
			name:        "external without end time",
			params:      ScheduledEventParams{Location: Some("Town Hall")},
			currentType: ScheduledEntityTypeExternal,
			wantField:   "scheduled_end_time",
		},
		{
			name:        "naive start time",
			params:      ScheduledEventParams{StartTime: Some(Timestamp("2026-09-01T18:00:00")), ChannelID: Some(ChannelID(20))},
			currentType: ScheduledEntityTypeVoice,
			wantField:   "scheduled_start_time",
		},
		{
			name:        "unknown privacy level",
			params:      ScheduledEventParams{PrivacyLevel: Some(StageChannelPrivacyLevel(9)), ChannelID: Some(ChannelID(20))},
			currentType: ScheduledEntityTypeVoice,
			wantEnum:    "StageChannelPrivacyLevel",
		},
		{
			name:        "unknown status",
			params:      ScheduledEventParams{Status: Some(EventStatus(9)), ChannelID: Some(ChannelID(20))},
			currentType: ScheduledEntityTypeVoice,
			wantEnum:    "EventStatus",
		},
		{
			name:        "unknown entity type",
			params:      ScheduledEventParams{EntityType: Some(ScheduledEntityType(9))},
			currentType: ScheduledEntityTypeVoice,
			wantEnum:    "ScheduledEntityType",
		},
		{
			name:        "unknown entity type with unsupported image",
			params:      ScheduledEventParams{EntityType: Some(ScheduledEntityType(9)), Image: Some([]byte("plain text"))},
			currentType: ScheduledEntityTypeVoice,
			wantEnum:    "ScheduledEntityType",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := buildScheduledEventPayload(test.params, test.currentType)
			if err == nil {
				t.Fatal("expected an error")
			}

			if test.wantField != "" {
				var validationErr *ValidationError
				if !errors.As(err, &validationErr) {
					t.Fatalf("expected a ValidationError, got %T", err)
				}

				if validationErr.Field != test.wantField {
					t.Errorf("expected field %q, got %q", test.wantField, validationErr.Field)
				}
			}

			if test.wantEnum != "" {
				var enumErr *EnumError
				if !errors.As(err, &enumErr) {
					t.Fatalf("expected an EnumError, got %T", err)
				}

				if enumErr.Enum != test.wantEnum {
					t.Errorf("expected enum %q, got %q", test.wantEnum, enumErr.Enum)
				}
			}
		})
	}
}

func TestScheduledEventPayloadClearing(t *testing.T) {
	params := ScheduledEventParams{
		EndTime:   Some(Timestamp("")),
		Image:     Some[[]byte](nil),
		ChannelID: Some(ChannelID(20)),
	}

	payload, err := buildScheduledEventPayload(params, ScheduledEntityTypeVoice)
	if err != nil {
		t.Fatalf("buildScheduledEventPayload returned error: %v", err)
	}

	if value, ok := payload["scheduled_end_time"]; !ok || value != Timestamp("") {
		t.Errorf("expected an empty end time in the payload, got %v", value)
	}

	if value, ok := payload["image"]; !ok || value != nil {
		t.Errorf("expected a null image in the payload, got %v", value)
	}
}

func TestScheduledEventEditValidatesBeforeRequest(t *testing.T) {
	state := newFakeState()
	session, rest := newFakeSession(nil)

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	_, err = ev.Edit(session, state, ScheduledEventParams{Location: Some("Town Hall")}, nil)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected a ValidationError, got %v", err)
	}

	if len(rest.calls) != 0 {
		t.Errorf("expected no requests to be made, got %d", len(rest.calls))
	}
}

func TestScheduledEventEdit(t *testing.T) {
	state := newFakeState()
	session, rest := newFakeSession(func(method, endpoint string, body []byte) ([]byte, error) {
		return []byte(strings.Replace(sampleEventPayload, "Movie Night", "Game Night", 1)), nil
	})

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	ev.AddSubscriber(&User{ID: 77, Username: "attendee"})

	next, err := ev.Edit(session, state, ScheduledEventParams{Name: Some("Game Night"), ChannelID: Some(ChannelID(20))}, nil)
	if err != nil {
		t.Fatalf("Edit returned error: %v", err)
	}

	if len(rest.calls) != 1 {
		t.Fatalf("expected 1 request, got %d", len(rest.calls))
	}

	call := rest.calls[0]
	if call.method != http.MethodPatch {
		t.Errorf("expected PATCH, got %s", call.method)
	}

	if call.endpoint != "/guilds/10/scheduled-events/500" {
		t.Errorf("unexpected endpoint %q", call.endpoint)
	}

	if !strings.Contains(string(call.body), `"name":"Game Night"`) {
		t.Errorf("payload missing name field: %s", call.body)
	}

	if next == ev {
		t.Error("Edit returned the receiver instead of a fresh proxy")
	}

	if next.Name != "Game Night" || ev.Name != "Movie Night" {
		t.Errorf("expected receiver untouched, got %q and %q", ev.Name, next.Name)
	}

	if _, ok := next.Subscribers()[77]; !ok {
		t.Error("subscriber cache was not carried over")
	}

	next.AddSubscriber(&User{ID: 88, Username: "latecomer"})

	if _, ok := ev.Subscribers()[88]; !ok {
		t.Error("subscriber cache is not shared by reference")
	}
}

func TestScheduledEventLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		status     EventStatus
		transition func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error)
		wantStatus EventStatus
		wantErr    bool
	}{
		{
			name:   "start scheduled",
			status: EventStatusScheduled,
			transition: func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error) {
				return ev.Start(s, state, nil)
			},
			wantStatus: EventStatusActive,
		},
		{
			name:   "start active",
			status: EventStatusActive,
			transition: func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error) {
				return ev.Start(s, state, nil)
			},
			wantErr: true,
		},
		{
			name:   "end active",
			status: EventStatusActive,
			transition: func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error) {
				return ev.End(s, state, nil)
			},
			wantStatus: EventStatusCompleted,
		},
		{
			name:   "end scheduled",
			status: EventStatusScheduled,
			transition: func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error) {
				return ev.End(s, state, nil)
			},
			wantErr: true,
		},
		{
			name:   "cancel scheduled",
			status: EventStatusScheduled,
			transition: func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error) {
				return ev.Cancel(s, state, nil)
			},
			wantStatus: EventStatusCanceled,
		},
		{
			name:   "cancel completed",
			status: EventStatusCompleted,
			transition: func(ev *ScheduledEvent, s *Session, state StateProvider) (*ScheduledEvent, error) {
				return ev.Cancel(s, state, nil)
			},
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			state := newFakeState()

			ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
			if err != nil {
				t.Fatalf("NewScheduledEvent returned error: %v", err)
			}

			ev.Status = test.status

			session, rest := newFakeSession(func(method, endpoint string, body []byte) ([]byte, error) {
				var payload map[string]interface{}
				if err := stagehandjson.Unmarshal(body, &payload); err != nil {
					return nil, err
				}

				response := map[string]interface{}{
					"id":                   "500",
					"guild_id":             "10",
					"channel_id":           "20",
					"name":                 "Movie Night",
					"scheduled_start_time": "2026-09-01T18:00:00Z",
					"privacy_level":        2,
					"entity_type":          2,
					"status":               payload["status"],
				}

				return stagehandjson.Marshal(response)
			})

			next, err := test.transition(ev, session, state)

			if test.wantErr {
				var stateErr *InvalidStateError
				if !errors.As(err, &stateErr) {
					t.Fatalf("expected an InvalidStateError, got %v", err)
				}

				if len(rest.calls) != 0 {
					t.Errorf("expected no requests on a rejected transition, got %d", len(rest.calls))
				}

				return
			}

			if err != nil {
				t.Fatalf("transition returned error: %v", err)
			}

			if next.Status != test.wantStatus {
				t.Errorf("expected status %d, got %d", test.wantStatus, next.Status)
			}
		})
	}
}

func TestScheduledEventDelete(t *testing.T) {
	state := newFakeState()
	session, rest := newFakeSession(func(method, endpoint string, body []byte) ([]byte, error) {
		return nil, nil
	})

	ev, err := NewScheduledEvent(state, []byte(sampleEventPayload))
	if err != nil {
		t.Fatalf("NewScheduledEvent returned error: %v", err)
	}

	err = ev.Delete(session, ptr("cleanup"))
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if len(rest.calls) != 1 || rest.calls[0].method != http.MethodDelete {
		t.Fatalf("expected a single DELETE, got %+v", rest.calls)
	}

	if rest.calls[0].endpoint != "/guilds/10/scheduled-events/500" {
		t.Errorf("unexpected endpoint %q", rest.calls[0].endpoint)
	}
}

func TestCreateGuildScheduledEvent(t *testing.T) {
	state := newFakeState()
	session, rest := newFakeSession(func(method, endpoint string, body []byte) ([]byte, error) {
		return []byte(sampleEventPayload), nil
	})

	_, err := CreateGuildScheduledEvent(session, state, 10, ScheduledEventParams{}, nil)

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected a ValidationError for missing name, got %v", err)
	}

	if len(rest.calls) != 0 {
		t.Fatalf("expected no requests, got %d", len(rest.calls))
	}

	params := ScheduledEventParams{
		Name:         Some("Town Hall Meetup"),
		StartTime:    Some(mustTime(t, "2026-09-01T18:00:00Z")),
		EndTime:      Some(mustTime(t, "2026-09-01T20:00:00Z")),
		PrivacyLevel: Some(StageChannelPrivacyLevelGuildOnly),
		EntityType:   Some(ScheduledEntityTypeExternal),
		Location:     Some("Town Hall"),
	}

	_, err = CreateGuildScheduledEvent(session, state, 10, params, nil)
	if err != nil {
		t.Fatalf("CreateGuildScheduledEvent returned error: %v", err)
	}

	if len(rest.calls) != 1 || rest.calls[0].method != http.MethodPost {
		t.Fatalf("expected a single POST, got %+v", rest.calls)
	}

	if rest.calls[0].endpoint != "/guilds/10/scheduled-events" {
		t.Errorf("unexpected endpoint %q", rest.calls[0].endpoint)
	}

	if !strings.Contains(string(rest.calls[0].body), `"location":"Town Hall"`) {
		t.Errorf("payload missing nested location: %s", rest.calls[0].body)
	}
}

func TestFetchGuildScheduledEvents(t *testing.T) {
	state := newFakeState()
	session, rest := newFakeSession(func(method, endpoint string, body []byte) ([]byte, error) {
		return []byte("[" + sampleEventPayload + "]"), nil
	})

	events, err := FetchGuildScheduledEvents(session, state, 10, true)
	if err != nil {
		t.Fatalf("FetchGuildScheduledEvents returned error: %v", err)
	}

	if len(events) != 1 || events[0].ID != 500 {
		t.Fatalf("unexpected events %+v", events)
	}

	if events[0].Subscribers() == nil {
		t.Error("fetched event was not hydrated")
	}

	if !strings.Contains(rest.calls[0].endpoint, "with_user_count=true") {
		t.Errorf("expected with_user_count in endpoint, got %q", rest.calls[0].endpoint)
	}
}

func mustTime(t *testing.T, value string) Timestamp {
	t.Helper()

	parsed, err := Timestamp(value).Time()
	if err != nil {
		t.Fatalf("failed to parse %q: %v", value, err)
	}

	return NewTimestamp(parsed)
}

func ptr[T any](value T) *T {
	return &value
}
