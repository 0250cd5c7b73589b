package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/StagehandTeam/Stagehand-Daemon/discord"
	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
	"github.com/StagehandTeam/Stagehand-Daemon/structs"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

type fakeProducer struct {
	published [][]byte
	channels  []string
}

func (f *fakeProducer) String() string {
	return "fake"
}

func (f *fakeProducer) Channel() string {
	return ""
}

func (f *fakeProducer) Connect(ctx context.Context, clientName string, args map[string]interface{}) error {
	return nil
}

func (f *fakeProducer) Publish(ctx context.Context, channelName string, data []byte) error {
	f.channels = append(f.channels, channelName)
	f.published = append(f.published, data)

	return nil
}

func (f *fakeProducer) Subscribe(ctx context.Context, channelName string) (<-chan []byte, error) {
	return nil, nil
}

func (f *fakeProducer) IsClosed() bool {
	return false
}

func (f *fakeProducer) Close() {}

func newTestStagehand() (*Stagehand, *fakeProducer) {
	producer := &fakeProducer{}

	sg := &Stagehand{
		Logger:         zerolog.Nop(),
		EventsInflight: atomic.NewInt32(0),
		State:          NewStagehandState(),
		ProducerClient: producer,
	}

	sg.Configuration.Application = "stagehand-test"
	sg.Configuration.Producer.Identifier = "stagehand"
	sg.Configuration.Producer.ChannelName = "stagehand.events"

	return sg, producer
}

func dispatch(t *testing.T, sg *Stagehand, eventType, data string) {
	t.Helper()

	err := sg.OnDispatch(context.TODO(), &structs.StagehandPayload{
		Op:   0,
		Type: eventType,
		Data: []byte(data),
	})
	if err != nil {
		t.Fatalf("OnDispatch(%s) returned error: %v", eventType, err)
	}
}

const testEventData = `{
	"id": "500",
	"guild_id": "10",
	"channel_id": "20",
	"name": "Movie Night",
	"scheduled_start_time": "2026-09-01T18:00:00Z",
	"privacy_level": 2,
	"status": 1,
	"entity_type": 2
}`

func TestPublishEventDefaultsMetadata(t *testing.T) {
	sg, producer := newTestStagehand()
	sg.Configuration.Producer.Identifier = ""
	sg.Configuration.Application = ""

	err := sg.PublishEvent(context.TODO(), &structs.StagehandPayload{
		Type: "GUILD_SCHEDULED_EVENT_CREATE",
		Data: []byte(testEventData),
	})
	if err != nil {
		t.Fatalf("PublishEvent returned error: %v", err)
	}

	if len(producer.published) != 1 {
		t.Fatalf("Expected 1 published payload, but got %d", len(producer.published))
	}

	published := &structs.StagehandPayload{}

	err = stagehandjson.Unmarshal(producer.published[0], published)
	if err != nil {
		t.Fatalf("Failed to unmarshal published payload: %v", err)
	}

	if published.Metadata.Identifier != "stagehand" {
		t.Errorf("Expected default identifier, but got %q", published.Metadata.Identifier)
	}

	if published.Metadata.Application != "stagehand" {
		t.Errorf("Expected application to fall back to the identifier, but got %q", published.Metadata.Application)
	}
}

func TestOnDispatchUnknownEvent(t *testing.T) {
	sg, _ := newTestStagehand()

	err := sg.OnDispatch(context.TODO(), &structs.StagehandPayload{
		Type: "PRESENCE_UPDATE",
		Data: []byte("{}"),
	})

	if !errors.Is(err, ErrUnknownDispatchEvent) {
		t.Fatalf("Expected ErrUnknownDispatchEvent, but got %v", err)
	}
}

func TestOnGuildCreate(t *testing.T) {
	sg, _ := newTestStagehand()

	dispatch(t, sg, "GUILD_CREATE", `{
		"id": "10",
		"name": "Testing",
		"channels": [{"id": "20", "name": "events", "type": 2}],
		"guild_scheduled_events": [`+testEventData+`]
	}`)

	if channel, ok := sg.State.GetChannel(10, 20); !ok || channel.Name != "events" {
		t.Errorf("Expected seeded channel, but got %v", channel)
	}

	ev, ok := sg.State.GetGuildEvent(10, 500)
	if !ok || ev.Name != "Movie Night" {
		t.Fatalf("Expected seeded event, but got %v", ev)
	}

	if ev.Subscribers() == nil {
		t.Error("Expected seeded event to be hydrated")
	}
}

func TestOnGuildScheduledEventCreate(t *testing.T) {
	sg, producer := newTestStagehand()

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_CREATE", testEventData)

	if _, ok := sg.State.GetGuildEvent(10, 500); !ok {
		t.Fatal("Expected event to be tracked")
	}

	if len(producer.published) != 1 {
		t.Fatalf("Expected 1 published payload, but got %d", len(producer.published))
	}

	if producer.channels[0] != "stagehand.events" {
		t.Errorf("Expected the producer channel, but got %q", producer.channels[0])
	}

	republished := &structs.StagehandPayload{}
	if err := stagehandjson.Unmarshal(producer.published[0], republished); err != nil {
		t.Fatalf("Failed to unmarshal republished payload: %v", err)
	}

	if republished.Metadata.Version != VERSION || republished.Metadata.Identifier != "stagehand" {
		t.Errorf("Unexpected metadata %+v", republished.Metadata)
	}
}

func TestOnGuildScheduledEventUpdate(t *testing.T) {
	sg, _ := newTestStagehand()

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_CREATE", testEventData)

	ev, _ := sg.State.GetGuildEvent(10, 500)
	ev.AddSubscriber(&discord.User{ID: 77})

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_UPDATE", `{
		"id": "500",
		"guild_id": "10",
		"channel_id": "20",
		"name": "Movie Night II",
		"scheduled_start_time": "2026-09-02T18:00:00Z",
		"privacy_level": 2,
		"status": 2,
		"entity_type": 2
	}`)

	updated, ok := sg.State.GetGuildEvent(10, 500)
	if !ok {
		t.Fatal("Expected event to remain tracked")
	}

	if updated != ev {
		t.Error("Expected the tracked instance to be updated in place")
	}

	if ev.Name != "Movie Night II" || ev.Status != discord.EventStatusActive {
		t.Errorf("Expected updated fields, but got %q %d", ev.Name, ev.Status)
	}

	if _, ok := ev.Subscribers()[77]; !ok {
		t.Error("Expected subscriber cache to survive the update")
	}
}

func TestOnGuildScheduledEventDelete(t *testing.T) {
	sg, producer := newTestStagehand()

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_CREATE", testEventData)
	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_DELETE", `{"id": "500", "guild_id": "10"}`)

	if _, ok := sg.State.GetGuildEvent(10, 500); ok {
		t.Error("Expected event to be removed")
	}

	if len(producer.published) != 2 {
		t.Errorf("Expected both events republished, but got %d", len(producer.published))
	}
}

func TestOnGuildScheduledEventUserAddRemove(t *testing.T) {
	sg, _ := newTestStagehand()

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_CREATE", testEventData)

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_USER_ADD", `{
		"guild_scheduled_event_id": "500",
		"user_id": "77",
		"guild_id": "10"
	}`)

	ev, _ := sg.State.GetGuildEvent(10, 500)

	if _, ok := ev.Subscribers()[77]; !ok {
		t.Fatal("Expected subscriber to be added")
	}

	if ev.UserCount != 1 {
		t.Errorf("Expected user count 1, but got %d", ev.UserCount)
	}

	dispatch(t, sg, "GUILD_SCHEDULED_EVENT_USER_REMOVE", `{
		"guild_scheduled_event_id": "500",
		"user_id": "77",
		"guild_id": "10"
	}`)

	if _, ok := ev.Subscribers()[77]; ok {
		t.Error("Expected subscriber to be removed")
	}

	if ev.UserCount != 0 {
		t.Errorf("Expected user count 0, but got %d", ev.UserCount)
	}
}

func TestOnChannelCreateDelete(t *testing.T) {
	sg, _ := newTestStagehand()

	dispatch(t, sg, "CHANNEL_CREATE", `{"id": "20", "guild_id": "10", "name": "events", "type": 2}`)

	if _, ok := sg.State.GetChannel(10, 20); !ok {
		t.Fatal("Expected channel to be tracked")
	}

	dispatch(t, sg, "CHANNEL_DELETE", `{"id": "20", "guild_id": "10"}`)

	if _, ok := sg.State.GetChannel(10, 20); ok {
		t.Error("Expected channel to be removed")
	}
}
