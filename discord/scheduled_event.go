package discord

import (
	"fmt"
	"net/http"

	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
)

// scheduled_event.go contains the guild scheduled event proxy and its
// rest operations.

// EventStatus represents the status of an event. Transitions are
// monotonic: scheduled events become active then completed, or move
// straight to canceled. Nothing leaves completed or canceled.
type EventStatus uint16

const (
	EventStatusScheduled EventStatus = 1 + iota
	EventStatusActive
	EventStatusCompleted
	EventStatusCanceled
)

// Validate returns an EnumError when the value is not a recognised
// event status.
func (s EventStatus) Validate() error {
	if s < EventStatusScheduled || s > EventStatusCanceled {
		return &EnumError{Enum: "EventStatus", Value: int64(s)}
	}

	return nil
}

// ScheduledEntityType represents the type of event.
type ScheduledEntityType uint16

const (
	ScheduledEntityTypeStage ScheduledEntityType = 1 + iota
	ScheduledEntityTypeVoice
	ScheduledEntityTypeExternal
)

// Validate returns an EnumError when the value is not a recognised
// entity type.
func (t ScheduledEntityType) Validate() error {
	if t < ScheduledEntityTypeStage || t > ScheduledEntityTypeExternal {
		return &EnumError{Enum: "ScheduledEntityType", Value: int64(t)}
	}

	return nil
}

// StateProvider resolves shared objects against a local cache layer.
// StoreUser must be idempotent on the user ID: passing a user whose ID is
// already cached returns the cached instance instead of allocating a new
// one.
type StateProvider interface {
	StoreUser(user User) *User
	GetChannel(guildID GuildID, channelID ChannelID) (*Channel, bool)
}

// EventMetadata contains extra information about a scheduled event.
type EventMetadata struct {
	Location string `json:"location,omitempty"`
}

// ScheduledEvent represents a scheduled event in a guild. It mirrors the
// server-side resource: Hydrate refreshes it from a payload, the rest
// wrappers below mutate it remotely, and the subscriber cache is kept up
// to date by the live-update layer.
type ScheduledEvent struct {
	ChannelID          *ChannelID               `json:"channel_id,omitempty"`
	CreatorID          *UserID                  `json:"creator_id,omitempty"`
	Creator            *User                    `json:"creator,omitempty"`
	EntityMetadata     *EventMetadata           `json:"entity_metadata,omitempty"`
	EntityID           *Snowflake               `json:"entity_id,omitempty"`
	ScheduledEndTime   *Timestamp               `json:"scheduled_end_time"`
	ScheduledStartTime Timestamp                `json:"scheduled_start_time"`
	Description        string                   `json:"description,omitempty"`
	Name               string                   `json:"name"`
	Image              *string                  `json:"image"`
	ID                 ScheduledEventID         `json:"id"`
	GuildID            GuildID                  `json:"guild_id"`
	UserCount          int32                    `json:"user_count,omitempty"`
	Status             EventStatus              `json:"status"`
	EntityType         ScheduledEntityType      `json:"entity_type"`
	PrivacyLevel       StageChannelPrivacyLevel `json:"privacy_level"`

	subscribers map[UserID]*User
}

// NewScheduledEvent unmarshals a scheduled event payload and hydrates it.
func NewScheduledEvent(state StateProvider, data []byte) (*ScheduledEvent, error) {
	ev := &ScheduledEvent{}

	err := stagehandjson.Unmarshal(data, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal scheduled event: %w", err)
	}

	ev.Hydrate(state)

	return ev, nil
}

// Hydrate resolves shared references after a payload has been
// unmarshalled into the event. The creator, when present, is resolved
// through the user cache so equal IDs share one instance. Safe to call
// again on re-sync.
func (ev *ScheduledEvent) Hydrate(state StateProvider) {
	if ev.subscribers == nil {
		ev.subscribers = make(map[UserID]*User)
	}

	if ev.Creator != nil && state != nil {
		ev.Creator = state.StoreUser(*ev.Creator)
	}
}

// Update re-hydrates the event in place from a fresh payload, keeping the
// subscriber cache. Fields absent from the payload are reset, not
// retained.
func (ev *ScheduledEvent) Update(state StateProvider, data []byte) error {
	var next ScheduledEvent

	err := stagehandjson.Unmarshal(data, &next)
	if err != nil {
		return fmt.Errorf("failed to unmarshal scheduled event: %w", err)
	}

	next.subscribers = ev.subscribers
	next.Hydrate(state)

	*ev = next

	return nil
}

// Location returns where an external event takes place. Empty for events
// hosted in a channel or when the payload carried no entity metadata.
func (ev *ScheduledEvent) Location() string {
	if ev.EntityMetadata == nil {
		return ""
	}

	return ev.EntityMetadata.Location
}

// CoverImageURL returns the CDN URL of the event cover image, or an empty
// string when no image is set. No request is made.
func (ev *ScheduledEvent) CoverImageURL() string {
	if ev.Image == nil || *ev.Image == "" {
		return ""
	}

	return EndpointScheduledEventCover(ev.ID.String(), *ev.Image)
}

// Channel resolves the channel the event is hosted in against the channel
// registry. Returns nil when the event is external or the channel is no
// longer present.
func (ev *ScheduledEvent) Channel(state StateProvider) *Channel {
	if ev.ChannelID == nil || state == nil {
		return nil
	}

	channel, ok := state.GetChannel(ev.GuildID, *ev.ChannelID)
	if !ok {
		return nil
	}

	return channel
}

// AddSubscriber caches a user subscribed to this event. Called by the
// live-update layer.
func (ev *ScheduledEvent) AddSubscriber(user *User) {
	if ev.subscribers == nil {
		ev.subscribers = make(map[UserID]*User)
	}

	ev.subscribers[user.ID] = user
}

// RemoveSubscriber evicts a user from the subscriber cache. Called by the
// live-update layer.
func (ev *ScheduledEvent) RemoveSubscriber(userID UserID) {
	delete(ev.subscribers, userID)
}

// Subscribers returns the live subscriber cache. The map is shared with
// proxies returned by Edit, not copied.
func (ev *ScheduledEvent) Subscribers() map[UserID]*User {
	return ev.subscribers
}

// ScheduledEventParams are the optional fields when creating or editing a
// scheduled event. The zero value of each Option leaves the field
// untouched.
type ScheduledEventParams struct {
	Name         Option[string]
	Description  Option[string]
	ChannelID    Option[ChannelID]
	StartTime    Option[Timestamp]
	EndTime      Option[Timestamp]
	PrivacyLevel Option[StageChannelPrivacyLevel]
	EntityType   Option[ScheduledEntityType]
	Status       Option[EventStatus]
	Image        Option[[]byte]
	Location     Option[string]
}

// buildScheduledEventPayload validates params and returns the partial
// payload to send. currentType is the entity type the event will have if
// params does not change it. All validation happens here, before any
// request is made.
func buildScheduledEventPayload(params ScheduledEventParams, currentType ScheduledEntityType) (map[string]interface{}, error) {
	payload := make(map[string]interface{})
	metadata := make(map[string]interface{})

	if params.StartTime.IsSet() {
		if _, err := params.StartTime.Value().Time(); err != nil {
			return nil, &ValidationError{Field: "scheduled_start_time", Message: "must be an RFC3339 timestamp with a timezone offset"}
		}

		payload["scheduled_start_time"] = params.StartTime.Value()
	}

	if params.EndTime.IsSet() {
		// An empty timestamp clears the end time: it marshals to null.
		if params.EndTime.Value() != "" {
			if _, err := params.EndTime.Value().Time(); err != nil {
				return nil, &ValidationError{Field: "scheduled_end_time", Message: "must be an RFC3339 timestamp with a timezone offset"}
			}
		}

		payload["scheduled_end_time"] = params.EndTime.Value()
	}

	if params.Name.IsSet() {
		payload["name"] = params.Name.Value()
	}

	if params.Description.IsSet() {
		payload["description"] = params.Description.Value()
	}

	if params.PrivacyLevel.IsSet() {
		if err := params.PrivacyLevel.Value().Validate(); err != nil {
			return nil, err
		}

		payload["privacy_level"] = params.PrivacyLevel.Value()
	}

	if params.Status.IsSet() {
		if err := params.Status.Value().Validate(); err != nil {
			return nil, err
		}

		payload["status"] = params.Status.Value()
	}

	if params.EntityType.IsSet() {
		if err := params.EntityType.Value().Validate(); err != nil {
			return nil, err
		}

		payload["entity_type"] = params.EntityType.Value()
	}

	if params.Image.IsSet() {
		if params.Image.Value() == nil {
			// Explicit null removes the cover image.
			payload["image"] = nil
		} else {
			image, err := bytesToBase64Data(params.Image.Value())
			if err != nil {
				return nil, err
			}

			payload["image"] = image
		}
	}

	// The entity-type rules only apply when the entity type or one of
	// its dependent fields is being changed. Applying them to every
	// partial edit would reject status-only updates outright.
	if !params.EntityType.IsSet() && !params.ChannelID.IsSet() && !params.Location.IsSet() {
		return payload, nil
	}

	entityType := currentType
	if params.EntityType.IsSet() {
		entityType = params.EntityType.Value()
	}

	switch entityType {
	case ScheduledEntityTypeStage, ScheduledEntityTypeVoice:
		if !params.ChannelID.IsSet() || params.ChannelID.Value() == 0 {
			return nil, &ValidationError{Field: "channel_id", Message: "must be set when entity type is stage or voice"}
		}

		if params.Location.IsSet() {
			return nil, &ValidationError{Field: "location", Message: "cannot be set when entity type is stage or voice"}
		}

		payload["channel_id"] = params.ChannelID.Value()
	case ScheduledEntityTypeExternal:
		if params.ChannelID.IsSet() {
			return nil, &ValidationError{Field: "channel_id", Message: "cannot be set when entity type is external"}
		}

		if !params.Location.IsSet() || params.Location.Value() == "" {
			return nil, &ValidationError{Field: "location", Message: "must be set when entity type is external"}
		}

		if !params.EndTime.IsSet() || params.EndTime.Value() == "" {
			return nil, &ValidationError{Field: "scheduled_end_time", Message: "must be set when entity type is external"}
		}

		metadata["location"] = params.Location.Value()
	}

	if len(metadata) > 0 {
		payload["entity_metadata"] = metadata
	}

	return payload, nil
}

// Edit performs a partial update of the scheduled event. Requires the
// MANAGE_EVENTS permission. On success a fresh proxy is returned,
// carrying over this instance's subscriber cache by reference; the
// receiver is left untouched.
func (ev *ScheduledEvent) Edit(s *Session, state StateProvider, params ScheduledEventParams, reason *string) (*ScheduledEvent, error) {
	payload, err := buildScheduledEventPayload(params, ev.EntityType)
	if err != nil {
		return nil, err
	}

	endpoint := EndpointGuildScheduledEvent(ev.GuildID.String(), ev.ID.String())

	var next ScheduledEvent

	err = s.Interface.FetchJJ(s, http.MethodPatch, endpoint, payload, auditReasonHeaders(reason), &next)
	if err != nil {
		return nil, fmt.Errorf("failed to edit scheduled event: %w", err)
	}

	next.subscribers = ev.subscribers
	next.Hydrate(state)

	return &next, nil
}

// Start begins a scheduled event. Shorthand for an Edit setting the
// status to active. Fails with InvalidStateError unless the event is
// currently scheduled.
func (ev *ScheduledEvent) Start(s *Session, state StateProvider, reason *string) (*ScheduledEvent, error) {
	if ev.Status != EventStatusScheduled {
		return nil, &InvalidStateError{Action: "start", Status: ev.Status}
	}

	return ev.Edit(s, state, ScheduledEventParams{Status: Some(EventStatusActive)}, reason)
}

// End completes an active event. Fails with InvalidStateError unless the
// event is currently active.
func (ev *ScheduledEvent) End(s *Session, state StateProvider, reason *string) (*ScheduledEvent, error) {
	if ev.Status != EventStatusActive {
		return nil, &InvalidStateError{Action: "end", Status: ev.Status}
	}

	return ev.Edit(s, state, ScheduledEventParams{Status: Some(EventStatusCompleted)}, reason)
}

// Cancel cancels a scheduled event before it starts. Fails with
// InvalidStateError unless the event is currently scheduled.
func (ev *ScheduledEvent) Cancel(s *Session, state StateProvider, reason *string) (*ScheduledEvent, error) {
	if ev.Status != EventStatusScheduled {
		return nil, &InvalidStateError{Action: "cancel", Status: ev.Status}
	}

	return ev.Edit(s, state, ScheduledEventParams{Status: Some(EventStatusCanceled)}, reason)
}

// Delete deletes the scheduled event. Requires the MANAGE_EVENTS
// permission.
func (ev *ScheduledEvent) Delete(s *Session, reason *string) error {
	endpoint := EndpointGuildScheduledEvent(ev.GuildID.String(), ev.ID.String())

	err := s.Interface.FetchBJ(s, http.MethodDelete, endpoint, "", nil, auditReasonHeaders(reason), nil)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled event: %w", err)
	}

	return nil
}

// FetchGuildScheduledEvents returns all scheduled events for a guild.
func FetchGuildScheduledEvents(s *Session, state StateProvider, guildID GuildID, withUserCount bool) ([]*ScheduledEvent, error) {
	endpoint := EndpointGuildScheduledEvents(guildID.String())
	if withUserCount {
		endpoint += "?with_user_count=true"
	}

	var events []*ScheduledEvent

	err := s.Interface.FetchBJ(s, http.MethodGet, endpoint, "", nil, nil, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scheduled events: %w", err)
	}

	for _, ev := range events {
		ev.Hydrate(state)
	}

	return events, nil
}

// FetchGuildScheduledEvent returns a single scheduled event.
func FetchGuildScheduledEvent(s *Session, state StateProvider, guildID GuildID, eventID ScheduledEventID, withUserCount bool) (*ScheduledEvent, error) {
	endpoint := EndpointGuildScheduledEvent(guildID.String(), eventID.String())
	if withUserCount {
		endpoint += "?with_user_count=true"
	}

	var ev ScheduledEvent

	err := s.Interface.FetchBJ(s, http.MethodGet, endpoint, "", nil, nil, &ev)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scheduled event: %w", err)
	}

	ev.Hydrate(state)

	return &ev, nil
}

// CreateGuildScheduledEvent creates a scheduled event in a guild. Name,
// start time, privacy level and entity type are required; the entity-type
// conditional rules of Edit apply.
func CreateGuildScheduledEvent(s *Session, state StateProvider, guildID GuildID, params ScheduledEventParams, reason *string) (*ScheduledEvent, error) {
	if !params.Name.IsSet() || params.Name.Value() == "" {
		return nil, &ValidationError{Field: "name", Message: "must be set"}
	}

	if !params.StartTime.IsSet() {
		return nil, &ValidationError{Field: "scheduled_start_time", Message: "must be set"}
	}

	if !params.PrivacyLevel.IsSet() {
		return nil, &ValidationError{Field: "privacy_level", Message: "must be set"}
	}

	if !params.EntityType.IsSet() {
		return nil, &ValidationError{Field: "entity_type", Message: "must be set"}
	}

	payload, err := buildScheduledEventPayload(params, params.EntityType.Value())
	if err != nil {
		return nil, err
	}

	endpoint := EndpointGuildScheduledEvents(guildID.String())

	var ev ScheduledEvent

	err = s.Interface.FetchJJ(s, http.MethodPost, endpoint, payload, auditReasonHeaders(reason), &ev)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduled event: %w", err)
	}

	ev.Hydrate(state)

	return &ev, nil
}

// ScheduledEventUser represents a user subscribed to an event.
type ScheduledEventUser struct {
	User    User             `json:"user"`
	EventID ScheduledEventID `json:"guild_scheduled_event_id"`
}
