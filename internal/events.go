package internal

import (
	"context"
	"fmt"

	"github.com/StagehandTeam/Stagehand-Daemon/discord"
	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
	"github.com/StagehandTeam/Stagehand-Daemon/structs"
)

// DispatchHandler handles one dispatch event type.
type DispatchHandler func(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error

var dispatchHandlers = make(map[string]DispatchHandler)

func registerDispatchHandler(eventType string, handler DispatchHandler) {
	dispatchHandlers[eventType] = handler
}

func init() {
	registerDispatchHandler("GUILD_CREATE", OnGuildCreate)
	registerDispatchHandler("GUILD_DELETE", OnGuildDelete)

	registerDispatchHandler("CHANNEL_CREATE", OnChannelCreate)
	registerDispatchHandler("CHANNEL_UPDATE", OnChannelCreate)
	registerDispatchHandler("CHANNEL_DELETE", OnChannelDelete)

	registerDispatchHandler("GUILD_SCHEDULED_EVENT_CREATE", OnGuildScheduledEventCreate)
	registerDispatchHandler("GUILD_SCHEDULED_EVENT_UPDATE", OnGuildScheduledEventUpdate)
	registerDispatchHandler("GUILD_SCHEDULED_EVENT_DELETE", OnGuildScheduledEventDelete)
	registerDispatchHandler("GUILD_SCHEDULED_EVENT_USER_ADD", OnGuildScheduledEventUserAdd)
	registerDispatchHandler("GUILD_SCHEDULED_EVENT_USER_REMOVE", OnGuildScheduledEventUserRemove)
}

// OnDispatch routes a consumed payload to its handler. Handlers run on
// the consume goroutine, so state mutation per event is serialized.
func (sg *Stagehand) OnDispatch(ctx context.Context, payload *structs.StagehandPayload) error {
	handler, ok := dispatchHandlers[payload.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDispatchEvent, payload.Type)
	}

	if len(payload.Data) == 0 {
		return ErrMissingDispatchEventData
	}

	RecordEvent(payload.Type)

	return handler(sg, ctx, payload)
}

// OnGuildCreate seeds the channel registry and scheduled event state from
// an initial guild payload.
func OnGuildCreate(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var guild discord.Guild

	err := stagehandjson.Unmarshal(payload.Data, &guild)
	if err != nil {
		return fmt.Errorf("failed to unmarshal guild: %w", err)
	}

	for i := range guild.Channels {
		channel := guild.Channels[i]
		channel.GuildID = &guild.ID

		sg.State.SetChannel(guild.ID, &channel)
	}

	for i := range guild.GuildScheduledEvents {
		ev := guild.GuildScheduledEvents[i]
		ev.GuildID = guild.ID
		ev.Hydrate(sg.State)

		sg.State.SetGuildEvent(&ev)
	}

	sg.Logger.Debug().
		Str("guild_id", guild.ID.String()).
		Int("channels", len(guild.Channels)).
		Int("events", len(guild.GuildScheduledEvents)).
		Msg("Seeded guild")

	return nil
}

// OnGuildDelete drops everything tracked for a guild, unless the guild
// only became unavailable.
func OnGuildDelete(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var guild discord.UnavailableGuild

	err := stagehandjson.Unmarshal(payload.Data, &guild)
	if err != nil {
		return fmt.Errorf("failed to unmarshal unavailable guild: %w", err)
	}

	if guild.Unavailable {
		return nil
	}

	sg.State.RemoveGuild(guild.ID)

	return nil
}

func OnChannelCreate(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var channel discord.Channel

	err := stagehandjson.Unmarshal(payload.Data, &channel)
	if err != nil {
		return fmt.Errorf("failed to unmarshal channel: %w", err)
	}

	if channel.GuildID == nil {
		return nil
	}

	sg.State.SetChannel(*channel.GuildID, &channel)

	return nil
}

func OnChannelDelete(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var channel discord.Channel

	err := stagehandjson.Unmarshal(payload.Data, &channel)
	if err != nil {
		return fmt.Errorf("failed to unmarshal channel: %w", err)
	}

	if channel.GuildID == nil {
		return nil
	}

	sg.State.RemoveChannel(*channel.GuildID, channel.ID)

	return nil
}

func OnGuildScheduledEventCreate(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	ev, err := discord.NewScheduledEvent(sg.State, payload.Data)
	if err != nil {
		return err
	}

	sg.State.SetGuildEvent(ev)

	return sg.PublishEvent(ctx, payload)
}

// OnGuildScheduledEventUpdate refreshes a tracked event in place so
// holders of the proxy observe the new fields, and keeps its subscriber
// cache.
func OnGuildScheduledEventUpdate(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var header struct {
		ID      discord.ScheduledEventID `json:"id"`
		GuildID discord.GuildID          `json:"guild_id"`
	}

	err := stagehandjson.Unmarshal(payload.Data, &header)
	if err != nil {
		return fmt.Errorf("failed to unmarshal scheduled event: %w", err)
	}

	if ev, ok := sg.State.GetGuildEvent(header.GuildID, header.ID); ok {
		err = ev.Update(sg.State, payload.Data)
		if err != nil {
			return err
		}
	} else {
		ev, err := discord.NewScheduledEvent(sg.State, payload.Data)
		if err != nil {
			return err
		}

		sg.State.SetGuildEvent(ev)
	}

	return sg.PublishEvent(ctx, payload)
}

func OnGuildScheduledEventDelete(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var header struct {
		ID      discord.ScheduledEventID `json:"id"`
		GuildID discord.GuildID          `json:"guild_id"`
	}

	err := stagehandjson.Unmarshal(payload.Data, &header)
	if err != nil {
		return fmt.Errorf("failed to unmarshal scheduled event: %w", err)
	}

	sg.State.RemoveGuildEvent(header.GuildID, header.ID)

	return sg.PublishEvent(ctx, payload)
}

// ScheduledEventUserUpdate is the payload of the user add and remove
// events.
type ScheduledEventUserUpdate struct {
	GuildScheduledEventID discord.ScheduledEventID `json:"guild_scheduled_event_id"`
	UserID                discord.UserID           `json:"user_id"`
	GuildID               discord.GuildID          `json:"guild_id"`
}

func OnGuildScheduledEventUserAdd(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var update ScheduledEventUserUpdate

	err := stagehandjson.Unmarshal(payload.Data, &update)
	if err != nil {
		return fmt.Errorf("failed to unmarshal scheduled event user add: %w", err)
	}

	ev, ok := sg.State.GetGuildEvent(update.GuildID, update.GuildScheduledEventID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrScheduledEventNotTracked, update.GuildScheduledEventID.String())
	}

	// The payload only carries an id. Resolve the cached user when we
	// have one, otherwise track a stub until a richer payload arrives.
	user, ok := sg.State.GetUser(update.UserID)
	if !ok {
		user = sg.State.StoreUser(discord.User{ID: update.UserID})
	}

	ev.AddSubscriber(user)
	ev.UserCount++

	return sg.PublishEvent(ctx, payload)
}

func OnGuildScheduledEventUserRemove(sg *Stagehand, ctx context.Context, payload *structs.StagehandPayload) error {
	var update ScheduledEventUserUpdate

	err := stagehandjson.Unmarshal(payload.Data, &update)
	if err != nil {
		return fmt.Errorf("failed to unmarshal scheduled event user remove: %w", err)
	}

	ev, ok := sg.State.GetGuildEvent(update.GuildID, update.GuildScheduledEventID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrScheduledEventNotTracked, update.GuildScheduledEventID.String())
	}

	ev.RemoveSubscriber(update.UserID)

	if ev.UserCount > 0 {
		ev.UserCount--
	}

	return sg.PublishEvent(ctx, payload)
}
