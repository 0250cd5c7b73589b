package internal

import (
	"github.com/StagehandTeam/Stagehand-Daemon/discord"
)

const (
	userCacheSize    = 1000
	guildCacheSize   = 100
	channelCacheSize = 100
	eventCacheSize   = 25
)

// StagehandState is the in-memory view of every guild the daemon tracks:
// the scheduled events themselves, the channels they can be hosted in and
// a deduplicated user cache shared by every event proxy.
type StagehandState struct {
	Users         Cache[discord.UserID, *discord.User]
	GuildChannels DoubleCache[discord.GuildID, discord.ChannelID, *discord.Channel]
	GuildEvents   DoubleCache[discord.GuildID, discord.ScheduledEventID, *discord.ScheduledEvent]
}

func NewStagehandState() *StagehandState {
	return &StagehandState{
		Users:         NewCache[discord.UserID, *discord.User](userCacheSize),
		GuildChannels: NewDoubleCache[discord.GuildID, discord.ChannelID, *discord.Channel](guildCacheSize, channelCacheSize),
		GuildEvents:   NewDoubleCache[discord.GuildID, discord.ScheduledEventID, *discord.ScheduledEvent](guildCacheSize, eventCacheSize),
	}
}

// StoreUser caches a user, patching the already cached instance when one
// exists so every holder observes the update.
func (st *StagehandState) StoreUser(user discord.User) *discord.User {
	if existing, ok := st.Users.Load(user.ID); ok {
		*existing = user

		return existing
	}

	stored := user
	st.Users.Store(user.ID, &stored)

	return &stored
}

// GetUser returns a cached user.
func (st *StagehandState) GetUser(userID discord.UserID) (*discord.User, bool) {
	return st.Users.Load(userID)
}

// GetChannel returns a cached guild channel.
func (st *StagehandState) GetChannel(guildID discord.GuildID, channelID discord.ChannelID) (*discord.Channel, bool) {
	return st.GuildChannels.Load(guildID, channelID)
}

// SetChannel caches a guild channel.
func (st *StagehandState) SetChannel(guildID discord.GuildID, channel *discord.Channel) {
	st.GuildChannels.Store(guildID, channel.ID, channel)
}

// RemoveChannel evicts a guild channel.
func (st *StagehandState) RemoveChannel(guildID discord.GuildID, channelID discord.ChannelID) {
	st.GuildChannels.Delete(guildID, channelID)
}

// GetGuildEvent returns a cached scheduled event.
func (st *StagehandState) GetGuildEvent(guildID discord.GuildID, eventID discord.ScheduledEventID) (*discord.ScheduledEvent, bool) {
	return st.GuildEvents.Load(guildID, eventID)
}

// SetGuildEvent caches a scheduled event.
func (st *StagehandState) SetGuildEvent(ev *discord.ScheduledEvent) {
	st.GuildEvents.Store(ev.GuildID, ev.ID, ev)
}

// RemoveGuildEvent evicts a scheduled event.
func (st *StagehandState) RemoveGuildEvent(guildID discord.GuildID, eventID discord.ScheduledEventID) {
	st.GuildEvents.Delete(guildID, eventID)
}

// GuildScheduledEvents returns the cached scheduled events of a guild.
func (st *StagehandState) GuildScheduledEvents(guildID discord.GuildID) []*discord.ScheduledEvent {
	var events []*discord.ScheduledEvent

	st.GuildEvents.RangeInner(guildID, func(_ discord.ScheduledEventID, ev *discord.ScheduledEvent) bool {
		events = append(events, ev)

		return false
	})

	return events
}

// RemoveGuild evicts everything cached for a guild.
func (st *StagehandState) RemoveGuild(guildID discord.GuildID) {
	st.GuildChannels.DeleteOuter(guildID)
	st.GuildEvents.DeleteOuter(guildID)
}
