package discord

// guild.go contains the structures to represent a guild. Only the fields
// the scheduled event layer touches are represented.

// Guild represents a guild on discord.
type Guild struct {
	Icon                 *string            `json:"icon"`
	Description          string             `json:"description"`
	Name                 string             `json:"name"`
	GuildScheduledEvents ScheduledEventList `json:"guild_scheduled_events"`
	Channels             ChannelList        `json:"channels"`
	OwnerID              UserID             `json:"owner_id"`
	ID                   GuildID            `json:"id"`
	MemberCount          int32              `json:"member_count"`
	Unavailable          bool               `json:"unavailable"`
}

// UnavailableGuild represents an unavailable guild.
type UnavailableGuild struct {
	ID          GuildID `json:"id"`
	Unavailable bool    `json:"unavailable"`
}
