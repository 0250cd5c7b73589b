package discord

// channel.go contains the information relating to channels

// ChannelType represents a channel's type.
type ChannelType uint16

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
	ChannelTypeGuildStore
	_
	_
	_
	ChannelTypeGuildNewsThread
	ChannelTypeGuildPublicThread
	ChannelTypeGuildPrivateThread
	ChannelTypeGuildStageVoice
)

// StageChannelPrivacyLevel represents the privacy level of a stage channel
// and of scheduled events hosted in one.
type StageChannelPrivacyLevel uint16

const (
	StageChannelPrivacyLevelPublic StageChannelPrivacyLevel = 1 + iota
	StageChannelPrivacyLevelGuildOnly
)

// Validate returns an EnumError when the value is not a recognised
// privacy level.
func (p StageChannelPrivacyLevel) Validate() error {
	if p < StageChannelPrivacyLevelPublic || p > StageChannelPrivacyLevelGuildOnly {
		return &EnumError{Enum: "StageChannelPrivacyLevel", Value: int64(p)}
	}

	return nil
}

// Channel represents a Discord channel.
type Channel struct {
	GuildID   *GuildID    `json:"guild_id,omitempty"`
	ParentID  *ChannelID  `json:"parent_id,omitempty"`
	RTCRegion string      `json:"rtc_region"`
	Topic     string      `json:"topic"`
	Name      string      `json:"name"`
	ID        ChannelID   `json:"id"`
	UserLimit int32       `json:"user_limit"`
	Bitrate   int32       `json:"bitrate"`
	Position  int32       `json:"position"`
	Type      ChannelType `json:"type"`
	NSFW      bool        `json:"nsfw"`
}
