package discord

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

const (
	MaxInt64        = 9007199254740991
	DiscordCreation = 1420070400000
)

var null = []byte("null")

// Placeholder type for easy identification.
type Snowflake int64

func (s *Snowflake) IsNil() bool {
	return *s == 0
}

func toSnowflake(b []byte, s *Snowflake) error {
	if !bytes.Equal(b, null) {
		if b[0] == '"' && len(b) >= 2 {
			i, err := strconv.ParseInt(string(b[1:len(b)-1]), 10, 64)
			if err != nil {
				return fmt.Errorf("failed to unmarshal json: %v", err)
			}

			*s = Snowflake(i)
		} else {
			i, err := strconv.ParseInt(string(b), 10, 64)
			if err != nil {
				return fmt.Errorf("failed to unmarshal json: %v", err)
			}

			*s = Snowflake(i)
		}
	} else {
		*s = 0
	}

	return nil
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	return toSnowflake(b, s)
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(s)), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// Time returns the creation time of the Snowflake.
func (s Snowflake) Time() time.Time {
	nsec := (int64(s) >> 22) + DiscordCreation

	return time.Unix(0, nsec*1000000)
}

func int64ToStringBytes(s int64) []byte {
	buf := make([]byte, 0, 24) // maxInt64JsonLength + 2

	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, s, 10)
	buf = append(buf, '"')

	return buf
}

type GuildID Snowflake

func (s *GuildID) UnmarshalJSON(b []byte) error {
	return toSnowflake(b, (*Snowflake)(s))
}

func (s GuildID) MarshalJSON() ([]byte, error) {
	return Snowflake(s).MarshalJSON()
}

func (s GuildID) String() string {
	return Snowflake(s).String()
}

func (s *GuildID) IsNil() bool {
	return *s == 0
}

type ChannelID Snowflake

func (s *ChannelID) UnmarshalJSON(b []byte) error {
	return toSnowflake(b, (*Snowflake)(s))
}

func (s ChannelID) MarshalJSON() ([]byte, error) {
	return Snowflake(s).MarshalJSON()
}

func (s ChannelID) String() string {
	return Snowflake(s).String()
}

func (s *ChannelID) IsNil() bool {
	return *s == 0
}

type UserID Snowflake

func (s *UserID) UnmarshalJSON(b []byte) error {
	return toSnowflake(b, (*Snowflake)(s))
}

func (s UserID) MarshalJSON() ([]byte, error) {
	return Snowflake(s).MarshalJSON()
}

func (s UserID) String() string {
	return Snowflake(s).String()
}

func (s *UserID) IsNil() bool {
	return *s == 0
}

type ScheduledEventID Snowflake

func (s *ScheduledEventID) UnmarshalJSON(b []byte) error {
	return toSnowflake(b, (*Snowflake)(s))
}

func (s ScheduledEventID) MarshalJSON() ([]byte, error) {
	return Snowflake(s).MarshalJSON()
}

func (s ScheduledEventID) String() string {
	return Snowflake(s).String()
}

func (s *ScheduledEventID) IsNil() bool {
	return *s == 0
}

// Corresponding List types
type GuildIDList = List[GuildID]
type ChannelIDList = List[ChannelID]
type UserIDList = List[UserID]
type ScheduledEventIDList = List[ScheduledEventID]
