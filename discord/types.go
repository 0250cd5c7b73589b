package discord

import (
	"time"

	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
)

// Timestamp is an RFC3339 timestamp as passed over the wire. RFC3339
// requires an explicit UTC offset, so any Timestamp that parses is
// timezone-aware.
type Timestamp string

// NewTimestamp returns the Timestamp for a point in time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Format(time.RFC3339))
}

// Time parses the timestamp. Returns an error when the timestamp is empty
// or is not a valid RFC3339 string.
func (t Timestamp) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, string(t))
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t == "" {
		return []byte("null"), nil
	}

	if _, err := t.Time(); err != nil {
		t = ""
	}

	return stagehandjson.Marshal(string(t))
}

type List[T any] []T

func (l List[T]) MarshalJSON() ([]byte, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}

	return stagehandjson.Marshal([]T(l))
}

type StringList = List[string]
type UserList = List[User]
type ChannelList = List[Channel]
type ScheduledEventList = List[ScheduledEvent]
type ScheduledEventUserList = List[ScheduledEventUser]
