package discord

import "github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"

// user.go represents all structures for a discord user.

// UserFlags represents the flags on a user's account.
type UserFlags uint32

// User represents a user on discord.
type User struct {
	Banner        string    `json:"banner,omitempty"`
	GlobalName    string    `json:"global_name"`
	Avatar        *string   `json:"avatar"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator"`
	ID            UserID    `json:"id"`
	PublicFlags   UserFlags `json:"public_flags"`
	Bot           bool      `json:"bot"`
	System        bool      `json:"system"`
}

// Used to avoid a marshal loop.
type marshalUser User

func (u User) MarshalJSON() ([]byte, error) {
	// Patch for discriminator
	if u.Discriminator == "" {
		u.Discriminator = "0"
	}

	return stagehandjson.Marshal(marshalUser(u))
}
