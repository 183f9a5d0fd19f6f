package presence

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/viewsync/internal/domain"
)

// User identifies a peer session owner.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (u User) String() string {
	if u.Name == "" {
		return u.ID
	}
	return u.Name
}

// Notification is a business event pushed by the hub. The payload is
// delivered as received.
type Notification struct {
	Payload json.RawMessage
}

func (n Notification) Decode(v any) error {
	if err := json.Unmarshal(n.Payload, v); err != nil {
		return fmt.Errorf("decode notification: %w", err)
	}
	return nil
}

// SelfAccessStarted acknowledges our own StartResourceAccess and lists the
// other users already holding the resource.
type SelfAccessStarted struct {
	Resource domain.Resource
	Users    []User
}

type UserAccessStarted struct {
	Resource domain.Resource
	User     User
}

type UserAccessFinished struct {
	Resource domain.Resource
	UserID   string
}

func decodeArgs(args []json.RawMessage, into ...any) error {
	if len(args) < len(into) {
		return fmt.Errorf("want %d arguments, got %d", len(into), len(args))
	}
	for i, v := range into {
		if err := json.Unmarshal(args[i], v); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}
