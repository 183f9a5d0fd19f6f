package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AccessMode is the intent with which a resource is accessed.
type AccessMode int

const (
	AccessModeDetail AccessMode = iota
	AccessModeUpdate
)

func (m AccessMode) String() string {
	switch m {
	case AccessModeDetail:
		return "Detail"
	case AccessModeUpdate:
		return "Update"
	default:
		return "AccessMode(" + strconv.Itoa(int(m)) + ")"
	}
}

func (m AccessMode) Valid() bool {
	return m == AccessModeDetail || m == AccessModeUpdate
}

func ParseAccessMode(raw string) (AccessMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "detail", "0":
		return AccessModeDetail, nil
	case "update", "1":
		return AccessModeUpdate, nil
	default:
		return 0, fmt.Errorf("unknown access mode %q", raw)
	}
}

func (m AccessMode) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("marshal access mode: invalid value %d", int(m))
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both the name ("Detail") and the numeric enum value.
func (m *AccessMode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := ParseAccessMode(raw)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode access mode: %w", err)
	}
	if !AccessMode(n).Valid() {
		return fmt.Errorf("unknown access mode %d", n)
	}
	*m = AccessMode(n)
	return nil
}

// Resource identifies one server-side entity and the access intent for
// presence tracking.
type Resource struct {
	Type        string     `json:"type"`
	PrimaryID   int64      `json:"primaryId"`
	SecondaryID *int64     `json:"secondaryId"`
	Mode        AccessMode `json:"mode"`
}

func (r Resource) Validate() error {
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("resource type is required")
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("resource mode %s is invalid", r.Mode)
	}
	return nil
}

// ResourceKey is a comparable identity for a Resource, usable as a map key.
type ResourceKey struct {
	Type         string
	PrimaryID    int64
	SecondaryID  int64
	HasSecondary bool
	Mode         AccessMode
}

func (r Resource) Key() ResourceKey {
	key := ResourceKey{Type: r.Type, PrimaryID: r.PrimaryID, Mode: r.Mode}
	if r.SecondaryID != nil {
		key.SecondaryID = *r.SecondaryID
		key.HasSecondary = true
	}
	return key
}

func (r Resource) String() string {
	secondary := "-"
	if r.SecondaryID != nil {
		secondary = strconv.FormatInt(*r.SecondaryID, 10)
	}
	return fmt.Sprintf("%s/%d/%s (%s)", r.Type, r.PrimaryID, secondary, r.Mode)
}
