package presence

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Hub framing: JSON messages terminated by the ASCII record separator.
const recordSeparator byte = 0x1e

const (
	messageInvocation = 1
	messagePing       = 6
	messageClose      = 7
)

const (
	targetStartResourceAccess  = "StartResourceAccess"
	targetFinishResourceAccess = "FinishResourceAccess"

	targetReceiveNotification        = "ReceiveNotification"
	targetResourceAccessStarted      = "ResourceAccessStarted"
	targetUserStartedResourceAccess  = "UserStartedResourceAccess"
	targetUserFinishedResourceAccess = "UserFinishedResourceAccess"
)

type handshakeRequest struct {
	Protocol string `json:"protocol"`
	Version  int    `json:"version"`
}

type handshakeResponse struct {
	Error string `json:"error,omitempty"`
}

type hubMessage struct {
	Type           int               `json:"type"`
	Target         string            `json:"target,omitempty"`
	Arguments      []json.RawMessage `json:"arguments,omitempty"`
	Error          string            `json:"error,omitempty"`
	AllowReconnect bool              `json:"allowReconnect,omitempty"`
}

func frame(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, recordSeparator), nil
}

func handshakeFrame() ([]byte, error) {
	return frame(handshakeRequest{Protocol: "json", Version: 1})
}

func pingFrame() ([]byte, error) {
	return frame(hubMessage{Type: messagePing})
}

// invocationFrame encodes a non-blocking invocation: no invocation id, so
// the hub sends no completion.
func invocationFrame(target string, args ...any) ([]byte, error) {
	msg := hubMessage{Type: messageInvocation, Target: target}
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("encode %s argument %d: %w", target, i, err)
		}
		msg.Arguments = append(msg.Arguments, raw)
	}
	return frame(msg)
}

// splitFrames returns the non-empty records in data.
func splitFrames(data []byte) [][]byte {
	var frames [][]byte
	for _, part := range bytes.Split(data, []byte{recordSeparator}) {
		if len(bytes.TrimSpace(part)) == 0 {
			continue
		}
		frames = append(frames, part)
	}
	return frames
}
