package gateway

import (
	"encoding/json"
	"fmt"
)

// CommandType is the wire tag of a client-to-server command. The set is
// closed: anything outside it is rejected at parse time rather than
// silently ignored.
type CommandType string

const (
	CommandJoinSession  CommandType = "join_session"
	CommandPickNumber   CommandType = "pick_number"
	CommandLeaveSession CommandType = "leave_session"
	CommandTriggerTick  CommandType = "trigger_tick"
	CommandTriggerClose CommandType = "trigger_close"
)

// ClientCommand is one inbound client command.
type ClientCommand struct {
	Type      CommandType `json:"type"`
	Number    *int        `json:"number,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
}

// ParseClientCommand decodes and validates an inbound command.
func ParseClientCommand(data []byte) (*ClientCommand, error) {
	var cmd ClientCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("malformed command: %w", err)
	}

	switch cmd.Type {
	case CommandJoinSession, CommandLeaveSession, CommandTriggerTick:
		return &cmd, nil
	case CommandPickNumber:
		if cmd.Number == nil {
			return nil, fmt.Errorf("pick_number requires a number")
		}
		return &cmd, nil
	case CommandTriggerClose:
		if cmd.SessionID == "" {
			return nil, fmt.Errorf("trigger_close requires a session_id")
		}
		return &cmd, nil
	default:
		return nil, fmt.Errorf("unknown command type: %q", cmd.Type)
	}
}
