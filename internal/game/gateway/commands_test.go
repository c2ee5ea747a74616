package gateway

import "testing"

func TestParseClientCommand(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, cmd *ClientCommand)
	}{
		{
			name:  "join",
			input: `{"type":"join_session"}`,
			check: func(t *testing.T, cmd *ClientCommand) {
				if cmd.Type != CommandJoinSession {
					t.Errorf("type = %s", cmd.Type)
				}
			},
		},
		{
			name:  "pick with number",
			input: `{"type":"pick_number","number":7}`,
			check: func(t *testing.T, cmd *ClientCommand) {
				if cmd.Number == nil || *cmd.Number != 7 {
					t.Errorf("number = %v, want 7", cmd.Number)
				}
			},
		},
		{
			name:    "pick without number",
			input:   `{"type":"pick_number"}`,
			wantErr: true,
		},
		{
			name:  "leave",
			input: `{"type":"leave_session"}`,
		},
		{
			name:  "trigger tick",
			input: `{"type":"trigger_tick"}`,
		},
		{
			name:  "trigger close with session",
			input: `{"type":"trigger_close","session_id":"3e0170f1-97c4-4b1e-b18f-2a9181f50cb3"}`,
			check: func(t *testing.T, cmd *ClientCommand) {
				if cmd.SessionID == "" {
					t.Error("session_id not parsed")
				}
			},
		},
		{
			name:    "trigger close without session",
			input:   `{"type":"trigger_close"}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   `{"type":"steal_prize"}`,
			wantErr: true,
		},
		{
			name:    "empty type",
			input:   `{"number":3}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			input:   `{"type":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseClientCommand([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", cmd)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClientCommand: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cmd)
			}
		})
	}
}
