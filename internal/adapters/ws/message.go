package ws

import "encoding/json"

// Client command kinds.
const (
	KindMove    = "move"
	KindCharge  = "charge"
	KindRelease = "release"
	KindReset   = "reset"
	KindPing    = "ping"
)

// Command is the JSON envelope for client input frames. Move carries a
// horizontal direction that stays applied until the next move command;
// a zero direction stops the player.
type Command struct {
	Kind string  `json:"kind"`
	DX   float64 `json:"dx,omitempty"`
	DZ   float64 `json:"dz,omitempty"`
}

func decodeCommand(data []byte) (Command, error) {
	var cmd Command
	err := json.Unmarshal(data, &cmd)
	return cmd, err
}
