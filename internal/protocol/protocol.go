package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeWand      = "WAND"
	TypeClearWand = "CLEAR_WAND"
	TypeCount     = "COUNT"
	TypeFill      = "FILL"
	TypeUndo      = "UNDO"
	TypeRedo      = "REDO"
	TypeResult    = "RESULT"
	TypeError     = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ID              string `json:"id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// IsRequest reports whether typ is a client command handled after the handshake.
func IsRequest(typ string) bool {
	switch typ {
	case TypeWand, TypeClearWand, TypeCount, TypeFill, TypeUndo, TypeRedo:
		return true
	}
	return false
}
