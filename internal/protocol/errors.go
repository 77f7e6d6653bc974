package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Command layer.
	ErrBadRequest        = "E_BAD_REQUEST"
	ErrSyntax            = "E_SYNTAX"
	ErrSelectionTooLarge = "E_SELECTION_TOO_LARGE"
	ErrNothingToUndo     = "E_NOTHING_TO_UNDO"
	ErrNothingToRedo     = "E_NOTHING_TO_REDO"
	ErrInternal          = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:   {},
	ErrBadRequest:        {},
	ErrSyntax:            {},
	ErrSelectionTooLarge: {},
	ErrNothingToUndo:     {},
	ErrNothingToRedo:     {},
	ErrInternal:          {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
