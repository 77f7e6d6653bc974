package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActorID         string `json:"actor_id"`
	Name            string `json:"name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ActorID         string            `json:"actor_id"`
	WorldID         string            `json:"world_id"`
	World           WorldParams       `json:"world"`
	Catalogs        map[string]string `json:"catalogs,omitempty"`
	Regions         []string          `json:"regions,omitempty"`
}

type WorldParams struct {
	Width         int `json:"width"`
	Height        int `json:"height"`
	WandTileLimit int `json:"wand_tile_limit"`
	MaxUndoDepth  int `json:"max_undo_depth"`
	UndoDepth     int `json:"undo_depth"`
	RedoDepth     int `json:"redo_depth"`
}

type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// WAND: flood-select from a seed tile.
type WandMsg struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Filter string `json:"filter,omitempty"`
}

// CLEAR_WAND drops the selection.
type ClearWandMsg struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

type CountMsg struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Rect   Rect   `json:"rect"`
	Filter string `json:"filter,omitempty"`
}

// FILL writes a tile or wall (layer "tile" or "wall") into rect. Target is a
// catalog name or id; "air" clears.
type FillMsg struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Rect   Rect   `json:"rect"`
	Layer  string `json:"layer,omitempty"`
	Target string `json:"target"`
	Filter string `json:"filter,omitempty"`
}

// UNDO and REDO share a shape. Steps <= 0 uses the server default.
type StepsMsg struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Steps int    `json:"steps,omitempty"`
}

type SelectionMsg struct {
	Rect Rect   `json:"rect"`
	Size int    `json:"size"`
	Mask string `json:"mask"`
}

// RESULT (server -> client) answers one request.
type ResultMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	ReqID           string        `json:"req_id,omitempty"`
	For             string        `json:"for"`
	Count           int           `json:"count,omitempty"`
	Changed         int           `json:"changed,omitempty"`
	Rect            *Rect         `json:"rect,omitempty"`
	Steps           int           `json:"steps,omitempty"`
	UndoDepth       int           `json:"undo_depth"`
	RedoDepth       int           `json:"redo_depth"`
	Selection       *SelectionMsg `json:"selection,omitempty"`
}

// ERROR (server -> client). Steps reports how many undo/redo steps ran
// before the error.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	For             string `json:"for,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
	Steps           int    `json:"steps,omitempty"`
}
