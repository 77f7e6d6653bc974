package snapshot

import "worldedit.ai/internal/sim/tile"

// Snapshot is a captured rectangle of tiles plus the placed objects inside it.
// Tiles are indexed [x][y]; object positions are relative to (X, Y).
type Snapshot struct {
	X      int
	Y      int
	Width  int
	Height int

	Tiles [][]tile.Tile

	Signs               []Sign
	Chests              []Chest
	ItemFrames          []DisplayItem
	LogicSensors        []LogicSensor
	TrainingDummies     []Position
	WeaponsRacks        []DisplayItem
	TeleportationPylons []Position
	DisplayDolls        []DisplayItems
	HatRacks            []DisplayItems
	FoodPlatters        []DisplayItem
}

// New allocates a snapshot with a zeroed tile array and empty object lists.
func New(x, y, width, height int) *Snapshot {
	s := &Snapshot{X: x, Y: y, Width: width, Height: height}
	s.Tiles = make([][]tile.Tile, width)
	for i := range s.Tiles {
		s.Tiles[i] = make([]tile.Tile, height)
	}
	s.Signs = []Sign{}
	s.Chests = []Chest{}
	s.ItemFrames = []DisplayItem{}
	s.LogicSensors = []LogicSensor{}
	s.TrainingDummies = []Position{}
	s.WeaponsRacks = []DisplayItem{}
	s.TeleportationPylons = []Position{}
	s.DisplayDolls = []DisplayItems{}
	s.HatRacks = []DisplayItems{}
	s.FoodPlatters = []DisplayItem{}
	return s
}

func (s *Snapshot) Bounds() tile.Rect {
	return tile.Rect{X: s.X, Y: s.Y, W: s.Width, H: s.Height}
}

// ObjectCount is the total number of placed objects across all categories.
func (s *Snapshot) ObjectCount() int {
	return len(s.Signs) + len(s.Chests) + len(s.ItemFrames) + len(s.LogicSensors) +
		len(s.TrainingDummies) + len(s.WeaponsRacks) + len(s.TeleportationPylons) +
		len(s.DisplayDolls) + len(s.HatRacks) + len(s.FoodPlatters)
}

// Item is an item reference held by a container or display.
type Item struct {
	NetID  int32 `json:"net_id"`
	Stack  int32 `json:"stack"`
	Prefix uint8 `json:"prefix"`
}

type Position struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

type Sign struct {
	Position
	Text string `json:"text"`
}

type Chest struct {
	Position
	Items []Item `json:"items"`
}

type DisplayItem struct {
	Position
	Item Item `json:"item"`
}

type DisplayItems struct {
	Position
	Items []Item `json:"items"`
	Dyes  []Item `json:"dyes"`
}

type LogicSensor struct {
	Position
	Mode int32 `json:"mode"`
}

// Kind identifies a placed-object category.
type Kind uint8

const (
	KindSign Kind = iota + 1
	KindChest
	KindItemFrame
	KindLogicSensor
	KindTrainingDummy
	KindWeaponsRack
	KindTeleportationPylon
	KindDisplayDoll
	KindHatRack
	KindFoodPlatter
)

func (k Kind) String() string {
	switch k {
	case KindSign:
		return "sign"
	case KindChest:
		return "chest"
	case KindItemFrame:
		return "item_frame"
	case KindLogicSensor:
		return "logic_sensor"
	case KindTrainingDummy:
		return "training_dummy"
	case KindWeaponsRack:
		return "weapons_rack"
	case KindTeleportationPylon:
		return "teleportation_pylon"
	case KindDisplayDoll:
		return "display_doll"
	case KindHatRack:
		return "hat_rack"
	case KindFoodPlatter:
		return "food_platter"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k := KindSign; k <= KindFoodPlatter; k++ {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// Payload is the union of per-kind object data. Only the fields that apply to
// the object's kind are meaningful.
type Payload struct {
	Text  string
	Item  Item
	Items []Item
	Dyes  []Item
	Mode  int32
}

// Placed is an object at an absolute world position.
type Placed struct {
	Kind    Kind
	X       int
	Y       int
	Payload Payload
}

// World is the tile surface snapshots are captured from and applied to.
type World interface {
	Bounds() (width, height int)
	Tile(x, y int) tile.Tile
	SetTile(x, y int, t tile.Tile)

	ObjectsIn(r tile.Rect) []Placed
	ClearObjects(r tile.Rect)
	// PlaceObject returns false when the object cannot be placed (no free slot,
	// out of bounds); callers skip it and carry on.
	PlaceObject(p Placed) bool
}
