package game

// Pos is a maze coordinate. (0,0) is the top left corner.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Move represents a single-step move of a bot.
type Move struct {
	Dx int `json:"dx"`
	Dy int `json:"dy"`
}

var (
	North = Move{0, -1}
	South = Move{0, 1}
	East  = Move{1, 0}
	West  = Move{-1, 0}
	Stop  = Move{0, 0}
)

// directions is the fixed evaluation order for legal-move queries, so that
// seeded random choices over legal moves are reproducible.
var directions = []Move{North, East, South, West, Stop}

// Apply returns the position reached by making the move from p.
func (m Move) Apply(p Pos) Pos {
	return Pos{p.X + m.Dx, p.Y + m.Dy}
}

func (m Move) String() string {
	switch m {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	case Stop:
		return "stop"
	}
	return "invalid"
}
