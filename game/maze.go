package game

import (
	"fmt"
	"strings"
)

const (
	wallChar = '#'
	foodChar = '.'
)

// Maze is the static wall layout of a match. It never changes once parsed,
// so Universe copies share the same Maze.
type Maze struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"` // wall rows, '#' for wall, ' ' for free
}

// IsWall reports whether p is a wall or outside the maze.
func (m *Maze) IsWall(p Pos) bool {
	if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
		return true
	}
	return m.Rows[p.Y][p.X] == wallChar
}

// FreePositions returns every non-wall position, row by row.
func (m *Maze) FreePositions() []Pos {
	var free []Pos
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Rows[y][x] != wallChar {
				free = append(free, Pos{x, y})
			}
		}
	}
	return free
}

// parseLayout splits a layout string into the static maze plus the food and
// bot positions it contains. Bots are denoted by their index digit.
func parseLayout(layout string, numberBots int) (*Maze, []Pos, map[int]Pos, error) {
	var lines []string
	for _, line := range strings.Split(layout, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, strings.TrimLeft(line, " \t"))
	}
	if len(lines) == 0 {
		return nil, nil, nil, fmt.Errorf("empty layout")
	}

	width := len(lines[0])
	for i, line := range lines {
		if len(line) != width {
			return nil, nil, nil, fmt.Errorf("layout row %d has width %d, want %d", i, len(line), width)
		}
	}

	var food []Pos
	bots := make(map[int]Pos)
	rows := make([]string, len(lines))
	for y, line := range lines {
		row := make([]byte, width)
		for x := 0; x < width; x++ {
			c := line[x]
			p := Pos{x, y}
			switch {
			case c == wallChar:
				row[x] = wallChar
				continue
			case c == foodChar:
				food = append(food, p)
			case c >= '0' && c <= '9':
				idx := int(c - '0')
				if idx >= numberBots {
					return nil, nil, nil, fmt.Errorf("bot index %d at %v exceeds bot count %d", idx, p, numberBots)
				}
				if _, dup := bots[idx]; dup {
					return nil, nil, nil, fmt.Errorf("bot %d appears twice in layout", idx)
				}
				bots[idx] = p
			case c == ' ':
			default:
				return nil, nil, nil, fmt.Errorf("unknown layout character %q at %v", c, p)
			}
			row[x] = ' '
		}
		rows[y] = string(row)
	}

	if len(bots) != numberBots {
		return nil, nil, nil, fmt.Errorf("layout defines %d bots, want %d", len(bots), numberBots)
	}

	maze := &Maze{Width: width, Height: len(lines), Rows: rows}
	return maze, food, bots, nil
}
