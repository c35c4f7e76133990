package game

import (
	"errors"
	"sort"
)

// ErrNoPath is returned by Distance when two positions are not connected.
var ErrNoPath = errors.New("no path between positions")

// AdjacencyList is a graph over the free squares of a maze. It backs the
// noise engine's distance queries and is built once per match.
type AdjacencyList map[Pos][]Pos

// NewAdjacencyList builds the adjacency graph of every free square in the
// universe's maze.
func NewAdjacencyList(u *Universe) AdjacencyList {
	adjacency := make(AdjacencyList)
	for _, p := range u.Maze.FreePositions() {
		var neighbors []Pos
		for _, m := range []Move{North, East, South, West} {
			if q := m.Apply(p); !u.Maze.IsWall(q) {
				neighbors = append(neighbors, q)
			}
		}
		adjacency[p] = neighbors
	}
	return adjacency
}

// Distance returns the length in steps of a shortest path from one position
// to the other, or ErrNoPath if none exists.
func (a AdjacencyList) Distance(from, to Pos) (int, error) {
	if _, ok := a[from]; !ok {
		return 0, ErrNoPath
	}
	if from == to {
		return 0, nil
	}
	visited := map[Pos]bool{from: true}
	frontier := []Pos{from}
	for depth := 1; len(frontier) > 0; depth++ {
		var next []Pos
		for _, p := range frontier {
			for _, q := range a[p] {
				if visited[q] {
					continue
				}
				if q == to {
					return depth, nil
				}
				visited[q] = true
				next = append(next, q)
			}
		}
		frontier = next
	}
	return 0, ErrNoPath
}

// PosWithin returns every position reachable from p in at most radius steps,
// including p itself, in a deterministic row-by-row order.
func (a AdjacencyList) PosWithin(p Pos, radius int) []Pos {
	visited := map[Pos]bool{p: true}
	frontier := []Pos{p}
	for depth := 0; depth < radius && len(frontier) > 0; depth++ {
		var next []Pos
		for _, q := range frontier {
			for _, r := range a[q] {
				if !visited[r] {
					visited[r] = true
					next = append(next, r)
				}
			}
		}
		frontier = next
	}

	positions := make([]Pos, 0, len(visited))
	for q := range visited {
		positions = append(positions, q)
	}
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Y != positions[j].Y {
			return positions[i].Y < positions[j].Y
		}
		return positions[i].X < positions[j].X
	})
	return positions
}
