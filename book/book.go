// Package book persists opening-book subtrees between games. The format is
// a gob snapshot of every node that earned enough playouts; loading seeds a
// fresh tree with those statistics.
package book

import (
	"encoding/gob"
	"fmt"
	"os"

	"baduk/game"
	"baduk/searcher"

	"github.com/rs/zerolog/log"
)

type nodeSnapshot struct {
	Coord    int16
	Playouts int32
	Sum      float64
	Children []nodeSnapshot
}

type bookSnapshot struct {
	BoardSize int
	RootColor uint8
	Root      nodeSnapshot
}

// DefaultPath names the book file for a board size.
func DefaultPath(boardSize int) string {
	return fmt.Sprintf("book_%d.dat", boardSize)
}

// Save writes every subtree of t whose root collected at least minPlayouts
// games. The tree must be quiescent; Save is called between searches.
func Save(t *searcher.Tree, b *game.Board, minPlayouts int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create book file: %w", err)
	}
	defer f.Close()

	snap := bookSnapshot{
		BoardSize: b.Size(),
		RootColor: uint8(t.RootColor),
		Root:      snapshotNode(t.Root, int32(minPlayouts)),
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode book: %w", err)
	}
	log.Info().Str("path", path).Int64("nodes", countNodes(&snap.Root)).Msg("book saved")
	return nil
}

func snapshotNode(n *searcher.Node, minPlayouts int32) nodeSnapshot {
	snap := nodeSnapshot{
		Coord:    int16(n.Coord),
		Playouts: n.Playouts(),
		Sum:      float64(n.Playouts()) * n.Value(),
	}
	for _, child := range n.Children() {
		if child.Playouts() < minPlayouts {
			continue
		}
		snap.Children = append(snap.Children, snapshotNode(child, minPlayouts))
	}
	return snap
}

func countNodes(snap *nodeSnapshot) int64 {
	n := int64(1)
	for i := range snap.Children {
		n += countNodes(&snap.Children[i])
	}
	return n
}

// Load seeds t, which must be freshly initialized for b's position, with the
// book statistics. A missing book file is a soft condition.
func Load(t *searcher.Tree, b *game.Board, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open book file: %w", err)
	}
	defer f.Close()

	var snap bookSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode book: %w", err)
	}
	if snap.BoardSize != b.Size() {
		return fmt.Errorf("book is for board size %d, not %d", snap.BoardSize, b.Size())
	}
	if game.Color(snap.RootColor) != t.RootColor {
		return fmt.Errorf("book root color %v does not match tree", game.Color(snap.RootColor))
	}

	t.Root.SeedStats(snap.Root.Playouts, snap.Root.Sum)
	loadChildren(t, t.Root, snap.Root.Children)
	log.Info().Str("path", path).Int64("nodes", countNodes(&snap.Root)).Msg("book loaded")
	return nil
}

func loadChildren(t *searcher.Tree, parent *searcher.Node, snaps []nodeSnapshot) {
	if len(snaps) == 0 {
		return
	}
	children := make([]*searcher.Node, 0, len(snaps))
	for i := range snaps {
		snap := &snaps[i]
		child := t.SeedChild(parent, game.Coord(snap.Coord), snap.Playouts, snap.Sum)
		if child == nil {
			return
		}
		children = append(children, child)
	}
	for i, child := range children {
		loadChildren(t, child, snaps[i].Children)
	}
}
