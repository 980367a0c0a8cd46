// Package levels loads level configurations: which cards a game starts
// with and where they sit. Levels are JSON files named level_<id>.json,
// read from a directory when one is configured and from a small embedded
// set otherwise.
package levels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/janpfeifer/GoPeaks/internal/game"
	"k8s.io/klog/v2"
)

//go:embed defaults/level_*.json
var defaultLevels embed.FS

// ErrUnknownLevel indicates a level id the catalog does not hold.
var ErrUnknownLevel = errors.New("unknown level")

// Info describes one loadable level for listings.
type Info struct {
	ID        int `json:"id"`
	Playfield int `json:"playfield"` // Number of playfield cards
	Stock     int `json:"stock"`     // Number of stock cards
}

// Catalog holds every level parsed at startup, keyed by id.
type Catalog struct {
	layouts map[int]game.Layout
	infos   []Info
}

// Load builds a catalog from dir, or from the embedded default levels
// when dir is empty. Files that do not follow the level_<id>.json name
// are skipped; files that do and fail to parse abort the load.
func Load(dir string) (*Catalog, error) {
	var fsys fs.FS
	if dir == "" {
		sub, err := fs.Sub(defaultLevels, "defaults")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded levels: %w", err)
		}
		fsys = sub
	} else {
		fsys = os.DirFS(dir)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read levels dir: %w", err)
	}

	c := &Catalog{layouts: make(map[int]game.Layout)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := levelID(entry.Name())
		if !ok {
			klog.Warningf("Levels: skipping %q, name is not level_<id>.json", entry.Name())
			continue
		}
		data, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read level %d: %w", id, err)
		}
		layout, err := parseLevel(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse level %d: %w", id, err)
		}
		c.layouts[id] = layout
		c.infos = append(c.infos, Info{
			ID:        id,
			Playfield: len(layout.Playfield),
			Stock:     len(layout.Stock),
		})
	}
	sort.Slice(c.infos, func(i, j int) bool { return c.infos[i].ID < c.infos[j].ID })
	klog.Infof("Levels: loaded %d levels", len(c.infos))
	return c, nil
}

// Layout returns the layout for the given level id. The returned value
// shares the catalog's slices; callers must not modify them.
func (c *Catalog) Layout(id int) (game.Layout, error) {
	layout, ok := c.layouts[id]
	if !ok {
		return game.Layout{}, fmt.Errorf("%w: %d", ErrUnknownLevel, id)
	}
	return layout, nil
}

// List returns every level sorted by id.
func (c *Catalog) List() []Info {
	return c.infos
}

// levelID extracts the id from a level_<id>.json file name.
func levelID(name string) (int, bool) {
	if !strings.HasPrefix(name, "level_") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "level_"), ".json"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// Wire structures for the level file format. Faces and suits are small
// ints, positions sit in level coordinates with the origin at the bottom
// left. Absent fields keep a card rankless and suitless at (0, 0).
type levelFile struct {
	Playfield []cardEntry `json:"Playfield"`
	Stack     []cardEntry `json:"Stack"`
}

type cardEntry struct {
	CardFace *int          `json:"CardFace"`
	CardSuit *int          `json:"CardSuit"`
	Position levelPosition `json:"Position"`
}

type levelPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func parseLevel(data []byte) (game.Layout, error) {
	var file levelFile
	if err := json.Unmarshal(data, &file); err != nil {
		return game.Layout{}, err
	}
	layout := game.Layout{
		Playfield: make([]game.CardSpec, 0, len(file.Playfield)),
		Stock:     make([]game.CardSpec, 0, len(file.Stack)),
	}
	for _, entry := range file.Playfield {
		layout.Playfield = append(layout.Playfield, entry.spec())
	}
	for _, entry := range file.Stack {
		layout.Stock = append(layout.Stock, entry.spec())
	}
	return layout, nil
}

// spec converts one wire entry. Values outside the card enums are kept as
// the none values rather than wrapping into a wrong card.
func (e cardEntry) spec() game.CardSpec {
	s := game.CardSpec{
		Rank: game.RankNone,
		Suit: game.SuitNone,
		Pos:  game.Position{X: e.Position.X, Y: e.Position.Y},
	}
	if e.CardFace != nil && *e.CardFace >= int(game.RankAce) && *e.CardFace <= int(game.RankKing) {
		s.Rank = game.Rank(*e.CardFace)
	}
	if e.CardSuit != nil && *e.CardSuit >= int(game.SuitClubs) && *e.CardSuit <= int(game.SuitSpades) {
		s.Suit = game.Suit(*e.CardSuit)
	}
	return s
}
