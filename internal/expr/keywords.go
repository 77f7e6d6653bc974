package expr

import (
	"fmt"
	"strconv"
	"strings"

	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/tile"
)

// builder binds a keyword's predicate for a refinement value; rhs is "" when
// the term has no "=value".
type builder func(env Env, rhs string) (Predicate, error)

type keyword struct {
	name  string
	build builder
}

var keywords = map[string]*keyword{}

// register adds a keyword under each alias. Every alias also gets an
// n-prefixed form that matches the exact complement.
func register(b builder, aliases ...string) {
	kw := &keyword{name: aliases[0], build: b}
	for _, a := range aliases {
		if _, dup := keywords[a]; dup {
			panic("expr: duplicate keyword " + a)
		}
		keywords[a] = kw
	}
}

func lookupKeyword(lhs string) (kw *keyword, negated, ok bool) {
	if kw, ok := keywords[lhs]; ok {
		return kw, false, true
	}
	if rest, found := strings.CutPrefix(lhs, "n"); found {
		if kw, ok := keywords[rest]; ok {
			return kw, true, true
		}
	}
	return nil, false, false
}

// Keywords lists the primary keyword names.
func Keywords() []string {
	seen := map[string]bool{}
	var out []string
	for _, kw := range keywords {
		if !seen[kw.name] {
			seen[kw.name] = true
			out = append(out, kw.name)
		}
	}
	return out
}

func init() {
	register(idTest(catalogs.Tile,
		func(t tile.Tile) bool { return t.Active() },
		func(t tile.Tile, id int) bool { return t.Active() && int(t.Type) == id },
	), "tile", "t")
	register(idTest(catalogs.Wall,
		func(t tile.Tile) bool { return t.Wall != 0 },
		func(t tile.Tile, id int) bool { return int(t.Wall) == id },
	), "wall", "w")
	register(idTest(catalogs.Color,
		func(t tile.Tile) bool { return t.Active() && t.Color() != 0 },
		func(t tile.Tile, id int) bool { return t.Active() && int(t.Color()) == id },
	), "tilepaint", "tp")
	register(idTest(catalogs.Color,
		func(t tile.Tile) bool { return t.Wall != 0 && t.WallColor() != 0 },
		func(t tile.Tile, id int) bool { return t.Wall != 0 && int(t.WallColor()) == id },
	), "wallpaint", "wp")
	register(coatTest(
		func(t tile.Tile) bool { return t.Active() },
		tile.Tile.FullBrightBlock, tile.Tile.InvisibleBlock,
	), "tilecoat", "tc")
	register(coatTest(
		func(t tile.Tile) bool { return t.Wall != 0 },
		tile.Tile.FullBrightWall, tile.Tile.InvisibleWall,
	), "wallcoat", "wc")

	register(liquidTest, "liquid", "li")
	register(liquidKind(tile.Water), "water", "lw")
	register(liquidKind(tile.Lava), "lava", "ll")
	register(liquidKind(tile.Honey), "honey", "lh")
	register(liquidKind(tile.Shimmer), "shimmer", "ls")

	register(wireTest, "wire")
	register(wireChannel(1), "wire1", "wirered", "redwire")
	register(wireChannel(2), "wire2", "wireblue", "bluewire")
	register(wireChannel(3), "wire3", "wiregreen", "greenwire")
	register(wireChannel(4), "wire4", "wireyellow", "yellowwire")

	register(flag(func(t tile.Tile) bool { return t.Active() && !t.Inactive() }), "active", "a")
	register(flag(tile.Tile.Actuator), "actuator", "ac")
	register(slopeTest, "slope", "s")
	register(regionTest, "region", "r")
}

func idTest(cat catalogs.Category, has func(tile.Tile) bool, is func(tile.Tile, int) bool) builder {
	return func(env Env, rhs string) (Predicate, error) {
		if rhs == "" {
			return func(t tile.Tile, _, _ int) bool { return has(t) }, nil
		}
		id, err := env.resolve(cat, rhs)
		if err != nil {
			return nil, err
		}
		return func(t tile.Tile, _, _ int) bool { return is(t, id) }, nil
	}
}

// coatTest: coat 0 means neither coating is present.
func coatTest(present func(tile.Tile) bool, bright, invisible func(tile.Tile) bool) builder {
	return func(env Env, rhs string) (Predicate, error) {
		if rhs == "" {
			return func(t tile.Tile, _, _ int) bool { return present(t) && (bright(t) || invisible(t)) }, nil
		}
		id, err := env.resolve(catalogs.Coat, rhs)
		if err != nil {
			return nil, err
		}
		switch tile.Coat(id) {
		case tile.CoatNone:
			return func(t tile.Tile, _, _ int) bool { return present(t) && !bright(t) && !invisible(t) }, nil
		case tile.CoatFullBright:
			return func(t tile.Tile, _, _ int) bool { return present(t) && bright(t) }, nil
		case tile.CoatInvisible:
			return func(t tile.Tile, _, _ int) bool { return present(t) && invisible(t) }, nil
		}
		return nil, fmt.Errorf("coat %d: %w", id, catalogs.ErrOutOfRange)
	}
}

func liquidTest(_ Env, rhs string) (Predicate, error) {
	if rhs == "" {
		return func(t tile.Tile, _, _ int) bool { return t.Liquid > 0 }, nil
	}
	kind, ok := tile.LiquidNames[rhs]
	if !ok {
		n, err := strconv.Atoi(rhs)
		if err != nil || n < 0 || n > int(tile.Shimmer) {
			return nil, fmt.Errorf("liquid %q: %w", rhs, catalogs.ErrUnknownName)
		}
		kind = tile.Liquid(n)
	}
	return func(t tile.Tile, _, _ int) bool { return t.Liquid > 0 && t.LiquidKind() == kind }, nil
}

func liquidKind(kind tile.Liquid) builder {
	return flag(func(t tile.Tile) bool { return t.Liquid > 0 && t.LiquidKind() == kind })
}

var wireNames = map[string]int{
	"1": 1, "red": 1,
	"2": 2, "blue": 2,
	"3": 3, "green": 3,
	"4": 4, "yellow": 4,
}

// wireTest: bare "wire" is the red channel; "wire=<channel>" picks one.
func wireTest(_ Env, rhs string) (Predicate, error) {
	ch := 1
	if rhs != "" {
		n, ok := wireNames[rhs]
		if !ok {
			return nil, fmt.Errorf("wire channel %q: %w", rhs, catalogs.ErrUnknownName)
		}
		ch = n
	}
	return func(t tile.Tile, _, _ int) bool { return t.Wire(ch) }, nil
}

func wireChannel(ch int) builder {
	return flag(func(t tile.Tile) bool { return t.Wire(ch) })
}

// flag builds a keyword whose optional refinement is a boolean.
func flag(f func(tile.Tile) bool) builder {
	return func(_ Env, rhs string) (Predicate, error) {
		want := true
		if rhs != "" {
			b, err := strconv.ParseBool(rhs)
			if err != nil {
				return nil, fmt.Errorf("expected a boolean, got %q", rhs)
			}
			want = b
		}
		return func(t tile.Tile, _, _ int) bool { return f(t) == want }, nil
	}
}

func slopeTest(env Env, rhs string) (Predicate, error) {
	if rhs == "" {
		return func(t tile.Tile, _, _ int) bool { return t.Slope() != 0 || t.HalfBrick() }, nil
	}
	id, err := env.resolve(catalogs.Slope, rhs)
	if err != nil {
		return nil, err
	}
	switch {
	case id == tile.SlopeNone:
		return func(t tile.Tile, _, _ int) bool { return t.Active() && t.Slope() == 0 && !t.HalfBrick() }, nil
	case id == tile.SlopeHalf:
		return func(t tile.Tile, _, _ int) bool { return t.Active() && t.HalfBrick() }, nil
	case id < tile.MaxSlope:
		stored := uint8(id - 1)
		return func(t tile.Tile, _, _ int) bool { return t.Active() && t.Slope() == stored }, nil
	}
	return nil, fmt.Errorf("slope %d: %w", id, catalogs.ErrOutOfRange)
}

func regionTest(env Env, rhs string) (Predicate, error) {
	if env.Regions == nil {
		return nil, fmt.Errorf("no regions available")
	}
	if rhs == "" {
		rs := env.Regions
		return func(_ tile.Tile, x, y int) bool { return rs.InAnyArea(x, y) }, nil
	}
	r, ok := env.Regions.Lookup(rhs)
	if !ok {
		return nil, fmt.Errorf("region %q: %w", rhs, catalogs.ErrUnknownName)
	}
	return func(_ tile.Tile, x, y int) bool { return r.InArea(x, y) }, nil
}
