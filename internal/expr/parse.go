package expr

import (
	"errors"
	"fmt"
	"strings"

	"worldedit.ai/internal/sim/catalogs"
	"worldedit.ai/internal/sim/world/regions"
)

// ArgsMarker introduces a filter expression in a command's argument list.
const ArgsMarker = "=>"

// ErrSyntax matches every *SyntaxError with errors.Is.
var ErrSyntax = errors.New("syntax error")

// IDResolver maps names to numeric ids per category.
type IDResolver interface {
	Resolve(cat catalogs.Category, name string) (int, error)
}

// RegionResolver answers named-region lookups.
type RegionResolver interface {
	Lookup(name string) (regions.Region, bool)
	InAnyArea(x, y int) bool
}

// Env is what expressions may refer to.
type Env struct {
	IDs     IDResolver
	Regions RegionResolver
}

func (e Env) resolve(cat catalogs.Category, name string) (int, error) {
	if e.IDs == nil {
		return 0, fmt.Errorf("no %s names available", cat)
	}
	return e.IDs.Resolve(cat, name)
}

// SyntaxError reports a malformed expression, an unknown keyword or a name
// that does not resolve to exactly one id.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
	Err   error
}

func newSyntaxError(input string, pos int, cause error, format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: input, Pos: pos, Msg: fmt.Sprintf(format, args...), Err: cause}
}

func (e *SyntaxError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("syntax error at %d in %q: %s: %v", e.Pos, e.Input, e.Msg, e.Err)
	}
	return fmt.Sprintf("syntax error at %d in %q: %s", e.Pos, e.Input, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// Parse compiles text into an expression tree. Whitespace is ignored and
// matching is case-insensitive.
func Parse(text string, env Env) (Node, error) {
	src := catalogs.Fold(text)
	lx := &lexer{input: src, env: env}
	infix, err := lx.tokenize()
	if err != nil {
		return nil, err
	}
	postfix, err := toPostfix(src, infix)
	if err != nil {
		return nil, err
	}
	return build(src, postfix)
}

// ParseArgs parses the arguments following a leading "=>". ok is false when
// args do not start with the marker; a nil tree and nil error are returned
// then.
func ParseArgs(args []string, env Env) (n Node, ok bool, err error) {
	if len(args) == 0 || args[0] != ArgsMarker {
		return nil, false, nil
	}
	n, err = Parse(strings.Join(args[1:], " "), env)
	return n, true, err
}

// SplitArgs separates command arguments from a trailing filter introduced by
// "=>". The filter slice starts with the marker, or is nil when absent.
func SplitArgs(args []string) (rest, filter []string) {
	for i, a := range args {
		if a == ArgsMarker {
			return args[:i], args[i:]
		}
	}
	return args, nil
}
