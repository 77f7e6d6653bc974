// Package expr compiles tile filter expressions such as
// "tile=dirt && !wire" into predicates evaluated once per tile.
package expr

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenTest       TokenType = iota // keyword term, e.g. tile=dirt
	TokenBinary                      // && & || | ^
	TokenUnary                       // !
	TokenOpenParen                   // (
	TokenCloseParen                  // )
)

func (t TokenType) String() string {
	switch t {
	case TokenTest:
		return "TEST"
	case TokenBinary:
		return "BINARY"
	case TokenUnary:
		return "UNARY"
	case TokenOpenParen:
		return "LPAREN"
	case TokenCloseParen:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// Operator identifies the operator of a TokenBinary or TokenUnary token.
type Operator int

const (
	OpNone Operator = iota
	OpAnd
	OpOr
	OpXor
	OpNot
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpXor:
		return "^"
	case OpNot:
		return "!"
	default:
		return ""
	}
}

// Token represents a single lexical token.
type Token struct {
	Type TokenType
	Op   Operator
	Test Predicate // for TokenTest
	Text string    // raw text
	Pos  int       // byte offset in the normalized input
}
