package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer tokenizes a normalized expression: whitespace removed and case folded.
type lexer struct {
	input  string
	pos    int
	env    Env
	tokens []Token
}

func (l *lexer) tokenize() ([]Token, error) {
	for l.pos < len(l.input) {
		start := l.pos
		switch ch := l.input[l.pos]; ch {
		case '&', '|':
			op := OpAnd
			if ch == '|' {
				op = OpOr
			}
			l.pos++
			if l.pos < len(l.input) && l.input[l.pos] == ch {
				l.pos++
			}
			l.emit(Token{Type: TokenBinary, Op: op, Pos: start})
			continue
		case '^':
			l.pos++
			l.emit(Token{Type: TokenBinary, Op: OpXor, Pos: start})
			continue
		case '!':
			l.pos++
			l.emit(Token{Type: TokenUnary, Op: OpNot, Pos: start})
			continue
		case '(':
			l.pos++
			l.emit(Token{Type: TokenOpenParen, Pos: start})
			continue
		case ')':
			l.pos++
			l.emit(Token{Type: TokenCloseParen, Pos: start})
			continue
		}

		term := l.readTerm()
		if term == "" {
			r, _ := utf8.DecodeRuneInString(l.input[start:])
			return nil, l.errorf(start, nil, "unexpected character %q", r)
		}
		tok, err := l.test(term, start)
		if err != nil {
			return nil, err
		}
		l.emit(tok)
	}
	return l.tokens, nil
}

func (l *lexer) emit(t Token) {
	if t.Text == "" {
		t.Text = l.input[t.Pos:l.pos]
	}
	l.tokens = append(l.tokens, t)
}

// readTerm consumes a maximal run of letters, digits, '!' and '='.
func (l *lexer) readTerm() string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '!' && r != '=' {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

// test splits a term into keyword and refinement and binds its predicate.
// "kw!=v" is the complement of "kw=v".
func (l *lexer) test(term string, pos int) (Token, error) {
	lhs, rhs, hasRHS := strings.Cut(term, "=")
	bang := false
	if hasRHS {
		if strings.HasSuffix(lhs, "!") {
			lhs = strings.TrimSuffix(lhs, "!")
			bang = true
		}
		if rhs == "" {
			return Token{}, l.errorf(pos, nil, "missing value after = in %q", term)
		}
		if strings.ContainsAny(rhs, "=!") {
			return Token{}, l.errorf(pos, nil, "malformed term %q", term)
		}
	}

	kw, negated, ok := lookupKeyword(lhs)
	if !ok {
		return Token{}, l.errorf(pos, nil, "unknown keyword %q", lhs)
	}
	pred, err := kw.build(l.env, rhs)
	if err != nil {
		return Token{}, l.errorf(pos, err, "%s", term)
	}
	if negated != bang {
		pred = complement(pred)
	}
	return Token{Type: TokenTest, Test: pred, Text: term, Pos: pos}, nil
}

func (l *lexer) errorf(pos int, cause error, format string, args ...any) error {
	return newSyntaxError(l.input, pos, cause, format, args...)
}
