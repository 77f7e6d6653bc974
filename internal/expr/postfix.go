package expr

// toPostfix reorders infix tokens into postfix. Operators are held on a
// stack with no precedence between &&, || and ^, so a chain of binary
// operators groups to the right: a && b || c is a && (b || c). A pending
// ! is emitted as soon as its operand (a test or a closed group) is
// complete, so !a && b negates only a.
func toPostfix(input string, infix []Token) ([]Token, error) {
	out := make([]Token, 0, len(infix))
	var stack []Token

	popUnary := func() {
		for len(stack) > 0 && stack[len(stack)-1].Type == TokenUnary {
			out = append(out, stack[len(stack)-1])
			stack = stack[:len(stack)-1]
		}
	}

	for _, tok := range infix {
		switch tok.Type {
		case TokenTest:
			out = append(out, tok)
			popUnary()
		case TokenBinary, TokenUnary, TokenOpenParen:
			stack = append(stack, tok)
		case TokenCloseParen:
			for {
				if len(stack) == 0 {
					return nil, newSyntaxError(input, tok.Pos, nil, "unbalanced )")
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Type == TokenOpenParen {
					break
				}
				out = append(out, top)
			}
			popUnary()
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Type == TokenOpenParen {
			return nil, newSyntaxError(input, top.Pos, nil, "unbalanced (")
		}
		out = append(out, top)
	}
	return out, nil
}

// build reduces a postfix stream to a single tree. The first operand popped
// for a binary operator is its right-hand side.
func build(input string, postfix []Token) (Node, error) {
	var stack []Node
	pop := func() Node {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n
	}

	for _, tok := range postfix {
		switch tok.Type {
		case TokenTest:
			stack = append(stack, &Test{Text: tok.Text, Pred: tok.Test})
		case TokenUnary:
			if len(stack) < 1 {
				return nil, newSyntaxError(input, tok.Pos, nil, "missing operand for %s", tok.Op)
			}
			stack = append(stack, &Not{Operand: pop()})
		case TokenBinary:
			if len(stack) < 2 {
				return nil, newSyntaxError(input, tok.Pos, nil, "missing operand for %s", tok.Op)
			}
			right := pop()
			left := pop()
			switch tok.Op {
			case OpAnd:
				stack = append(stack, &And{Left: left, Right: right})
			case OpOr:
				stack = append(stack, &Or{Left: left, Right: right})
			case OpXor:
				stack = append(stack, &Xor{Left: left, Right: right})
			}
		default:
			return nil, newSyntaxError(input, tok.Pos, nil, "unexpected %s", tok.Type)
		}
	}

	switch len(stack) {
	case 0:
		return nil, newSyntaxError(input, 0, nil, "empty expression")
	case 1:
		return stack[0], nil
	default:
		return nil, newSyntaxError(input, len(input), nil, "missing operator between terms")
	}
}
