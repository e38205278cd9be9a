package filterlang

// Parse parses a filter expression per the grammar:
//
//	expr  := prefix | infix | atom | func | "(" expr ")"
//	infix := expr ("|"|"or") expr | expr ("&"|"and") expr
//	       | expr ("~"|"diff") expr | expr ("^"|"xor") expr
//	prefix:= ("!"|"not") expr
//	func  := id "(" ( expr ("," expr)* )? ")"
//	atom  := num | id | str | pat
//
// Binary operators are left-associative with increasing precedence
// |, &, ~, ^; prefix `!`/`not` binds tighter than any infix operator.
func Parse(src string) (Expr, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr(1)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, &Error{Kind: ErrExpectedEOI, Found: p.cur.kind.name()}
	}
	return expr, nil
}

type parser struct {
	lex *lexer
	cur token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func infixPrecedence(k tokenKind) (int, InfixOp, bool) {
	switch k {
	case tokPipe:
		return 1, OpUnion, true
	case tokAmp:
		return 2, OpInter, true
	case tokTilde:
		return 3, OpDiff, true
	case tokCaret:
		return 4, OpXor, true
	default:
		return 0, 0, false
	}
}

func (p *parser) parseExpr(minPrec int) (Expr, error) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		prec, op, ok := infixPrecedence(p.cur.kind)
		if !ok || prec < minPrec {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = InfixExpr{Op: op, L: lhs, R: rhs}
	}
	return lhs, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.cur.kind {
	case tokBang:
		if err := p.advance(); err != nil {
			return nil, err
		}
		x, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return PrefixExpr{Op: OpNot, X: x}, nil

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr(1)
		if err != nil {
			return nil, err
		}
		if p.cur.kind != tokRParen {
			return nil, &Error{Kind: ErrUnexpectedRules, Expected: []string{"')'"}, Found: p.cur.kind.name()}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return expr, nil

	case tokNum:
		a := Atom{Kind: AtomNum, Num: p.cur.num}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return AtomExpr{Atom: a}, nil

	case tokStr:
		a := Atom{Kind: AtomStr, Str: p.cur.str}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return AtomExpr{Atom: a}, nil

	case tokPat:
		a := p.cur.pat
		if err := p.advance(); err != nil {
			return nil, err
		}
		return AtomExpr{Atom: a}, nil

	case tokIdent:
		return p.parseIdentOrFunc()

	case tokEOF:
		return nil, &Error{Kind: ErrUnexpectedEOI, Expected: []string{"expression"}}

	default:
		return nil, &Error{Kind: ErrUnexpectedRules, Expected: []string{"expression"}, Found: p.cur.kind.name()}
	}
}

func (p *parser) parseIdentOrFunc() (Expr, error) {
	name := p.cur.ident
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.cur.kind != tokLParen {
		return AtomExpr{Atom: Atom{Kind: AtomID, ID: name}}, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	var args []Expr
	if p.cur.kind != tokRParen {
		for {
			arg, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.cur.kind != tokComma {
				break
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}

	if p.cur.kind != tokRParen {
		return nil, &Error{Kind: ErrUnexpectedRules, Expected: []string{"','", "')'"}, Found: p.cur.kind.name()}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	return FuncExpr{Name: name, Args: args}, nil
}
