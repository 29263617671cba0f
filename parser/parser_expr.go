package parser

// ParseExpression parses an expression at the given precedence level
func (p *Parser) ParseExpression(prec int) (Expr, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for prec < p.curPrecedence() {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

// parsePrefix parses a prefix expression or primary
func (p *Parser) parsePrefix() (Expr, error) {
	tok := p.current
	switch tok.Type {
	case TOKEN_NUMBER:
		p.nextToken()
		return &NumericLiteral{Span: span(tok, tok.End), Raw: tok.Value}, nil
	case TOKEN_BIGINT:
		p.nextToken()
		return &BigIntLiteral{Span: span(tok, tok.End), Raw: tok.Value}, nil
	case TOKEN_STRING:
		p.nextToken()
		return &StringLiteral{Span: span(tok, tok.End), Value: tok.Value}, nil
	case TOKEN_TEMPLATE:
		p.nextToken()
		return p.parseTemplate(tok)
	case TOKEN_REGEXP:
		p.nextToken()
		return &RegExpLiteral{Span: span(tok, tok.End), Raw: tok.Value}, nil
	case TOKEN_TRUE, TOKEN_FALSE:
		p.nextToken()
		return &BooleanLiteral{Span: span(tok, tok.End), Value: tok.Type == TOKEN_TRUE}, nil
	case TOKEN_NULL:
		p.nextToken()
		return &NullLiteral{Span: span(tok, tok.End)}, nil
	case TOKEN_IDENTIFIER:
		p.nextToken()
		return &Identifier{Span: span(tok, tok.End), Name: tok.Value}, nil
	case TOKEN_THIS:
		p.nextToken()
		return &ThisExpression{Span: span(tok, tok.End)}, nil
	case TOKEN_NOT, TOKEN_MINUS, TOKEN_PLUS, TOKEN_TILDE, TOKEN_TYPEOF:
		p.nextToken()
		arg, err := p.ParseExpression(PREC_UNARY)
		if err != nil {
			return nil, err
		}
		_, end := arg.Range()
		return &UnaryExpression{Span: span(tok, end), Operator: tok.Value, Argument: arg}, nil
	case TOKEN_INC, TOKEN_DEC:
		p.nextToken()
		arg, err := p.ParseExpression(PREC_UNARY)
		if err != nil {
			return nil, err
		}
		_, end := arg.Range()
		return &UpdateExpression{Span: span(tok, end), Operator: tok.Value, Prefix: true, Argument: arg}, nil
	case TOKEN_LPAREN:
		p.nextToken()
		expr, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TOKEN_RPAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case TOKEN_LBRACKET:
		return p.parseArray()
	case TOKEN_NEW:
		return p.parseNew()
	case TOKEN_FUNCTION:
		return p.parseFunctionExpression()
	default:
		return nil, p.errorAt(tok, "unexpected token %s in expression", tok.Type)
	}
}

// parseInfix parses one infix or postfix continuation of left
func (p *Parser) parseInfix(left Expr) (Expr, error) {
	tok := p.current
	switch tok.Type {
	case TOKEN_ASSIGN:
		p.nextToken()
		// Right-associative
		right, err := p.ParseExpression(PREC_ASSIGN - 1)
		if err != nil {
			return nil, err
		}
		start, _ := left.Range()
		_, end := right.Range()
		return &AssignmentExpression{
			Span:     Span{Start: start, End: end, Loc: left.Position()},
			Operator: "=",
			Left:     left,
			Right:    right,
		}, nil
	case TOKEN_INC, TOKEN_DEC:
		p.nextToken()
		start, _ := left.Range()
		return &UpdateExpression{
			Span:     Span{Start: start, End: tok.End, Loc: left.Position()},
			Operator: tok.Value,
			Prefix:   false,
			Argument: left,
		}, nil
	case TOKEN_LPAREN:
		args, end, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		start, _ := left.Range()
		return &CallExpression{
			Span:      Span{Start: start, End: end, Loc: left.Position()},
			Callee:    left,
			Arguments: args,
		}, nil
	case TOKEN_DOT:
		p.nextToken()
		name, err := p.expect(TOKEN_IDENTIFIER)
		if err != nil {
			return nil, err
		}
		start, _ := left.Range()
		return &MemberExpression{
			Span:     Span{Start: start, End: name.End, Loc: left.Position()},
			Object:   left,
			Property: &Identifier{Span: span(name, name.End), Name: name.Value},
		}, nil
	case TOKEN_LBRACKET:
		p.nextToken()
		prop, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		close, err := p.expect(TOKEN_RBRACKET)
		if err != nil {
			return nil, err
		}
		start, _ := left.Range()
		return &MemberExpression{
			Span:     Span{Start: start, End: close.End, Loc: left.Position()},
			Object:   left,
			Property: prop,
			Computed: true,
		}, nil
	default:
		// Binary operator
		if _, ok := precedences[tok.Type]; !ok {
			return nil, p.errorAt(tok, "unexpected token %s", tok.Type)
		}
		prec := p.curPrecedence()
		p.nextToken()
		right, err := p.ParseExpression(prec)
		if err != nil {
			return nil, err
		}
		start, _ := left.Range()
		_, end := right.Range()
		return &BinaryExpression{
			Span:     Span{Start: start, End: end, Loc: left.Position()},
			Operator: tok.Value,
			Left:     left,
			Right:    right,
		}, nil
	}
}

// parseArray parses an array literal
func (p *Parser) parseArray() (Expr, error) {
	open := p.current
	p.nextToken()

	var elems []Expr
	for p.current.Type != TOKEN_RBRACKET && p.current.Type != TOKEN_EOF {
		elem, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.current.Type == TOKEN_COMMA {
			p.nextToken()
		} else {
			break
		}
	}
	close, err := p.expect(TOKEN_RBRACKET)
	if err != nil {
		return nil, err
	}
	return &ArrayExpression{Span: span(open, close.End), Elements: elems}, nil
}

// parseNew parses a new-expression. Member accesses bind to the callee
// before the argument list: new a.b.C(x) constructs a.b.C.
func (p *Parser) parseNew() (Expr, error) {
	newTok := p.current
	p.nextToken()

	callee, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	for p.current.Type == TOKEN_DOT || p.current.Type == TOKEN_LBRACKET {
		callee, err = p.parseInfix(callee)
		if err != nil {
			return nil, err
		}
	}

	var args []Expr
	_, end := callee.Range()
	if p.current.Type == TOKEN_LPAREN {
		args, end, err = p.parseArguments()
		if err != nil {
			return nil, err
		}
	}
	return &NewExpression{Span: span(newTok, end), Callee: callee, Arguments: args}, nil
}

// parseArguments parses a parenthesized argument list; returns the end offset
func (p *Parser) parseArguments() ([]Expr, int, error) {
	if _, err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, 0, err
	}
	var args []Expr
	for p.current.Type != TOKEN_RPAREN && p.current.Type != TOKEN_EOF {
		arg, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, 0, err
		}
		args = append(args, arg)
		if p.current.Type == TOKEN_COMMA {
			p.nextToken()
		} else {
			break
		}
	}
	close, err := p.expect(TOKEN_RPAREN)
	if err != nil {
		return nil, 0, err
	}
	return args, close.End, nil
}

// parseFunctionExpression parses a function literal in expression position
func (p *Parser) parseFunctionExpression() (Expr, error) {
	fnTok := p.current
	p.nextToken()

	name := ""
	if p.current.Type == TOKEN_IDENTIFIER {
		name = p.current.Value
		p.nextToken()
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunctionExpression{
		Span:   span(fnTok, body.End),
		Name:   name,
		Params: params,
		Body:   body,
	}, nil
}

// parseParams parses a parenthesized parameter list
func (p *Parser) parseParams() ([]*Identifier, error) {
	if _, err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	var params []*Identifier
	for p.current.Type != TOKEN_RPAREN && p.current.Type != TOKEN_EOF {
		tok, err := p.expect(TOKEN_IDENTIFIER)
		if err != nil {
			return nil, err
		}
		params = append(params, &Identifier{Span: span(tok, tok.End), Name: tok.Value})
		if p.current.Type == TOKEN_COMMA {
			p.nextToken()
		} else {
			break
		}
	}
	if _, err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	return params, nil
}

// parseTemplate splits a template literal body into string chunks and
// interpolated expressions. Each interpolation source is parsed with a
// sub-parser.
func (p *Parser) parseTemplate(tok Token) (Expr, error) {
	body := tok.Value
	tpl := &TemplateLiteral{Span: span(tok, tok.End)}

	var chunk []byte
	i := 0
	for i < len(body) {
		ch := body[i]
		if ch == '\\' && i+1 < len(body) {
			switch body[i+1] {
			case 'n':
				chunk = append(chunk, '\n')
			case 't':
				chunk = append(chunk, '\t')
			case 'r':
				chunk = append(chunk, '\r')
			case 'b':
				chunk = append(chunk, '\b')
			case 'f':
				chunk = append(chunk, '\f')
			default:
				chunk = append(chunk, body[i+1])
			}
			i += 2
			continue
		}
		if ch == '$' && i+1 < len(body) && body[i+1] == '{' {
			// Find the matching close brace
			depth := 1
			j := i + 2
			for j < len(body) && depth > 0 {
				switch body[j] {
				case '{':
					depth++
				case '}':
					depth--
				}
				j++
			}
			if depth != 0 {
				return nil, p.errorAt(tok, "unterminated template interpolation")
			}
			exprSrc := body[i+2 : j-1]
			sub := NewParser(p.file, exprSrc)
			expr, err := sub.ParseExpression(PREC_LOWEST)
			if err != nil {
				return nil, err
			}
			if sub.current.Type != TOKEN_EOF {
				return nil, p.errorAt(tok, "unexpected %s in template interpolation", sub.current.Type)
			}
			tpl.Quasis = append(tpl.Quasis, string(chunk))
			tpl.Expressions = append(tpl.Expressions, expr)
			chunk = nil
			i = j
			continue
		}
		chunk = append(chunk, ch)
		i++
	}
	tpl.Quasis = append(tpl.Quasis, string(chunk))
	return tpl, nil
}
