package parser

// parseStatement parses a single statement
func (p *Parser) parseStatement() (Stmt, error) {
	switch p.current.Type {
	case TOKEN_LBRACE:
		return p.parseBlock()
	case TOKEN_VAR, TOKEN_LET, TOKEN_CONST:
		return p.parseVariableDeclaration()
	case TOKEN_FUNCTION:
		return p.parseFunctionDeclaration()
	case TOKEN_IF:
		return p.parseIf()
	case TOKEN_WHILE:
		return p.parseWhile()
	case TOKEN_BREAK:
		return p.parseBreak()
	case TOKEN_RETURN:
		return p.parseReturn()
	default:
		return p.parseExpressionStatement()
	}
}

// parseBlock parses a braced statement list
func (p *Parser) parseBlock() (*BlockStatement, error) {
	open, err := p.expect(TOKEN_LBRACE)
	if err != nil {
		return nil, err
	}

	block := &BlockStatement{}
	var carried []Comment
	for p.current.Type != TOKEN_RBRACE && p.current.Type != TOKEN_EOF {
		if p.current.Type == TOKEN_SEMICOLON {
			p.nextToken()
			continue
		}
		leading := append(carried, p.takeComments()...)
		carried = nil

		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Comments().Leading = leading

		_, endLine := p.spanLines(stmt)
		for _, c := range p.takeComments() {
			if c.Loc.Line == endLine {
				stmt.Comments().Trailing = append(stmt.Comments().Trailing, c)
			} else {
				carried = append(carried, c)
			}
		}
		block.Body = append(block.Body, stmt)
	}
	close, err := p.expect(TOKEN_RBRACE)
	if err != nil {
		return nil, err
	}
	block.Span = span(open, close.End)
	return block, nil
}

// parseVariableDeclaration parses var/let/const with comma declarators
func (p *Parser) parseVariableDeclaration() (Stmt, error) {
	kw := p.current
	p.nextToken()

	decl := &VariableDeclaration{Kind: kw.Value}
	end := kw.End
	for {
		name, err := p.expect(TOKEN_IDENTIFIER)
		if err != nil {
			return nil, err
		}
		d := &VariableDeclarator{
			Span: span(name, name.End),
			ID:   &Identifier{Span: span(name, name.End), Name: name.Value},
		}
		end = name.End
		if p.current.Type == TOKEN_ASSIGN {
			p.nextToken()
			init, err := p.ParseExpression(PREC_ASSIGN - 1)
			if err != nil {
				return nil, err
			}
			d.Init = init
			_, end = init.Range()
			d.End = end
		}
		decl.Declarators = append(decl.Declarators, d)
		if p.current.Type == TOKEN_COMMA {
			p.nextToken()
			continue
		}
		break
	}
	end = p.consumeSemicolon(end)
	decl.Span = span(kw, end)
	return decl, nil
}

// parseFunctionDeclaration parses a named function statement
func (p *Parser) parseFunctionDeclaration() (Stmt, error) {
	fnTok := p.current
	p.nextToken()

	name, err := p.expect(TOKEN_IDENTIFIER)
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunctionDeclaration{
		stmtBase: stmtBase{Span: span(fnTok, body.End)},
		Name:     name.Value,
		Params:   params,
		Body:     body,
	}, nil
}

// parseIf parses an if statement with optional else
func (p *Parser) parseIf() (Stmt, error) {
	ifTok := p.current
	p.nextToken()

	if _, err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	test, err := p.ParseExpression(PREC_LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	consequent, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	stmt := &IfStatement{Test: test, Consequent: consequent}
	_, end := consequent.Range()
	if p.current.Type == TOKEN_ELSE {
		p.nextToken()
		alternate, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmt.Alternate = alternate
		_, end = alternate.Range()
	}
	stmt.Span = span(ifTok, end)
	return stmt, nil
}

// parseWhile parses a while loop
func (p *Parser) parseWhile() (Stmt, error) {
	whileTok := p.current
	p.nextToken()

	if _, err := p.expect(TOKEN_LPAREN); err != nil {
		return nil, err
	}
	test, err := p.ParseExpression(PREC_LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TOKEN_RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	_, end := body.Range()
	return &WhileStatement{
		stmtBase: stmtBase{Span: span(whileTok, end)},
		Test:     test,
		Body:     body,
	}, nil
}

// parseBreak parses a break statement with optional label
func (p *Parser) parseBreak() (Stmt, error) {
	brTok := p.current
	p.nextToken()

	stmt := &BreakStatement{}
	end := brTok.End
	if p.current.Type == TOKEN_IDENTIFIER && p.current.Position.Line == brTok.Position.Line {
		stmt.Label = p.current.Value
		end = p.current.End
		p.nextToken()
	}
	end = p.consumeSemicolon(end)
	stmt.Span = span(brTok, end)
	return stmt, nil
}

// parseReturn parses a return statement with optional argument
func (p *Parser) parseReturn() (Stmt, error) {
	retTok := p.current
	p.nextToken()

	stmt := &ReturnStatement{}
	end := retTok.End
	if p.current.Type != TOKEN_SEMICOLON && p.current.Type != TOKEN_RBRACE &&
		p.current.Type != TOKEN_EOF {
		arg, err := p.ParseExpression(PREC_LOWEST)
		if err != nil {
			return nil, err
		}
		stmt.Argument = arg
		_, end = arg.Range()
	}
	end = p.consumeSemicolon(end)
	stmt.Span = span(retTok, end)
	return stmt, nil
}

// parseExpressionStatement parses an expression used as a statement
func (p *Parser) parseExpressionStatement() (Stmt, error) {
	start := p.current
	expr, err := p.ParseExpression(PREC_LOWEST)
	if err != nil {
		return nil, err
	}
	_, end := expr.Range()
	end = p.consumeSemicolon(end)
	return &ExpressionStatement{
		stmtBase:   stmtBase{Span: span(start, end)},
		Expression: expr,
	}, nil
}

// consumeSemicolon eats an optional statement terminator
func (p *Parser) consumeSemicolon(end int) int {
	if p.current.Type == TOKEN_SEMICOLON {
		end = p.current.End
		p.nextToken()
	}
	return end
}
