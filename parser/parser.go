package parser

import "fmt"

// Operator precedence levels, lowest first
const (
	PREC_LOWEST     = iota
	PREC_ASSIGN     // =
	PREC_LOGICAL    // && || (parsed, rejected by the generator)
	PREC_EQUALITY   // == != === !==
	PREC_RELATIONAL // < > <= >= instanceof
	PREC_SHIFT      // << >> >>>
	PREC_BITOR      // |
	PREC_BITXOR     // ^
	PREC_BITAND     // &
	PREC_ADDITIVE   // + -
	PREC_MULT       // * / %
	PREC_UNARY      // ! prefix ++ --
	PREC_POSTFIX    // postfix ++ -- () . [] new
)

var precedences = map[TokenType]int{
	TOKEN_ASSIGN:     PREC_ASSIGN,
	TOKEN_AND:        PREC_LOGICAL,
	TOKEN_OR:         PREC_LOGICAL,
	TOKEN_EQ:         PREC_EQUALITY,
	TOKEN_NE:         PREC_EQUALITY,
	TOKEN_STRICT_EQ:  PREC_EQUALITY,
	TOKEN_STRICT_NE:  PREC_EQUALITY,
	TOKEN_LT:         PREC_RELATIONAL,
	TOKEN_GT:         PREC_RELATIONAL,
	TOKEN_LE:         PREC_RELATIONAL,
	TOKEN_GE:         PREC_RELATIONAL,
	TOKEN_INSTANCEOF: PREC_RELATIONAL,
	TOKEN_LSHIFT:     PREC_SHIFT,
	TOKEN_RSHIFT:     PREC_SHIFT,
	TOKEN_URSHIFT:    PREC_SHIFT,
	TOKEN_BITOR:      PREC_BITOR,
	TOKEN_BITXOR:     PREC_BITXOR,
	TOKEN_BITAND:     PREC_BITAND,
	TOKEN_PLUS:       PREC_ADDITIVE,
	TOKEN_MINUS:      PREC_ADDITIVE,
	TOKEN_STAR:       PREC_MULT,
	TOKEN_SLASH:      PREC_MULT,
	TOKEN_PERCENT:    PREC_MULT,
	TOKEN_INC:        PREC_POSTFIX,
	TOKEN_DEC:        PREC_POSTFIX,
	TOKEN_LPAREN:     PREC_POSTFIX,
	TOKEN_DOT:        PREC_POSTFIX,
	TOKEN_LBRACKET:   PREC_POSTFIX,
}

// Parser parses js2f source code into an AST
type Parser struct {
	file  string
	src   string
	lexer *Lexer

	current Token
	peek    Token

	// comments lexed but not yet attached to a statement
	pending []Comment
}

// NewParser creates a new Parser instance
func NewParser(file, src string) *Parser {
	p := &Parser{
		file:  file,
		src:   src,
		lexer: NewLexer(src),
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next significant token, buffering comments
func (p *Parser) nextToken() {
	p.current = p.peek
	for {
		tok := p.lexer.NextToken()
		if tok.Type == TOKEN_LINE_COMMENT || tok.Type == TOKEN_BLOCK_COMMENT {
			p.pending = append(p.pending, Comment{
				Span:  Span{Start: tok.Position.Offset, End: tok.End, Loc: tok.Position},
				Block: tok.Type == TOKEN_BLOCK_COMMENT,
				Text:  tok.Value,
			})
			continue
		}
		p.peek = tok
		return
	}
}

// takeComments drains the buffered comments
func (p *Parser) takeComments() []Comment {
	out := p.pending
	p.pending = nil
	return out
}

// Parse parses a whole source file
func (p *Parser) Parse() (*Program, error) {
	prog := &Program{Span: Span{Loc: Position{Line: 1}}}

	var carried []Comment
	for p.current.Type != TOKEN_EOF {
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
		// Comments lexed past the statement on the same line trail it;
		// the rest lead the next statement.
		_, endLine := p.spanLines(stmt)
		for _, c := range p.takeComments() {
			if c.Loc.Line == endLine {
				stmt.Comments().Trailing = append(stmt.Comments().Trailing, c)
			} else {
				carried = append(carried, c)
			}
		}

		prog.Body = append(prog.Body, stmt)
	}
	prog.Trailing = append(carried, p.takeComments()...)
	prog.End = len(p.src)
	return prog, nil
}

// spanLines returns the start and end source lines covered by a statement
func (p *Parser) spanLines(stmt Stmt) (int, int) {
	start, end := stmt.Range()
	startLine := stmt.Position().Line
	endLine := startLine
	for i := start; i < end && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			endLine++
		}
	}
	return startLine, endLine
}

// errorAt builds a framed syntax error for a token
func (p *Parser) errorAt(tok Token, format string, args ...interface{}) error {
	return &SyntaxError{
		File:  p.file,
		Pos:   tok.Position,
		Start: tok.Position.Offset,
		End:   tok.End,
		Msg:   fmt.Sprintf(format, args...),
		src:   p.src,
	}
}

// expect consumes the current token if it matches, or fails
func (p *Parser) expect(t TokenType) (Token, error) {
	if p.current.Type != t {
		return Token{}, p.errorAt(p.current, "expected %s, found %s", t, p.current.Type)
	}
	tok := p.current
	p.nextToken()
	return tok, nil
}

// span builds a Span from a start token to the given end offset
func span(start Token, end int) Span {
	return Span{Start: start.Position.Offset, End: end, Loc: start.Position}
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.current.Type]; ok {
		return prec
	}
	return PREC_LOWEST
}
