package sexpr

import (
	"strings"
)

// Options tunes the reader for a particular dialect.
type Options struct {
	// FoldCase lower-cases symbols and keywords (PDDL is case-insensitive).
	FoldCase bool
}

// Parse reads every top-level expression in src.
func Parse(src []byte, opts Options) ([]*Expr, error) {
	p := &parser{src: src, line: 1, col: 1, opts: opts}
	var out []*Expr
	for {
		p.skipSpace()
		if p.eof() {
			return out, nil
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

type parser struct {
	src  []byte
	off  int
	line int
	col  int
	opts Options
}

func (p *parser) eof() bool {
	return p.off >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.off]
}

func (p *parser) advance() byte {
	c := p.src[p.off]
	p.off++
	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
	return c
}

func (p *parser) pos() Pos {
	return Pos{Line: p.line, Col: p.col}
}

func (p *parser) skipSpace() {
	for !p.eof() {
		c := p.peek()
		switch {
		case c == ';':
			for !p.eof() && p.peek() != '\n' {
				p.advance()
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			p.advance()
		default:
			return
		}
	}
}

// expr reads one expression with an explicit stack of open lists so that
// deeply nested input cannot exhaust the goroutine stack.
func (p *parser) expr() (*Expr, error) {
	var stack []*Expr
	for {
		p.skipSpace()
		if p.eof() {
			if len(stack) > 0 {
				open := stack[len(stack)-1]
				return nil, &SyntaxError{Pos: open.Pos, Msg: "unclosed list"}
			}
			return nil, &SyntaxError{Pos: p.pos(), Msg: "unexpected end of input"}
		}

		var done *Expr
		switch c := p.peek(); c {
		case '(':
			stack = append(stack, &Expr{Kind: List, Pos: p.pos()})
			p.advance()
			continue
		case ')':
			if len(stack) == 0 {
				return nil, &SyntaxError{Pos: p.pos(), Msg: "unexpected ')'"}
			}
			p.advance()
			done = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		default:
			atom, err := p.atom()
			if err != nil {
				return nil, err
			}
			done = atom
		}

		if len(stack) == 0 {
			return done, nil
		}
		top := stack[len(stack)-1]
		top.Items = append(top.Items, done)
	}
}

func (p *parser) atom() (*Expr, error) {
	start := p.pos()
	switch c := p.peek(); {
	case c == '"':
		return p.stringLit(start)
	case c == '|':
		return p.quotedSymbol(start)
	}

	begin := p.off
	for !p.eof() && !isDelimiter(p.peek()) {
		p.advance()
	}
	text := string(p.src[begin:p.off])

	e := &Expr{Kind: classify(text), Text: text, Pos: start}
	if p.opts.FoldCase && (e.Kind == Symbol || e.Kind == Keyword) {
		e.Text = strings.ToLower(e.Text)
	}
	return e, nil
}

func (p *parser) stringLit(start Pos) (*Expr, error) {
	p.advance()
	var b strings.Builder
	for {
		if p.eof() {
			return nil, &SyntaxError{Pos: start, Msg: "unterminated string literal"}
		}
		c := p.advance()
		if c == '"' {
			if !p.eof() && p.peek() == '"' {
				p.advance()
				b.WriteByte('"')
				continue
			}
			return &Expr{Kind: String, Text: b.String(), Pos: start}, nil
		}
		b.WriteByte(c)
	}
}

func (p *parser) quotedSymbol(start Pos) (*Expr, error) {
	p.advance()
	begin := p.off
	for {
		if p.eof() {
			return nil, &SyntaxError{Pos: start, Msg: "unterminated quoted symbol"}
		}
		if p.peek() == '|' {
			text := string(p.src[begin:p.off])
			p.advance()
			return &Expr{Kind: Symbol, Text: text, Pos: start}, nil
		}
		p.advance()
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', ';', '"', '|', ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func classify(text string) Kind {
	switch {
	case strings.HasPrefix(text, ":"):
		return Keyword
	case strings.HasPrefix(text, "#b") && len(text) > 2 && allIn(text[2:], "01"):
		return Binary
	case strings.HasPrefix(text, "#x") && len(text) > 2 && allIn(strings.ToLower(text[2:]), "0123456789abcdef"):
		return Hex
	case isNumeral(text):
		return Numeral
	case isDecimal(text):
		return Decimal
	default:
		return Symbol
	}
}

func isNumeral(s string) bool {
	return s != "" && allIn(s, "0123456789")
}

func isDecimal(s string) bool {
	dot := strings.IndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return false
	}
	return isNumeral(s[:dot]) && isNumeral(s[dot+1:])
}

func allIn(s, set string) bool {
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(set, s[i]) < 0 {
			return false
		}
	}
	return true
}
