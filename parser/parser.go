package parser

import (
	"github.com/clinical-elm/cql/internal/lexer"
	"github.com/clinical-elm/cql/model"
)

// Config controls parser behavior; a zero Config is the default (CQL dialect, no extensions).
// Mirrors the teacher's parser.Config struct-of-options, SPEC_FULL.md §3.
type Config struct {
	// FHIRPath selects the FHIRPath dialect (no library header, no define statements, a single
	// top-level expression) instead of full CQL.
	FHIRPath bool
}

// Parser holds the token buffer and accumulated diagnostics for one parse. Not safe for
// concurrent use; construct a fresh Parser (via New) per source unit.
type Parser struct {
	cfg    Config
	toks   []lexer.Token
	pos    int
	diags  Diagnostics
}

// New constructs a Parser over src with the given Config.
func New(src string, cfg Config) *Parser {
	toks, lexErrs := lexer.All(src)
	p := &Parser{cfg: cfg, toks: toks}
	for _, e := range lexErrs {
		p.diags.addf(e.Line, e.Col, "%s", e.Reason)
	}
	return p
}

// ParseLibrary parses a full CQL library (the `library ... using ... define ...` form).
func ParseLibrary(src string) (*model.Library, Diagnostics) {
	p := New(src, Config{})
	lib := p.parseLibrary()
	return lib, p.diags
}

// ParseExpression parses a single FHIRPath/CQL expression with no library header, for
// cql.Engine.EvaluateExpression.
func ParseExpression(src string) (model.IExpression, Diagnostics) {
	p := New(src, Config{FHIRPath: true})
	expr := p.parseExprStatement()
	return expr, p.diags
}

func (p *Parser) parseExprStatement() model.IExpression {
	if p.atEOF() {
		return model.NewLiteral("", nil)
	}
	e := p.parseExpr(precLowest)
	if !p.atEOF() {
		p.errorf("unexpected trailing input %q", p.cur().Text)
	}
	return e
}

// --- token stream helpers ---

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) lexer.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

// isPunct reports whether the current token is punctuation text s.
func (p *Parser) isPunct(s string) bool {
	return p.cur().Kind == lexer.Punct && p.cur().Text == s
}

// isKeyword reports whether the current token is the identifier/keyword spelled s
// (case-sensitive, matching CQL's reserved-word casing).
func (p *Parser) isKeyword(s string) bool {
	t := p.cur()
	return (t.Kind == lexer.Ident) && t.Text == s
}

func (p *Parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptKeyword(s string) bool {
	if p.isKeyword(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectPunct(s string) bool {
	if p.acceptPunct(s) {
		return true
	}
	p.errorf("expected %q, found %q", s, p.cur().Text)
	return false
}

func (p *Parser) expectKeyword(s string) bool {
	if p.acceptKeyword(s) {
		return true
	}
	p.errorf("expected keyword %q, found %q", s, p.cur().Text)
	return false
}

func (p *Parser) errorf(format string, args ...any) {
	t := p.cur()
	p.diags.addf(t.Line, t.Col, format, args...)
}

// recoverToStatementBoundary skips tokens until the next `define`/`context`/EOF, used after a
// malformed top-level statement so the rest of the library still parses, per spec.md §4.5's
// "errors recover to the next statement boundary ... and continue".
func (p *Parser) recoverToStatementBoundary() {
	for !p.atEOF() {
		if p.isKeyword("define") || p.isKeyword("context") || p.isKeyword("valueset") ||
			p.isKeyword("codesystem") || p.isKeyword("parameter") || p.isKeyword("include") {
			return
		}
		p.advance()
	}
}
