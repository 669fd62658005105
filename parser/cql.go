package parser

import (
	"github.com/clinical-elm/cql/internal/lexer"
	"github.com/clinical-elm/cql/model"
)

// parseLibrary parses the full CQL library grammar: an optional `library` header, then any
// mixture of using/include/parameter/codesystem/valueset/code/concept/context/define statements
// in source order. Per spec.md §4.5 a malformed statement is diagnosed and skipped via
// recoverToStatementBoundary so the rest of the library still parses.
func (p *Parser) parseLibrary() *model.Library {
	lib := &model.Library{Statements: &model.Statements{}}

	if p.acceptKeyword("library") {
		name := p.advance().Text
		version := ""
		if p.acceptKeyword("version") {
			version = p.advance().Text
		}
		lib.Identifier = &model.LibraryIdentifier{Local: name, Qualified: name, Version: version}
		p.acceptPunct(";")
	}

	currentContext := "Patient"
	for !p.atEOF() {
		switch {
		case p.acceptKeyword("using"):
			p.parseUsing(lib)
		case p.acceptKeyword("include"):
			p.parseInclude(lib)
		case p.acceptKeyword("parameter"):
			p.parseParameter(lib)
		case p.acceptKeyword("codesystem"):
			p.parseCodeSystem(lib)
		case p.acceptKeyword("valueset"):
			p.parseValueset(lib)
		case p.acceptKeyword("code"):
			p.parseCodeDef(lib)
		case p.acceptKeyword("concept"):
			p.parseConceptDef(lib)
		case p.acceptKeyword("context"):
			currentContext = p.advance().Text
			lib.Contexts = append(lib.Contexts, currentContext)
			p.acceptPunct(";")
		case p.acceptKeyword("define"):
			p.parseDefine(lib, currentContext)
		default:
			p.errorf("unexpected top-level token %q", p.cur().Text)
			p.advance()
			p.recoverToStatementBoundary()
		}
	}
	return lib
}

func (p *Parser) parseUsing(lib *model.Library) {
	name := p.advance().Text
	version := ""
	if p.acceptKeyword("version") {
		version = p.advance().Text
	}
	lib.Usings = append(lib.Usings, &model.Using{LocalIdentifier: name, Version: version})
	p.acceptPunct(";")
}

func (p *Parser) parseInclude(lib *model.Library) {
	name := p.advance().Text
	version := ""
	if p.acceptKeyword("version") {
		version = p.advance().Text
	}
	alias := name
	if p.acceptKeyword("called") {
		alias = p.advance().Text
	}
	lib.Includes = append(lib.Includes, &model.Include{
		Identifier: &model.LibraryIdentifier{Local: name, Qualified: name, Version: version},
		Alias:      alias,
	})
	p.acceptPunct(";")
}

func (p *Parser) parseParameter(lib *model.Library) {
	name := p.advance().Text
	pd := &model.ParameterDef{Element: &model.Element{}, Name: name, AccessLevel: model.Public}
	if p.cur().Kind == lexer.Ident && !p.isKeyword("default") {
		pd.SetResultType(p.parseTypeSpecifier())
	}
	if p.acceptKeyword("default") {
		pd.Default = p.parseExpr(precLowest)
	}
	lib.Parameters = append(lib.Parameters, pd)
	p.acceptPunct(";")
}

func (p *Parser) parseCodeSystem(lib *model.Library) {
	name := p.advance().Text
	p.expectPunct(":")
	id := p.advance().Text
	version := ""
	if p.acceptKeyword("version") {
		version = p.advance().Text
	}
	lib.CodeSystems = append(lib.CodeSystems, &model.CodeSystemDef{
		Element: &model.Element{}, Name: name, ID: id, Version: version, AccessLevel: model.Public,
	})
	p.acceptPunct(";")
}

func (p *Parser) parseValueset(lib *model.Library) {
	name := p.advance().Text
	p.expectPunct(":")
	id := p.advance().Text
	version := ""
	if p.acceptKeyword("version") {
		version = p.advance().Text
	}
	var systems []*model.CodeSystemRef
	if p.acceptKeyword("codesystems") || p.acceptKeyword("codesystem") {
		p.expectPunct("{")
		for !p.isPunct("}") && !p.atEOF() {
			systems = append(systems, &model.CodeSystemRef{Expression: model.NewExpression(), Name: p.advance().Text})
			if !p.acceptPunct(",") {
				break
			}
		}
		p.expectPunct("}")
	}
	lib.Valuesets = append(lib.Valuesets, &model.ValuesetDef{
		Element: &model.Element{}, Name: name, ID: id, Version: version, CodeSystems: systems, AccessLevel: model.Public,
	})
	p.acceptPunct(";")
}

func (p *Parser) parseCodeDef(lib *model.Library) {
	name := p.advance().Text
	p.expectPunct(":")
	code := p.advance().Text
	var sys *model.CodeSystemRef
	if p.acceptKeyword("from") {
		sys = &model.CodeSystemRef{Expression: model.NewExpression(), Name: p.advance().Text}
	}
	display := ""
	if p.acceptKeyword("display") {
		display = p.advance().Text
	}
	lib.Codes = append(lib.Codes, &model.CodeDef{
		Element: &model.Element{}, Name: name, Code: code, CodeSystem: sys, Display: display, AccessLevel: model.Public,
	})
	p.acceptPunct(";")
}

func (p *Parser) parseConceptDef(lib *model.Library) {
	name := p.advance().Text
	p.expectPunct(":")
	var codes []*model.CodeRef
	p.expectPunct("{")
	for !p.isPunct("}") && !p.atEOF() {
		codes = append(codes, &model.CodeRef{Expression: model.NewExpression(), Name: p.advance().Text})
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct("}")
	display := ""
	if p.acceptKeyword("display") {
		display = p.advance().Text
	}
	lib.Concepts = append(lib.Concepts, &model.ConceptDef{
		Element: &model.Element{}, Name: name, Codes: codes, Display: display, AccessLevel: model.Public,
	})
	p.acceptPunct(";")
}

func (p *Parser) parseDefine(lib *model.Library, context string) {
	access := model.Public
	if p.acceptKeyword("private") {
		access = model.Private
	} else {
		p.acceptKeyword("public")
	}
	if p.acceptKeyword("function") {
		p.parseFunctionDef(lib, context, access)
		return
	}
	name := p.advance().Text
	p.expectPunct(":")
	expr := p.parseExpr(precLowest)
	lib.Statements.Defs = append(lib.Statements.Defs, &model.ExpressionDef{
		Element: &model.Element{}, Name: name, Context: context, Expression: expr, AccessLevel: access,
	})
	p.acceptPunct(";")
}

func (p *Parser) parseFunctionDef(lib *model.Library, context string, access model.AccessLevel) {
	name := p.advance().Text
	p.expectPunct("(")
	var operands []model.OperandDef
	for !p.isPunct(")") && !p.atEOF() {
		opName := p.advance().Text
		od := model.OperandDef{Name: opName}
		if p.cur().Kind == lexer.Ident && !p.isPunct(",") {
			od.Type = p.parseTypeSpecifier()
		}
		operands = append(operands, od)
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	fluent := p.acceptKeyword("fluent")
	var body model.IExpression
	external := false
	if p.acceptKeyword("returns") {
		p.parseTypeSpecifier() // declared return type; lowering infers ResultType from the body instead
	}
	if p.acceptPunct(":") {
		if p.acceptKeyword("external") {
			external = true
		} else {
			body = p.parseExpr(precLowest)
		}
	} else if p.acceptKeyword("external") {
		external = true
	}
	fd := &model.FunctionDef{
		ExpressionDef: &model.ExpressionDef{
			Element: &model.Element{}, Name: name, Context: context, Expression: body, AccessLevel: access,
		},
		Operands: operands,
		Fluent:   fluent,
		External: external,
	}
	lib.Statements.Defs = append(lib.Statements.Defs, fd)
	p.acceptPunct(";")
}
