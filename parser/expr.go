package parser

import (
	"strconv"
	"strings"

	"github.com/clinical-elm/cql/internal/datehelpers"
	"github.com/clinical-elm/cql/internal/lexer"
	"github.com/clinical-elm/cql/model"
	"github.com/clinical-elm/cql/types"
)

// Precedence levels, low to high, per spec.md §4.5.
const (
	precLowest = iota
	precImplies
	precOrXor
	precAnd
	precInContains
	precEquality
	precRelational
	precConcat
	precAdditive
	precMultiplicative
	precUnary
	precPower
	precPostfix
)

// binaryOps maps an infix token (punctuation or keyword) to its precedence and ELM operator name.
// `in`/`contains` are handled separately in parseInContains, bare forms only: `between` and a
// leading precision word are not parsed.
var binaryOps = map[string]struct {
	prec int
	name string
}{
	"implies": {precImplies, "Implies"},
	"or":      {precOrXor, "Or"},
	"xor":     {precOrXor, "Xor"},
	"and":     {precAnd, "And"},
	"=":       {precEquality, "Equal"},
	"!=":      {precEquality, "NotEqual"},
	"~":       {precEquality, "Equivalent"},
	"!~":      {precEquality, "NotEquivalent"},
	"<":       {precRelational, "Less"},
	">":       {precRelational, "Greater"},
	"<=":      {precRelational, "LessOrEqual"},
	">=":      {precRelational, "GreaterOrEqual"},
	"|":       {precConcat, "Concatenate"},
	"+":       {precAdditive, "Add"},
	"-":       {precAdditive, "Subtract"},
	"*":       {precMultiplicative, "Multiply"},
	"/":       {precMultiplicative, "Divide"},
	"mod":     {precMultiplicative, "Modulo"},
	"div":     {precMultiplicative, "TruncatedDivide"},
	"^":       {precPower, "Power"},
	"union":     {precInContains, "Union"},
	"intersect": {precInContains, "Intersect"},
	"except":    {precInContains, "Except"},
}

func (p *Parser) curBinaryOp() (string, int, string, bool) {
	t := p.cur()
	var key string
	switch t.Kind {
	case lexer.Punct:
		key = t.Text
	case lexer.Ident:
		key = t.Text
	default:
		return "", 0, "", false
	}
	if op, ok := binaryOps[key]; ok {
		return key, op.prec, op.name, true
	}
	return "", 0, "", false
}

// parseExpr is the Pratt climbing entry point; minPrec is the minimum precedence this call is
// willing to consume infix operators at.
func (p *Parser) parseExpr(minPrec int) model.IExpression {
	left := p.parseUnary()
	for {
		if p.isKeyword("in") || p.isKeyword("contains") {
			if precInContains < minPrec {
				break
			}
			left = p.parseInContains(left)
			continue
		}
		if p.isKeyword("is") {
			if precRelational < minPrec {
				break
			}
			left = p.parseIs(left)
			continue
		}
		if p.isKeyword("as") {
			if precRelational < minPrec {
				break
			}
			left = p.parseAs(left)
			continue
		}
		key, prec, name, ok := p.curBinaryOp()
		if !ok || prec < minPrec {
			break
		}
		p.advance()
		nextMin := prec + 1
		if key == "^" {
			nextMin = prec // right-associative
		}
		right := p.parseExpr(nextMin)
		left = wrapBinary(name, left, right)
	}
	return left
}

func wrapBinary(name string, l, r model.IExpression) model.IExpression {
	b := model.NewBinary(name, l, r)
	switch name {
	case "Add":
		return &model.Add{BinaryExpression: b}
	case "Subtract":
		return &model.Subtract{BinaryExpression: b}
	case "Multiply":
		return &model.Multiply{BinaryExpression: b}
	case "Divide":
		return &model.Divide{BinaryExpression: b}
	case "TruncatedDivide":
		return &model.TruncatedDivide{BinaryExpression: b}
	case "Modulo":
		return &model.Modulo{BinaryExpression: b}
	case "Power":
		return &model.Power{BinaryExpression: b}
	case "And":
		return &model.And{BinaryExpression: b}
	case "Or":
		return &model.Or{BinaryExpression: b}
	case "Xor":
		return &model.Xor{BinaryExpression: b}
	case "Implies":
		return &model.Implies{BinaryExpression: b}
	case "Equal":
		return &model.Equal{BinaryExpression: b}
	case "NotEqual":
		return &model.NotEqual{BinaryExpression: b}
	case "Equivalent":
		return &model.Equivalent{BinaryExpression: b}
	case "NotEquivalent":
		return &model.NotEquivalent{BinaryExpression: b}
	case "Less":
		return &model.Less{BinaryExpression: b}
	case "Greater":
		return &model.Greater{BinaryExpression: b}
	case "LessOrEqual":
		return &model.LessOrEqual{BinaryExpression: b}
	case "GreaterOrEqual":
		return &model.GreaterOrEqual{BinaryExpression: b}
	case "Union":
		return &model.Union{BinaryExpression: b}
	case "Intersect":
		return &model.Intersect{BinaryExpression: b}
	case "Except":
		return &model.Except{BinaryExpression: b}
	case "Concatenate":
		return &model.Concatenate{NaryExpression: model.NewNary(name, l, r)}
	default:
		return b
	}
}

func (p *Parser) parseInContains(left model.IExpression) model.IExpression {
	negate := p.isKeyword("in")
	name := "In"
	if p.isKeyword("contains") {
		name = "Contains"
	}
	p.advance()
	right := p.parseExpr(precInContains + 1)
	_ = negate
	b := model.NewBinary(name, left, right)
	if name == "In" {
		return &model.In{BinaryExpression: b}
	}
	return &model.Contains{BinaryExpression: b}
}

func (p *Parser) parseIs(left model.IExpression) model.IExpression {
	p.advance() // "is"
	t := p.parseTypeSpecifier()
	u := model.NewUnary("Is", left)
	return &model.Is{UnaryExpression: u, IsType: t}
}

func (p *Parser) parseAs(left model.IExpression) model.IExpression {
	p.advance() // "as"
	t := p.parseTypeSpecifier()
	u := model.NewUnary("As", left)
	return &model.As{UnaryExpression: u, AsType: t}
}

// parseTypeSpecifier parses a (possibly qualified, possibly List<...>) type name used by
// as/is/cast and function operand declarations.
func (p *Parser) parseTypeSpecifier() types.IType {
	if p.isKeyword("List") && p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == "<" {
		p.advance()
		p.advance() // "<"
		elem := p.parseTypeSpecifier()
		if p.isPunct(">") {
			p.advance()
		}
		return &types.List{ElementType: elem}
	}
	name := p.advance().Text
	for p.isPunct(".") {
		p.advance()
		name = name + "." + p.advance().Text
	}
	if sys, ok := systemTypeByName(name); ok {
		return sys
	}
	if strings.Contains(name, ".") {
		parts := strings.SplitN(name, ".", 2)
		return &types.Named{Model: parts[0], Name: parts[1]}
	}
	return &types.Named{Model: "FHIR", Name: name}
}

func systemTypeByName(name string) (types.IType, bool) {
	switch name {
	case "Boolean", "System.Boolean":
		return types.System(types.Boolean), true
	case "String", "System.String":
		return types.System(types.String), true
	case "Integer", "System.Integer":
		return types.System(types.Integer), true
	case "Long", "System.Long":
		return types.System(types.Long), true
	case "Decimal", "System.Decimal":
		return types.System(types.Decimal), true
	case "Quantity", "System.Quantity":
		return types.System(types.Quantity), true
	case "Date", "System.Date":
		return types.System(types.Date), true
	case "DateTime", "System.DateTime":
		return types.System(types.DateTime), true
	case "Time", "System.Time":
		return types.System(types.Time), true
	case "Code", "System.Code":
		return types.System(types.Code), true
	case "Concept", "System.Concept":
		return types.System(types.Concept), true
	}
	return nil, false
}

func (p *Parser) parseUnary() model.IExpression {
	switch {
	case p.isPunct("+"):
		p.advance()
		return p.parseUnary()
	case p.isPunct("-"):
		p.advance()
		operand := p.parseUnary()
		return &model.Negate{UnaryExpression: model.NewUnary("Negate", operand)}
	case p.isKeyword("not"):
		p.advance()
		operand := p.parseUnary()
		return &model.Not{UnaryExpression: model.NewUnary("Not", operand)}
	case p.isKeyword("exists"):
		p.advance()
		p.expectPunct("(")
		operand := p.parseExpr(precLowest)
		p.expectPunct(")")
		return &model.ListExists{UnaryExpression: model.NewUnary("Exists", operand)}
	case p.isKeyword("cast"):
		p.advance()
		operand := p.parseUnary()
		p.expectKeyword("as")
		t := p.parseTypeSpecifier()
		u := model.NewUnary("As", operand)
		return &model.As{UnaryExpression: u, AsType: t, Strict: true}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *Parser) parsePostfix(e model.IExpression) model.IExpression {
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			name := p.advance().Text
			if p.isPunct("(") {
				e = p.parseMethodCall(e, name)
				continue
			}
			e = &model.Property{Expression: model.NewExpression(), Source: e, Path: name}
		case p.isPunct("["):
			p.advance()
			idx := p.parseExpr(precLowest)
			p.expectPunct("]")
			e = &model.Indexer{BinaryExpression: model.NewBinary("Indexer", e, idx)}
		default:
			return e
		}
	}
}

// parseMethodCall handles `source.method(args)` FHIRPath-style calls, mapping well-known method
// names onto their ELM operator node, and falling back to a FunctionRef for anything else
// (user-defined functions called fluently, or unrecognized FHIRPath functions, which the lowering
// pass resolves or reports UnresolvedReference for).
func (p *Parser) parseMethodCall(source model.IExpression, name string) model.IExpression {
	args := p.parseArgList()
	return buildCall(name, append([]model.IExpression{source}, args...), true)
}

func (p *Parser) parseArgList() []model.IExpression {
	p.expectPunct("(")
	var args []model.IExpression
	for !p.isPunct(")") && !p.atEOF() {
		if p.cur().Kind == lexer.Ident && p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == ":" {
			// CQL named argument `paramName: expr`; the argument name is resolved against the
			// callee's operand list during lowering, so the parser just records position.
			p.advance()
			p.advance()
		}
		args = append(args, p.parseExpr(precLowest))
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct(")")
	return args
}

// buildCall maps a called name + positional args onto the concrete ELM node family, matching the
// non-exhaustive-but-normative coverage spec.md §4.7 lists; fluent is true for `source.Name(...)`
// calls (source becomes args[0]).
func buildCall(name string, args []model.IExpression, fluent bool) model.IExpression {
	una := func(n string) model.IExpression {
		if len(args) == 0 {
			return &model.FunctionRef{Expression: model.NewExpression(), Name: name, Operands: args}
		}
		return wrapUnary(n, args[0])
	}
	bin := func(n string) model.IExpression {
		if len(args) < 2 {
			return &model.FunctionRef{Expression: model.NewExpression(), Name: name, Operands: args}
		}
		return wrapBinary(n, args[0], args[1])
	}
	switch name {
	case "exists", "Exists":
		return una("Exists")
	case "not", "Not":
		return una("Not")
	case "first", "First":
		return una("First")
	case "last", "Last":
		return una("Last")
	case "tail", "Tail":
		return una("Tail")
	case "distinct", "Distinct":
		return una("Distinct")
	case "flatten", "Flatten":
		return una("Flatten")
	case "count", "Count":
		return una("Count")
	case "length", "Length":
		return una("Length")
	case "upper", "Upper":
		return una("Upper")
	case "lower", "Lower":
		return una("Lower")
	case "trim", "Trim":
		return una("Trim")
	case "abs", "Abs":
		return una("Abs")
	case "ceiling", "Ceiling":
		return una("Ceiling")
	case "floor", "Floor":
		return una("Floor")
	case "truncate", "Truncate":
		return una("Truncate")
	case "sqrt", "Sqrt":
		return una("Sqrt")
	case "ln", "Ln":
		return una("Ln")
	case "exp", "Exp":
		return una("Exp")
	case "Sum":
		return una("Sum")
	case "Avg":
		return una("Avg")
	case "Min":
		if len(args) == 1 {
			return una("Min")
		}
		return &model.FunctionRef{Expression: model.NewExpression(), Name: name, Operands: args}
	case "Max":
		if len(args) == 1 {
			return una("Max")
		}
		return &model.FunctionRef{Expression: model.NewExpression(), Name: name, Operands: args}
	case "Median":
		return una("Median")
	case "Mode":
		return una("Mode")
	case "StdDev":
		return una("StdDev")
	case "Variance":
		return una("Variance")
	case "GeometricMean":
		return una("GeometricMean")
	case "Product":
		return una("Product")
	case "AllTrue":
		return una("AllTrue")
	case "AnyTrue":
		return una("AnyTrue")
	case "IsDistinct":
		return una("IsDistinct")
	case "PointFrom":
		return una("PointFrom")
	case "start of", "Start":
		return una("Start")
	case "end of", "End":
		return una("End")
	case "width of", "Width":
		return una("Width")
	case "singleton from", "SingletonFrom":
		return una("SingletonFrom")
	case "predecessor of", "Predecessor":
		return una("Predecessor")
	case "successor of", "Successor":
		return una("Successor")
	case "children":
		return una("Children")
	case "descendants":
		return una("DescendantsOf")
	case "resolve":
		return una("Resolve")
	case "toChars", "ToChars":
		return una("ToChars")
	case "startsWith", "StartsWith":
		return bin("StartsWith")
	case "endsWith", "EndsWith":
		return bin("EndsWith")
	case "contains":
		return bin("StringContains")
	case "matches", "Matches":
		return bin("Matches")
	case "indexOf", "IndexOf":
		return bin("IndexOf")
	case "split", "Split":
		return bin("Split")
	case "join", "Join":
		return bin("Join")
	case "subsetOf", "SubsetOf":
		return bin("SubsetOf")
	case "supersetOf", "SupersetOf":
		return bin("SupersetOf")
	case "ConvertQuantity":
		return bin("ConvertQuantity")
	case "CanConvertQuantity":
		return bin("CanConvertQuantity")
	case "log", "Log":
		return bin("Log")
	case "combine", "Combine":
		return &model.Combine{NaryExpression: model.NewNary("Combine", args...)}
	case "Coalesce":
		return &model.Coalesce{NaryExpression: model.NewNary("Coalesce", args...)}
	case "substring", "Substring":
		return &model.Substring{NaryExpression: model.NewNary("Substring", args...)}
	case "replaceMatches", "ReplaceMatches":
		return &model.ReplaceMatches{NaryExpression: model.NewNary("ReplaceMatches", args...)}
	case "round", "Round":
		return &model.Round{NaryExpression: model.NewNary("Round", args...)}
	case "extension":
		return &model.Extension{BinaryExpression: model.NewBinary("Extension", orNull(args, 0), orNull(args, 1))}
	case "skip", "Skip":
		return bin("Skip")
	case "take", "Take":
		return bin("Take")
	case "AgeInYears":
		return &model.AgeInYears{Expression: model.NewExpression()}
	case "AgeInMonths":
		return &model.AgeInMonths{Expression: model.NewExpression()}
	case "AgeInDays":
		return &model.AgeInDays{Expression: model.NewExpression()}
	case "CalculateAge":
		if len(args) >= 1 {
			return &model.CalculateAge{UnaryExpression: model.NewUnary("CalculateAge", args[0])}
		}
	case "CalculateAgeAt":
		if len(args) >= 2 {
			return &model.CalculateAgeAt{BinaryExpression: model.NewBinary("CalculateAgeAt", args[0], args[1])}
		}
	case "Today":
		return &model.Today{Expression: model.NewExpression()}
	case "Now":
		return &model.Now{Expression: model.NewExpression()}
	case "TimeOfDay":
		return &model.TimeOfDay{Expression: model.NewExpression()}
	case "subsumes", "Subsumes":
		return bin("Subsumes")
	case "subsumedBy", "SubsumedBy":
		return bin("SubsumedBy")
	}
	if fluent && len(args) > 0 {
		return &model.FunctionRef{Expression: model.NewExpression(), Name: name, Operands: args}
	}
	return &model.FunctionRef{Expression: model.NewExpression(), Name: name, Operands: args}
}

func wrapUnary(name string, operand model.IExpression) model.IExpression {
	u := model.NewUnary(name, operand)
	switch name {
	case "Exists":
		return &model.ListExists{UnaryExpression: u}
	case "Not":
		return &model.Not{UnaryExpression: u}
	case "First":
		return &model.First{UnaryExpression: u}
	case "Last":
		return &model.Last{UnaryExpression: u}
	case "Tail":
		return &model.Tail{UnaryExpression: u}
	case "Distinct":
		return &model.Distinct{UnaryExpression: u}
	case "Flatten":
		return &model.Flatten{UnaryExpression: u}
	case "Count":
		return &model.Count{UnaryExpression: u}
	case "Length":
		return &model.Length{UnaryExpression: u}
	case "Upper":
		return &model.Upper{UnaryExpression: u}
	case "Lower":
		return &model.Lower{UnaryExpression: u}
	case "Trim":
		return &model.Trim{UnaryExpression: u}
	case "Abs":
		return &model.Abs{UnaryExpression: u}
	case "Ceiling":
		return &model.Ceiling{UnaryExpression: u}
	case "Floor":
		return &model.Floor{UnaryExpression: u}
	case "Truncate":
		return &model.Truncate{UnaryExpression: u}
	case "Sqrt":
		return &model.Sqrt{UnaryExpression: u}
	case "Ln":
		return &model.Ln{UnaryExpression: u}
	case "Exp":
		return &model.Exp{UnaryExpression: u}
	case "Sum":
		return &model.Sum{UnaryExpression: u}
	case "Avg":
		return &model.Avg{UnaryExpression: u}
	case "Min":
		return &model.Min{UnaryExpression: u}
	case "Max":
		return &model.Max{UnaryExpression: u}
	case "Median":
		return &model.Median{UnaryExpression: u}
	case "Mode":
		return &model.Mode{UnaryExpression: u}
	case "StdDev":
		return &model.StdDev{UnaryExpression: u}
	case "Variance":
		return &model.Variance{UnaryExpression: u}
	case "GeometricMean":
		return &model.GeometricMean{UnaryExpression: u}
	case "Product":
		return &model.Product{UnaryExpression: u}
	case "AllTrue":
		return &model.AllTrue{UnaryExpression: u}
	case "AnyTrue":
		return &model.AnyTrue{UnaryExpression: u}
	case "IsDistinct":
		return &model.IsDistinct{UnaryExpression: u}
	case "PointFrom":
		return &model.PointFrom{UnaryExpression: u}
	case "Start":
		return &model.Start{UnaryExpression: u}
	case "End":
		return &model.End{UnaryExpression: u}
	case "Width":
		return &model.Width{UnaryExpression: u}
	case "SingletonFrom":
		return &model.SingletonFrom{UnaryExpression: u}
	case "Predecessor":
		return &model.Predecessor{UnaryExpression: u}
	case "Successor":
		return &model.Successor{UnaryExpression: u}
	case "Children":
		return &model.Children{UnaryExpression: u}
	case "DescendantsOf":
		return &model.DescendantsOf{UnaryExpression: u}
	case "Resolve":
		return &model.Resolve{UnaryExpression: u}
	case "ToChars":
		return &model.ToChars{UnaryExpression: u}
	default:
		return u
	}
}

func orNull(args []model.IExpression, i int) model.IExpression {
	if i < len(args) {
		return args[i]
	}
	return model.NewLiteral("", types.System(types.Any))
}

func (p *Parser) parsePrimary() model.IExpression {
	t := p.cur()
	switch t.Kind {
	case lexer.NumberLit:
		p.advance()
		return p.parseNumberOrQuantity(t.Text)
	case lexer.StringLit:
		p.advance()
		return model.NewLiteral(t.Text, types.System(types.String))
	case lexer.DelimitedIdent:
		p.advance()
		return p.parsePostfix(&model.IdentifierRef{Expression: model.NewExpression(), Name: t.Text})
	case lexer.DateTimeLit:
		p.advance()
		return parseDateLiteral(t.Text)
	case lexer.TimeLit:
		p.advance()
		return parseTimeLiteral(t.Text)
	}
	switch {
	case p.isKeyword("true"):
		p.advance()
		return model.NewLiteral("true", types.System(types.Boolean))
	case p.isKeyword("false"):
		p.advance()
		return model.NewLiteral("false", types.System(types.Boolean))
	case p.isKeyword("null"):
		p.advance()
		return model.NewLiteral("", types.System(types.Any))
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("case"):
		return p.parseCase()
	case p.isKeyword("Interval"):
		return p.parseInterval()
	case p.isKeyword("Tuple"):
		return p.parseTuple()
	case p.isPunct("{"):
		return p.parseListLiteral()
	case p.isPunct("("):
		p.advance()
		e := p.parseExpr(precLowest)
		p.expectPunct(")")
		return e
	case p.isPunct("["):
		return p.parseRetrieve()
	case t.Kind == lexer.Ident:
		p.advance()
		name := t.Text
		if p.isPunct("(") {
			args := p.parseArgList()
			return buildCall(name, args, false)
		}
		if name == "Code" && p.cur().Kind == lexer.StringLit {
			return p.parseCodeLiteral()
		}
		return &model.IdentifierRef{Expression: model.NewExpression(), Name: name}
	}
	p.errorf("unexpected token %q", t.Text)
	p.advance()
	return model.NewLiteral("", types.System(types.Any))
}

func (p *Parser) parseNumberOrQuantity(numText string) model.IExpression {
	isDecimal := strings.Contains(numText, ".")
	var lit model.IExpression
	if isDecimal {
		lit = model.NewLiteral(numText, types.System(types.Decimal))
	} else {
		lit = model.NewLiteral(numText, types.System(types.Integer))
	}
	// A quantity literal is a number immediately followed by a unit string or a bare
	// calendar-unit word (`4 days`, `150 '[lb_av]'`), per spec.md §4.5.
	var unit string
	switch {
	case p.cur().Kind == lexer.StringLit:
		unit = p.advance().Text
	case p.cur().Kind == lexer.Ident && isCalendarUnitWord(p.cur().Text):
		unit = p.advance().Text
	default:
		return lit
	}
	f, _ := strconv.ParseFloat(numText, 64)
	return &model.Quantity{Expression: model.NewExpression(), Value: f, Unit: unit}
}

func isCalendarUnitWord(s string) bool {
	switch s {
	case "year", "years", "month", "months", "week", "weeks", "day", "days",
		"hour", "hours", "minute", "minutes", "second", "seconds", "millisecond", "milliseconds":
		return true
	}
	return false
}

func parseDateLiteral(text string) model.IExpression {
	lit, err := datehelpers.ParseDateTime(text)
	if err != nil {
		return model.NewLiteral(text, types.System(types.Date))
	}
	t := types.System(types.DateTime)
	if lit.Precision <= datehelpers.Day {
		t = types.System(types.Date)
	}
	return model.NewLiteral(text, t)
}

func parseTimeLiteral(text string) model.IExpression {
	return model.NewLiteral(text, types.System(types.Time))
}

func (p *Parser) parseCodeLiteral() model.IExpression {
	code := p.advance().Text
	var sys *model.CodeSystemRef
	var display string
	if p.acceptKeyword("from") {
		name := p.advance().Text
		sys = &model.CodeSystemRef{Expression: model.NewExpression(), Name: name}
	}
	if p.acceptKeyword("display") {
		display = p.advance().Text
	}
	return &model.CodeLiteral{Expression: model.NewExpression(), System: sys, Code: code, Display: display}
}

func (p *Parser) parseIf() model.IExpression {
	p.advance() // if
	cond := p.parseExpr(precLowest)
	p.expectKeyword("then")
	then := p.parseExpr(precLowest)
	var els model.IExpression = model.NewLiteral("", types.System(types.Any))
	if p.acceptKeyword("else") {
		els = p.parseExpr(precLowest)
	}
	return &model.If{Expression: model.NewExpression(), Condition: cond, Then: then, Else: els}
}

func (p *Parser) parseCase() model.IExpression {
	p.advance() // case
	c := &model.Case{Expression: model.NewExpression()}
	if !p.isKeyword("when") {
		c.Comparand = p.parseExpr(precLowest)
	}
	for p.acceptKeyword("when") {
		when := p.parseExpr(precLowest)
		p.expectKeyword("then")
		then := p.parseExpr(precLowest)
		c.CaseItems = append(c.CaseItems, &model.CaseItem{When: when, Then: then})
	}
	if p.acceptKeyword("else") {
		c.Else = p.parseExpr(precLowest)
	}
	p.expectKeyword("end")
	return c
}

func (p *Parser) parseInterval() model.IExpression {
	p.advance() // Interval
	lowClosed := true
	if p.acceptPunct("(") {
		lowClosed = false
	} else {
		p.expectPunct("[")
	}
	low := p.parseExpr(precLowest)
	p.expectPunct(",")
	high := p.parseExpr(precLowest)
	highClosed := true
	if p.acceptPunct(")") {
		highClosed = false
	} else {
		p.expectPunct("]")
	}
	return &model.Interval{Expression: model.NewExpression(), Low: low, High: high, LowInclusive: lowClosed, HighInclusive: highClosed}
}

func (p *Parser) parseTuple() model.IExpression {
	p.advance() // Tuple
	p.expectPunct("{")
	tup := &model.Tuple{Expression: model.NewExpression()}
	for !p.isPunct("}") && !p.atEOF() {
		name := p.advance().Text
		p.expectPunct(":")
		val := p.parseExpr(precLowest)
		tup.Elements = append(tup.Elements, &model.TupleElement{Name: name, Value: val})
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct("}")
	return tup
}

func (p *Parser) parseListLiteral() model.IExpression {
	p.advance() // {
	l := &model.List{Expression: model.NewExpression()}
	for !p.isPunct("}") && !p.atEOF() {
		l.List = append(l.List, p.parseExpr(precLowest))
		if !p.acceptPunct(",") {
			break
		}
	}
	p.expectPunct("}")
	return l
}

// parseRetrieve parses `[ResourceType]`, `[ResourceType: "valueset name"]`, and
// `[ResourceType: codePath in "valueset name"]`.
func (p *Parser) parseRetrieve() model.IExpression {
	p.advance() // [
	typeName := p.advance().Text
	r := &model.Retrieve{Expression: model.NewExpression(), DataType: typeName}
	if p.acceptPunct(":") {
		if p.cur().Kind == lexer.StringLit {
			vsName := p.advance().Text
			r.CodeFilter = append(r.CodeFilter, &model.CodeFilterElement{
				Path:     "code",
				ValueSet: &model.ValuesetRef{Expression: model.NewExpression(), Name: vsName},
			})
		} else {
			path := p.advance().Text
			p.expectKeyword("in")
			vsName := p.advance().Text
			r.CodeFilter = append(r.CodeFilter, &model.CodeFilterElement{
				Path:     path,
				ValueSet: &model.ValuesetRef{Expression: model.NewExpression(), Name: vsName},
			})
		}
	}
	p.expectPunct("]")
	return p.maybeParseQuery(r)
}

// maybeParseQuery checks for a trailing `alias ...` query pipeline attached to a primary source
// (retrieve or list expression), per the Query grammar in model/query.go.
func (p *Parser) maybeParseQuery(source model.IExpression) model.IExpression {
	if p.cur().Kind != lexer.Ident || isReservedQueryStop(p.cur().Text) {
		return source
	}
	alias := p.advance().Text
	q := &model.Query{Expression: model.NewExpression(), Sources: []*model.AliasedSource{{Expression: model.NewExpression(), Source: source, Alias: alias}}}
	for {
		switch {
		case p.acceptKeyword("let"):
			for {
				name := p.advance().Text
				p.expectPunct(":")
				e := p.parseExpr(precLowest)
				q.Lets = append(q.Lets, &model.LetClause{Identifier: name, Expression: e})
				if !p.acceptPunct(",") {
					break
				}
			}
		case p.isKeyword("with") || p.isKeyword("without"):
			without := p.isKeyword("without")
			p.advance()
			relSource := p.parseExpr(precPostfix)
			relAlias := p.advance().Text
			p.expectKeyword("such")
			p.expectKeyword("that")
			cond := p.parseExpr(precLowest)
			as := &model.AliasedSource{Expression: model.NewExpression(), Source: relSource, Alias: relAlias}
			rc := &model.RelationshipClause{AliasedSource: as, SuchThat: cond}
			if without {
				q.Relationships = append(q.Relationships, &model.Without{RelationshipClause: rc})
			} else {
				q.Relationships = append(q.Relationships, &model.With{RelationshipClause: rc})
			}
		case p.acceptKeyword("where"):
			q.Where = p.parseExpr(precLowest)
		case p.isKeyword("return"):
			p.advance()
			distinct := true
			if p.acceptKeyword("all") {
				distinct = false
			} else {
				p.acceptKeyword("distinct")
			}
			q.Return = &model.ReturnClause{Expression: p.parseExpr(precLowest), Distinct: distinct}
		case p.isKeyword("aggregate"):
			p.advance()
			distinct := false
			if p.acceptKeyword("all") {
				distinct = false
			} else if p.acceptKeyword("distinct") {
				distinct = true
			}
			ident := p.advance().Text
			p.expectKeyword("starting")
			start := p.parseExpr(precLowest)
			p.expectPunct(":")
			body := p.parseExpr(precLowest)
			q.Aggregate = &model.AggregateClause{Identifier: ident, Starting: start, Expression: body, Distinct: distinct}
		case p.acceptKeyword("sort"):
			p.expectKeyword("by")
			sc := &model.SortClause{}
			for {
				path := ""
				if p.cur().Kind == lexer.Ident && !isSortDirection(p.cur().Text) {
					path = p.advance().Text
				}
				dir := model.Ascending
				if p.acceptKeyword("desc") {
					dir = model.Descending
				} else {
					p.acceptKeyword("asc")
				}
				sc.ByItems = append(sc.ByItems, model.SortByColumn{Path: path, Direction: dir})
				if !p.acceptPunct(",") {
					break
				}
			}
			q.Sort = sc
		default:
			return p.parsePostfix(q)
		}
	}
}

func isSortDirection(s string) bool { return s == "asc" || s == "desc" }

// isReservedQueryStop reports whether an identifier seen right after a primary source expression
// is a keyword that ends the expression instead of naming a query alias.
func isReservedQueryStop(s string) bool {
	switch s {
	case "where", "return", "sort", "let", "with", "without", "aggregate", "and", "or", "xor",
		"implies", "is", "as", "in", "contains", "such", "that", "then", "else", "end", "when",
		"union", "intersect", "except", "mod", "div":
		return true
	}
	return false
}
