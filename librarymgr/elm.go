package librarymgr

import (
	"encoding/json"
	"fmt"

	"github.com/clinical-elm/cql/model"
)

// Library-header-level ELM JSON shapes (spec.md §6): identifier, usings, includes, parameters,
// terminology declarations, contexts and the top-level statement list. Expression-bearing fields
// reuse nodeJSON (elm_expr.go); type-bearing fields reuse typeSpecJSON (elm_types.go).
type libraryIdentifierJSON struct {
	Local     string `json:"local,omitempty"`
	Qualified string `json:"id,omitempty"`
	Version   string `json:"version,omitempty"`
}

type usingJSON struct {
	LocalIdentifier string `json:"localIdentifier"`
	URI             string `json:"uri"`
	Version         string `json:"version,omitempty"`
}

type includeJSON struct {
	Identifier libraryIdentifierJSON `json:"path"`
	Alias      string                `json:"localIdentifier,omitempty"`
}

type parameterJSON struct {
	Name        string    `json:"name"`
	Default     *nodeJSON `json:"default,omitempty"`
	AccessLevel string    `json:"accessLevel,omitempty"`
}

type codeSystemDefJSON struct {
	Name        string `json:"name"`
	ID          string `json:"id"`
	Version     string `json:"version,omitempty"`
	AccessLevel string `json:"accessLevel,omitempty"`
}

type valuesetDefJSON struct {
	Name        string      `json:"name"`
	ID          string      `json:"id"`
	Version     string      `json:"version,omitempty"`
	CodeSystems []*nodeJSON `json:"codeSystem,omitempty"`
	AccessLevel string      `json:"accessLevel,omitempty"`
}

type codeDefJSON struct {
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	CodeSystem  *nodeJSON `json:"codeSystem,omitempty"`
	Display     string    `json:"display,omitempty"`
	AccessLevel string    `json:"accessLevel,omitempty"`
}

type conceptDefJSON struct {
	Name        string      `json:"name"`
	Codes       []*nodeJSON `json:"code,omitempty"`
	Display     string      `json:"display,omitempty"`
	AccessLevel string      `json:"accessLevel,omitempty"`
}

type operandJSON struct {
	Name string        `json:"name"`
	Type *typeSpecJSON `json:"type"`
}

type defJSON struct {
	Name        string        `json:"name"`
	Context     string        `json:"context,omitempty"`
	Expression  *nodeJSON     `json:"expression"`
	AccessLevel string        `json:"accessLevel,omitempty"`
	Function    bool          `json:"function,omitempty"`
	Operand     []operandJSON `json:"operand,omitempty"`
	Fluent      bool          `json:"fluent,omitempty"`
	External    bool          `json:"external,omitempty"`
}

type libraryJSON struct {
	Library struct {
		Identifier  libraryIdentifierJSON `json:"identifier"`
		Usings      []usingJSON           `json:"usings,omitempty"`
		Includes    []includeJSON         `json:"includes,omitempty"`
		Parameters  []parameterJSON       `json:"parameters,omitempty"`
		CodeSystems []codeSystemDefJSON   `json:"codeSystems,omitempty"`
		ValueSets   []valuesetDefJSON     `json:"valueSets,omitempty"`
		Codes       []codeDefJSON         `json:"codes,omitempty"`
		Concepts    []conceptDefJSON      `json:"concepts,omitempty"`
		Contexts    []string              `json:"contexts,omitempty"`
		Statements  struct {
			Def []defJSON `json:"def,omitempty"`
		} `json:"statements"`
	} `json:"library"`
}

func libIdentJSON(id *model.LibraryIdentifier) libraryIdentifierJSON {
	if id == nil {
		return libraryIdentifierJSON{}
	}
	return libraryIdentifierJSON{Local: id.Local, Qualified: id.Qualified, Version: id.Version}
}

func jsonToLibIdent(j libraryIdentifierJSON) *model.LibraryIdentifier {
	return &model.LibraryIdentifier{Local: j.Local, Qualified: j.Qualified, Version: j.Version}
}

// MarshalELM serializes a lowered Library to ELM JSON (spec.md §6), the on-disk artifact C12's
// cache and any external ELM consumer would read.
func MarshalELM(lib *model.Library) ([]byte, error) {
	var out libraryJSON
	out.Library.Identifier = libIdentJSON(lib.Identifier)

	for _, u := range lib.Usings {
		out.Library.Usings = append(out.Library.Usings, usingJSON{LocalIdentifier: u.LocalIdentifier, URI: u.URI, Version: u.Version})
	}
	for _, inc := range lib.Includes {
		out.Library.Includes = append(out.Library.Includes, includeJSON{Identifier: libIdentJSON(inc.Identifier), Alias: inc.Alias})
	}
	for _, p := range lib.Parameters {
		out.Library.Parameters = append(out.Library.Parameters, parameterJSON{Name: p.Name, Default: modelToNode(p.Default), AccessLevel: string(p.AccessLevel)})
	}
	for _, cs := range lib.CodeSystems {
		out.Library.CodeSystems = append(out.Library.CodeSystems, codeSystemDefJSON{Name: cs.Name, ID: cs.ID, Version: cs.Version, AccessLevel: string(cs.AccessLevel)})
	}
	for _, vs := range lib.Valuesets {
		css := make([]*nodeJSON, len(vs.CodeSystems))
		for i, c := range vs.CodeSystems {
			css[i] = csRefNode(c)
		}
		out.Library.ValueSets = append(out.Library.ValueSets, valuesetDefJSON{Name: vs.Name, ID: vs.ID, Version: vs.Version, CodeSystems: css, AccessLevel: string(vs.AccessLevel)})
	}
	for _, c := range lib.Codes {
		out.Library.Codes = append(out.Library.Codes, codeDefJSON{Name: c.Name, Code: c.Code, CodeSystem: csRefNode(c.CodeSystem), Display: c.Display, AccessLevel: string(c.AccessLevel)})
	}
	for _, cc := range lib.Concepts {
		codes := make([]*nodeJSON, len(cc.Codes))
		for i, cr := range cc.Codes {
			codes[i] = codeRefNode(cr)
		}
		out.Library.Concepts = append(out.Library.Concepts, conceptDefJSON{Name: cc.Name, Codes: codes, Display: cc.Display, AccessLevel: string(cc.AccessLevel)})
	}
	out.Library.Contexts = lib.Contexts

	if lib.Statements != nil {
		for _, d := range lib.Statements.Defs {
			dj := defJSON{Name: d.GetName(), Context: d.GetContext(), Expression: modelToNode(d.GetExpression()), AccessLevel: string(d.GetAccessLevel())}
			if fd, ok := d.(*model.FunctionDef); ok {
				dj.Function = true
				dj.Fluent = fd.Fluent
				dj.External = fd.External
				for _, op := range fd.Operands {
					dj.Operand = append(dj.Operand, operandJSON{Name: op.Name, Type: marshalType(op.Type)})
				}
			}
			out.Library.Statements.Def = append(out.Library.Statements.Def, dj)
		}
	}

	return json.MarshalIndent(&out, "", "  ")
}

// ParseELM is MarshalELM's inverse, loading a previously-compiled Library back from ELM JSON
// without re-parsing or re-lowering its CQL source.
func ParseELM(data []byte) (*model.Library, error) {
	var in libraryJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("librarymgr: parse ELM JSON: %w", err)
	}

	lib := &model.Library{Identifier: jsonToLibIdent(in.Library.Identifier)}

	for _, u := range in.Library.Usings {
		lib.Usings = append(lib.Usings, &model.Using{LocalIdentifier: u.LocalIdentifier, URI: u.URI, Version: u.Version})
	}
	for _, inc := range in.Library.Includes {
		lib.Includes = append(lib.Includes, &model.Include{Identifier: jsonToLibIdent(inc.Identifier), Alias: inc.Alias})
	}
	for _, p := range in.Library.Parameters {
		lib.Parameters = append(lib.Parameters, &model.ParameterDef{Element: &model.Element{}, Name: p.Name, Default: nodeToModel(p.Default), AccessLevel: model.AccessLevel(p.AccessLevel)})
	}
	for _, cs := range in.Library.CodeSystems {
		lib.CodeSystems = append(lib.CodeSystems, &model.CodeSystemDef{Element: &model.Element{}, Name: cs.Name, ID: cs.ID, Version: cs.Version, AccessLevel: model.AccessLevel(cs.AccessLevel)})
	}
	for _, vs := range in.Library.ValueSets {
		var css []*model.CodeSystemRef
		for _, c := range vs.CodeSystems {
			if r, ok := nodeToModel(c).(*model.CodeSystemRef); ok {
				css = append(css, r)
			}
		}
		lib.Valuesets = append(lib.Valuesets, &model.ValuesetDef{Element: &model.Element{}, Name: vs.Name, ID: vs.ID, Version: vs.Version, CodeSystems: css, AccessLevel: model.AccessLevel(vs.AccessLevel)})
	}
	for _, c := range in.Library.Codes {
		var cs *model.CodeSystemRef
		if c.CodeSystem != nil {
			cs, _ = nodeToModel(c.CodeSystem).(*model.CodeSystemRef)
		}
		lib.Codes = append(lib.Codes, &model.CodeDef{Element: &model.Element{}, Name: c.Name, Code: c.Code, CodeSystem: cs, Display: c.Display, AccessLevel: model.AccessLevel(c.AccessLevel)})
	}
	for _, cc := range in.Library.Concepts {
		var codes []*model.CodeRef
		for _, cr := range cc.Codes {
			if r, ok := nodeToModel(cr).(*model.CodeRef); ok {
				codes = append(codes, r)
			}
		}
		lib.Concepts = append(lib.Concepts, &model.ConceptDef{Element: &model.Element{}, Name: cc.Name, Codes: codes, Display: cc.Display, AccessLevel: model.AccessLevel(cc.AccessLevel)})
	}
	lib.Contexts = in.Library.Contexts

	stmts := &model.Statements{}
	for _, d := range in.Library.Statements.Def {
		base := &model.ExpressionDef{Element: &model.Element{}, Name: d.Name, Context: d.Context, Expression: nodeToModel(d.Expression), AccessLevel: model.AccessLevel(d.AccessLevel)}
		if d.Function {
			ops := make([]model.OperandDef, len(d.Operand))
			for i, op := range d.Operand {
				ops[i] = model.OperandDef{Name: op.Name, Type: unmarshalType(op.Type)}
			}
			stmts.Defs = append(stmts.Defs, &model.FunctionDef{ExpressionDef: base, Operands: ops, Fluent: d.Fluent, External: d.External})
		} else {
			stmts.Defs = append(stmts.Defs, base)
		}
	}
	lib.Statements = stmts

	return lib, nil
}
