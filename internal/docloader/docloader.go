// Package docloader builds an ast.File from a structured JSON or YAML
// document, for use by cmd/alloycheck in place of a concrete-syntax
// parser (ast's doc comment: "an external parser ... is an external
// collaborator"; this package is the demo harness's stand-in for one).
//
// The document shape mirrors the ast package directly: a top-level
// mapping with sigs/funcs/preds/facts/asserts/commands lists, and
// expressions as small tagged mappings ({kind: ident, name: x},
// {kind: binary, op: "+", x: ..., y: ...}, and so on). Every node decodes
// to token.NoPos: a structured document carries no byte offsets, so
// diagnostics from a loaded file carry no source position; only the
// sig-hierarchy diagnostics also name the declaration they concern.
package docloader

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"alloylang.org/alloy/ast"
	"alloylang.org/alloy/token"
)

// Load decodes data as a structured document and builds the ast.File it
// describes. format selects the decoder: "json" or "yaml" (anything else
// is rejected, matching cmd/alloycheck's extension-based dispatch).
func Load(data []byte, format string) (*ast.File, error) {
	var raw map[string]interface{}

	switch format {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding JSON model: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decoding YAML model: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported model format %q", format)
	}

	b := &builder{}
	return b.file(raw)
}

type builder struct{}

func (b *builder) file(raw map[string]interface{}) (*ast.File, error) {
	f := &ast.File{}

	for _, s := range asList(raw["sigs"]) {
		d, err := b.sigDecl(asMap(s))
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	for _, fn := range asList(raw["funcs"]) {
		d, err := b.funDecl(asMap(fn))
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	for _, p := range asList(raw["preds"]) {
		d, err := b.predDecl(asMap(p))
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	for _, fa := range asList(raw["facts"]) {
		d, err := b.factDecl(asMap(fa))
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	for _, as := range asList(raw["asserts"]) {
		d, err := b.assertDecl(asMap(as))
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}
	for _, c := range asList(raw["commands"]) {
		d, err := b.commandDecl(asMap(c))
		if err != nil {
			return nil, err
		}
		f.Decls = append(f.Decls, d)
	}

	return f, nil
}

func (b *builder) sigDecl(m map[string]interface{}) (*ast.SigDecl, error) {
	d := &ast.SigDecl{
		Name:       asString(m["name"]),
		IsAbstract: asBool(m["abstract"]),
		Extends:    asString(m["extends"]),
	}
	for _, p := range asList(m["in"]) {
		d.InParents = append(d.InParents, asString(p))
	}
	for _, raw := range asList(m["fields"]) {
		fm := asMap(raw)
		t, err := b.expr(fm["type"])
		if err != nil {
			return nil, fmt.Errorf("sig %s field %s: %w", d.Name, asString(fm["name"]), err)
		}
		d.Fields = append(d.Fields, &ast.FieldDecl{
			Name: asString(fm["name"]),
			Mult: multFromString(asString(fm["mult"])),
			Type: t,
		})
	}
	return d, nil
}

func multFromString(s string) ast.Mult {
	switch s {
	case "one":
		return ast.MultOne
	case "lone":
		return ast.MultLone
	case "some":
		return ast.MultSome
	case "set":
		return ast.MultSet
	default:
		return ast.MultNone
	}
}

func (b *builder) params(raw interface{}) ([]*ast.Param, error) {
	var out []*ast.Param
	for _, p := range asList(raw) {
		pm := asMap(p)
		t, err := b.expr(pm["type"])
		if err != nil {
			return nil, fmt.Errorf("param %s: %w", asString(pm["name"]), err)
		}
		out = append(out, &ast.Param{Name: asString(pm["name"]), Type: t})
	}
	return out, nil
}

func (b *builder) funDecl(m map[string]interface{}) (*ast.FunDecl, error) {
	params, err := b.params(m["params"])
	if err != nil {
		return nil, fmt.Errorf("fun %s: %w", asString(m["name"]), err)
	}
	var ret ast.Expr
	if m["return"] != nil {
		if ret, err = b.expr(m["return"]); err != nil {
			return nil, fmt.Errorf("fun %s return: %w", asString(m["name"]), err)
		}
	}
	body, err := b.expr(m["body"])
	if err != nil {
		return nil, fmt.Errorf("fun %s body: %w", asString(m["name"]), err)
	}
	return &ast.FunDecl{Name: asString(m["name"]), Params: params, Return: ret, Body: body}, nil
}

func (b *builder) predDecl(m map[string]interface{}) (*ast.PredDecl, error) {
	params, err := b.params(m["params"])
	if err != nil {
		return nil, fmt.Errorf("pred %s: %w", asString(m["name"]), err)
	}
	body, err := b.expr(m["body"])
	if err != nil {
		return nil, fmt.Errorf("pred %s body: %w", asString(m["name"]), err)
	}
	return &ast.PredDecl{Name: asString(m["name"]), Params: params, Body: body}, nil
}

func (b *builder) factDecl(m map[string]interface{}) (*ast.FactDecl, error) {
	body, err := b.expr(m["body"])
	if err != nil {
		return nil, fmt.Errorf("fact %s: %w", asString(m["name"]), err)
	}
	return &ast.FactDecl{Name: asString(m["name"]), Body: body}, nil
}

func (b *builder) assertDecl(m map[string]interface{}) (*ast.AssertDecl, error) {
	body, err := b.expr(m["body"])
	if err != nil {
		return nil, fmt.Errorf("assert %s: %w", asString(m["name"]), err)
	}
	return &ast.AssertDecl{Name: asString(m["name"]), Body: body}, nil
}

func (b *builder) commandDecl(m map[string]interface{}) (*ast.CommandDecl, error) {
	d := &ast.CommandDecl{Kind: asString(m["kind"]), Target: asString(m["target"])}
	for _, raw := range asList(m["scopes"]) {
		sm := asMap(raw)
		sig, err := b.expr(sm["sig"])
		if err != nil {
			return nil, fmt.Errorf("command %s scope: %w", d.Target, err)
		}
		d.Scopes = append(d.Scopes, ast.ScopeEntry{Sig: sig, Count: asInt(sm["count"])})
	}
	return d, nil
}

// expr dispatches on the "kind" discriminator. A bare string is sugar for
// {kind: ident, name: <string>}, the common case of referencing a sig or
// variable by name.
func (b *builder) expr(raw interface{}) (ast.Expr, error) {
	if raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok {
		return &ast.Ident{Name: s}, nil
	}

	m := asMap(raw)
	kind := asString(m["kind"])
	switch kind {
	case "ident":
		return &ast.Ident{Name: asString(m["name"])}, nil
	case "int":
		return ast.NewIntLit(token.NoPos, fmt.Sprint(m["value"]))
	case "unary":
		op, err := unaryOpFromString(asString(m["op"]))
		if err != nil {
			return nil, err
		}
		x, err := b.expr(m["x"])
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, X: x}, nil
	case "binary":
		op, err := binaryOpFromString(asString(m["op"]))
		if err != nil {
			return nil, err
		}
		x, err := b.expr(m["x"])
		if err != nil {
			return nil, err
		}
		y, err := b.expr(m["y"])
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: op, X: x, Y: y}, nil
	case "dot":
		l, err := b.expr(m["l"])
		if err != nil {
			return nil, err
		}
		r, err := b.expr(m["r"])
		if err != nil {
			return nil, err
		}
		return &ast.Dot{L: l, R: r}, nil
	case "quant":
		q, err := quantifierFromString(asString(m["quantifier"]))
		if err != nil {
			return nil, err
		}
		vars, err := b.params(m["vars"])
		if err != nil {
			return nil, err
		}
		body, err := b.expr(m["body"])
		if err != nil {
			return nil, err
		}
		return &ast.Quant{Kind: q, Vars: vars, Body: body}, nil
	case "let":
		value, err := b.expr(m["value"])
		if err != nil {
			return nil, err
		}
		body, err := b.expr(m["body"])
		if err != nil {
			return nil, err
		}
		return &ast.Let{Name: asString(m["name"]), Value: value, Body: body}, nil
	case "call":
		var args []ast.Expr
		for _, a := range asList(m["args"]) {
			ae, err := b.expr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, ae)
		}
		return &ast.Call{Fun: asString(m["fun"]), Args: args}, nil
	case "ite":
		cond, err := b.expr(m["cond"])
		if err != nil {
			return nil, err
		}
		then, err := b.expr(m["then"])
		if err != nil {
			return nil, err
		}
		els, err := b.expr(m["else"])
		if err != nil {
			return nil, err
		}
		return &ast.ITE{Cond: cond, Then: then, Else: els}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", kind)
	}
}

func unaryOpFromString(s string) (ast.UnaryOp, error) {
	switch s {
	case "~":
		return ast.UnaryTranspose, nil
	case "^":
		return ast.UnaryClosure, nil
	case "*":
		return ast.UnaryReflexiveClosure, nil
	case "!":
		return ast.UnaryNot, nil
	default:
		return 0, fmt.Errorf("unknown unary operator %q", s)
	}
}

func binaryOpFromString(s string) (ast.BinaryOp, error) {
	switch s {
	case "->":
		return ast.BinaryProduct, nil
	case "+":
		return ast.BinaryUnion, nil
	case "&":
		return ast.BinaryIntersect, nil
	case "-":
		return ast.BinaryDifference, nil
	case "<:":
		return ast.BinaryDomainRestr, nil
	case ":>":
		return ast.BinaryRangeRestr, nil
	case "=":
		return ast.BinaryEquals, nil
	case "in":
		return ast.BinaryIn, nil
	case "&&":
		return ast.BinaryAnd, nil
	case "||":
		return ast.BinaryOr, nil
	case "=>":
		return ast.BinaryImplies, nil
	default:
		return 0, fmt.Errorf("unknown binary operator %q", s)
	}
}

func quantifierFromString(s string) (ast.Quantifier, error) {
	switch strings.ToLower(s) {
	case "all":
		return ast.QuantAll, nil
	case "some":
		return ast.QuantSome, nil
	case "no":
		return ast.QuantNo, nil
	case "one":
		return ast.QuantOne, nil
	case "lone":
		return ast.QuantLone, nil
	default:
		return 0, fmt.Errorf("unknown quantifier %q", s)
	}
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asList(v interface{}) []interface{} {
	l, _ := v.([]interface{})
	return l
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	bv, _ := v.(bool)
	return bv
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
