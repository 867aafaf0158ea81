// Resolve pass: checks user-defined function calls and decides, for
// every name, whether it's a scalar or an array. AWK needs this before
// execution because arrays are passed to functions by reference, so
// the interpreter has to know which parameters are arrays even when a
// function body never uses them directly.

package parser

import (
	. "github.com/posixtools/pawk/lexer"
)

type varType int

const (
	typeUnknown varType = iota
	typeScalar
	typeArray
)

// typeInfo is what we know so far about a name in one scope (the
// global scope "" or a function's name for its parameters).
type typeInfo struct {
	typ varType
}

// varRef is a scalar use of a name: reading or assigning it as a
// plain variable.
type varRef struct {
	scope string
	ref   *VarExpr
}

// arrayRef is an array use of a name: indexing, "in", delete, split,
// or for-in.
type arrayRef struct {
	scope string
	name  string
	pos   Position
}

// userCall is a call to a user-defined function, checked against the
// definition after the whole program is parsed (calls may come before
// the definition).
type userCall struct {
	call *UserCallExpr
	pos  Position
}

// callArg is a bare variable passed as a call argument. Its type can't
// be decided locally: it follows the type of the parameter it's bound
// to, and vice versa.
type callArg struct {
	calleeName string
	argIndex   int
	ref        *VarExpr
	scope      string
}

// The special variables are always scalars (and ARGV and ENVIRON are
// always arrays), whatever the program does with them.
var specialScalars = []string{
	"ARGC", "CONVFMT", "FILENAME", "FNR", "FS", "NF", "NR",
	"OFMT", "OFS", "ORS", "RLENGTH", "RS", "RSTART", "SUBSEP",
}

// scope returns the resolution scope of a name at the current point of
// the parse: the enclosing function if the name is one of its
// parameters, otherwise the global scope "".
func (p *parser) scope(name string) string {
	if p.funcName != "" && p.locals[name] {
		return p.funcName
	}
	return ""
}

// varRef makes a scalar variable reference and records it for type
// checking.
func (p *parser) varRef(name string, pos Position) *VarExpr {
	expr := &VarExpr{name, pos}
	p.varRefs = append(p.varRefs, varRef{p.scope(name), expr})
	return expr
}

// arrayRef records an array use of a name.
func (p *parser) arrayRef(name string, pos Position) {
	p.arrayRefs = append(p.arrayRefs, arrayRef{p.scope(name), name, pos})
}

// resolve runs after the whole program is parsed.
func (p *parser) resolve() {
	p.checkCalls()
	p.resolveVars()
}

// checkCalls verifies that every called function is defined and not
// called with more arguments than it declares.
func (p *parser) checkCalls() {
	for _, c := range p.userCalls {
		f, ok := p.functions[c.call.Name]
		if !ok {
			panic(p.posErrorf(c.pos, "undefined function %q", c.call.Name))
		}
		if len(c.call.Args) > len(f.Params) {
			panic(p.posErrorf(c.pos, "%q called with more arguments than declared", c.call.Name))
		}
	}
}

// resolveVars decides the scalar-or-array type of every name and fills
// in Function.Arrays. A bare variable passed as a call argument takes
// its type from the parameter it binds to (and the parameter from the
// argument), so types are propagated through the recorded call
// arguments until nothing changes.
func (p *parser) resolveVars() {
	for _, name := range specialScalars {
		p.setVarType("", name, typeScalar, Position{})
	}
	p.setVarType("", "ARGV", typeArray, Position{})
	p.setVarType("", "ENVIRON", typeArray, Position{})

	// A name can't be both a global variable and a function
	for _, r := range p.varRefs {
		if r.scope == "" {
			if _, ok := p.functions[r.ref.Name]; ok {
				panic(p.posErrorf(r.ref.Pos, "global var %q can't also be a function", r.ref.Name))
			}
		}
	}
	for _, r := range p.arrayRefs {
		if r.scope == "" {
			if _, ok := p.functions[r.name]; ok {
				panic(p.posErrorf(r.pos, "global var %q can't also be a function", r.name))
			}
		}
	}

	// Direct uses decide types first
	for _, r := range p.arrayRefs {
		p.setVarType(r.scope, r.name, typeArray, r.pos)
	}
	for _, r := range p.varRefs {
		if p.isCallArg[r.ref] {
			// Decided by the parameter it binds to, below
			continue
		}
		p.setVarType(r.scope, r.ref.Name, typeScalar, r.ref.Pos)
	}

	// Propagate types across call arguments until it settles (each
	// pass can push a type one call deeper, so the number of
	// functions bounds the iterations needed).
	for i := 0; i <= len(p.functions); i++ {
		changed := false
		for _, a := range p.callArgs {
			f, ok := p.functions[a.calleeName]
			if !ok || a.argIndex >= len(f.Params) {
				continue
			}
			paramName := f.Params[a.argIndex]
			paramType := p.varType(a.calleeName, paramName)
			argType := p.varType(a.scope, a.ref.Name)
			switch {
			case paramType != typeUnknown && argType == typeUnknown:
				p.setVarType(a.scope, a.ref.Name, paramType, a.ref.Pos)
				changed = true
			case argType != typeUnknown && paramType == typeUnknown:
				p.setVarType(a.calleeName, paramName, argType, a.ref.Pos)
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	// Anything still undecided (a parameter or variable only ever
	// passed along) settles as a scalar.
	for _, f := range p.functions {
		f.Arrays = make([]bool, len(f.Params))
		for i, param := range f.Params {
			f.Arrays[i] = p.varType(f.Name, param) == typeArray
		}
	}
}

func (p *parser) varType(scope, name string) varType {
	return p.varTypes[scope][name].typ
}

// setVarType records a type for a name, failing on a scalar/array
// conflict.
func (p *parser) setVarType(scope, name string, typ varType, pos Position) {
	scopeTypes, ok := p.varTypes[scope]
	if !ok {
		scopeTypes = make(map[string]typeInfo)
		p.varTypes[scope] = scopeTypes
	}
	info := scopeTypes[name]
	if info.typ == typeUnknown {
		scopeTypes[name] = typeInfo{typ}
		return
	}
	if info.typ != typ {
		if typ == typeArray {
			panic(p.posErrorf(pos, "can't use scalar %q as array", name))
		}
		panic(p.posErrorf(pos, "can't use array %q as scalar", name))
	}
}
