// Abstract syntax tree types for parsed AWK programs.

package parser

import (
	"fmt"
	"strconv"
	"strings"

	. "github.com/posixtools/pawk/lexer"
)

// Program is a parsed AWK program: BEGIN blocks, pattern-action items,
// END blocks, and function definitions. It's parsed once and immutable
// afterwards.
type Program struct {
	Begin     []Stmts
	Actions   []*Action
	End       []Stmts
	Functions []*Function
}

// String returns an indented, pretty-printed version of the parsed
// program. The output is canonical: two programs with the same String
// form are structurally identical.
func (p *Program) String() string {
	parts := []string{}
	for _, ss := range p.Begin {
		parts = append(parts, "BEGIN {\n"+ss.String()+"}")
	}
	for _, a := range p.Actions {
		parts = append(parts, a.String())
	}
	for _, ss := range p.End {
		parts = append(parts, "END {\n"+ss.String()+"}")
	}
	for _, function := range p.Functions {
		parts = append(parts, function.String())
	}
	return strings.Join(parts, "\n\n")
}

// Function returns the function with the given name, or nil.
func (p *Program) Function(name string) *Function {
	for _, f := range p.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Stmts is a block of multiple statements.
type Stmts []Stmt

func (ss Stmts) String() string {
	lines := []string{}
	for _, s := range ss {
		subLines := strings.Split(s.String(), "\n")
		for _, sl := range subLines {
			lines = append(lines, "    "+sl+"\n")
		}
	}
	return strings.Join(lines, "")
}

// Action is one pattern-action item of a program. Pattern has 0, 1, or
// 2 elements: always-match, boolean pattern, or range pattern. A nil
// Stmts (as opposed to an empty one) means the action was omitted and
// defaults to printing the record.
type Action struct {
	Pattern []Expr
	Stmts   Stmts
}

func (a *Action) String() string {
	patterns := make([]string, len(a.Pattern))
	for i, p := range a.Pattern {
		patterns[i] = p.String()
	}
	sep := ""
	if len(patterns) > 0 && a.Stmts != nil {
		sep = " "
	}
	stmtsStr := ""
	if a.Stmts != nil {
		stmtsStr = "{\n" + a.Stmts.String() + "}"
	}
	return strings.Join(patterns, ", ") + sep + stmtsStr
}

// Function is a user-defined function.
type Function struct {
	Name   string
	Params []string
	Arrays []bool // set by the resolve pass: Arrays[i] means Params[i] is an array
	Body   Stmts
	Pos    Position
}

func (f *Function) String() string {
	return "function " + f.Name + "(" + strings.Join(f.Params, ", ") + ") {\n" +
		f.Body.String() + "}"
}

// Expr is the interface satisfied by every AWK expression node.
type Expr interface {
	expr()
	String() string
	precedence() int
}

func (e *FieldExpr) expr()     {}
func (e *UnaryExpr) expr()     {}
func (e *BinaryExpr) expr()    {}
func (e *InExpr) expr()        {}
func (e *CondExpr) expr()      {}
func (e *NumExpr) expr()       {}
func (e *StrExpr) expr()       {}
func (e *RegExpr) expr()       {}
func (e *VarExpr) expr()       {}
func (e *IndexExpr) expr()     {}
func (e *AssignExpr) expr()    {}
func (e *AugAssignExpr) expr() {}
func (e *IncrExpr) expr()      {}
func (e *CallExpr) expr()      {}
func (e *UserCallExpr) expr()  {}
func (e *MultiExpr) expr()     {}
func (e *GetlineExpr) expr()   {}
func (e *GroupingExpr) expr()  {}

// Operator precedence, lowest to highest. Only used for adding
// parentheses when pretty-printing.
const (
	precAssign = iota
	precCond
	precOr
	precAnd
	precIn
	precMatch
	precCompare
	precConcat
	precAdd
	precMul
	precUnary
	precPower
	precIncr
	precField
	precPrimary
	precGrouping
)

func (e *FieldExpr) precedence() int    { return precField }
func (e *UnaryExpr) precedence() int    { return precUnary }
func (e *InExpr) precedence() int       { return precIn }
func (e *CondExpr) precedence() int     { return precCond }
func (e *NumExpr) precedence() int      { return precPrimary }
func (e *StrExpr) precedence() int      { return precPrimary }
func (e *RegExpr) precedence() int      { return precPrimary }
func (e *VarExpr) precedence() int      { return precPrimary }
func (e *IndexExpr) precedence() int    { return precPrimary }
func (e *AssignExpr) precedence() int   { return precAssign }
func (e *AugAssignExpr) precedence() int { return precAssign }
func (e *IncrExpr) precedence() int     { return precIncr }
func (e *CallExpr) precedence() int     { return precPrimary }
func (e *UserCallExpr) precedence() int { return precPrimary }
func (e *MultiExpr) precedence() int    { return precPrimary }
func (e *GetlineExpr) precedence() int  { return precPrimary }
func (e *GroupingExpr) precedence() int { return precGrouping }

func (e *BinaryExpr) precedence() int {
	switch e.Op {
	case OR:
		return precOr
	case AND:
		return precAnd
	case MATCH, NOT_MATCH:
		return precMatch
	case EQUALS, NOT_EQUALS, LESS, LTE, GREATER, GTE:
		return precCompare
	case CONCAT:
		return precConcat
	case ADD, SUB:
		return precAdd
	case MUL, DIV, MOD:
		return precMul
	case POW:
		return precPower
	default:
		return precPrimary
	}
}

// parenthesize returns the string form of e, wrapped in parentheses if
// e binds less tightly than other.
func parenthesize(e, other Expr) string {
	if e.precedence() < other.precedence() {
		return "(" + e.String() + ")"
	}
	return e.String()
}

// FieldExpr is a field reference like $0 or $(i+1).
type FieldExpr struct {
	Index Expr
}

func (e *FieldExpr) String() string {
	return "$" + parenthesize(e.Index, e)
}

// UnaryExpr is a prefix expression like !x or -1234.
type UnaryExpr struct {
	Op    Token
	Value Expr
}

func (e *UnaryExpr) String() string {
	return e.Op.String() + parenthesize(e.Value, e)
}

// BinaryExpr is a binary operation like 1 + 2. Concatenation is the
// CONCAT pseudo-token (it has no lexical symbol).
type BinaryExpr struct {
	Left  Expr
	Op    Token
	Right Expr
}

func (e *BinaryExpr) String() string {
	var op string
	if e.Op == CONCAT {
		op = " "
	} else {
		op = " " + e.Op.String() + " "
	}
	return parenthesize(e.Left, e) + op + parenthesize(e.Right, e)
}

// InExpr is an array membership test like (i, j) in a, or i in a.
type InExpr struct {
	Index    []Expr
	Array    string
	ArrayPos Position
}

func (e *InExpr) String() string {
	if len(e.Index) == 1 {
		return parenthesize(e.Index[0], e) + " in " + e.Array
	}
	indices := make([]string, len(e.Index))
	for i, index := range e.Index {
		indices[i] = index.String()
	}
	return "(" + strings.Join(indices, ", ") + ") in " + e.Array
}

// CondExpr is a ternary conditional like cond ? 1 : 0.
type CondExpr struct {
	Cond  Expr
	True  Expr
	False Expr
}

func (e *CondExpr) String() string {
	return parenthesize(e.Cond, e) + " ? " + parenthesize(e.True, e) +
		" : " + parenthesize(e.False, e)
}

// NumExpr is a number literal.
type NumExpr struct {
	Value float64
}

func (e *NumExpr) String() string {
	if e.Value == float64(int(e.Value)) {
		return strconv.Itoa(int(e.Value))
	}
	return fmt.Sprintf("%.6g", e.Value)
}

// StrExpr is a string literal like "foo".
type StrExpr struct {
	Value string
}

func (e *StrExpr) String() string {
	return strconv.Quote(e.Value)
}

// RegExpr is a stand-alone regex literal. In a boolean context it's
// equivalent to $0 ~ /regex/.
type RegExpr struct {
	Regex string
}

func (e *RegExpr) String() string {
	escaped := strings.Replace(e.Regex, "/", `\/`, -1)
	return "/" + escaped + "/"
}

// VarExpr is a reference to a scalar variable.
type VarExpr struct {
	Name string
	Pos  Position
}

func (e *VarExpr) String() string {
	return e.Name
}

// IndexExpr is an array reference like a[k] or a[i, j] (an rvalue or
// an lvalue).
type IndexExpr struct {
	Array    string
	ArrayPos Position
	Index    []Expr
}

func (e *IndexExpr) String() string {
	indices := make([]string, len(e.Index))
	for i, index := range e.Index {
		indices[i] = index.String()
	}
	return e.Array + "[" + strings.Join(indices, ", ") + "]"
}

// AssignExpr is a plain assignment like x = 1234. Left is always an
// lvalue (scalar, array element, or field).
type AssignExpr struct {
	Left  Expr
	Right Expr
}

func (e *AssignExpr) String() string {
	return parenthesize(e.Left, e) + " = " + parenthesize(e.Right, e)
}

// AugAssignExpr is an augmented assignment like x += 5. Op is the
// arithmetic token (ADD for +=, and so on).
type AugAssignExpr struct {
	Left  Expr
	Op    Token
	Right Expr
}

func (e *AugAssignExpr) String() string {
	return parenthesize(e.Left, e) + " " + e.Op.String() + "= " + parenthesize(e.Right, e)
}

// IncrExpr is an increment or decrement like x++ or --y.
type IncrExpr struct {
	Expr Expr
	Op   Token
	Pre  bool
}

func (e *IncrExpr) String() string {
	if e.Pre {
		return e.Op.String() + parenthesize(e.Expr, e)
	}
	return parenthesize(e.Expr, e) + e.Op.String()
}

// CallExpr is a built-in function call like length($1).
type CallExpr struct {
	Func Token
	Args []Expr
}

func (e *CallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Func.String() + "(" + strings.Join(args, ", ") + ")"
}

// UserCallExpr is a user-defined function call like my_func(1, 2).
type UserCallExpr struct {
	Name string
	Args []Expr
	Pos  Position
}

func (e *UserCallExpr) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Name + "(" + strings.Join(args, ", ") + ")"
}

// MultiExpr is a parenthesized list of two or more expressions. It's
// not an evaluatable expression itself; it only appears transiently
// while parsing print and printf argument lists.
type MultiExpr struct {
	Exprs []Expr
}

func (e *MultiExpr) String() string {
	exprs := make([]string, len(e.Exprs))
	for i, e := range e.Exprs {
		exprs[i] = e.String()
	}
	return "(" + strings.Join(exprs, ", ") + ")"
}

// GetlineExpr is one of the getline forms: plain (read the next main
// input record), with File set (read from a file), or with Command set
// (read from a pipe). Target is the optional lvalue read into; if nil
// the record goes to $0.
type GetlineExpr struct {
	Command Expr
	Target  Expr
	File    Expr
}

func (e *GetlineExpr) String() string {
	s := ""
	if e.Command != nil {
		s += parenthesize(e.Command, e) + " | "
	}
	s += "getline"
	if e.Target != nil {
		s += " " + e.Target.String()
	}
	if e.File != nil {
		s += " <" + parenthesize(e.File, e)
	}
	return s
}

// GroupingExpr is a parenthesized expression.
type GroupingExpr struct {
	Expr Expr
}

func (e *GroupingExpr) String() string {
	return "(" + e.Expr.String() + ")"
}

// IsLValue reports whether the expression can be assigned to: a scalar
// variable, array element, or field reference.
func IsLValue(expr Expr) bool {
	switch expr.(type) {
	case *VarExpr, *IndexExpr, *FieldExpr:
		return true
	default:
		return false
	}
}

// Stmt is the interface satisfied by every AWK statement node.
type Stmt interface {
	stmt()
	String() string
}

func (s *PrintStmt) stmt()    {}
func (s *PrintfStmt) stmt()   {}
func (s *ExprStmt) stmt()     {}
func (s *IfStmt) stmt()       {}
func (s *ForStmt) stmt()      {}
func (s *ForInStmt) stmt()    {}
func (s *WhileStmt) stmt()    {}
func (s *DoWhileStmt) stmt()  {}
func (s *BreakStmt) stmt()    {}
func (s *ContinueStmt) stmt() {}
func (s *NextStmt) stmt()     {}
func (s *NextfileStmt) stmt() {}
func (s *ExitStmt) stmt()     {}
func (s *DeleteStmt) stmt()   {}
func (s *ReturnStmt) stmt()   {}
func (s *BlockStmt) stmt()    {}

// PrintStmt is a print statement like print $1, $3 or
// print x > "file". Redirect is ILLEGAL when there's no redirection,
// otherwise GREATER, APPEND, or PIPE.
type PrintStmt struct {
	Args     []Expr
	Redirect Token
	Dest     Expr
}

func (s *PrintStmt) String() string {
	return printString("print", s.Args, s.Redirect, s.Dest)
}

// PrintfStmt is a printf statement like printf "%3d", 1234.
type PrintfStmt struct {
	Args     []Expr
	Redirect Token
	Dest     Expr
}

func (s *PrintfStmt) String() string {
	return printString("printf", s.Args, s.Redirect, s.Dest)
}

func printString(f string, args []Expr, redirect Token, dest Expr) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	str := f
	if len(parts) > 0 {
		str += " " + strings.Join(parts, ", ")
	}
	if dest != nil {
		str += " " + redirect.String() + dest.String()
	}
	return str
}

// ExprStmt is a statement like a bare function call or assignment.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) String() string {
	return s.Expr.String()
}

// IfStmt is an if or if-else statement.
type IfStmt struct {
	Cond Expr
	Body Stmts
	Else Stmts
}

func (s *IfStmt) String() string {
	str := "if (" + s.Cond.String() + ") {\n" + s.Body.String() + "}"
	if len(s.Else) > 0 {
		str += " else {\n" + s.Else.String() + "}"
	}
	return str
}

// ForStmt is a C-like for loop: for (i=0; i<10; i++) print i.
type ForStmt struct {
	Pre  Stmt
	Cond Expr
	Post Stmt
	Body Stmts
}

func (s *ForStmt) String() string {
	preStr := ""
	if s.Pre != nil {
		preStr = s.Pre.String()
	}
	condStr := ""
	if s.Cond != nil {
		condStr = " " + s.Cond.String()
	}
	postStr := ""
	if s.Post != nil {
		postStr = " " + s.Post.String()
	}
	return "for (" + preStr + ";" + condStr + ";" + postStr + ") {\n" + s.Body.String() + "}"
}

// ForInStmt is a key-iteration loop like for (k in a) print k, a[k].
type ForInStmt struct {
	Var      string
	VarPos   Position
	Array    string
	ArrayPos Position
	Body     Stmts
}

func (s *ForInStmt) String() string {
	return "for (" + s.Var + " in " + s.Array + ") {\n" + s.Body.String() + "}"
}

// WhileStmt is a while loop.
type WhileStmt struct {
	Cond Expr
	Body Stmts
}

func (s *WhileStmt) String() string {
	return "while (" + s.Cond.String() + ") {\n" + s.Body.String() + "}"
}

// DoWhileStmt is a do-while loop.
type DoWhileStmt struct {
	Body Stmts
	Cond Expr
}

func (s *DoWhileStmt) String() string {
	return "do {\n" + s.Body.String() + "} while (" + s.Cond.String() + ")"
}

// BreakStmt is a break statement.
type BreakStmt struct{}

func (s *BreakStmt) String() string { return "break" }

// ContinueStmt is a continue statement.
type ContinueStmt struct{}

func (s *ContinueStmt) String() string { return "continue" }

// NextStmt is a next statement.
type NextStmt struct{}

func (s *NextStmt) String() string { return "next" }

// NextfileStmt is a nextfile statement.
type NextfileStmt struct{}

func (s *NextfileStmt) String() string { return "nextfile" }

// ExitStmt is an exit statement with optional status expression.
type ExitStmt struct {
	Status Expr
}

func (s *ExitStmt) String() string {
	var statusStr string
	if s.Status != nil {
		statusStr = " " + s.Status.String()
	}
	return "exit" + statusStr
}

// DeleteStmt is a delete statement: delete a[k] deletes one element,
// delete a (Index nil) clears the whole array.
type DeleteStmt struct {
	Array    string
	ArrayPos Position
	Index    []Expr
}

func (s *DeleteStmt) String() string {
	if len(s.Index) == 0 {
		return "delete " + s.Array
	}
	indices := make([]string, len(s.Index))
	for i, index := range s.Index {
		indices[i] = index.String()
	}
	return "delete " + s.Array + "[" + strings.Join(indices, ", ") + "]"
}

// ReturnStmt is a return statement with optional value.
type ReturnStmt struct {
	Value Expr
}

func (s *ReturnStmt) String() string {
	var valueStr string
	if s.Value != nil {
		valueStr = " " + s.Value.String()
	}
	return "return" + valueStr
}

// BlockStmt is a stand-alone braced block.
type BlockStmt struct {
	Body Stmts
}

func (s *BlockStmt) String() string {
	return "{\n" + s.Body.String() + "}"
}
