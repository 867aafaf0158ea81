// Package parser is the pawk parser: it builds an abstract syntax tree
// from AWK source using a hand-written recursive descent parser over
// the lexer's token stream.
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	. "github.com/posixtools/pawk/lexer"
)

// ParseError (actually *ParseError) is the type of error returned by
// ParseProgram.
type ParseError struct {
	Position Position
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

// ParserConfig lets the caller adjust how parsing is done. A nil
// config is valid and means "no debug output".
type ParserConfig struct {
	// DebugWriter, if non-nil, receives the pretty-printed program
	// after a successful parse.
	DebugWriter io.Writer
}

// ParseProgram parses an entire AWK program from source, returning the
// parsed program or a *ParseError on error.
func ParseProgram(src []byte, config *ParserConfig) (prog *Program, err error) {
	defer func() {
		// The parser uses panic with a *ParseError to signal parse
		// errors internally (hiding them from the API).
		if r := recover(); r != nil {
			parseError, ok := r.(*ParseError)
			if !ok {
				panic(r)
			}
			err = parseError
		}
	}()
	p := newParser(src)
	p.next() // initialize p.tok
	prog = p.program()
	if config != nil && config.DebugWriter != nil {
		fmt.Fprintln(config.DebugWriter, prog)
		fmt.Fprintln(config.DebugWriter)
	}
	return prog, nil
}

// Parser state. The one-token lookahead is in pos, tok, and val; the
// rest tracks grammar context (are we inside a loop, a function, a
// print statement) and the name resolution records used by resolve.go.
type parser struct {
	lexer *Lexer
	pos   Position // position of last token scanned
	tok   Token    // last token scanned
	val   string   // string value of last token (or "")

	inBegin   bool   // true while parsing a BEGIN block
	inEnd     bool   // true while parsing an END block
	funcName  string // function name if parsing a function body, else ""
	loopDepth int    // number of loops we're currently inside

	// In print and printf the unparenthesized grammar is restricted:
	// a top-level ">" is a redirection and "|" pipes the output, so
	// they can't be parsed as operators there. Parentheses lift the
	// restriction again.
	noGreater  bool
	allowMulti bool

	// Name resolution state, see resolve.go.
	functions  map[string]*Function
	userCalls  []userCall
	locals     map[string]bool
	varTypes   map[string]map[string]typeInfo
	varRefs    []varRef
	arrayRefs  []arrayRef
	callArgs   []callArg
	isCallArg  map[*VarExpr]bool
	multiExprs map[*MultiExpr]Position
}

func newParser(src []byte) *parser {
	return &parser{
		lexer:      NewLexer(src),
		functions:  make(map[string]*Function),
		varTypes:   make(map[string]map[string]typeInfo),
		isCallArg:  make(map[*VarExpr]bool),
		multiExprs: make(map[*MultiExpr]Position),
	}
}

// program parses an entire program: the grammar's top level is a list
// of items (BEGIN/END blocks, pattern-action rules, and function
// definitions) separated by newlines or semicolons.
func (p *parser) program() *Program {
	prog := &Program{}
	p.optionalNewlines()
	for p.tok != EOF {
		switch p.tok {
		case SEMICOLON:
			p.next()
		case BEGIN:
			p.next()
			p.inBegin = true
			prog.Begin = append(prog.Begin, p.stmtsBrace())
			p.inBegin = false
		case END:
			p.next()
			p.inEnd = true
			prog.End = append(prog.End, p.stmtsBrace())
			p.inEnd = false
		case FUNCTION:
			prog.Functions = append(prog.Functions, p.function())
		case LBRACE:
			// Bare action: matches every record
			prog.Actions = append(prog.Actions, &Action{nil, p.stmtsBrace()})
		default:
			pattern := []Expr{p.expr()}
			if p.tok == COMMA {
				// Range pattern
				p.commaNewlines()
				pattern = append(pattern, p.expr())
			}
			if p.tok == LBRACE {
				prog.Actions = append(prog.Actions, &Action{pattern, p.stmtsBrace()})
			} else {
				// Bare pattern: the action defaults to printing $0
				prog.Actions = append(prog.Actions, &Action{pattern, nil})
			}
		}
		p.checkMultiExprs()
		p.optionalNewlines()
	}
	p.resolve()
	return prog
}

// function parses a function definition, including registering it for
// recursive and forward calls before its body is parsed.
func (p *parser) function() *Function {
	p.next() // consume FUNCTION
	pos := p.pos
	if p.tok != NAME {
		panic(p.errorf("expected function name instead of %s", p.tok))
	}
	name := p.val
	if _, ok := p.functions[name]; ok {
		panic(p.posErrorf(pos, "function %q already defined", name))
	}
	p.next()
	p.expect(LPAREN)
	params := []string{}
	locals := make(map[string]bool)
	for i := 0; p.tok != RPAREN; i++ {
		if i > 0 {
			p.commaNewlines()
		}
		paramPos := p.pos
		param := p.expectName()
		if param == name {
			panic(p.posErrorf(paramPos, "can't use function name as parameter name"))
		}
		if locals[param] {
			panic(p.posErrorf(paramPos, "duplicate parameter name %q", param))
		}
		locals[param] = true
		params = append(params, param)
	}
	p.expect(RPAREN)
	p.optionalNewlines()

	function := &Function{Name: name, Params: params, Pos: pos}
	p.functions[name] = function
	p.funcName = name
	p.locals = locals
	function.Body = p.stmtsBrace()
	p.funcName = ""
	p.locals = nil
	return function
}

// stmtsBrace parses a braced block of statements.
func (p *parser) stmtsBrace() Stmts {
	p.expect(LBRACE)
	p.optionalNewlines()
	ss := Stmts{}
	for p.tok != RBRACE && p.tok != EOF {
		if p.matches(SEMICOLON, NEWLINE) {
			p.next()
			continue
		}
		ss = append(ss, p.stmt())
	}
	p.expect(RBRACE)
	return ss
}

// stmtBlock parses either a braced block or a single statement (the
// body of an if, while, or for).
func (p *parser) stmtBlock() Stmts {
	if p.tok == LBRACE {
		return p.stmtsBrace()
	}
	return Stmts{p.stmt()}
}

// stmt parses a single statement and then greedily consumes the
// newlines and semicolons that terminate it.
func (p *parser) stmt() Stmt {
	var s Stmt
	switch p.tok {
	case IF:
		s = p.ifStmt()
	case FOR:
		s = p.forStmt()
	case WHILE:
		s = p.whileStmt()
	case DO:
		s = p.doWhileStmt()
	case LBRACE:
		s = &BlockStmt{p.stmtsBrace()}
	case BREAK:
		if p.loopDepth == 0 {
			panic(p.errorf("break must be inside a loop body"))
		}
		p.next()
		s = &BreakStmt{}
	case CONTINUE:
		if p.loopDepth == 0 {
			panic(p.errorf("continue must be inside a loop body"))
		}
		p.next()
		s = &ContinueStmt{}
	case NEXT:
		if p.inBegin || p.inEnd {
			panic(p.errorf("next can't be inside BEGIN or END"))
		}
		p.next()
		s = &NextStmt{}
	case NEXTFILE:
		if p.inBegin || p.inEnd {
			panic(p.errorf("nextfile can't be inside BEGIN or END"))
		}
		p.next()
		s = &NextfileStmt{}
	case EXIT:
		p.next()
		var status Expr
		if !p.matches(NEWLINE, SEMICOLON, RBRACE, EOF) {
			status = p.expr()
		}
		s = &ExitStmt{status}
	case RETURN:
		if p.funcName == "" {
			panic(p.errorf("return must be inside a function"))
		}
		p.next()
		var value Expr
		if !p.matches(NEWLINE, SEMICOLON, RBRACE, EOF) {
			value = p.expr()
		}
		s = &ReturnStmt{value}
	default:
		s = p.simpleStmt()
	}
	for p.matches(NEWLINE, SEMICOLON) {
		p.next()
	}
	return s
}

// simpleStmt parses a statement that can also appear in the init and
// post parts of a C-style for loop.
func (p *parser) simpleStmt() Stmt {
	switch p.tok {
	case PRINT, PRINTF:
		return p.printStmt()
	case DELETE:
		return p.deleteStmt()
	default:
		return &ExprStmt{p.expr()}
	}
}

func (p *parser) ifStmt() Stmt {
	p.next()
	p.expect(LPAREN)
	cond := p.expr()
	p.expect(RPAREN)
	p.optionalNewlines()
	body := p.stmtBlock()
	p.optionalNewlines()
	var elseBody Stmts
	if p.tok == ELSE {
		p.next()
		p.optionalNewlines()
		elseBody = p.stmtBlock()
	}
	return &IfStmt{cond, body, elseBody}
}

func (p *parser) whileStmt() Stmt {
	p.next()
	p.expect(LPAREN)
	cond := p.expr()
	p.expect(RPAREN)
	p.optionalNewlines()
	body := p.loopBody()
	return &WhileStmt{cond, body}
}

func (p *parser) doWhileStmt() Stmt {
	p.next()
	p.optionalNewlines()
	body := p.loopBody()
	p.optionalNewlines()
	p.expect(WHILE)
	p.expect(LPAREN)
	cond := p.expr()
	p.expect(RPAREN)
	return &DoWhileStmt{body, cond}
}

// forStmt parses "for (init; cond; post) body" and "for (var in array)
// body". The two can't be told apart without parsing the part after
// the "(", so parse it as a simple statement first and check whether
// ")" or ";" follows.
func (p *parser) forStmt() Stmt {
	p.next()
	p.expect(LPAREN)
	var pre Stmt
	if p.tok != SEMICOLON {
		pre = p.simpleStmt()
	}
	if pre != nil && p.tok == RPAREN {
		p.next()
		p.optionalNewlines()
		exprStmt, ok := pre.(*ExprStmt)
		if !ok {
			panic(p.errorf("expected 'for (var in array)'"))
		}
		inExpr, ok := exprStmt.Expr.(*InExpr)
		if !ok || len(inExpr.Index) != 1 {
			panic(p.errorf("expected 'for (var in array)'"))
		}
		varExpr, ok := inExpr.Index[0].(*VarExpr)
		if !ok {
			panic(p.errorf("expected variable before 'in'"))
		}
		body := p.loopBody()
		return &ForInStmt{varExpr.Name, varExpr.Pos, inExpr.Array, inExpr.ArrayPos, body}
	}
	p.expect(SEMICOLON)
	p.optionalNewlines()
	var cond Expr
	if p.tok != SEMICOLON {
		cond = p.expr()
	}
	p.expect(SEMICOLON)
	p.optionalNewlines()
	var post Stmt
	if p.tok != RPAREN {
		post = p.simpleStmt()
	}
	p.expect(RPAREN)
	p.optionalNewlines()
	body := p.loopBody()
	return &ForStmt{pre, cond, post, body}
}

func (p *parser) loopBody() Stmts {
	p.loopDepth++
	body := p.stmtBlock()
	p.loopDepth--
	return body
}

// printStmt parses print and printf statements, including the ">",
// ">>", and "|" output redirections.
func (p *parser) printStmt() Stmt {
	tok := p.tok
	p.next()
	var args []Expr
	if !p.matches(NEWLINE, SEMICOLON, RBRACE, EOF, GREATER, APPEND, PIPE) {
		savedNoGreater := p.noGreater
		savedAllowMulti := p.allowMulti
		p.noGreater = true
		p.allowMulti = true
		args = p.exprList(p.expr)
		p.noGreater = savedNoGreater
		p.allowMulti = savedAllowMulti
		if len(args) == 1 {
			// "print (x, y)" and "print (x, y) > dest" are valid: the
			// parenthesized list is the argument list itself.
			if multi, ok := args[0].(*MultiExpr); ok {
				args = multi.Exprs
				delete(p.multiExprs, multi)
			}
		}
	}
	redirect := ILLEGAL
	var dest Expr
	if p.matches(GREATER, APPEND, PIPE) {
		redirect = p.tok
		p.next()
		dest = p.concat()
	}
	if tok == PRINT {
		return &PrintStmt{args, redirect, dest}
	}
	if len(args) == 0 {
		panic(p.errorf("expected printf args, got none"))
	}
	return &PrintfStmt{args, redirect, dest}
}

// deleteStmt parses "delete a[k]" and the whole-array form "delete a".
func (p *parser) deleteStmt() Stmt {
	p.next()
	pos := p.pos
	name := p.expectName()
	var index []Expr
	if p.tok == LBRACKET {
		p.next()
		index = p.exprList(p.expr)
		p.expect(RBRACKET)
	}
	p.arrayRef(name, pos)
	return &DeleteStmt{name, pos, index}
}

// expr parses a single expression, starting at the top (lowest
// precedence) of the grammar: assignment.
func (p *parser) expr() Expr {
	return p.assign()
}

var augOps = map[Token]Token{
	ADD_ASSIGN: ADD,
	DIV_ASSIGN: DIV,
	MOD_ASSIGN: MOD,
	MUL_ASSIGN: MUL,
	POW_ASSIGN: POW,
	SUB_ASSIGN: SUB,
}

// assign parses an assignment like x = 1 or x += 2 (right
// associative, and only applicable to lvalues).
func (p *parser) assign() Expr {
	expr := p.cond()
	if IsLValue(expr) {
		switch p.tok {
		case ASSIGN:
			p.next()
			p.optionalNewlines()
			return &AssignExpr{expr, p.assign()}
		case ADD_ASSIGN, DIV_ASSIGN, MOD_ASSIGN, MUL_ASSIGN, POW_ASSIGN, SUB_ASSIGN:
			op := augOps[p.tok]
			p.next()
			p.optionalNewlines()
			return &AugAssignExpr{expr, op, p.assign()}
		}
	}
	return expr
}

// cond parses a ternary conditional (right associative).
func (p *parser) cond() Expr {
	expr := p._or()
	if p.tok == QUESTION {
		p.next()
		p.optionalNewlines()
		trueValue := p.cond()
		p.expect(COLON)
		p.optionalNewlines()
		falseValue := p.cond()
		return &CondExpr{expr, trueValue, falseValue}
	}
	return expr
}

func (p *parser) _or() Expr {
	expr := p._and()
	for p.tok == OR {
		p.next()
		p.optionalNewlines()
		expr = &BinaryExpr{expr, OR, p._and()}
	}
	return expr
}

func (p *parser) _and() Expr {
	expr := p.in_()
	for p.tok == AND {
		p.next()
		p.optionalNewlines()
		expr = &BinaryExpr{expr, AND, p.in_()}
	}
	return expr
}

// in_ parses the "key in array" membership test. The parenthesized
// multi-key form "(i, j) in array" is handled in primary.
func (p *parser) in_() Expr {
	expr := p.match()
	for p.tok == IN {
		p.next()
		pos := p.pos
		name := p.expectName()
		p.arrayRef(name, pos)
		expr = &InExpr{[]Expr{expr}, name, pos}
	}
	return expr
}

// match parses the regex match operators ~ and !~. A regex literal on
// the right-hand side is treated as a string here (dynamic regexes and
// literals go through the same path in the interpreter).
func (p *parser) match() Expr {
	expr := p.compare()
	for p.tok == MATCH || p.tok == NOT_MATCH {
		op := p.tok
		p.next()
		right := p.regexStr(p.compare)
		expr = &BinaryExpr{expr, op, right}
	}
	return expr
}

// compare parses the comparison operators, which don't associate:
// "a < b < c" is a parse error in AWK. In print context a top-level
// ">" is the redirection operator, not a comparison.
func (p *parser) compare() Expr {
	expr := p.pipeGetline()
	switch p.tok {
	case EQUALS, NOT_EQUALS, LESS, LTE, GTE:
		op := p.tok
		p.next()
		return &BinaryExpr{expr, op, p.pipeGetline()}
	case GREATER:
		if p.noGreater {
			return expr
		}
		p.next()
		return &BinaryExpr{expr, GREATER, p.pipeGetline()}
	}
	return expr
}

// pipeGetline parses "cmd | getline [lvalue]", left associative so
// that chained reads like `"cmd" | getline a | getline b` keep reading
// from the same command. In print context "|" redirects the output
// instead.
func (p *parser) pipeGetline() Expr {
	expr := p.concat()
	for p.tok == PIPE && !p.noGreater {
		p.next()
		p.expect(GETLINE)
		target := p.optionalLValue()
		expr = &GetlineExpr{Command: expr, Target: target}
	}
	return expr
}

// concat parses string concatenation, which has no operator: two
// adjacent expressions concatenate whenever the next token could start
// an operand. "+" and "-" never start the right side, so binary
// arithmetic wins: 1 - 1 " " is (1-1) " ".
func (p *parser) concat() Expr {
	expr := p.add()
	for p.concatStart() {
		expr = &BinaryExpr{expr, CONCAT, p.add()}
	}
	return expr
}

func (p *parser) concatStart() bool {
	switch p.tok {
	case NUMBER, STRING, NAME, DOLLAR, NOT, LPAREN, INCR, DECR:
		return true
	}
	return p.tok.IsFunc()
}

func (p *parser) add() Expr {
	expr := p.mul()
	for p.tok == ADD || p.tok == SUB {
		op := p.tok
		p.next()
		expr = &BinaryExpr{expr, op, p.mul()}
	}
	return expr
}

func (p *parser) mul() Expr {
	expr := p.unary()
	for p.tok == MUL || p.tok == DIV || p.tok == MOD {
		op := p.tok
		p.next()
		expr = &BinaryExpr{expr, op, p.unary()}
	}
	return expr
}

// unary parses the prefix operators !, -, and +. They bind less
// tightly than ^, so -a^2 is -(a^2).
func (p *parser) unary() Expr {
	switch p.tok {
	case NOT, SUB, ADD:
		op := p.tok
		p.next()
		return &UnaryExpr{op, p.unary()}
	default:
		return p.pow()
	}
}

// pow parses exponentiation, which is right associative and allows a
// unary operator on its right side (2 ^ -3).
func (p *parser) pow() Expr {
	expr := p.preIncr()
	if p.tok == POW {
		p.next()
		return &BinaryExpr{expr, POW, p.unary()}
	}
	return expr
}

func (p *parser) preIncr() Expr {
	if p.tok == INCR || p.tok == DECR {
		op := p.tok
		p.next()
		expr := p.preIncr()
		if !IsLValue(expr) {
			panic(p.errorf("expected lvalue after %s", op))
		}
		return &IncrExpr{expr, op, true}
	}
	return p.postIncr()
}

func (p *parser) postIncr() Expr {
	expr := p.primary()
	if (p.tok == INCR || p.tok == DECR) && IsLValue(expr) {
		op := p.tok
		p.next()
		return &IncrExpr{expr, op, false}
	}
	return expr
}

// primary parses a primary expression: literals, regexes, fields,
// variables, array elements, grouping, getline, and function calls.
func (p *parser) primary() Expr {
	switch p.tok {
	case NUMBER:
		// The lexer keeps a dangling exponent char in the value
		// ("1e" scans as one number token); trim it here.
		trimmed := strings.TrimRight(p.val, "eE")
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			panic(p.errorf("invalid number %q", p.val))
		}
		p.next()
		return &NumExpr{n}
	case STRING:
		s := p.val
		p.next()
		return &StrExpr{s}
	case DIV, DIV_ASSIGN:
		// Stand-alone regex: equivalent to $0 ~ /regex/ when tested
		regex := p.nextRegex()
		return &RegExpr{regex}
	case DOLLAR:
		p.next()
		return &FieldExpr{p.primary()}
	case GETLINE:
		p.next()
		target := p.optionalLValue()
		var file Expr
		if p.tok == LESS {
			p.next()
			file = p.primary()
		}
		return &GetlineExpr{Target: target, File: file}
	case NAME:
		name := p.val
		pos := p.pos
		p.next()
		if p.tok == LBRACKET {
			p.next()
			index := p.exprList(p.expr)
			p.expect(RBRACKET)
			p.arrayRef(name, pos)
			return &IndexExpr{name, pos, index}
		}
		if p.tok == LPAREN && !p.lexer.HadSpace() {
			// "f(..." is a function call; "f (..." is concatenation
			return p.userCall(name, pos)
		}
		return p.varRef(name, pos)
	case LPAREN:
		lparenPos := p.pos
		p.next()
		// Parentheses lift the print-context restrictions
		savedNoGreater := p.noGreater
		savedAllowMulti := p.allowMulti
		p.noGreater = false
		p.allowMulti = false
		exprs := p.exprList(p.expr)
		p.noGreater = savedNoGreater
		p.allowMulti = savedAllowMulti
		p.expect(RPAREN)
		switch {
		case p.tok == IN:
			p.next()
			pos := p.pos
			name := p.expectName()
			p.arrayRef(name, pos)
			return &InExpr{exprs, name, pos}
		case len(exprs) == 1:
			return &GroupingExpr{exprs[0]}
		case !savedAllowMulti:
			panic(p.posErrorf(lparenPos, "unexpected comma-separated expression"))
		default:
			// Grouped list in print context: valid only if it turns
			// out to be the whole argument list, which printStmt
			// checks by consuming it from p.multiExprs.
			multi := &MultiExpr{exprs}
			p.multiExprs[multi] = lparenPos
			return multi
		}
	default:
		if p.tok.IsFunc() {
			return p.callExpr()
		}
		panic(p.errorf("expected expression instead of %s", p.tok))
	}
}

// optionalLValue parses the optional lvalue target of getline. A name
// directly followed by "(" is a function call, not a target.
func (p *parser) optionalLValue() Expr {
	switch p.tok {
	case NAME:
		if p.lexer.PeekByte() == '(' {
			return nil
		}
		name := p.val
		pos := p.pos
		p.next()
		if p.tok == LBRACKET {
			p.next()
			index := p.exprList(p.expr)
			p.expect(RBRACKET)
			p.arrayRef(name, pos)
			return &IndexExpr{name, pos, index}
		}
		return p.varRef(name, pos)
	case DOLLAR:
		p.next()
		return &FieldExpr{p.primary()}
	default:
		return nil
	}
}

// regexStr parses an operand that may be a regex literal (the regex
// arguments of ~, !~, match, split, sub, and gsub). Regex literals
// become plain strings here; the interpreter compiles and caches both
// forms the same way.
func (p *parser) regexStr(parse func() Expr) Expr {
	if p.matches(DIV, DIV_ASSIGN) {
		return &StrExpr{p.nextRegex()}
	}
	return parse()
}

// Argument counts for the built-in functions; max of -1 means
// unlimited (sprintf).
type argCount struct {
	min, max int
}

var callArgCounts = map[Token]argCount{
	F_ATAN2:   {2, 2},
	F_CLOSE:   {1, 1},
	F_COS:     {1, 1},
	F_EXP:     {1, 1},
	F_FFLUSH:  {0, 1},
	F_GSUB:    {2, 3},
	F_INDEX:   {2, 2},
	F_INT:     {1, 1},
	F_LENGTH:  {0, 1},
	F_LOG:     {1, 1},
	F_MATCH:   {2, 2},
	F_RAND:    {0, 0},
	F_SIN:     {1, 1},
	F_SPLIT:   {2, 3},
	F_SPRINTF: {1, -1},
	F_SQRT:    {1, 1},
	F_SRAND:   {0, 1},
	F_SUB:     {2, 3},
	F_SUBSTR:  {2, 3},
	F_SYSTEM:  {1, 1},
	F_TOLOWER: {1, 1},
	F_TOUPPER: {1, 1},
}

// Argument positions that are parsed specially: regexArg positions
// allow a regex literal, arrayArg positions must be a bare array name.
var regexArgIndex = map[Token]int{
	F_GSUB:  0,
	F_MATCH: 1,
	F_SPLIT: 2,
	F_SUB:   0,
}

var arrayArgIndex = map[Token]int{
	F_SPLIT: 1,
}

// callExpr parses a call to one of the built-in functions.
func (p *parser) callExpr() Expr {
	f := p.tok
	pos := p.pos
	p.next()
	if f == F_LENGTH && p.tok != LPAREN {
		// length is the one builtin callable without parens
		return &CallExpr{F_LENGTH, nil}
	}
	p.expect(LPAREN)
	args := []Expr{}
	for i := 0; p.tok != RPAREN; i++ {
		if i > 0 {
			p.commaNewlines()
		}
		var arg Expr
		switch {
		case regexArgIndex[f] == i && hasSpecialArg(regexArgIndex, f):
			arg = p.regexStr(p.expr)
		case arrayArgIndex[f] == i && hasSpecialArg(arrayArgIndex, f):
			argPos := p.pos
			name := p.expectName()
			p.arrayRef(name, argPos)
			arg = &VarExpr{name, argPos}
		default:
			arg = p.expr()
		}
		args = append(args, arg)
	}
	p.expect(RPAREN)

	counts := callArgCounts[f]
	if len(args) < counts.min {
		panic(p.posErrorf(pos, "%s() requires at least %d argument(s)", f, counts.min))
	}
	if counts.max >= 0 && len(args) > counts.max {
		panic(p.posErrorf(pos, "%s() takes at most %d argument(s)", f, counts.max))
	}
	if (f == F_SUB || f == F_GSUB) && len(args) == 3 && !IsLValue(args[2]) {
		panic(p.posErrorf(pos, "3rd arg to %s() must be an lvalue", f))
	}
	return &CallExpr{f, args}
}

func hasSpecialArg(m map[Token]int, f Token) bool {
	_, ok := m[f]
	return ok
}

// userCall parses a call to a user-defined function. Bare variable
// arguments are recorded so resolve can infer array parameters.
func (p *parser) userCall(name string, pos Position) Expr {
	if p.funcName != "" && p.locals[name] {
		panic(p.posErrorf(pos, "can't call local variable %q as function", name))
	}
	p.expect(LPAREN)
	args := []Expr{}
	for i := 0; p.tok != RPAREN; i++ {
		if i > 0 {
			p.commaNewlines()
		}
		arg := p.expr()
		if varExpr, ok := arg.(*VarExpr); ok {
			p.isCallArg[varExpr] = true
			p.callArgs = append(p.callArgs, callArg{name, i, varExpr, p.scope(varExpr.Name)})
		}
		args = append(args, arg)
	}
	p.expect(RPAREN)
	call := &UserCallExpr{name, args, pos}
	p.userCalls = append(p.userCalls, userCall{call, pos})
	return call
}

// exprList parses a comma-separated list using the given sub-parser
// (newlines are allowed after each comma).
func (p *parser) exprList(parse func() Expr) []Expr {
	exprs := []Expr{parse()}
	for p.tok == COMMA {
		p.commaNewlines()
		exprs = append(exprs, parse())
	}
	return exprs
}

// next scans the next token into the parser's one-token lookahead.
func (p *parser) next() {
	p.pos, p.tok, p.val = p.lexer.Scan()
	if p.tok == ILLEGAL {
		panic(p.errorf("%s", p.val))
	}
}

// nextRegex is like next but re-scans the current "/" or "/=" token as
// the start of a regex literal, returning the regex text.
func (p *parser) nextRegex() string {
	var tok Token
	p.pos, tok, p.val = p.lexer.ScanRegex()
	if tok == ILLEGAL {
		panic(p.errorf("%s", p.val))
	}
	regex := p.val
	p.next()
	return regex
}

// expect consumes the given token or fails with a parse error.
func (p *parser) expect(tok Token) {
	if p.tok != tok {
		panic(p.errorf("expected %s instead of %s", tok, p.tok))
	}
	p.next()
}

// expectName consumes and returns a NAME token's value.
func (p *parser) expectName() string {
	if p.tok != NAME {
		panic(p.errorf("expected name instead of %s", p.tok))
	}
	name := p.val
	p.next()
	return name
}

// matches reports whether the current token is one of the given ones.
func (p *parser) matches(operators ...Token) bool {
	for _, operator := range operators {
		if p.tok == operator {
			return true
		}
	}
	return false
}

func (p *parser) optionalNewlines() {
	for p.tok == NEWLINE {
		p.next()
	}
}

func (p *parser) commaNewlines() {
	p.expect(COMMA)
	p.optionalNewlines()
}

// checkMultiExprs fails if a parenthesized list produced in print
// context wasn't consumed as the print argument list, for example
// "print (1, 2) (3, 4)".
func (p *parser) checkMultiExprs() {
	if len(p.multiExprs) == 0 {
		return
	}
	// Report the leftmost one for a deterministic error
	first := true
	var pos Position
	for _, exprPos := range p.multiExprs {
		if first || exprPos.Line < pos.Line ||
			(exprPos.Line == pos.Line && exprPos.Column < pos.Column) {
			pos = exprPos
			first = false
		}
	}
	panic(p.posErrorf(pos, "unexpected comma-separated expression"))
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return p.posErrorf(p.pos, format, args...)
}

func (p *parser) posErrorf(pos Position, format string, args ...interface{}) error {
	return &ParseError{pos, fmt.Sprintf(format, args...)}
}
