// Package lexer is the pawk tokenizer: it turns AWK source into a
// stream of tokens in a single pass.
//
// Regex literals can't be distinguished from division without the
// parser's context, so Scan returns DIV or DIV_ASSIGN for '/', and the
// parser calls ScanRegex to re-scan from the slash when a regex is
// allowed at that point in the grammar.
package lexer

import (
	"fmt"
	"unicode/utf8"
)

// Position stores the source line and column of a token.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number (in runes)
}

// Lexer tokenizes a byte slice of source code.
type Lexer struct {
	src      []byte
	offset   int
	ch       rune
	errorMsg string
	pos      Position
	nextPos  Position
	lastTok  Token
	hadSpace bool
}

// NewLexer creates a new lexer for the given source code.
func NewLexer(src []byte) *Lexer {
	l := &Lexer{src: src}
	l.nextPos.Line = 1
	l.nextPos.Column = 1
	l.next()
	return l
}

// Scan returns the position, token type, and value of the next token.
// The value is the variable name for NAME tokens, the unparsed digits
// for NUMBER tokens, the unescaped contents for STRING tokens, and the
// error message for ILLEGAL tokens; it's empty otherwise.
func (l *Lexer) Scan() (Position, Token, string) {
	pos, tok, val := l.scan()
	l.lastTok = tok
	return pos, tok, val
}

func (l *Lexer) scan() (Position, Token, string) {
	// Skip whitespace, comments, and backslash line continuations
	// (these are insignificant between tokens).
	l.hadSpace = false
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.next()
			l.hadSpace = true
		}
		if l.ch == '\\' && l.peekByte() == '\n' {
			l.next()
			l.next()
			l.hadSpace = true
			continue
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch >= 0 {
				l.next()
			}
			l.hadSpace = true
			continue
		}
		break
	}
	if l.ch < 0 {
		if l.errorMsg != "" {
			return l.pos, ILLEGAL, l.errorMsg
		}
		return l.pos, EOF, ""
	}

	pos := l.pos
	tok := ILLEGAL
	val := ""

	ch := l.ch
	l.next()

	// Names: keywords, built-in functions, and identifiers
	if isNameStart(ch) {
		chars := []rune{ch}
		for isNameStart(l.ch) || isDigit(l.ch) {
			chars = append(chars, l.ch)
			l.next()
		}
		name := string(chars)
		tok := KeywordToken(name)
		if tok == ILLEGAL {
			tok = NAME
			val = name
		}
		return pos, tok, val
	}

	// Number: integer, fraction, and exponent parts. A dangling 'e' is
	// kept in the value; the parser trims it before conversion.
	if isDigit(ch) || (ch == '.' && isDigit(l.ch)) {
		chars := []rune{ch}
		gotDigit := isDigit(ch)
		for isDigit(l.ch) {
			chars = append(chars, l.ch)
			l.next()
			gotDigit = true
		}
		if ch != '.' && l.ch == '.' {
			chars = append(chars, l.ch)
			l.next()
			for isDigit(l.ch) {
				chars = append(chars, l.ch)
				l.next()
			}
		}
		if !gotDigit {
			return l.pos, ILLEGAL, "expected digits"
		}
		if l.ch == 'e' || l.ch == 'E' {
			chars = append(chars, l.ch)
			l.next()
			if (l.ch == '+' || l.ch == '-') && isDigit(l.peekRune()) {
				chars = append(chars, l.ch)
				l.next()
			}
			for isDigit(l.ch) {
				chars = append(chars, l.ch)
				l.next()
			}
		}
		return pos, NUMBER, string(chars)
	}
	if ch == '.' {
		// "." not followed by a digit
		return l.pos, ILLEGAL, "expected digits"
	}

	switch ch {
	case '\n':
		tok = NEWLINE
	case ':':
		tok = COLON
	case ',':
		tok = COMMA
	case ';':
		tok = SEMICOLON
	case '$':
		tok = DOLLAR
	case '{':
		tok = LBRACE
	case '}':
		tok = RBRACE
	case '[':
		tok = LBRACKET
	case ']':
		tok = RBRACKET
	case '(':
		tok = LPAREN
	case ')':
		tok = RPAREN
	case '?':
		tok = QUESTION
	case '~':
		tok = MATCH
	case '+':
		switch l.ch {
		case '+':
			l.next()
			tok = INCR
		case '=':
			l.next()
			tok = ADD_ASSIGN
		default:
			tok = ADD
		}
	case '-':
		switch l.ch {
		case '-':
			l.next()
			tok = DECR
		case '=':
			l.next()
			tok = SUB_ASSIGN
		default:
			tok = SUB
		}
	case '*':
		switch l.ch {
		case '*':
			// "**" and "**=" are common extensions for "^" and "^="
			l.next()
			tok = l.choose('=', POW, POW_ASSIGN)
		case '=':
			l.next()
			tok = MUL_ASSIGN
		default:
			tok = MUL
		}
	case '/':
		tok = l.choose('=', DIV, DIV_ASSIGN)
	case '%':
		tok = l.choose('=', MOD, MOD_ASSIGN)
	case '^':
		tok = l.choose('=', POW, POW_ASSIGN)
	case '=':
		tok = l.choose('=', ASSIGN, EQUALS)
	case '<':
		tok = l.choose('=', LESS, LTE)
	case '>':
		switch l.ch {
		case '=':
			l.next()
			tok = GTE
		case '>':
			l.next()
			tok = APPEND
		default:
			tok = GREATER
		}
	case '!':
		switch l.ch {
		case '=':
			l.next()
			tok = NOT_EQUALS
		case '~':
			l.next()
			tok = NOT_MATCH
		default:
			tok = NOT
		}
	case '&':
		if l.ch == '&' {
			l.next()
			tok = AND
		} else {
			tok = ILLEGAL
			val = "unexpected '&', expected '&&'"
		}
	case '|':
		if l.ch == '|' {
			l.next()
			tok = OR
		} else {
			tok = PIPE
		}
	case '"':
		chars := make([]rune, 0, 16)
		for l.ch != '"' {
			c := l.ch
			if c < 0 {
				return pos, ILLEGAL, "didn't find end quote in string"
			}
			if c == '\r' || c == '\n' {
				return pos, ILLEGAL, "can't have newline in string"
			}
			if c == '\\' {
				l.next()
				switch l.ch {
				case '"', '\\', '/':
					c = l.ch
				case 'a':
					c = '\a'
				case 'b':
					c = '\b'
				case 'f':
					c = '\f'
				case 'n':
					c = '\n'
				case 'r':
					c = '\r'
				case 't':
					c = '\t'
				case 'v':
					c = '\v'
				case '0', '1', '2', '3', '4', '5', '6', '7':
					// 1-3 digit octal escape
					n := int(l.ch - '0')
					for i := 0; i < 2; i++ {
						next := l.peekRune()
						if next < '0' || next > '7' {
							break
						}
						l.next()
						n = n*8 + int(l.ch-'0')
					}
					c = rune(n)
				default:
					// Unknown escape: keep the backslash
					chars = append(chars, '\\')
					c = l.ch
				}
			}
			chars = append(chars, c)
			l.next()
		}
		l.next()
		tok = STRING
		val = string(chars)
	default:
		tok = ILLEGAL
		val = fmt.Sprintf("unexpected %q", ch)
	}
	return pos, tok, val
}

// ScanRegex parses an AWK regex literal, which the parser requests
// after Scan has returned a DIV or DIV_ASSIGN token at a point in the
// grammar where a regex is allowed. For DIV_ASSIGN the "=" is part of
// the regex text.
func (l *Lexer) ScanRegex() (Position, Token, string) {
	pos, tok, val := l.scanRegex()
	l.lastTok = tok
	return pos, tok, val
}

func (l *Lexer) scanRegex() (Position, Token, string) {
	pos := l.pos
	chars := make([]rune, 0, 16)
	switch l.lastTok {
	case DIV:
		// Regex after '/' (the usual case)
		pos.Column -= 1
	case DIV_ASSIGN:
		// Regex after '/=' (e.g. "/=foo/" is a regex matching "=foo")
		pos.Column -= 2
		chars = append(chars, '=')
	default:
		panic("ScanRegex should only be called after DIV or DIV_ASSIGN token")
	}
	for l.ch != '/' {
		c := l.ch
		if c < 0 {
			return pos, ILLEGAL, "didn't find end slash in regex"
		}
		if c == '\r' || c == '\n' {
			return pos, ILLEGAL, "can't have newline in regex"
		}
		if c == '\\' {
			l.next()
			if l.ch != '/' {
				chars = append(chars, '\\')
			}
			c = l.ch
		}
		chars = append(chars, c)
		l.next()
	}
	l.next()
	return pos, REGEX, string(chars)
}

// PeekByte returns the next unscanned byte of input without consuming
// anything, or 0 at end of input or for a multibyte rune. It's only
// meaningful for ASCII checks like "is the next char a '('".
func (l *Lexer) PeekByte() byte {
	if l.ch < 0 || l.ch > 0x7f {
		return 0
	}
	return byte(l.ch)
}

// HadSpace reports whether whitespace (or a comment or line
// continuation) came immediately before the most recently scanned
// token. The parser uses it to tell a call "f(x)" apart from the
// concatenation "f (x)".
func (l *Lexer) HadSpace() bool {
	return l.hadSpace
}

// next advances to the next rune of input, setting l.ch to -1 at end
// of input or on a UTF-8 decode error.
func (l *Lexer) next() {
	l.pos = l.nextPos
	ch, size := utf8.DecodeRune(l.src[l.offset:])
	if size == 0 {
		l.ch = -1
		return
	}
	if ch == utf8.RuneError && size == 1 {
		l.ch = -1
		l.errorMsg = fmt.Sprintf("invalid UTF-8 byte 0x%02x", l.src[l.offset])
		return
	}
	if ch == '\n' {
		l.nextPos.Line++
		l.nextPos.Column = 1
	} else {
		l.nextPos.Column++
	}
	l.ch = ch
	l.offset += size
}

// peekByte returns the next byte of input without consuming anything
// (the byte after l.ch).
func (l *Lexer) peekByte() byte {
	if l.offset >= len(l.src) {
		return 0
	}
	return l.src[l.offset]
}

// peekRune is like peekByte but decodes a full rune.
func (l *Lexer) peekRune() rune {
	ch, size := utf8.DecodeRune(l.src[l.offset:])
	if size == 0 {
		return -1
	}
	return ch
}

// choose consumes secondChar and returns twoTok if it's next,
// otherwise returns oneTok.
func (l *Lexer) choose(secondChar rune, oneTok, twoTok Token) Token {
	if l.ch == secondChar {
		l.next()
		return twoTok
	}
	return oneTok
}

func isNameStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// Unescape interprets the backslash escapes AWK uses in string
// literals ("\t", "\n", octal escapes, and so on). It's used for
// values given with -v and var=value command-line assignments, which
// get the same escape processing as string literals. Unknown escapes
// keep the backslash; a trailing lone backslash stays as-is.
func Unescape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch s[i] {
		case '"', '\\', '/':
			out = append(out, s[i])
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'v':
			out = append(out, '\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := int(s[i] - '0')
			for j := 0; j < 2 && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '7'; j++ {
				i++
				n = n*8 + int(s[i]-'0')
			}
			out = append(out, byte(n))
		default:
			out = append(out, '\\', s[i])
		}
	}
	return string(out)
}
