package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/andreasronge/ptclisp/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	line, col := l.line, l.column

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: col}
	case '(':
		l.readChar()
		return token.Token{Type: token.LPAREN, Lexeme: "(", Line: line, Column: col}
	case ')':
		l.readChar()
		return token.Token{Type: token.RPAREN, Lexeme: ")", Line: line, Column: col}
	case '[':
		l.readChar()
		return token.Token{Type: token.LBRACKET, Lexeme: "[", Line: line, Column: col}
	case ']':
		l.readChar()
		return token.Token{Type: token.RBRACKET, Lexeme: "]", Line: line, Column: col}
	case '{':
		l.readChar()
		return token.Token{Type: token.LBRACE, Lexeme: "{", Line: line, Column: col}
	case '}':
		l.readChar()
		return token.Token{Type: token.RBRACE, Lexeme: "}", Line: line, Column: col}
	case '#':
		switch l.peekChar() {
		case '{':
			l.readChar()
			l.readChar()
			return token.Token{Type: token.HASH_LBRACE, Lexeme: "#{", Line: line, Column: col}
		case '(':
			l.readChar()
			l.readChar()
			return token.Token{Type: token.HASH_LPAREN, Lexeme: "#(", Line: line, Column: col}
		case '"':
			// #"..." regex literal syntax is not supported; the reader
			// turns this token into a guidance error.
			l.readChar()
			str, ok := l.readString()
			if !ok {
				return token.Token{Type: token.ILLEGAL, Lexeme: "#\"" + str, Line: line, Column: col}
			}
			return token.Token{Type: token.ILLEGAL, Lexeme: "#\"" + str + "\"", Line: line, Column: col}
		}
		// '#' starts a symbol-ish token we don't understand.
		l.readChar()
		return token.Token{Type: token.ILLEGAL, Lexeme: "#" + string(l.ch), Line: line, Column: col}
	case '"':
		str, ok := l.readString()
		if !ok {
			return token.Token{Type: token.ILLEGAL, Lexeme: "\"" + str, Line: line, Column: col}
		}
		return token.Token{Type: token.STRING, Lexeme: str, Line: line, Column: col}
	case ':':
		l.readChar()
		name := l.readSymbolChars()
		return token.Token{Type: token.KEYWORD, Lexeme: name, Line: line, Column: col}
	}

	if isDigit(l.ch) || ((l.ch == '-' || l.ch == '+') && isDigit(l.peekChar())) {
		num := l.readNumber()
		return token.Token{Type: token.NUMBER, Lexeme: num, Line: line, Column: col}
	}

	if isSymbolStart(l.ch) {
		sym := l.readSymbolChars()
		return token.Token{Type: token.SYMBOL, Lexeme: sym, Line: line, Column: col}
	}

	ch := l.ch
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Lexeme: string(ch), Line: line, Column: col}
}

// Tokens scans the whole input.
func (l *Lexer) Tokens() []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

// Commas count as whitespace, matching the surface syntax of map and
// binding forms. Line comments run from ';' to end of line.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == ',' {
			l.readChar()
		}
		if l.ch == ';' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

// readString consumes a double-quoted single-line string and returns its
// unescaped contents. Returns false when the string is unterminated.
func (l *Lexer) readString() (string, bool) {
	var sb strings.Builder
	l.readChar() // consume opening quote
	for {
		switch l.ch {
		case '"':
			l.readChar()
			return sb.String(), true
		case 0, '\n':
			return sb.String(), false
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				// Unknown escape: keep the character as-is.
				sb.WriteRune(l.ch)
			}
			l.readChar()
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func (l *Lexer) readNumber() string {
	start := l.position
	if l.ch == '-' || l.ch == '+' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		if isDigit(l.peekChar()) || ((l.peekChar() == '-' || l.peekChar() == '+') && l.position+2 < len(l.input)) {
			l.readChar()
			if l.ch == '-' || l.ch == '+' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.position]
}

func (l *Lexer) readSymbolChars() string {
	start := l.position
	for isSymbolChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isSymbolStart(ch rune) bool {
	if isSymbolChar(ch) && !isDigit(ch) {
		return true
	}
	return false
}

func isSymbolChar(ch rune) bool {
	switch ch {
	case 0, ' ', '\t', '\n', '\r', ',', '(', ')', '[', ']', '{', '}', '"', ';', ':':
		return false
	}
	if unicode.IsSpace(ch) {
		return false
	}
	return true
}
