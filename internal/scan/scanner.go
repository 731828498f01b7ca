// Package scan implements a single-pass lexical scanner over generated test
// source text. It tracks quote and comment state so downstream repair logic
// can tell structural braces from braces that merely appear inside strings or
// comments. The scanner keeps only a cursor into the input; it never copies
// the text.
package scan

// State is the lexical state at a given character.
type State int

const (
	// StateNone means the character sits in plain code.
	StateNone State = iota
	// StateSingleQuote means inside a '...' string literal.
	StateSingleQuote
	// StateDoubleQuote means inside a "..." string literal.
	StateDoubleQuote
	// StateTemplateQuote means inside a `...` template literal.
	StateTemplateQuote
	// StateLineComment means inside a // comment.
	StateLineComment
	// StateBlockComment means inside a /* */ comment.
	StateBlockComment
)

// String returns a short name for the state.
func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateSingleQuote:
		return "single-quote"
	case StateDoubleQuote:
		return "double-quote"
	case StateTemplateQuote:
		return "template-quote"
	case StateLineComment:
		return "line-comment"
	case StateBlockComment:
		return "block-comment"
	default:
		return "unknown"
	}
}

// Token is one character of input together with its lexical classification.
type Token struct {
	// Pos is the byte offset of the character in the input.
	Pos int
	// Ch is the character itself.
	Ch byte
	// State is the lexical state the character was read in.
	State State
	// Structural is true when the character is a nesting delimiter that
	// counts for balance and extraction, i.e. it is one of {}()[] and sits
	// outside every string and comment.
	Structural bool
}

// Scanner walks input text one byte at a time, maintaining quote and comment
// state across calls.
type Scanner struct {
	text  string
	pos   int
	state State
	// commentOpen is the position of the '/' that opened the current block
	// comment. It keeps "/*/" from closing the comment it just opened.
	commentOpen int
}

// New creates a scanner positioned at the start of text.
func New(text string) *Scanner {
	return &Scanner{text: text}
}

// State returns the lexical state after the last token read. Once the input
// is exhausted it tells the caller whether the text ended inside an
// unterminated string or comment.
func (s *Scanner) State() State {
	return s.state
}

// Next returns the next token. The second result is false once the input is
// exhausted.
func (s *Scanner) Next() (Token, bool) {
	if s.pos >= len(s.text) {
		return Token{}, false
	}

	ch := s.text[s.pos]
	pos := s.pos
	state := s.state
	next := byte(0)
	if s.pos+1 < len(s.text) {
		next = s.text[s.pos+1]
	}

	switch s.state {
	case StateNone:
		switch {
		case ch == '\'':
			s.state = StateSingleQuote
			state = StateSingleQuote
		case ch == '"':
			s.state = StateDoubleQuote
			state = StateDoubleQuote
		case ch == '`':
			s.state = StateTemplateQuote
			state = StateTemplateQuote
		case ch == '/' && next == '/':
			s.state = StateLineComment
			state = StateLineComment
		case ch == '/' && next == '*':
			s.state = StateBlockComment
			s.commentOpen = pos
			state = StateBlockComment
		}

	case StateSingleQuote:
		if ch == '\'' && !s.escaped(pos) {
			s.state = StateNone
		}

	case StateDoubleQuote:
		if ch == '"' && !s.escaped(pos) {
			s.state = StateNone
		}

	case StateTemplateQuote:
		if ch == '`' && !s.escaped(pos) {
			s.state = StateNone
		}

	case StateLineComment:
		if ch == '\n' {
			s.state = StateNone
			state = StateNone
		}

	case StateBlockComment:
		if ch == '/' && pos >= s.commentOpen+3 && s.text[pos-1] == '*' {
			s.state = StateNone
		}
	}

	s.pos++
	return Token{
		Pos:        pos,
		Ch:         ch,
		State:      state,
		Structural: state == StateNone && isDelimiter(ch),
	}, true
}

// escaped reports whether the character at pos is escaped, i.e. preceded by
// an odd number of backslashes. An even count means the backslashes escape
// each other and the quote closes the string.
func (s *Scanner) escaped(pos int) bool {
	count := 0
	for i := pos - 1; i >= 0 && s.text[i] == '\\'; i-- {
		count++
	}
	return count%2 == 1
}

func isDelimiter(ch byte) bool {
	switch ch {
	case '{', '}', '(', ')', '[', ']':
		return true
	default:
		return false
	}
}

// Each runs fn over every token in text, in order. It is a convenience for
// consumers that do not need incremental control.
func Each(text string, fn func(Token)) {
	sc := New(text)
	for {
		tok, ok := sc.Next()
		if !ok {
			return
		}
		fn(tok)
	}
}
