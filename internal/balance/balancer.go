// Package balance repairs mismatched nesting delimiters in generated test
// source. It replays the lexical scanner over the text, drops orphan closers
// left behind by truncated blocks, and closes any nesting still open at end
// of input. Balancing is total: it always terminates with equal opener and
// closer counts and never returns an error.
package balance

import (
	"strings"

	"testmend/internal/scan"
)

// Result describes one balancing pass.
type Result struct {
	// Text is the repaired source.
	Text string
	// OrphanClosersDropped counts structural closers removed because no
	// matching opener preceded them.
	OrphanClosersDropped int
	// ClosersAppended counts delimiters appended at end of input to close
	// nesting that the text left open.
	ClosersAppended int
}

// Balance repairs the text's brace and parenthesis nesting.
//
// Structural openers increment a depth counter; structural closers decrement
// it when depth is positive. A closer at depth zero is an orphan, the usual
// remnant of a truncated grouping block: the orphan is dropped along with its
// own trailing run of stray ')', ';', and horizontal whitespace, up to and
// including one newline. Adjacent orphans are handled one at a time, each
// consuming only its own trailing run. Remaining positive depth at end of
// input is closed by appending braces, then parentheses.
func Balance(text string) Result {
	var out strings.Builder
	out.Grow(len(text))

	tokens, endState := collect(text)
	braceDepth := 0
	parenDepth := 0
	res := Result{}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if !tok.Structural {
			out.WriteByte(tok.Ch)
			continue
		}

		switch tok.Ch {
		case '{':
			braceDepth++
			out.WriteByte(tok.Ch)
		case '(':
			parenDepth++
			out.WriteByte(tok.Ch)
		case '}':
			if braceDepth > 0 {
				braceDepth--
				out.WriteByte(tok.Ch)
				continue
			}
			res.OrphanClosersDropped++
			i = consumeTrailingRun(tokens, i)
		case ')':
			if parenDepth > 0 {
				parenDepth--
				out.WriteByte(tok.Ch)
				continue
			}
			res.OrphanClosersDropped++
		default:
			// Square brackets are structural for extraction but are not
			// repaired; array literals survive as written.
			out.WriteByte(tok.Ch)
		}
	}

	// Close any unterminated string or comment before appending delimiters;
	// otherwise the appended closers would sit inside the open literal.
	switch endState {
	case scan.StateSingleQuote:
		out.WriteByte('\'')
	case scan.StateDoubleQuote:
		out.WriteByte('"')
	case scan.StateTemplateQuote:
		out.WriteByte('`')
	case scan.StateLineComment:
		out.WriteByte('\n')
	case scan.StateBlockComment:
		out.WriteString("*/")
	}

	for i := 0; i < braceDepth; i++ {
		out.WriteByte('\n')
		out.WriteByte('}')
		res.ClosersAppended++
	}
	for i := 0; i < parenDepth; i++ {
		out.WriteByte(')')
		res.ClosersAppended++
	}

	res.Text = out.String()
	return res
}

// consumeTrailingRun skips the artifact run that follows an orphan closing
// brace: stray ')' and ';' and horizontal whitespace, through at most one
// newline. It returns the index of the last consumed token. Paren depth is
// left alone: if a swallowed ')' had a surviving opener, end-of-input closure
// restores the balance.
func consumeTrailingRun(tokens []scan.Token, at int) int {
	i := at
	for i+1 < len(tokens) {
		next := tokens[i+1]
		switch next.Ch {
		case ')', ';', ' ', '\t', '\r':
			i++
		case '\n':
			return i + 1
		default:
			return i
		}
	}
	return i
}

// collect materializes the token stream and the lexical state at end of
// input. The balancer needs one token of lookahead across the artifact run,
// which is simpler over a slice.
func collect(text string) ([]scan.Token, scan.State) {
	sc := scan.New(text)
	tokens := make([]scan.Token, 0, len(text))
	for {
		tok, ok := sc.Next()
		if !ok {
			return tokens, sc.State()
		}
		tokens = append(tokens, tok)
	}
}
