package maincmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/mna/ember/lang/compiler"
	"github.com/mna/ember/lang/value"
)

// reader is a minimal recursive-descent s-expression reader, standing in
// for the out-of-scope lexer/parser just far enough to build a Value tree
// the compiler can consume from the CLI's plain-text program description.
// It is deliberately small: the CORE's contract starts at compiler.Compile
// receiving an already-parsed Value.
type reader struct {
	src []rune
	pos int
}

func readProgram(src string) (value.Value, error) {
	r := &reader{src: []rune(src)}
	r.skipSpace()
	v, err := r.readValue()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if r.pos != len(r.src) {
		return nil, fmt.Errorf("trailing input at offset %d", r.pos)
	}
	return v, nil
}

func (r *reader) peek() (rune, bool) {
	if r.pos >= len(r.src) {
		return 0, false
	}
	return r.src[r.pos], true
}

func (r *reader) skipSpace() {
	for {
		c, ok := r.peek()
		if !ok {
			return
		}
		if c == '#' {
			for {
				c, ok := r.peek()
				if !ok || c == '\n' {
					break
				}
				r.pos++
			}
			continue
		}
		if !unicode.IsSpace(c) {
			return
		}
		r.pos++
	}
}

func (r *reader) readValue() (value.Value, error) {
	r.skipSpace()
	c, ok := r.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch {
	case c == '(':
		return r.readSeq('(', ')', false)
	case c == '[':
		return r.readSeq('[', ']', true)
	case c == '@' && r.at(1, '['):
		r.pos++
		return r.readArray()
	case c == '@' && r.at(1, '{'):
		r.pos++
		return r.readTable()
	case c == '{':
		return r.readStruct()
	case c == '"':
		return r.readString()
	case c == ':':
		return r.readKeyword()
	default:
		return r.readAtom()
	}
}

func (r *reader) at(offset int, want rune) bool {
	i := r.pos + offset
	return i < len(r.src) && r.src[i] == want
}

func (r *reader) readSeq(open, close rune, bracket bool) (value.Value, error) {
	r.pos++ // consume open
	var elems []value.Value
	for {
		r.skipSpace()
		c, ok := r.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated list")
		}
		if c == close {
			r.pos++
			break
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	if bracket {
		return value.NewBracketTuple(elems), nil
	}
	return value.NewTuple(elems), nil
}

func (r *reader) readArray() (value.Value, error) {
	r.pos++ // consume '['
	var elems []value.Value
	for {
		r.skipSpace()
		c, ok := r.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated array")
		}
		if c == ']' {
			r.pos++
			break
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return value.NewArray(elems), nil
}

func (r *reader) readTable() (value.Value, error) {
	pairs, err := r.readPairs('{', '}')
	if err != nil {
		return nil, err
	}
	return &compiler.TableLiteral{Pairs: pairs}, nil
}

func (r *reader) readStruct() (value.Value, error) {
	pairs, err := r.readPairs('{', '}')
	if err != nil {
		return nil, err
	}
	return &compiler.StructLiteral{Pairs: pairs}, nil
}

func (r *reader) readPairs(open, close rune) ([][2]value.Value, error) {
	r.pos++ // consume open
	var pairs [][2]value.Value
	for {
		r.skipSpace()
		c, ok := r.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated struct/table literal")
		}
		if c == close {
			r.pos++
			break
		}
		k, err := r.readValue()
		if err != nil {
			return nil, err
		}
		r.skipSpace()
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]value.Value{k, v})
	}
	return pairs, nil
}

func (r *reader) readString() (value.Value, error) {
	r.pos++ // consume opening quote
	var sb strings.Builder
	for {
		c, ok := r.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated string")
		}
		r.pos++
		if c == '"' {
			break
		}
		if c == '\\' {
			esc, ok := r.peek()
			if !ok {
				return nil, fmt.Errorf("unterminated string escape")
			}
			r.pos++
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteRune(esc)
			}
			continue
		}
		sb.WriteRune(c)
	}
	return value.String(sb.String()), nil
}

func (r *reader) readKeyword() (value.Value, error) {
	r.pos++ // consume ':'
	start := r.pos
	for {
		c, ok := r.peek()
		if !ok || isDelim(c) {
			break
		}
		r.pos++
	}
	return value.Keyword(string(r.src[start:r.pos])), nil
}

func (r *reader) readAtom() (value.Value, error) {
	start := r.pos
	for {
		c, ok := r.peek()
		if !ok || isDelim(c) {
			break
		}
		r.pos++
	}
	text := string(r.src[start:r.pos])
	if text == "" {
		return nil, fmt.Errorf("empty atom at offset %d", start)
	}
	switch text {
	case "nil":
		return value.NilValue, nil
	case "true":
		return value.True, nil
	case "false":
		return value.False, nil
	}
	if iv, err := strconv.ParseInt(text, 10, 32); err == nil {
		return value.Int(iv), nil
	}
	if fv, err := strconv.ParseFloat(text, 64); err == nil {
		return value.Number(fv), nil
	}
	return value.Symbol(text), nil
}

func isDelim(c rune) bool {
	return unicode.IsSpace(c) || c == '(' || c == ')' || c == '[' || c == ']' || c == '{' || c == '}' || c == '"'
}
