package scum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	intPattern   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	floatPattern = regexp.MustCompile(`^[+-]?([0-9]+\.[0-9]*([eE][+-]?[0-9]+)?|[0-9]+[eE][+-]?[0-9]+|\.[0-9]+([eE][+-]?[0-9]+)?)$`)

	// R5RS identifiers: <initial> <subsequent>* | + | - | ...
	identPattern = regexp.MustCompile(`^([a-zA-Z!$%&*/:<=>?^_~][a-zA-Z!$%&*/:<=>?^_~0-9+\-.@]*|\+|-|\.\.\.)$`)
)

// Read reads source into a single expression. Several top-level expressions
// are wrapped into a List.
func Read(filename, source string) (Expression, error) {
	exprs, err := ReadAll(filename, source)
	if err != nil {
		return nil, err
	}
	switch len(exprs) {
	case 0:
		r := newReader(filename, source)
		return nil, r.errorAt(r.pos(), 0, false, "expected an expression")
	case 1:
		return exprs[0], nil
	default:
		return List(exprs), nil
	}
}

// ReadAll reads every top-level expression in source.
func ReadAll(filename, source string) ([]Expression, error) {
	r := newReader(filename, source)
	var exprs []Expression
	for {
		r.skipSpace()
		if r.eof() {
			return exprs, nil
		}
		expr, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
}

type position struct {
	offset int
	line   int
	column int
}

type reader struct {
	filename string
	source   string
	cur      position
}

func newReader(filename, source string) *reader {
	return &reader{
		filename: filename,
		source:   source,
		cur:      position{line: 1, column: 1},
	}
}

func (r *reader) pos() position { return r.cur }

func (r *reader) eof() bool { return r.cur.offset >= len(r.source) }

func (r *reader) peek() rune {
	if r.eof() {
		return utf8.RuneError
	}
	ch, _ := utf8.DecodeRuneInString(r.source[r.cur.offset:])
	return ch
}

func (r *reader) next() rune {
	ch, size := utf8.DecodeRuneInString(r.source[r.cur.offset:])
	r.cur.offset += size
	if ch == '\n' {
		r.cur.line++
		r.cur.column = 1
	} else {
		r.cur.column++
	}
	return ch
}

func (r *reader) skipSpace() {
	for !r.eof() {
		ch := r.peek()
		switch {
		case ch == ';':
			for !r.eof() && r.peek() != '\n' {
				r.next()
			}
		case unicode.IsSpace(ch):
			r.next()
		default:
			return
		}
	}
}

func (r *reader) errorAt(at position, length int, incomplete bool, format string, args ...any) *ReadError {
	return &ReadError{
		Message: fmt.Sprintf(format, args...),
		Location: SourceLocation{
			Filename: r.filename,
			Line:     at.line,
			Column:   at.column,
			Length:   length,
		},
		Source:     r.source,
		Incomplete: incomplete,
	}
}

func (r *reader) readExpr() (Expression, error) {
	start := r.pos()
	switch r.peek() {
	case '(':
		r.next()
		return r.readList(start)
	case ')':
		r.next()
		return nil, r.errorAt(start, 1, false, "unexpected )")
	case '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

// element is a list element along with where it started, for error reporting.
type element struct {
	expr  Expression
	start position
	text  string
}

func (r *reader) readList(open position) (Expression, error) {
	var elems []element
	for {
		r.skipSpace()
		if r.eof() {
			return nil, r.errorAt(open, 1, true, "unexpected end of input, expected )")
		}
		if r.peek() == ')' {
			r.next()
			break
		}
		start := r.pos()
		expr, err := r.readExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, element{
			expr:  expr,
			start: start,
			text:  r.source[start.offset:r.cur.offset],
		})
	}

	if len(elems) > 0 {
		if sym, ok := elems[0].expr.(Constant); ok {
			switch sym.Atom {
			case Symbol("define"):
				return r.readDefine(open, elems)
			case Symbol("if"):
				return r.readIf(open, elems)
			case Symbol("lambda"):
				return r.readLambda(open, elems)
			}
		}
	}

	list := make(List, len(elems))
	for i, e := range elems {
		list[i] = e.expr
	}
	return list, nil
}

func (r *reader) readDefine(open position, elems []element) (Expression, error) {
	if len(elems) != 3 {
		return nil, r.errorAt(open, 1, false, "define expects a name and a value, got %d forms", len(elems)-1)
	}
	return &Define{
		Name:  elems[1].expr,
		Value: elems[2].expr,
	}, nil
}

func (r *reader) readIf(open position, elems []element) (Expression, error) {
	if len(elems) != 4 {
		return nil, r.errorAt(open, 1, false, "if expects a condition and two branches, got %d forms", len(elems)-1)
	}
	return &If{
		Cond:    elems[1].expr,
		IfTrue:  elems[2].expr,
		IfFalse: elems[3].expr,
	}, nil
}

func (r *reader) readLambda(open position, elems []element) (Expression, error) {
	if len(elems) != 3 {
		return nil, r.errorAt(open, 1, false, "lambda expects a parameter list and a body, got %d forms", len(elems)-1)
	}

	paramList, ok := elems[1].expr.(List)
	if !ok {
		return nil, r.errorAt(elems[1].start, len(elems[1].text), false, "lambda parameters must be a list, got %s", elems[1].text)
	}

	params := make([]Identifier, 0, len(paramList))
	seen := make(map[Identifier]bool, len(paramList))
	for _, p := range paramList {
		c, ok := p.(Constant)
		if !ok || !isSymbol(c) {
			return nil, r.errorAt(elems[1].start, len(elems[1].text), false, "lambda parameter must be an identifier, got %s", Repr(p))
		}
		id := Identifier(c.Atom.(Symbol))
		if seen[id] {
			return nil, r.errorAt(elems[1].start, len(elems[1].text), false, "duplicate lambda parameter %s", id)
		}
		seen[id] = true
		params = append(params, id)
	}

	return &Lambda{
		Params: params,
		Body:   elems[2].expr,
	}, nil
}

func (r *reader) readString() (Expression, error) {
	start := r.pos()
	r.next() // opening quote

	var buf strings.Builder
	for {
		if r.eof() {
			return nil, r.errorAt(start, 1, true, "unterminated string")
		}
		escStart := r.pos()
		ch := r.next()
		switch ch {
		case '"':
			return Lit(Str(buf.String())), nil
		case '\\':
			if r.eof() {
				return nil, r.errorAt(start, 1, true, "unterminated string")
			}
			esc := r.next()
			switch esc {
			case '"', '\\', '/':
				buf.WriteRune(esc)
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'u':
				end := r.cur.offset + 4
				if end > len(r.source) {
					return nil, r.errorAt(escStart, 2, false, "invalid unicode escape")
				}
				code, err := strconv.ParseUint(r.source[r.cur.offset:end], 16, 32)
				if err != nil {
					return nil, r.errorAt(escStart, 6, false, "invalid unicode escape")
				}
				for range 4 {
					r.next()
				}
				buf.WriteRune(rune(code))
			default:
				return nil, r.errorAt(escStart, 2, false, "unknown escape sequence \\%c", esc)
			}
		default:
			buf.WriteRune(ch)
		}
	}
}

func isDelimiter(ch rune) bool {
	return ch == '(' || ch == ')' || ch == '"' || ch == ';' || unicode.IsSpace(ch)
}

func (r *reader) readAtom() (Expression, error) {
	start := r.pos()
	for !r.eof() && !isDelimiter(r.peek()) {
		r.next()
	}
	tok := r.source[start.offset:r.cur.offset]
	length := utf8.RuneCountInString(tok)

	switch {
	case tok == "#t":
		return Lit(Bool(true)), nil
	case tok == "#f":
		return Lit(Bool(false)), nil
	case intPattern.MatchString(tok):
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, r.errorAt(start, length, false, "integer out of range: %s", tok)
		}
		return Lit(Int(n)), nil
	case floatPattern.MatchString(tok):
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, r.errorAt(start, length, false, "float out of range: %s", tok)
		}
		return Lit(Float(f)), nil
	case identPattern.MatchString(tok):
		return Sym(tok), nil
	default:
		return nil, r.errorAt(start, length, false, "unknown token %q", tok)
	}
}
