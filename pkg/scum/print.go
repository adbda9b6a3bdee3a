package scum

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func (b Bool) String() string {
	if b {
		return "#t"
	}
	return "#f"
}

func (i Int) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// String always includes a decimal point so the value reads back as a Float.
func (f Float) String() string {
	x := float64(f)
	switch {
	case math.IsNaN(x):
		return "+nan.0"
	case math.IsInf(x, 1):
		return "+inf.0"
	case math.IsInf(x, -1):
		return "-inf.0"
	}

	abs := math.Abs(x)
	if abs == 0 || (abs >= 1e-4 && abs < 1e21) {
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(x, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	return mantissa + "e" + exp
}

func (s Str) String() string {
	return string(s)
}

func (s Symbol) String() string {
	return string(s)
}

func (c Constant) String() string {
	if c.Atom == nil {
		return "<nil>"
	}
	return c.Atom.String()
}

func (d *Define) String() string {
	return fmt.Sprintf("(define %s %s)", d.Name, d.Value)
}

func (i *If) String() string {
	return fmt.Sprintf("(if %s %s %s)", i.Cond, i.IfTrue, i.IfFalse)
}

func (f *Function) String() string {
	return fmt.Sprintf("#<function %s>", f.Name)
}

func (l *Lambda) String() string {
	return fmt.Sprintf("#<procedure %s>", paramList(l.Params))
}

func (l List) String() string {
	return paren(l, Expression.String)
}

// Repr renders expr so that reading it back yields an equal expression.
// Strings are quoted, and lambdas that have not captured an environment are
// printed as source. Closures and functions stay opaque.
func Repr(expr Expression) string {
	switch e := expr.(type) {
	case Constant:
		if s, ok := e.Atom.(Str); ok {
			return quote(string(s))
		}
		return e.String()
	case List:
		return paren(e, Repr)
	case *Define:
		return fmt.Sprintf("(define %s %s)", Repr(e.Name), Repr(e.Value))
	case *If:
		return fmt.Sprintf("(if %s %s %s)", Repr(e.Cond), Repr(e.IfTrue), Repr(e.IfFalse))
	case *Lambda:
		if e.Env != nil {
			return e.String()
		}
		return fmt.Sprintf("(lambda %s %s)", paramList(e.Params), Repr(e.Body))
	case nil:
		return "<nil>"
	default:
		return e.String()
	}
}

func paren(xs []Expression, show func(Expression) string) string {
	var buf strings.Builder
	buf.WriteByte('(')
	for i, x := range xs {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(show(x))
	}
	buf.WriteByte(')')
	return buf.String()
}

func paramList(params []Identifier) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = string(p)
	}
	return "(" + strings.Join(names, " ") + ")"
}

// quote escapes s using only the escapes the reader understands.
func quote(s string) string {
	var buf strings.Builder
	buf.Grow(len(s) + 2)
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	return buf.String()
}
