package types

import (
	"fmt"
	"strings"
)

// TermKind tags the variants of a Term.
type TermKind byte

const (
	TermVar TermKind = iota // variable
	TermApp                 // application of a term to a term
	TermCtr                 // constructor with fields
	TermFun                 // pattern-matching function call
	TermNum                 // unsigned 120-bit numeric literal
	TermOp2                 // binary numeric or comparison operation
)

// Oper is a binary numeric or comparison operator. Arithmetic wraps modulo
// 2^120; division and modulo by zero yield zero; comparisons yield #1 or #0.
type Oper byte

const (
	OpAdd Oper = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpLtn
	OpLte
	OpEql
	OpGte
	OpGtn
	OpNeq
)

var operNames = [...]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpAnd: "&", OpOr: "|", OpXor: "^", OpShl: "<<", OpShr: ">>",
	OpLtn: "<", OpLte: "<=", OpEql: "==", OpGte: ">=", OpGtn: ">", OpNeq: "!=",
}

func (op Oper) String() string {
	if int(op) < len(operNames) {
		return operNames[op]
	}
	return fmt.Sprintf("Oper(%d)", byte(op))
}

// Term is the expression tree the rewriting engine operates on. Terms are
// treated as immutable once constructed; reduction happens on a separate
// heap representation.
type Term struct {
	Kind TermKind
	Name Name    // variable, constructor or function name
	Num  U120    // numeric literal value
	Oper Oper    // binary operator
	Args []*Term // App: [function, argument]; Ctr/Fun: fields; Op2: [left, right]
}

// Var returns a variable term.
func Var(name Name) *Term { return &Term{Kind: TermVar, Name: name} }

// App returns the application of fn to arg.
func App(fn, arg *Term) *Term { return &Term{Kind: TermApp, Args: []*Term{fn, arg}} }

// Ctr returns a constructor term.
func Ctr(name Name, fields ...*Term) *Term {
	return &Term{Kind: TermCtr, Name: name, Args: fields}
}

// Fun returns a function call term.
func Fun(name Name, args ...*Term) *Term {
	return &Term{Kind: TermFun, Name: name, Args: args}
}

// Num returns a numeric literal term.
func Num(v U120) *Term { return &Term{Kind: TermNum, Num: v} }

// NumU64 returns a numeric literal term with a small value.
func NumU64(v uint64) *Term { return Num(NewU120(v)) }

// Op2 returns a binary operation term.
func Op2(op Oper, a, b *Term) *Term {
	return &Term{Kind: TermOp2, Oper: op, Args: []*Term{a, b}}
}

// Equal reports whether two terms are structurally identical.
func (t *Term) Equal(o *Term) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name || t.Num != o.Num || t.Oper != o.Oper {
		return false
	}
	if len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// String renders the term in source form: `#42`, `{Pair a b}`, `(Fn a b)`,
// `(+ a b)`, `(! f x)`.
func (t *Term) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Term) write(sb *strings.Builder) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case TermVar:
		sb.WriteString(t.Name.String())
	case TermApp:
		sb.WriteString("(! ")
		t.Args[0].write(sb)
		sb.WriteByte(' ')
		t.Args[1].write(sb)
		sb.WriteByte(')')
	case TermCtr:
		sb.WriteByte('{')
		sb.WriteString(t.Name.String())
		for _, a := range t.Args {
			sb.WriteByte(' ')
			a.write(sb)
		}
		sb.WriteByte('}')
	case TermFun:
		sb.WriteByte('(')
		sb.WriteString(t.Name.String())
		for _, a := range t.Args {
			sb.WriteByte(' ')
			a.write(sb)
		}
		sb.WriteByte(')')
	case TermNum:
		sb.WriteByte('#')
		sb.WriteString(t.Num.String())
	case TermOp2:
		sb.WriteByte('(')
		sb.WriteString(t.Oper.String())
		sb.WriteByte(' ')
		t.Args[0].write(sb)
		sb.WriteByte(' ')
		t.Args[1].write(sb)
		sb.WriteByte(')')
	default:
		fmt.Fprintf(sb, "<bad term kind %d>", t.Kind)
	}
}
