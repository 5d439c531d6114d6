package types

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/kindelia-network/gkind/common"
)

// StatementKind tags the variants of a Statement. The values are wire tags
// and must never be reassigned.
type StatementKind byte

const (
	StmtFun StatementKind = iota // define a pattern-matching function
	StmtCtr                      // define a constructor
	StmtRun                      // normalize a term
	StmtReg                      // register a namespace to an owner
)

func (k StatementKind) String() string {
	switch k {
	case StmtFun:
		return "fun"
	case StmtCtr:
		return "ctr"
	case StmtRun:
		return "run"
	case StmtReg:
		return "reg"
	}
	return fmt.Sprintf("StatementKind(%d)", byte(k))
}

// SignatureLength is the byte length of a statement signature
// ([R || S || V] compact secp256k1).
const SignatureLength = 65

// Signature is a compact secp256k1 signature over a statement's signing
// payload.
type Signature [SignatureLength]byte

// Rule is one rewrite rule of a function: a left-hand pattern (a call
// skeleton with variable, literal and flat constructor slots) and a
// right-hand template. Rule lists are ordered; dispatch is
// first-match-wins.
type Rule struct {
	LHS *Term
	RHS *Term
}

// Statement is a unit of submitted intent, optionally signed.
type Statement struct {
	Kind  StatementKind
	Name  Name           // fun/ctr: defined name; reg: namespace
	Args  []Name         // fun: argument names (the arity)
	Rules []Rule         // fun: ordered rewrite rules
	Init  *Term          // fun: initial stored term
	Expr  *Term          // run: term to normalize
	Owner common.Address // reg: claimed owner
	Sig   *Signature     // optional authentication

	// caches
	hash atomic.Value
	auth atomic.Value
}

// NewDefineFun returns an unsigned function definition statement.
func NewDefineFun(name Name, args []Name, rules []Rule, init *Term) *Statement {
	return &Statement{Kind: StmtFun, Name: name, Args: args, Rules: rules, Init: init}
}

// NewDefineCtr returns an unsigned constructor definition statement. The
// declared arity is the argument name count.
func NewDefineCtr(name Name, arity int) *Statement {
	args := make([]Name, arity)
	for i := range args {
		args[i] = MustParseName(fmt.Sprintf("x%d", i))
	}
	return &Statement{Kind: StmtCtr, Name: name, Args: args}
}

// NewRun returns an unsigned run statement.
func NewRun(expr *Term) *Statement {
	return &Statement{Kind: StmtRun, Expr: expr}
}

// NewRegister returns an unsigned namespace registration statement.
func NewRegister(name Name, owner common.Address) *Statement {
	return &Statement{Kind: StmtReg, Name: name, Owner: owner}
}

// Arity returns the declared argument count of a fun/ctr statement.
func (s *Statement) Arity() int { return len(s.Args) }

// WithSignature returns a copy of the statement carrying sig. The caches
// are not carried over.
func (s *Statement) WithSignature(sig Signature) *Statement {
	cpy := &Statement{
		Kind:  s.Kind,
		Name:  s.Name,
		Args:  s.Args,
		Rules: s.Rules,
		Init:  s.Init,
		Expr:  s.Expr,
		Owner: s.Owner,
	}
	cpy.Sig = &sig
	return cpy
}

// String renders the statement in source form.
func (s *Statement) String() string {
	var sb strings.Builder
	switch s.Kind {
	case StmtFun:
		fmt.Fprintf(&sb, "fun (%s", s.Name)
		for _, a := range s.Args {
			fmt.Fprintf(&sb, " %s", a)
		}
		sb.WriteString(") {")
		for _, r := range s.Rules {
			fmt.Fprintf(&sb, " %s = %s", r.LHS, r.RHS)
		}
		fmt.Fprintf(&sb, " } with { %s }", s.Init)
	case StmtCtr:
		fmt.Fprintf(&sb, "ctr {%s", s.Name)
		for _, a := range s.Args {
			fmt.Fprintf(&sb, " %s", a)
		}
		sb.WriteString("}")
	case StmtRun:
		fmt.Fprintf(&sb, "run { %s }", s.Expr)
	case StmtReg:
		fmt.Fprintf(&sb, "reg %s { #%s }", s.Name, s.Owner)
	}
	return sb.String()
}

// Block is an ordered sequence of statements applied as one unit.
type Block struct {
	Statements []*Statement
}
