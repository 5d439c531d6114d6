package vm

import (
	"github.com/kindelia-network/gkind/core/types"
	"github.com/kindelia-network/gkind/params"
)

// StateReader gives the engine read access to the function table during
// reduction. It is implemented by core/state.StateDB. Function unfolding is
// ordinary name-table lookup, so recursion and forward references inside a
// definition need no special handling.
type StateReader interface {
	FunctionRules(name types.Name) ([]types.Rule, bool)
}

// maxReadbackNodes bounds the size of a term read back from the heap.
const maxReadbackNodes = 1 << 20

// Machine normalizes terms under a mana ceiling. It owns a scratch heap
// that never touches the state store; the executor copies results back.
// A Machine is single-use per statement and not safe for concurrent use.
type Machine struct {
	heap      *Heap
	state     StateReader
	manaLimit uint64
	manaUsed  uint64
}

// NewMachine returns a machine reading function rules from state, bounded
// by manaLimit.
func NewMachine(state StateReader, manaLimit uint64) *Machine {
	return &Machine{heap: &Heap{}, state: state, manaLimit: manaLimit}
}

// ManaUsed returns the mana consumed so far.
func (m *Machine) ManaUsed() uint64 { return m.manaUsed }

// Charge deducts amount from the remaining mana. Callers layering extra
// costs on top of reduction, such as effect interpretation, account them
// through the same ceiling.
func (m *Machine) Charge(amount uint64) error { return m.charge(amount) }

// HeapSize returns the number of cells allocated so far.
func (m *Machine) HeapSize() int { return m.heap.Size() }

func (m *Machine) charge(amount uint64) error {
	if amount > m.manaLimit-m.manaUsed {
		return ErrManaExceeded
	}
	m.manaUsed += amount
	return nil
}

func (m *Machine) alloc(c Cell) (Ptr, error) {
	if err := m.charge(params.ManaCell * uint64(1+len(c.Args))); err != nil {
		return 0, err
	}
	return m.heap.alloc(c), nil
}

// Load allocates a term onto the heap, charging allocation mana. Variables
// load as free variables.
func (m *Machine) Load(t *types.Term) (Ptr, error) {
	switch t.Kind {
	case types.TermVar:
		return m.alloc(Cell{Kind: types.TermVar, Name: t.Name})
	case types.TermNum:
		return m.alloc(Cell{Kind: types.TermNum, Num: t.Num})
	default:
		args := make([]Ptr, len(t.Args))
		for i, a := range t.Args {
			p, err := m.Load(a)
			if err != nil {
				return 0, err
			}
			args[i] = p
		}
		return m.alloc(Cell{Kind: t.Kind, Name: t.Name, Oper: t.Oper, Args: args})
	}
}

// AllocNum allocates a bare numeric cell.
func (m *Machine) AllocNum(v types.U120) (Ptr, error) {
	return m.alloc(Cell{Kind: types.TermNum, Num: v})
}

// AllocApp allocates an application cell.
func (m *Machine) AllocApp(fn, arg Ptr) (Ptr, error) {
	return m.alloc(Cell{Kind: types.TermApp, Args: []Ptr{fn, arg}})
}

// AllocFun allocates a function call cell.
func (m *Machine) AllocFun(name types.Name, args []Ptr) (Ptr, error) {
	return m.alloc(Cell{Kind: types.TermFun, Name: name, Args: args})
}

// Cell returns a copy of the cell at p.
func (m *Machine) Cell(p Ptr) Cell { return *m.heap.cell(p) }

type frame struct {
	ptr     Ptr
	visited bool
}

// Normalize reduces the graph rooted at p to normal form, in place, and
// returns p. Reduction proceeds until no rule matches and no operator
// reduces, or the mana ceiling is hit. Cells carry a norm mark so shared
// subgraphs are traversed once; without it a heavily aliased graph could
// be re-walked exponentially often without consuming mana.
func (m *Machine) Normalize(p Ptr) (Ptr, error) {
	stack := []frame{{ptr: p}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := m.heap.cell(f.ptr)
		if c.norm {
			continue
		}
		if !f.visited {
			switch c.Kind {
			case types.TermVar, types.TermNum:
				c.norm = true
			default:
				stack = append(stack, frame{ptr: f.ptr, visited: true})
				for i := len(c.Args) - 1; i >= 0; i-- {
					stack = append(stack, frame{ptr: c.Args[i]})
				}
			}
			continue
		}
		switch c.Kind {
		case types.TermOp2:
			a, b := m.heap.cell(c.Args[0]), m.heap.cell(c.Args[1])
			if a.Kind != types.TermNum || b.Kind != types.TermNum {
				c.norm = true
				continue
			}
			if err := m.charge(params.ManaOp2); err != nil {
				return 0, err
			}
			v := evalOp(c.Oper, a.Num, b.Num)
			*c = Cell{Kind: types.TermNum, Num: v, norm: true}
		case types.TermApp:
			fn := m.heap.cell(c.Args[0])
			if (fn.Kind != types.TermCtr && fn.Kind != types.TermFun) || len(fn.Args) >= params.MaxArity {
				c.norm = true
				continue
			}
			// Currying: an application whose head is an underapplied call
			// or constructor appends its argument to the head.
			if err := m.charge(params.ManaCell * uint64(2+len(fn.Args))); err != nil {
				return 0, err
			}
			args := make([]Ptr, 0, len(fn.Args)+1)
			args = append(args, fn.Args...)
			args = append(args, c.Args[1])
			*c = Cell{Kind: fn.Kind, Name: fn.Name, Args: args}
			stack = append(stack, frame{ptr: f.ptr})
		case types.TermFun:
			rewritten, err := m.dispatch(f.ptr)
			if err != nil {
				return 0, err
			}
			if rewritten {
				stack = append(stack, frame{ptr: f.ptr})
			} else {
				m.heap.cell(f.ptr).norm = true
			}
		default:
			c.norm = true
		}
	}
	return p, nil
}

// dispatch tries the ordered rule list of the call at p; the first
// structurally matching rule fires and overwrites p with its instantiated
// right-hand side. Returns whether a rule fired. A call with no matching
// rule (or no rules at all) is left stuck.
func (m *Machine) dispatch(p Ptr) (bool, error) {
	call := m.heap.cell(p)
	rules, ok := m.state.FunctionRules(call.Name)
	if !ok {
		return false, nil
	}
	args := call.Args
	for i := range rules {
		if err := m.charge(params.ManaMatch); err != nil {
			return false, err
		}
		binds, ok := m.match(&rules[i], args)
		if !ok {
			continue
		}
		if err := m.charge(params.ManaRewrite); err != nil {
			return false, err
		}
		q, err := m.instantiate(rules[i].RHS, binds)
		if err != nil {
			return false, err
		}
		// Overwrite in place so every sharer of p sees the result.
		// Re-fetch: instantiate may have grown the heap.
		src := *m.heap.cell(q)
		src.norm = false
		*m.heap.cell(p) = src
		return true, nil
	}
	return false, nil
}

// match checks one rule's left-hand patterns against argument cells.
// Patterns are flat by construction (checked at definition time): a
// variable binds the whole argument, a literal matches an equal number,
// and a constructor pattern matches kind, name and arity, binding its
// variable fields. Bindings share the argument subgraph — substitution
// never copies.
func (m *Machine) match(rule *types.Rule, args []Ptr) (map[types.Name]Ptr, bool) {
	pats := rule.LHS.Args
	if len(pats) != len(args) {
		return nil, false
	}
	var binds map[types.Name]Ptr
	bind := func(n types.Name, p Ptr) {
		if binds == nil {
			binds = make(map[types.Name]Ptr, 4)
		}
		binds[n] = p
	}
	for i, pat := range pats {
		c := m.heap.cell(args[i])
		switch pat.Kind {
		case types.TermVar:
			bind(pat.Name, args[i])
		case types.TermNum:
			if c.Kind != types.TermNum || c.Num != pat.Num {
				return nil, false
			}
		case types.TermCtr:
			if c.Kind != types.TermCtr || c.Name != pat.Name || len(c.Args) != len(pat.Args) {
				return nil, false
			}
			for j, field := range pat.Args {
				bind(field.Name, c.Args[j])
			}
		default:
			return nil, false
		}
	}
	return binds, true
}

// instantiate allocates a rule right-hand side, substituting bound
// variables with their argument pointers.
func (m *Machine) instantiate(t *types.Term, binds map[types.Name]Ptr) (Ptr, error) {
	if t.Kind == types.TermVar {
		if p, ok := binds[t.Name]; ok {
			if err := m.charge(params.ManaVar); err != nil {
				return 0, err
			}
			return p, nil
		}
		return m.alloc(Cell{Kind: types.TermVar, Name: t.Name})
	}
	if t.Kind == types.TermNum {
		return m.alloc(Cell{Kind: types.TermNum, Num: t.Num})
	}
	args := make([]Ptr, len(t.Args))
	for i, a := range t.Args {
		p, err := m.instantiate(a, binds)
		if err != nil {
			return 0, err
		}
		args[i] = p
	}
	return m.alloc(Cell{Kind: t.Kind, Name: t.Name, Oper: t.Oper, Args: args})
}

// Readback converts the graph rooted at p into a term tree. Shared cells
// duplicate in the output, so the node budget, not the heap size, bounds
// the result.
func (m *Machine) Readback(p Ptr) (*types.Term, error) {
	budget := maxReadbackNodes
	return m.readback(p, &budget)
}

func (m *Machine) readback(p Ptr, budget *int) (*types.Term, error) {
	if *budget == 0 {
		return nil, ErrTermTooLarge
	}
	*budget--
	c := m.heap.cell(p)
	switch c.Kind {
	case types.TermVar:
		return types.Var(c.Name), nil
	case types.TermNum:
		return types.Num(c.Num), nil
	}
	kind, name, oper := c.Kind, c.Name, c.Oper
	args := make([]*types.Term, len(c.Args))
	for i, a := range c.Args {
		sub, err := m.readback(a, budget)
		if err != nil {
			return nil, err
		}
		args[i] = sub
	}
	return &types.Term{Kind: kind, Name: name, Oper: oper, Args: args}, nil
}
