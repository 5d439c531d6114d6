package core

import (
	"fmt"

	"github.com/kindelia-network/gkind/core/types"
	"github.com/kindelia-network/gkind/core/vm"
	"github.com/kindelia-network/gkind/params"
)

// Effect constructors. A run statement whose normal form is one of these
// is interpreted by the executor rather than returned as data; anything
// else is an ordinary result.
var (
	effDone = types.MustParseName("IO.done")
	effLoad = types.MustParseName("IO.load")
	effSave = types.MustParseName("IO.save")
	effCall = types.MustParseName("IO.call")
	effSubj = types.MustParseName("IO.subj")
)

// effect arities: {IO.done x}, {IO.load cont}, {IO.save val cont},
// {IO.call name arg cont}, {IO.subj cont}.

// runEffects drives the effect loop of a run statement. subject is the
// account the effects act on; it changes to the callee for the duration of
// an IO.call. Constructors that look like effects but have the wrong shape
// are returned untouched, as plain data.
func (st *StateTransition) runEffects(machine *vm.Machine, subject types.Name, p vm.Ptr) (vm.Ptr, error) {
	for {
		c := machine.Cell(p)
		if c.Kind != types.TermCtr {
			return p, nil
		}
		switch c.Name {
		case effDone:
			if len(c.Args) != 1 {
				return p, nil
			}
			return c.Args[0], nil

		case effLoad:
			if len(c.Args) != 1 {
				return p, nil
			}
			if subject.IsEmpty() {
				return 0, fmt.Errorf("%w: effect needs a signed statement", ErrUnauthorized)
			}
			if err := machine.Charge(params.ManaIO); err != nil {
				return 0, err
			}
			cur, ok := st.state.FunctionState(subject)
			if !ok {
				cur = types.Num(types.U120{})
			}
			curp, err := machine.Load(cur)
			if err != nil {
				return 0, err
			}
			p, err = st.resume(machine, c.Args[0], curp)
			if err != nil {
				return 0, err
			}

		case effSave:
			if len(c.Args) != 2 {
				return p, nil
			}
			if subject.IsEmpty() {
				return 0, fmt.Errorf("%w: effect needs a signed statement", ErrUnauthorized)
			}
			if err := machine.Charge(params.ManaIO); err != nil {
				return 0, err
			}
			val, err := machine.Readback(c.Args[0])
			if err != nil {
				return 0, err
			}
			st.state.SetFunctionState(subject, val)
			st.spaceUsed += types.TermSize(val)
			zero, err := machine.AllocNum(types.U120{})
			if err != nil {
				return 0, err
			}
			p, err = st.resume(machine, c.Args[1], zero)
			if err != nil {
				return 0, err
			}

		case effSubj:
			if len(c.Args) != 1 {
				return p, nil
			}
			if subject.IsEmpty() {
				return 0, fmt.Errorf("%w: effect needs a signed statement", ErrUnauthorized)
			}
			if err := machine.Charge(params.ManaIO); err != nil {
				return 0, err
			}
			who, err := machine.AllocNum(types.U120(subject))
			if err != nil {
				return 0, err
			}
			p, err = st.resume(machine, c.Args[0], who)
			if err != nil {
				return 0, err
			}

		case effCall:
			if len(c.Args) != 3 {
				return p, nil
			}
			if err := machine.Charge(params.ManaIO); err != nil {
				return 0, err
			}
			target := machine.Cell(c.Args[0])
			if target.Kind != types.TermNum {
				return 0, fmt.Errorf("%w: effect target must reduce to a name", ErrInvalidStatement)
			}
			callee := types.Name(target.Num)
			callp, err := machine.AllocFun(callee, []vm.Ptr{c.Args[1]})
			if err != nil {
				return 0, err
			}
			callp, err = machine.Normalize(callp)
			if err != nil {
				return 0, err
			}
			// The callee acts on its own account state.
			sub, err := st.runEffects(machine, callee, callp)
			if err != nil {
				return 0, err
			}
			p, err = st.resume(machine, c.Args[2], sub)
			if err != nil {
				return 0, err
			}

		default:
			return p, nil
		}
	}
}

// resume applies a continuation to a value and normalizes the result.
func (st *StateTransition) resume(machine *vm.Machine, cont, val vm.Ptr) (vm.Ptr, error) {
	app, err := machine.AllocApp(cont, val)
	if err != nil {
		return 0, err
	}
	return machine.Normalize(app)
}
