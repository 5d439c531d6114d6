package core

import (
	"fmt"

	"github.com/kindelia-network/gkind/core/state"
	"github.com/kindelia-network/gkind/core/types"
	"github.com/kindelia-network/gkind/core/vm"
	"github.com/kindelia-network/gkind/params"
)

// StateTransition applies one statement to the state store:
//
//   - define-constructor inserts an arity,
//   - define-function validates rules, evaluates the initial stored term
//     and inserts the definition,
//   - run normalizes a term and interprets any effect constructors it
//     reduces to,
//   - register binds a namespace to an owner.
//
// Each statement executes against a snapshot: on any failure the state
// store reverts to its pre-attempt revision and no mana or space is
// charged to the running counters.
type StateTransition struct {
	config *params.ChainConfig
	state  *state.StateDB
	mp     *ManaPool
	sp     *SpacePool
	stmt   *types.Statement

	manaUsed  uint64
	spaceUsed uint64
}

// ExecutionResult includes all output after executing a statement.
type ExecutionResult struct {
	UsedMana  uint64      // Mana consumed (attempted mana for a rejected statement)
	UsedSpace uint64      // Space charged to the store
	Err       error       // Rejection reason, nil when applied
	Result    *types.Term // Normal form of a Run statement, nil otherwise
}

// Failed returns true if the statement was rejected.
func (result *ExecutionResult) Failed() bool { return result.Err != nil }

// Reason returns the user-visible rejection reason, or "" when applied.
func (result *ExecutionResult) Reason() string {
	if result.Err == nil {
		return ""
	}
	return result.Err.Error()
}

// NewStateTransition initialises and returns a new state transition object.
func NewStateTransition(config *params.ChainConfig, statedb *state.StateDB, mp *ManaPool, sp *SpacePool, stmt *types.Statement) *StateTransition {
	return &StateTransition{
		config: config,
		state:  statedb,
		mp:     mp,
		sp:     sp,
		stmt:   stmt,
	}
}

// ApplyStatement executes a statement against the current state.
//
// A nil error with result.Err == nil means the statement was applied and
// the counters moved. A nil error with result.Err != nil means the
// statement was rejected and the state is untouched. A non-nil error is a
// block-scheduling signal (ErrManaLimitReached / ErrSpaceLimitReached):
// the statement does not fit in the block's remaining ceilings and should
// be skipped, not rejected.
func ApplyStatement(config *params.ChainConfig, statedb *state.StateDB, mp *ManaPool, sp *SpacePool, stmt *types.Statement) (*ExecutionResult, error) {
	return NewStateTransition(config, statedb, mp, sp, stmt).execute()
}

func (st *StateTransition) execute() (*ExecutionResult, error) {
	snap := st.state.Snapshot()

	manaCeiling := st.config.StatementManaLimit
	poolBound := st.mp.Mana() < manaCeiling
	if poolBound {
		manaCeiling = st.mp.Mana()
	}

	var (
		result *types.Term
		err    error
	)
	switch st.stmt.Kind {
	case types.StmtCtr:
		err = st.applyDefineCtr()
	case types.StmtFun:
		err = st.applyDefineFun(manaCeiling)
	case types.StmtRun:
		result, err = st.applyRun(manaCeiling)
	case types.StmtReg:
		err = st.applyRegister()
	default:
		err = fmt.Errorf("%w: unknown statement kind %d", ErrInvalidStatement, st.stmt.Kind)
	}
	if err != nil {
		st.state.RevertToSnapshot(snap)
		if err == vm.ErrManaExceeded && poolBound {
			// The statement hit the block ceiling, not its own: defer it.
			return nil, ErrManaLimitReached
		}
		return &ExecutionResult{UsedMana: st.manaUsed, Err: err}, nil
	}

	if st.spaceUsed > st.config.StatementSpaceLimit {
		st.state.RevertToSnapshot(snap)
		return &ExecutionResult{UsedMana: st.manaUsed, Err: ErrSpaceExceeded}, nil
	}
	if err := st.sp.SubSpace(st.spaceUsed); err != nil {
		st.state.RevertToSnapshot(snap)
		return nil, err
	}
	if err := st.mp.SubMana(st.manaUsed); err != nil {
		// The ceiling was capped to the pool above; running out here is a
		// bookkeeping bug, not an input condition.
		panic(fmt.Errorf("mana pool underflow: %v", err))
	}

	st.state.AddMana(st.manaUsed)
	st.state.AddSpace(st.spaceUsed)
	st.state.IncTick()
	return &ExecutionResult{UsedMana: st.manaUsed, UsedSpace: st.spaceUsed, Result: result}, nil
}

// payloadSize is the unit of space accounting for table entries: the byte
// length of the statement's canonical unsigned encoding.
func (st *StateTransition) payloadSize() uint64 {
	return uint64(len(types.SigningPayload(st.stmt)))
}

func (st *StateTransition) applyDefineCtr() error {
	stmt := st.stmt
	if stmt.Name.IsEmpty() {
		return fmt.Errorf("%w: constructor without a name", ErrInvalidStatement)
	}
	if len(stmt.Args) > params.MaxArity {
		return fmt.Errorf("%w: constructor arity above %d", ErrInvalidStatement, params.MaxArity)
	}
	if st.state.Exists(stmt.Name) {
		return fmt.Errorf("%w: %s", ErrNameConflict, stmt.Name)
	}
	if err := st.checkNamespaceAuthority(stmt.Name); err != nil {
		return err
	}
	st.state.CreateCtr(stmt.Name, stmt.Arity())
	st.spaceUsed = st.payloadSize()
	return nil
}

func (st *StateTransition) applyDefineFun(manaCeiling uint64) error {
	stmt := st.stmt
	if stmt.Name.IsEmpty() {
		return fmt.Errorf("%w: function without a name", ErrInvalidStatement)
	}
	if len(stmt.Args) > params.MaxArity {
		return fmt.Errorf("%w: function arity above %d", ErrInvalidStatement, params.MaxArity)
	}
	if st.state.Exists(stmt.Name) {
		return fmt.Errorf("%w: %s", ErrNameConflict, stmt.Name)
	}
	if err := st.checkNamespaceAuthority(stmt.Name); err != nil {
		return err
	}
	if err := validateRules(stmt); err != nil {
		return err
	}

	// Evaluate the initial stored term against the state as it is, with
	// the new definition visible so it may reference itself.
	st.state.CreateFunction(stmt.Name, stmt.Args, stmt.Rules, nil)
	machine := vm.NewMachine(st.state, manaCeiling)
	ptr, err := machine.Load(stmt.Init)
	if err == nil {
		ptr, err = machine.Normalize(ptr)
	}
	var init *types.Term
	if err == nil {
		init, err = machine.Readback(ptr)
	}
	st.manaUsed = machine.ManaUsed()
	if err != nil {
		return err
	}
	st.state.SetFunctionState(stmt.Name, init)
	st.spaceUsed = st.payloadSize() + types.TermSize(init)
	return nil
}

func (st *StateTransition) applyRun(manaCeiling uint64) (*types.Term, error) {
	machine := vm.NewMachine(st.state, manaCeiling)
	ptr, err := machine.Load(st.stmt.Expr)
	if err == nil {
		ptr, err = machine.Normalize(ptr)
	}
	if err == nil {
		subject := st.runSubject()
		ptr, err = st.runEffects(machine, subject, ptr)
	}
	var result *types.Term
	if err == nil {
		result, err = machine.Readback(ptr)
	}
	st.manaUsed = machine.ManaUsed()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// runSubject returns the account name effects act on: the recovered
// signer's address read as a name, or the empty name for unsigned or
// unverifiable statements.
func (st *StateTransition) runSubject() types.Name {
	auth, ok, err := st.stmt.Authority()
	if err != nil || !ok {
		return types.Name{}
	}
	return types.NameFromAddress(auth)
}

func (st *StateTransition) applyRegister() error {
	stmt := st.stmt
	if stmt.Name.IsEmpty() {
		return fmt.Errorf("%w: registration without a name", ErrInvalidStatement)
	}
	auth, signed, err := stmt.Authority()
	if err != nil || !signed {
		return fmt.Errorf("%w: registration requires a valid signature", ErrUnauthorized)
	}
	if auth != stmt.Owner {
		return fmt.Errorf("%w: signer %s does not match claimed owner %s", ErrUnauthorized, auth, stmt.Owner)
	}
	if owner, registered := st.state.Owner(stmt.Name); registered && owner != auth {
		return fmt.Errorf("%w: namespace %s is owned by %s", ErrUnauthorized, stmt.Name, owner)
	}
	if err := st.checkNamespaceAuthority(stmt.Name); err != nil {
		return err
	}
	st.state.Register(stmt.Name, stmt.Owner)
	st.spaceUsed = st.payloadSize()
	return nil
}

// checkNamespaceAuthority enforces that a name claimed under a registered
// namespace is authenticated by the namespace owner. The nearest
// registered ancestor decides; names with no registered ancestor are open.
func (st *StateTransition) checkNamespaceAuthority(name types.Name) error {
	for cur := name; ; {
		parent, ok := cur.Parent()
		if !ok {
			return nil
		}
		if owner, registered := st.state.Owner(parent); registered {
			auth, signed, err := st.stmt.Authority()
			if err != nil || !signed || auth != owner {
				return fmt.Errorf("%w: namespace %s is owned by %s", ErrUnauthorized, parent, owner)
			}
			return nil
		}
		cur = parent
	}
}

// validateRules checks the shape of a function's rule list: every
// left-hand side is a call of the defined name at the declared arity,
// patterns are flat (variables, literals, or constructors of variables),
// pattern variables are distinct, and right-hand sides only reference
// bound variables.
func validateRules(stmt *types.Statement) error {
	arity := len(stmt.Args)
	for i := range stmt.Rules {
		rule := &stmt.Rules[i]
		lhs := rule.LHS
		if lhs == nil || rule.RHS == nil {
			return fmt.Errorf("%w: rule %d is incomplete", ErrInvalidStatement, i)
		}
		if lhs.Kind != types.TermFun || lhs.Name != stmt.Name || len(lhs.Args) != arity {
			return fmt.Errorf("%w: rule %d does not match (%s %d args)", ErrInvalidStatement, i, stmt.Name, arity)
		}
		bound := make(map[types.Name]bool)
		declare := func(n types.Name) error {
			if n.IsEmpty() || bound[n] {
				return fmt.Errorf("%w: rule %d repeats pattern variable %s", ErrInvalidStatement, i, n)
			}
			bound[n] = true
			return nil
		}
		for _, pat := range lhs.Args {
			switch pat.Kind {
			case types.TermVar:
				if err := declare(pat.Name); err != nil {
					return err
				}
			case types.TermNum:
				// literal slot
			case types.TermCtr:
				for _, field := range pat.Args {
					if field.Kind != types.TermVar {
						return fmt.Errorf("%w: rule %d nests a non-variable inside a constructor pattern", ErrInvalidStatement, i)
					}
					if err := declare(field.Name); err != nil {
						return err
					}
				}
			default:
				return fmt.Errorf("%w: rule %d has an unsupported pattern kind", ErrInvalidStatement, i)
			}
		}
		if free := firstFreeVar(rule.RHS, bound); !free.IsEmpty() {
			return fmt.Errorf("%w: rule %d references unbound variable %s", ErrInvalidStatement, i, free)
		}
	}
	return nil
}

func firstFreeVar(t *types.Term, bound map[types.Name]bool) types.Name {
	if t.Kind == types.TermVar {
		if !bound[t.Name] {
			return t.Name
		}
		return types.Name{}
	}
	for _, a := range t.Args {
		if free := firstFreeVar(a, bound); !free.IsEmpty() {
			return free
		}
	}
	return types.Name{}
}
