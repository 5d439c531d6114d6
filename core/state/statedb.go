// Package state implements the global state the statement executor
// mutates: constructor arities, function rule sets and stored terms,
// namespace registrations and the running mana/space/tick counters.
package state

import (
	"fmt"

	"github.com/kindelia-network/gkind/common"
	"github.com/kindelia-network/gkind/core/types"
)

// Function is the queryable view of a defined function.
type Function struct {
	Args  []types.Name
	Rules []types.Rule
}

type funcEntry struct {
	fn    Function
	state *types.Term
	// implicit entries hold account state created by effects and carry no
	// rules; they do not count as defined functions.
	implicit bool
}

// Stats is the queryable counter tuple of a state store.
type Stats struct {
	CtrCount uint64 `json:"ctr_count"`
	FunCount uint64 `json:"fun_count"`
	RegCount uint64 `json:"reg_count"`
	Mana     uint64 `json:"mana"`
	Space    uint64 `json:"space"`
	Tick     uint64 `json:"tick"`
}

// StateDB holds the durable-in-memory state of a node. It is created empty
// at genesis and mutated exactly once per accepted statement. It is
// exclusively owned by its applier: no concurrent mutation is permitted,
// and readers must only observe it between fully applied blocks.
//
// Every mutation appends an undo entry to the journal, so a failed
// statement can revert to its pre-attempt snapshot bit-for-bit.
type StateDB struct {
	ctrs     map[types.Name]int
	funs     map[types.Name]*funcEntry
	regs     map[types.Name]common.Address
	regIndex map[types.Name][]types.Name // root namespace → claimed names, insertion order

	mana  uint64
	space uint64
	tick  uint64

	journal        *journal
	validRevisions []revision
	nextRevisionId int
}

type revision struct {
	id           int
	journalIndex int
}

// New creates an empty state store.
func New() *StateDB {
	return &StateDB{
		ctrs:     make(map[types.Name]int),
		funs:     make(map[types.Name]*funcEntry),
		regs:     make(map[types.Name]common.Address),
		regIndex: make(map[types.Name][]types.Name),
		journal:  newJournal(),
	}
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	id := s.nextRevisionId
	s.nextRevisionId++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (s *StateDB) RevertToSnapshot(revid int) {
	// Find the snapshot in the stack of valid snapshots.
	idx := -1
	for i, rev := range s.validRevisions {
		if rev.id == revid {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	snapshot := s.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots.
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// --- constructor table ---

// CtrArity returns the declared arity of a constructor.
func (s *StateDB) CtrArity(name types.Name) (int, bool) {
	arity, ok := s.ctrs[name]
	return arity, ok
}

// CtrCode returns the source form of a constructor: `{T3 x0 x1 x2}`.
func (s *StateDB) CtrCode(name types.Name) (string, bool) {
	arity, ok := s.ctrs[name]
	if !ok {
		return "", false
	}
	fields := make([]*types.Term, arity)
	for i := range fields {
		fields[i] = types.Var(types.MustParseName(fmt.Sprintf("x%d", i)))
	}
	return types.Ctr(name, fields...).String(), true
}

// CreateCtr inserts a constructor. The caller is responsible for conflict
// checking.
func (s *StateDB) CreateCtr(name types.Name, arity int) {
	s.journal.append(ctrCreate{name: name})
	s.ctrs[name] = arity
}

// --- function table ---

// Function returns the rule set of a defined function.
func (s *StateDB) Function(name types.Name) (Function, bool) {
	e, ok := s.funs[name]
	if !ok || e.implicit {
		return Function{}, false
	}
	return e.fn, true
}

// FunctionRules implements vm.StateReader.
func (s *StateDB) FunctionRules(name types.Name) ([]types.Rule, bool) {
	e, ok := s.funs[name]
	if !ok || e.implicit || len(e.fn.Rules) == 0 {
		return nil, false
	}
	return e.fn.Rules, true
}

// FunctionState returns the current stored term of a function or account
// entry.
func (s *StateDB) FunctionState(name types.Name) (*types.Term, bool) {
	e, ok := s.funs[name]
	if !ok || e.state == nil {
		return nil, false
	}
	return e.state, true
}

// CreateFunction inserts a function definition with its initial stored
// term. The caller is responsible for conflict checking and rule
// validation.
func (s *StateDB) CreateFunction(name types.Name, args []types.Name, rules []types.Rule, init *types.Term) {
	prev, existed := s.funs[name]
	s.journal.append(funChange{name: name, prev: prev, prevExisted: existed})
	s.funs[name] = &funcEntry{fn: Function{Args: args, Rules: rules}, state: init}
}

// SetFunctionState replaces the stored term of name, creating an implicit
// (rule-less) entry when none exists. Implicit entries hold per-account
// state addressed by the account's 120-bit name.
func (s *StateDB) SetFunctionState(name types.Name, t *types.Term) {
	prev, existed := s.funs[name]
	s.journal.append(funChange{name: name, prev: prev, prevExisted: existed})
	if existed {
		e := *prev
		e.state = t
		s.funs[name] = &e
	} else {
		s.funs[name] = &funcEntry{state: t, implicit: true}
	}
}

// --- registration table ---

// Owner returns the owner of a registered namespace.
func (s *StateDB) Owner(name types.Name) (common.Address, bool) {
	owner, ok := s.regs[name]
	return owner, ok
}

// RegList returns the names claimed under a root namespace, in insertion
// order. The returned slice is a copy.
func (s *StateDB) RegList(root types.Name) []types.Name {
	list := s.regIndex[root]
	out := make([]types.Name, len(list))
	copy(out, list)
	return out
}

// Register binds name to owner and, on first claim, appends it to its root
// namespace's ordered descendant list. The caller is responsible for
// authorization.
func (s *StateDB) Register(name types.Name, owner common.Address) {
	prev, existed := s.regs[name]
	s.journal.append(regChange{name: name, prevOwner: prev, prevExisted: existed})
	s.regs[name] = owner
	if !existed {
		root := name.Root()
		s.journal.append(regIndexAppend{root: root})
		s.regIndex[root] = append(s.regIndex[root], name)
	}
}

// Exists reports whether a name is taken in any table: constructor,
// function or registration.
func (s *StateDB) Exists(name types.Name) bool {
	if _, ok := s.ctrs[name]; ok {
		return true
	}
	if e, ok := s.funs[name]; ok && !e.implicit {
		return true
	}
	if _, ok := s.regs[name]; ok {
		return true
	}
	return false
}

// --- counters ---

// Mana returns the cumulative mana charged to the store.
func (s *StateDB) Mana() uint64 { return s.mana }

// Space returns the cumulative space charged to the store.
func (s *StateDB) Space() uint64 { return s.space }

// Tick returns the statement sequence counter.
func (s *StateDB) Tick() uint64 { return s.tick }

// AddMana charges mana to the running counter.
func (s *StateDB) AddMana(amount uint64) {
	s.journal.append(manaChange{prev: s.mana})
	s.mana += amount
}

// AddSpace charges space to the running counter.
func (s *StateDB) AddSpace(amount uint64) {
	s.journal.append(spaceChange{prev: s.space})
	s.space += amount
}

// IncTick advances the statement sequence counter.
func (s *StateDB) IncTick() {
	s.journal.append(tickChange{prev: s.tick})
	s.tick++
}

// Stats returns the queryable counter tuple.
func (s *StateDB) Stats() Stats {
	var funCount uint64
	for _, e := range s.funs {
		if !e.implicit {
			funCount++
		}
	}
	return Stats{
		CtrCount: uint64(len(s.ctrs)),
		FunCount: funCount,
		RegCount: uint64(len(s.regs)),
		Mana:     s.mana,
		Space:    s.space,
		Tick:     s.tick,
	}
}
