package vm

import (
	"errors"
	"testing"

	"github.com/kindelia-network/gkind/core/types"
)

// ruleTable is a StateReader backed by a plain map.
type ruleTable map[types.Name][]types.Rule

func (rt ruleTable) FunctionRules(n types.Name) ([]types.Rule, bool) {
	rules, ok := rt[n]
	return rules, ok
}

func name(s string) types.Name { return types.MustParseName(s) }

func reduce(t *testing.T, table ruleTable, term *types.Term, limit uint64) (*types.Term, error) {
	t.Helper()
	m := NewMachine(table, limit)
	p, err := m.Load(term)
	if err != nil {
		return nil, err
	}
	p, err = m.Normalize(p)
	if err != nil {
		return nil, err
	}
	return m.Readback(p)
}

func mustReduce(t *testing.T, table ruleTable, term *types.Term) *types.Term {
	t.Helper()
	out, err := reduce(t, table, term, 1_000_000)
	if err != nil {
		t.Fatalf("reduce %s: %v", term, err)
	}
	return out
}

var maxWord = types.U120{Hi: 1<<56 - 1, Lo: ^uint64(0)} // 2^120 - 1

func TestOp2(t *testing.T) {
	tests := []struct {
		op   types.Oper
		a, b types.U120
		want types.U120
	}{
		{types.OpAdd, types.NewU120(2), types.NewU120(3), types.NewU120(5)},
		{types.OpAdd, maxWord, types.NewU120(1), types.U120{}}, // wraps mod 2^120
		{types.OpSub, types.U120{}, types.NewU120(1), maxWord}, // wraps mod 2^120
		{types.OpMul, types.NewU120(1 << 60), types.NewU120(1 << 60), types.U120{}},
		{types.OpDiv, types.NewU120(7), types.NewU120(2), types.NewU120(3)},
		{types.OpDiv, types.NewU120(7), types.U120{}, types.U120{}}, // total
		{types.OpMod, types.NewU120(7), types.NewU120(4), types.NewU120(3)},
		{types.OpMod, types.NewU120(7), types.U120{}, types.U120{}}, // total
		{types.OpShl, types.NewU120(1), types.NewU120(119), types.U120{Hi: 1 << 55}},
		{types.OpShl, types.NewU120(1), types.NewU120(120), types.U120{}},
		{types.OpShr, maxWord, types.NewU120(119), types.NewU120(1)},
		{types.OpLtn, types.NewU120(1), types.NewU120(2), types.NewU120(1)},
		{types.OpLte, types.NewU120(2), types.NewU120(2), types.NewU120(1)},
		{types.OpEql, types.NewU120(2), types.NewU120(3), types.U120{}},
		{types.OpGte, types.NewU120(2), types.NewU120(3), types.U120{}},
		{types.OpGtn, types.NewU120(3), types.NewU120(2), types.NewU120(1)},
		{types.OpNeq, types.NewU120(3), types.NewU120(2), types.NewU120(1)},
	}
	for _, tt := range tests {
		got := mustReduce(t, nil, types.Op2(tt.op, types.Num(tt.a), types.Num(tt.b)))
		if !got.Equal(types.Num(tt.want)) {
			t.Errorf("(%s %v %v) = %s, want #%v", tt.op, tt.a, tt.b, got, tt.want)
		}
	}
}

// testRules is a three-rule dispatch: matching is top down, first hit wins.
func testRules() ruleTable {
	test, a, b := name("Test"), name("a"), name("b")
	return ruleTable{
		test: {
			{LHS: types.Fun(test, types.Var(a), types.NumU64(0)), RHS: types.NumU64(0)},
			{LHS: types.Fun(test, types.NumU64(0), types.Var(b)), RHS: types.NumU64(0)},
			{LHS: types.Fun(test, types.Var(a), types.Var(b)), RHS: types.NumU64(1)},
		},
	}
}

func TestFirstMatchWins(t *testing.T) {
	table := testRules()
	tests := []struct {
		a, b uint64
		want uint64
	}{
		{1, 0, 0},
		{0, 7, 0},
		{0, 0, 0},
		{1, 2, 1},
		{2, 3, 1},
	}
	for _, tt := range tests {
		call := types.Fun(name("Test"), types.NumU64(tt.a), types.NumU64(tt.b))
		if got := mustReduce(t, table, call); !got.Equal(types.NumU64(tt.want)) {
			t.Errorf("(Test #%d #%d) = %s, want #%d", tt.a, tt.b, got, tt.want)
		}
	}
}

func sumRules() ruleTable {
	sum, n := name("Sum"), name("n")
	return ruleTable{
		sum: {
			{LHS: types.Fun(sum, types.NumU64(0)), RHS: types.NumU64(0)},
			{
				LHS: types.Fun(sum, types.Var(n)),
				RHS: types.Op2(types.OpAdd, types.Var(n),
					types.Fun(sum, types.Op2(types.OpSub, types.Var(n), types.NumU64(1)))),
			},
		},
	}
}

func TestRecursion(t *testing.T) {
	got := mustReduce(t, sumRules(), types.Fun(name("Sum"), types.NumU64(10)))
	if !got.Equal(types.NumU64(55)) {
		t.Fatalf("(Sum #10) = %s, want #55", got)
	}
}

func TestManaExhaustion(t *testing.T) {
	const limit = 100
	m := NewMachine(sumRules(), limit)
	p, err := m.Load(types.Fun(name("Sum"), types.NumU64(1000)))
	if err == nil {
		_, err = m.Normalize(p)
	}
	if !errors.Is(err, ErrManaExceeded) {
		t.Fatalf("err = %v, want ErrManaExceeded", err)
	}
	if m.ManaUsed() > limit {
		t.Fatalf("ManaUsed = %d, above the ceiling %d", m.ManaUsed(), limit)
	}
}

func TestManaDeterministic(t *testing.T) {
	call := types.Fun(name("Sum"), types.NumU64(20))
	m1 := NewMachine(sumRules(), 1_000_000)
	m2 := NewMachine(sumRules(), 1_000_000)
	for _, m := range []*Machine{m1, m2} {
		p, err := m.Load(call)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := m.Normalize(p); err != nil {
			t.Fatal(err)
		}
	}
	if m1.ManaUsed() != m2.ManaUsed() {
		t.Fatalf("mana diverged: %d vs %d", m1.ManaUsed(), m2.ManaUsed())
	}
}

func TestStuckTerms(t *testing.T) {
	table := testRules()
	for _, term := range []*types.Term{
		types.Fun(name("Missing"), types.NumU64(1)),              // no such function
		types.Fun(name("Test"), types.NumU64(1)),                 // wrong arity, no rule matches
		types.Op2(types.OpAdd, types.Var(name("x")), types.NumU64(1)), // operand not a number
		types.Ctr(name("Pair"), types.NumU64(1), types.Var(name("x"))),
	} {
		if got := mustReduce(t, table, term); !got.Equal(term) {
			t.Errorf("stuck term %s reduced to %s", term, got)
		}
	}
}

func TestCurrying(t *testing.T) {
	k2, a, b := name("K2"), name("a"), name("b")
	table := ruleTable{
		k2: {{LHS: types.Fun(k2, types.Var(a), types.Var(b)), RHS: types.Var(a)}},
	}

	// Applying an underapplied constructor appends fields.
	pair := types.App(types.App(types.Ctr(name("Pair")), types.NumU64(1)), types.NumU64(2))
	if got := mustReduce(t, table, pair); !got.Equal(types.Ctr(name("Pair"), types.NumU64(1), types.NumU64(2))) {
		t.Fatalf("curried constructor = %s", got)
	}

	// Applying a partially applied function completes the call.
	call := types.App(types.Fun(k2, types.NumU64(7)), types.NumU64(9))
	if got := mustReduce(t, table, call); !got.Equal(types.NumU64(7)) {
		t.Fatalf("curried call = %s", got)
	}

	// A saturated head does not absorb further arguments.
	full := make([]*types.Term, 15)
	for i := range full {
		full[i] = types.NumU64(uint64(i))
	}
	app := types.App(types.Ctr(name("Wide"), full...), types.NumU64(99))
	got := mustReduce(t, table, app)
	if got.Kind != types.TermApp {
		t.Fatalf("saturated head absorbed an argument: %s", got)
	}
}

// TestReadbackBudget grows a shared chain of doubled nodes: the heap and
// mana stay small while the unfolded tree is exponential, so readback must
// refuse rather than materialize it.
func TestReadbackBudget(t *testing.T) {
	dup, grow, x, n := name("Dup"), name("Grow"), name("x"), name("n")
	table := ruleTable{
		dup: {{LHS: types.Fun(dup, types.Var(x)), RHS: types.Ctr(name("Node"), types.Var(x), types.Var(x))}},
		grow: {
			{LHS: types.Fun(grow, types.NumU64(0)), RHS: types.Ctr(name("Leaf"))},
			{
				LHS: types.Fun(grow, types.Var(n)),
				RHS: types.Fun(dup, types.Fun(grow, types.Op2(types.OpSub, types.Var(n), types.NumU64(1)))),
			},
		},
	}
	m := NewMachine(table, 100_000)
	p, err := m.Load(types.Fun(grow, types.NumU64(25)))
	if err != nil {
		t.Fatal(err)
	}
	p, err = m.Normalize(p)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if _, err := m.Readback(p); !errors.Is(err, ErrTermTooLarge) {
		t.Fatalf("Readback err = %v, want ErrTermTooLarge", err)
	}
}
