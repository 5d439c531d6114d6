package state

import (
	"reflect"
	"testing"

	"github.com/kindelia-network/gkind/common"
	"github.com/kindelia-network/gkind/core/types"
)

func name(s string) types.Name { return types.MustParseName(s) }

func TestCtrCode(t *testing.T) {
	s := New()
	s.CreateCtr(name("T3"), 3)
	code, ok := s.CtrCode(name("T3"))
	if !ok || code != "{T3 x0 x1 x2}" {
		t.Fatalf("CtrCode = %q, %v", code, ok)
	}
	if arity, ok := s.CtrArity(name("T3")); !ok || arity != 3 {
		t.Fatalf("CtrArity = %d, %v", arity, ok)
	}
	if _, ok := s.CtrCode(name("T4")); ok {
		t.Fatal("undeclared constructor reported code")
	}
}

func TestRegListOrder(t *testing.T) {
	s := New()
	owner := common.Uint64ToAddress(7)
	for _, n := range []string{"Foo", "Foo.Bar", "Foo.Bar.cats"} {
		s.Register(name(n), owner)
	}
	got := s.RegList(name("Foo"))
	want := []types.Name{name("Foo"), name("Foo.Bar"), name("Foo.Bar.cats")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RegList = %v, want %v", got, want)
	}
	if list := s.RegList(name("Bar")); len(list) != 0 {
		t.Fatalf("unrelated root lists %v", list)
	}
}

func TestSnapshotRevert(t *testing.T) {
	s := New()
	s.CreateCtr(name("Keep"), 1)
	s.AddMana(10)
	before := s.Stats()

	snap := s.Snapshot()
	s.CreateCtr(name("Gone"), 2)
	s.CreateFunction(name("F"), []types.Name{name("x")}, nil, types.NumU64(0))
	s.Register(name("Ns"), common.Uint64ToAddress(1))
	s.SetFunctionState(name("F"), types.NumU64(9))
	s.AddMana(100)
	s.AddSpace(50)
	s.IncTick()
	s.RevertToSnapshot(snap)

	if got := s.Stats(); got != before {
		t.Fatalf("stats after revert = %+v, want %+v", got, before)
	}
	if s.Exists(name("Gone")) || s.Exists(name("F")) || s.Exists(name("Ns")) {
		t.Fatal("reverted entries still exist")
	}
	if !s.Exists(name("Keep")) {
		t.Fatal("pre-snapshot entry lost")
	}
	if list := s.RegList(name("Ns")); len(list) != 0 {
		t.Fatalf("reverted registration still indexed: %v", list)
	}
}

func TestNestedSnapshots(t *testing.T) {
	s := New()
	outer := s.Snapshot()
	s.CreateCtr(name("A"), 0)
	inner := s.Snapshot()
	s.CreateCtr(name("B"), 0)
	s.RevertToSnapshot(inner)
	if s.Exists(name("B")) || !s.Exists(name("A")) {
		t.Fatal("inner revert wrong")
	}
	s.RevertToSnapshot(outer)
	if s.Exists(name("A")) {
		t.Fatal("outer revert wrong")
	}
}

func TestImplicitEntries(t *testing.T) {
	s := New()
	acct := name("1234")
	s.SetFunctionState(acct, types.NumU64(42))

	// Account state is readable but does not claim the name.
	if got, ok := s.FunctionState(acct); !ok || !got.Equal(types.NumU64(42)) {
		t.Fatalf("FunctionState = %v, %v", got, ok)
	}
	if s.Exists(acct) {
		t.Fatal("implicit entry claims the name")
	}
	if _, ok := s.Function(acct); ok {
		t.Fatal("implicit entry reported as a function")
	}
	if _, ok := s.FunctionRules(acct); ok {
		t.Fatal("implicit entry reported rules")
	}
	if stats := s.Stats(); stats.FunCount != 0 {
		t.Fatalf("implicit entry counted: %+v", stats)
	}

	// Upgrading to a real definition keeps working.
	s.CreateFunction(name("G"), nil, []types.Rule{{LHS: types.Fun(name("G")), RHS: types.NumU64(1)}}, types.NumU64(0))
	if stats := s.Stats(); stats.FunCount != 1 {
		t.Fatalf("FunCount = %d", stats.FunCount)
	}
}

func TestSetFunctionStateRevert(t *testing.T) {
	s := New()
	s.CreateFunction(name("F"), nil, nil, types.NumU64(1))
	snap := s.Snapshot()
	s.SetFunctionState(name("F"), types.NumU64(2))
	if got, _ := s.FunctionState(name("F")); !got.Equal(types.NumU64(2)) {
		t.Fatalf("state = %v", got)
	}
	s.RevertToSnapshot(snap)
	if got, _ := s.FunctionState(name("F")); !got.Equal(types.NumU64(1)) {
		t.Fatalf("state after revert = %v", got)
	}
}
