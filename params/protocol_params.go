package params

const (
	// Mana costs of the rewriting engine. Every reduction step charges a
	// fixed amount per operation kind; allocation charges per heap cell so
	// constructor cost grows with arity.

	ManaCell    uint64 = 1 // Per heap cell allocated (a node costs 1 + one per argument slot).
	ManaVar     uint64 = 1 // Per variable occurrence substituted while instantiating a rule body.
	ManaOp2     uint64 = 2 // Per binary numeric/comparison operation reduced.
	ManaRewrite uint64 = 2 // Per function unfold against a matching rule, before body allocation.
	ManaMatch   uint64 = 1 // Per rule tried while dispatching a function call.
	ManaIO      uint64 = 2 // Per effect step interpreted from a Run result (IO.load, IO.save, IO.call, IO.subj).

	// MaxArity is the maximum argument count of constructors, function calls
	// and rules. Bounded so argument counts pack in 4 bits on the wire.
	MaxArity = 15

	// StatementManaLimit is the default mana ceiling of a single statement.
	StatementManaLimit uint64 = 1_000_000
	// StatementSpaceLimit is the default space ceiling of a single statement.
	StatementSpaceLimit uint64 = 65_536

	// BlockManaLimit is the default cumulative mana ceiling of a block.
	BlockManaLimit uint64 = 4_000_000
	// BlockSpaceLimit is the default cumulative space ceiling of a block.
	BlockSpaceLimit uint64 = 262_144
)
