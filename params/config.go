package params

// ChainConfig is the set of consensus parameters a node applies blocks
// under. All fields are consensus-relevant: two nodes with different
// configs will diverge.
type ChainConfig struct {
	// StatementManaLimit caps the mana a single statement may consume.
	StatementManaLimit uint64
	// StatementSpaceLimit caps the space a single statement may add.
	StatementSpaceLimit uint64
	// BlockManaLimit caps the cumulative mana of one block.
	BlockManaLimit uint64
	// BlockSpaceLimit caps the cumulative space growth of one block.
	BlockSpaceLimit uint64
}

// MainnetChainConfig is the chain configuration running on every mainnet node.
var MainnetChainConfig = &ChainConfig{
	StatementManaLimit:  StatementManaLimit,
	StatementSpaceLimit: StatementSpaceLimit,
	BlockManaLimit:      BlockManaLimit,
	BlockSpaceLimit:     BlockSpaceLimit,
}

// TestChainConfig is a small-ceiling configuration used by tests that need
// to exercise mana and space exhaustion without large fixtures.
var TestChainConfig = &ChainConfig{
	StatementManaLimit:  100_000,
	StatementSpaceLimit: 16_384,
	BlockManaLimit:      400_000,
	BlockSpaceLimit:     65_536,
}
