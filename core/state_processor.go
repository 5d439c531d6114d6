// Package core implements the statement executor and block applier of the
// term-rewriting chain state machine.
package core

import (
	"github.com/inconshreveable/log15"

	"github.com/kindelia-network/gkind/core/state"
	"github.com/kindelia-network/gkind/core/types"
	"github.com/kindelia-network/gkind/params"
)

// OutcomeStatus classifies what happened to one statement of a block.
type OutcomeStatus byte

const (
	// OutcomeApplied means the statement mutated state and moved the
	// counters.
	OutcomeApplied OutcomeStatus = iota
	// OutcomeRejected means the statement failed on its own terms and left
	// state untouched.
	OutcomeRejected
	// OutcomeSkipped means the block ran out of mana or space before or at
	// this statement; state is untouched and no verdict on the statement
	// itself is implied.
	OutcomeSkipped
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeApplied:
		return "applied"
	case OutcomeRejected:
		return "rejected"
	case OutcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

// StatementOutcome is the per-statement record of a block application.
type StatementOutcome struct {
	Status    OutcomeStatus
	UsedMana  uint64
	UsedSpace uint64
	Err       error       // rejection reason when Status == OutcomeRejected
	Result    *types.Term // normal form of an applied run statement
}

// Processor folds blocks over the state store. Statements apply strictly
// in order; each either applies, rejects, or is skipped when the block's
// mana or space pool runs dry. Once one statement is skipped, every later
// statement in the block is skipped too, so block application stays
// deterministic regardless of how close the earlier statements came to
// the ceilings.
type Processor struct {
	config *params.ChainConfig
	log    log15.Logger
}

// NewProcessor returns a processor for the given chain configuration.
func NewProcessor(config *params.ChainConfig) *Processor {
	return &Processor{
		config: config,
		log:    log15.New("module", "core"),
	}
}

// Process applies a block to statedb and returns the per-statement
// outcomes together with the post-block counter tuple. statedb is always
// left in the post-block state: rejected and skipped statements leave no
// trace beyond their outcome record.
func (p *Processor) Process(statedb *state.StateDB, block *types.Block) ([]StatementOutcome, state.Stats) {
	mp := new(ManaPool).AddMana(p.config.BlockManaLimit)
	sp := new(SpacePool).AddSpace(p.config.BlockSpaceLimit)

	outcomes := make([]StatementOutcome, len(block.Statements))
	exhausted := false
	var applied, rejected, skipped int

	for i, stmt := range block.Statements {
		if exhausted {
			outcomes[i] = StatementOutcome{Status: OutcomeSkipped}
			skipped++
			continue
		}
		result, err := ApplyStatement(p.config, statedb, mp, sp, stmt)
		if err != nil {
			// Block ceiling signal: this statement and the rest are out.
			exhausted = true
			outcomes[i] = StatementOutcome{Status: OutcomeSkipped}
			skipped++
			p.log.Debug("Statement skipped", "index", i, "kind", stmt.Kind, "reason", err)
			continue
		}
		if result.Failed() {
			outcomes[i] = StatementOutcome{
				Status:   OutcomeRejected,
				UsedMana: result.UsedMana,
				Err:      result.Err,
			}
			rejected++
			p.log.Debug("Statement rejected", "index", i, "kind", stmt.Kind, "err", result.Err)
			continue
		}
		outcomes[i] = StatementOutcome{
			Status:    OutcomeApplied,
			UsedMana:  result.UsedMana,
			UsedSpace: result.UsedSpace,
			Result:    result.Result,
		}
		applied++
	}

	stats := statedb.Stats()
	p.log.Info("Applied block",
		"statements", len(block.Statements),
		"applied", applied, "rejected", rejected, "skipped", skipped,
		"mana", stats.Mana, "space", stats.Space, "tick", stats.Tick)
	return outcomes, stats
}
