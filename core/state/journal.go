package state

import (
	"github.com/kindelia-network/gkind/common"
	"github.com/kindelia-network/gkind/core/types"
)

// journalEntry is a modification entry in the state change journal that
// can be reverted on demand.
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)
}

// journal contains the list of state modifications applied since the last
// state commit. These are tracked to be able to be reverted in the case of
// a rejected statement.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal {
	return &journal{}
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(statedb)
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

type (
	ctrCreate struct {
		name types.Name
	}
	funChange struct {
		name        types.Name
		prev        *funcEntry
		prevExisted bool
	}
	regChange struct {
		name        types.Name
		prevOwner   common.Address
		prevExisted bool
	}
	regIndexAppend struct {
		root types.Name
	}
	manaChange struct {
		prev uint64
	}
	spaceChange struct {
		prev uint64
	}
	tickChange struct {
		prev uint64
	}
)

func (ch ctrCreate) revert(s *StateDB) {
	delete(s.ctrs, ch.name)
}

func (ch funChange) revert(s *StateDB) {
	if ch.prevExisted {
		s.funs[ch.name] = ch.prev
	} else {
		delete(s.funs, ch.name)
	}
}

func (ch regChange) revert(s *StateDB) {
	if ch.prevExisted {
		s.regs[ch.name] = ch.prevOwner
	} else {
		delete(s.regs, ch.name)
	}
}

func (ch regIndexAppend) revert(s *StateDB) {
	list := s.regIndex[ch.root]
	if len(list) <= 1 {
		delete(s.regIndex, ch.root)
	} else {
		s.regIndex[ch.root] = list[:len(list)-1]
	}
}

func (ch manaChange) revert(s *StateDB) {
	s.mana = ch.prev
}

func (ch spaceChange) revert(s *StateDB) {
	s.space = ch.prev
}

func (ch tickChange) revert(s *StateDB) {
	s.tick = ch.prev
}
