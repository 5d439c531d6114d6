package core

import "fmt"

// ManaPool tracks the mana still available during the application of a
// block. The zero value is an empty pool.
type ManaPool uint64

// AddMana makes mana available for execution.
func (mp *ManaPool) AddMana(amount uint64) *ManaPool {
	if uint64(*mp) > maxUint64-amount {
		panic("mana pool pushed above uint64")
	}
	*(*uint64)(mp) += amount
	return mp
}

// SubMana deducts the given amount if available, otherwise an error is
// returned.
func (mp *ManaPool) SubMana(amount uint64) error {
	if uint64(*mp) < amount {
		return ErrManaLimitReached
	}
	*(*uint64)(mp) -= amount
	return nil
}

// Mana returns the amount of mana remaining in the pool.
func (mp *ManaPool) Mana() uint64 {
	return uint64(*mp)
}

func (mp *ManaPool) String() string {
	return fmt.Sprintf("%d", uint64(*mp))
}

// SpacePool tracks the state growth still allowed during the application
// of a block.
type SpacePool uint64

// AddSpace makes space available for state growth.
func (sp *SpacePool) AddSpace(amount uint64) *SpacePool {
	if uint64(*sp) > maxUint64-amount {
		panic("space pool pushed above uint64")
	}
	*(*uint64)(sp) += amount
	return sp
}

// SubSpace deducts the given amount if available, otherwise an error is
// returned.
func (sp *SpacePool) SubSpace(amount uint64) error {
	if uint64(*sp) < amount {
		return ErrSpaceLimitReached
	}
	*(*uint64)(sp) -= amount
	return nil
}

// Space returns the amount of space remaining in the pool.
func (sp *SpacePool) Space() uint64 {
	return uint64(*sp)
}

func (sp *SpacePool) String() string {
	return fmt.Sprintf("%d", uint64(*sp))
}

const maxUint64 = 1<<64 - 1
