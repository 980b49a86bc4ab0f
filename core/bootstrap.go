package core

import (
	"errors"

	"rotexchain/core/genesis"
)

// ErrGenesisApplied rejects bootstrapping a ledger that already carries a
// governance address.
var ErrGenesisApplied = errors.New("core: genesis already applied")

// ApplyGenesis bootstraps an empty ledger from the spec: tokens, balances,
// roles, governance identities, liquidity pairs and the rotation schedule in
// one committed transition.
func (l *Ledger) ApplyGenesis(spec *genesis.Spec) error {
	return l.run("genesis.apply", func(ctx *opContext) error {
		if _, ok, err := ctx.manager.GovernanceAddress(); err != nil {
			return err
		} else if ok {
			return ErrGenesisApplied
		}
		return genesis.Apply(ctx.manager, spec, genesis.Params{
			RosterSize:      l.cfg.RosterSize,
			SlotDuration:    l.cfg.SlotDuration,
			SlotGap:         l.cfg.SlotGap,
			MaxParticipants: l.cfg.MaxParticipants,
		})
	})
}
