package core

import (
	"errors"
	"math/big"
	"strings"

	"rotexchain/core/events"
	"rotexchain/native/auction"
	"rotexchain/native/gov"
	"rotexchain/native/pool"
)

// ErrNotClaimAuthority rejects claim recording by accounts holding neither
// the claim-module role nor administrative rights.
var ErrNotClaimAuthority = errors.New("core: caller is not a claim authority")

// SetSchedule installs the rotation schedule exactly once. Admin delegate
// only.
func (l *Ledger) SetSchedule(caller [20]byte, tokens []string, startTime int64) (*auction.Schedule, error) {
	var schedule *auction.Schedule
	err := l.run("auction.setSchedule", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		installed, err := l.newAuctionEngine(ctx).SetSchedule(tokens, startTime)
		if err != nil {
			return err
		}
		schedule = installed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return schedule, nil
}

// AdmitToken registers symbol on the token ledger (when absent), grants the
// owner mint authority and admits it to the rotation roster. Admin delegate
// only.
func (l *Ledger) AdmitToken(caller [20]byte, symbol, name string, decimals uint8, owner [20]byte) error {
	return l.run("registry.admitToken", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		if !ctx.manager.TokenExists(symbol) {
			if err := ctx.manager.RegisterToken(symbol, name, decimals); err != nil {
				return err
			}
			if err := ctx.manager.SetTokenMintAuthority(symbol, owner[:]); err != nil {
				return err
			}
		}
		_, err := l.newRegistryEngine(ctx).AdmitToken(symbol, owner)
		return err
	})
}

// AttachPool binds an existing liquidity pair to an admitted token. Admin
// delegate only.
func (l *Ledger) AttachPool(caller [20]byte, symbol, pairID string) error {
	return l.run("registry.attachPool", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		if _, err := l.newPoolEngine(ctx).Pair(pairID); err != nil {
			return err
		}
		return l.newRegistryEngine(ctx).AttachPool(symbol, pairID)
	})
}

// CreatePool records a fresh pair for the two tokens. Admin delegate only.
func (l *Ledger) CreatePool(caller [20]byte, tokenA, tokenB string) (*pool.Pair, error) {
	var created *pool.Pair
	err := l.run("pool.createPair", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		pair, err := l.newPoolEngine(ctx).CreatePair(tokenA, tokenB)
		if err != nil {
			return err
		}
		created = pair
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SeedPool moves reserves from the caller into the pair vault. Admin delegate
// only; the caller funds the seed.
func (l *Ledger) SeedPool(caller [20]byte, pairID string, amountA, amountB *big.Int) (*pool.Pair, error) {
	var seeded *pool.Pair
	err := l.run("pool.seed", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		pair, err := l.newPoolEngine(ctx).Seed(caller, pairID, amountA, amountB)
		if err != nil {
			return err
		}
		seeded = pair
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seeded, nil
}

// MintToken issues fresh supply to the recipient. The token's mint authority
// is the only permitted caller.
func (l *Ledger) MintToken(caller [20]byte, symbol string, to [20]byte, amount *big.Int) error {
	return l.run("token.mint", func(ctx *opContext) error {
		if err := ctx.manager.Mint(caller[:], to[:], symbol, amount); err != nil {
			return err
		}
		ctx.evts.Emit(events.TokenMinted{
			Token:     strings.ToUpper(strings.TrimSpace(symbol)),
			Recipient: to,
			Amount:    new(big.Int).Set(amount),
		})
		return nil
	})
}

// SetMintAuthority re-points the mint authority for symbol. Admin delegate
// only.
func (l *Ledger) SetMintAuthority(caller [20]byte, symbol string, authority [20]byte) error {
	return l.run("token.setMintAuthority", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		return ctx.manager.SetTokenMintAuthority(symbol, authority[:])
	})
}

// SetMintPaused toggles minting for symbol. Admin delegate only.
func (l *Ledger) SetMintPaused(caller [20]byte, symbol string, paused bool) error {
	return l.run("token.setMintPaused", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		return ctx.manager.SetTokenMintPaused(symbol, paused)
	})
}

// SetModulePaused toggles the pause switch guarding a module's user-facing
// entry points. Admin delegate only.
func (l *Ledger) SetModulePaused(caller [20]byte, module string, paused bool) error {
	return l.run("admin.setPaused", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		return ctx.manager.SetModulePaused(module, paused)
	})
}

// SetAirdropClaim records claimed airdrop units for a user's cycle. Claims
// accumulate; the new total is returned. Callers must hold the claim-module
// role or administrative rights.
func (l *Ledger) SetAirdropClaim(caller, user [20]byte, token string, cycle uint64, units *big.Int) (*big.Int, error) {
	var total *big.Int
	err := l.run("exchange.setClaim", func(ctx *opContext) error {
		if !ctx.manager.HasRole(RoleClaimModule, caller[:]) {
			if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
				if errors.Is(err, gov.ErrNotAdminDelegate) || errors.Is(err, gov.ErrNotGovernance) {
					return ErrNotClaimAuthority
				}
				return err
			}
		}
		sum, err := ctx.manager.AddAirdropClaim(user, token, cycle, units)
		if err != nil {
			return err
		}
		ctx.evts.Emit(events.ExchangeClaimRecorded{
			User:  user,
			Token: strings.ToUpper(strings.TrimSpace(token)),
			Cycle: cycle,
			Units: new(big.Int).Set(units),
			Total: sum,
		})
		total = sum
		return nil
	})
	if err != nil {
		return nil, err
	}
	return total, nil
}

// GrantRole adds addr to the named role list. Admin delegate only.
func (l *Ledger) GrantRole(caller [20]byte, role string, addr [20]byte) error {
	return l.run("admin.grantRole", func(ctx *opContext) error {
		if err := l.newGovEngine(ctx).RequireAdmin(caller); err != nil {
			return err
		}
		return ctx.manager.SetRole(role, addr[:])
	})
}

// GovQueueChange queues a governance handoff. Admin delegate only.
func (l *Ledger) GovQueueChange(caller, newGovernance [20]byte) (*gov.PendingChange, error) {
	var pending *gov.PendingChange
	err := l.run("gov.queueChange", func(ctx *opContext) error {
		queued, err := l.newGovEngine(ctx).QueuePendingChange(caller, newGovernance)
		if err != nil {
			return err
		}
		pending = queued
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// GovClearChange abandons the queued governance handoff. Admin delegate only.
func (l *Ledger) GovClearChange(caller [20]byte) error {
	return l.run("gov.clearChange", func(ctx *opContext) error {
		return l.newGovEngine(ctx).ClearPendingChange(caller)
	})
}

// GovCommitChange applies the queued governance handoff. Admin delegate only.
func (l *Ledger) GovCommitChange(caller [20]byte) error {
	return l.run("gov.commitChange", func(ctx *opContext) error {
		return l.newGovEngine(ctx).CommitPendingChange(caller)
	})
}

// GovSetDelegate re-points the administrative delegate. Governance only.
func (l *Ledger) GovSetDelegate(caller, delegate [20]byte) error {
	return l.run("gov.setDelegate", func(ctx *opContext) error {
		return l.newGovEngine(ctx).SetDelegate(caller, delegate)
	})
}
