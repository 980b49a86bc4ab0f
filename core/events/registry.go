package events

import (
	"strconv"

	"rotexchain/core/types"
)

const (
	// TypeRegistryParticipantAdded is emitted when a new participant joins.
	TypeRegistryParticipantAdded = "registry.participantAdded"
	// TypeRegistryTokenAdded is emitted when a token is admitted to the
	// rotation roster.
	TypeRegistryTokenAdded = "registry.tokenAdded"
)

// RegistryParticipantAdded captures a first-time registration.
type RegistryParticipantAdded struct {
	User  [20]byte
	Count uint64
}

func (RegistryParticipantAdded) EventType() string { return TypeRegistryParticipantAdded }

func (e RegistryParticipantAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeRegistryParticipantAdded,
		Attributes: map[string]string{
			"user":  addressString(e.User),
			"count": strconv.FormatUint(e.Count, 10),
		},
	}
}

// RegistryTokenAdded captures a roster admission.
type RegistryTokenAdded struct {
	Symbol string
	Owner  [20]byte
	PairID string
}

func (RegistryTokenAdded) EventType() string { return TypeRegistryTokenAdded }

func (e RegistryTokenAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeRegistryTokenAdded,
		Attributes: map[string]string{
			"symbol": e.Symbol,
			"owner":  addressString(e.Owner),
			"pairId": e.PairID,
		},
	}
}

const (
	// TypeGovPendingChange is emitted when an administrative handoff is
	// queued.
	TypeGovPendingChange = "gov.pendingChange"
	// TypeGovChangeCommitted is emitted when a queued handoff is applied.
	TypeGovChangeCommitted = "gov.changeCommitted"
	// TypeGovChangeCleared is emitted when a queued handoff is abandoned.
	TypeGovChangeCleared = "gov.changeCleared"
)

// GovPendingChange captures a queued governance handoff.
type GovPendingChange struct {
	NewGovernance     [20]byte
	EarliestExecution int64
}

func (GovPendingChange) EventType() string { return TypeGovPendingChange }

func (e GovPendingChange) Event() *types.Event {
	return &types.Event{
		Type: TypeGovPendingChange,
		Attributes: map[string]string{
			"newGovernance":     addressString(e.NewGovernance),
			"earliestExecution": strconv.FormatInt(e.EarliestExecution, 10),
		},
	}
}

// GovChangeCommitted captures an applied governance handoff.
type GovChangeCommitted struct {
	Previous [20]byte
	Current  [20]byte
}

func (GovChangeCommitted) EventType() string { return TypeGovChangeCommitted }

func (e GovChangeCommitted) Event() *types.Event {
	return &types.Event{
		Type: TypeGovChangeCommitted,
		Attributes: map[string]string{
			"previous": addressString(e.Previous),
			"current":  addressString(e.Current),
		},
	}
}

// GovChangeCleared captures an abandoned governance handoff.
type GovChangeCleared struct {
	Abandoned [20]byte
}

func (GovChangeCleared) EventType() string { return TypeGovChangeCleared }

func (e GovChangeCleared) Event() *types.Event {
	return &types.Event{
		Type: TypeGovChangeCleared,
		Attributes: map[string]string{
			"abandoned": addressString(e.Abandoned),
		},
	}
}
