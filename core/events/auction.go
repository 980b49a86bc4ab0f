package events

import (
	"math/big"
	"strconv"
	"strings"

	"rotexchain/core/types"
)

const (
	// TypeAuctionScheduleSet is emitted exactly once when the rotation
	// schedule is installed.
	TypeAuctionScheduleSet = "auction.scheduleSet"
)

// AuctionScheduleSet captures the installed rotation schedule.
type AuctionScheduleSet struct {
	Tokens    []string
	StartTime int64
	Duration  int64
	Gap       int64
}

func (AuctionScheduleSet) EventType() string { return TypeAuctionScheduleSet }

func (e AuctionScheduleSet) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionScheduleSet,
		Attributes: map[string]string{
			"tokens":    strings.Join(e.Tokens, ","),
			"startTime": strconv.FormatInt(e.StartTime, 10),
			"duration":  strconv.FormatInt(e.Duration, 10),
			"gap":       strconv.FormatInt(e.Gap, 10),
		},
	}
}

const (
	// TypeStatsDayClosed is emitted when the daily counters roll over.
	TypeStatsDayClosed = "stats.dayClosed"
)

// StatsDayClosed captures an archived day of exchange activity.
type StatsDayClosed struct {
	DayIndex        uint64
	DayStart        int64
	Released        *big.Int
	ReleasedNormal  *big.Int
	ReleasedReverse *big.Int
	SwapCount       uint64
	Participants    uint64
}

func (StatsDayClosed) EventType() string { return TypeStatsDayClosed }

func (e StatsDayClosed) Event() *types.Event {
	return &types.Event{
		Type: TypeStatsDayClosed,
		Attributes: map[string]string{
			"dayIndex":        strconv.FormatUint(e.DayIndex, 10),
			"dayStart":        strconv.FormatInt(e.DayStart, 10),
			"released":        amountString(e.Released),
			"releasedNormal":  amountString(e.ReleasedNormal),
			"releasedReverse": amountString(e.ReleasedReverse),
			"swapCount":       strconv.FormatUint(e.SwapCount, 10),
			"participants":    strconv.FormatUint(e.Participants, 10),
		},
	}
}
