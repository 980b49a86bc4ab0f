package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"math/big"

	"rotexchain/native/stats"
)

// DayStatsCSV builds a CSV export for the supplied archived days and returns
// the serialised data alongside a SHA-256 checksum of the payload.
func DayStatsCSV(entries []*stats.DayRecord) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	header := []string{"day_index", "day_start", "released", "released_normal", "released_reverse", "swap_count", "participants"}
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, entry := range entries {
		if entry == nil || entry.Counters == nil {
			continue
		}
		record := []string{
			fmt.Sprintf("%d", entry.Index),
			fmt.Sprintf("%d", entry.Counters.DayStart),
			amountString(entry.Counters.Released),
			amountString(entry.Counters.ReleasedNormal),
			amountString(entry.Counters.ReleasedReverse),
			fmt.Sprintf("%d", entry.Counters.SwapCount),
			fmt.Sprintf("%d", entry.Counters.Participants),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}

func amountString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
