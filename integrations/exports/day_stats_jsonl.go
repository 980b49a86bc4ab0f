package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"rotexchain/native/stats"
)

// DayStatsJSONL builds a JSON Lines export for the supplied archived days and
// returns the serialised payload alongside a checksum.
func DayStatsJSONL(entries []*stats.DayRecord) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, entry := range entries {
		if entry == nil || entry.Counters == nil {
			continue
		}
		payload := map[string]interface{}{
			"day_index":        entry.Index,
			"day_start":        entry.Counters.DayStart,
			"released":         amountString(entry.Counters.Released),
			"released_normal":  amountString(entry.Counters.ReleasedNormal),
			"released_reverse": amountString(entry.Counters.ReleasedReverse),
			"swap_count":       entry.Counters.SwapCount,
			"participants":     entry.Counters.Participants,
		}
		if err := encoder.Encode(payload); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	checksum := sha256.Sum256(data)
	return data, hex.EncodeToString(checksum[:]), nil
}
