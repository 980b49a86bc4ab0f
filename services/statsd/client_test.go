package statsd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type nodeStub struct {
	today DayStats
	days  []DayStats
}

func (n *nodeStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
			ID     int64             `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeResult := func(result interface{}) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      req.ID,
				"result":  result,
			})
		}
		switch req.Method {
		case "stats_today":
			writeResult(n.today)
		case "stats_days":
			writeResult(map[string]uint64{"days": uint64(len(n.days))})
		case "stats_day":
			var params struct {
				Index uint64 `json:"index"`
			}
			if len(req.Params) > 0 {
				_ = json.Unmarshal(req.Params[0], &params)
			}
			if params.Index >= uint64(len(n.days)) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"jsonrpc": "2.0",
					"id":      req.ID,
					"error":   map[string]interface{}{"code": rpcCodeNotFound, "message": "day not archived"},
				})
				return
			}
			writeResult(map[string]interface{}{"index": params.Index, "stats": n.days[params.Index]})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, stub *nodeStub) *NodeClient {
	t.Helper()
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)
	client, err := NewNodeClient(server.URL, time.Second)
	if err != nil {
		t.Fatalf("new node client: %v", err)
	}
	return client
}

func TestClientStatsToday(t *testing.T) {
	stub := &nodeStub{today: sampleStats(1_700_000_000, "12000")}
	client := newTestClient(t, stub)
	today, err := client.StatsToday(context.Background())
	if err != nil {
		t.Fatalf("stats today: %v", err)
	}
	if today.Released != "12000" || today.DayStart != 1_700_000_000 {
		t.Fatalf("unexpected today: %+v", today)
	}
}

func TestClientStatsDayCount(t *testing.T) {
	stub := &nodeStub{days: []DayStats{sampleStats(1, "1"), sampleStats(2, "2")}}
	client := newTestClient(t, stub)
	count, err := client.StatsDayCount(context.Background())
	if err != nil {
		t.Fatalf("stats day count: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected count: %d", count)
	}
}

func TestClientStatsDayFetchesArchivedDay(t *testing.T) {
	stub := &nodeStub{days: []DayStats{sampleStats(1_700_000_000, "100"), sampleStats(1_700_086_400, "250")}}
	client := newTestClient(t, stub)
	day, ok, err := client.StatsDay(context.Background(), 1)
	if err != nil {
		t.Fatalf("stats day: %v", err)
	}
	if !ok {
		t.Fatalf("expected day 1 archived")
	}
	if day.Released != "250" || day.DayStart != 1_700_086_400 {
		t.Fatalf("unexpected day: %+v", day)
	}
}

func TestClientStatsDayNotFound(t *testing.T) {
	stub := &nodeStub{days: []DayStats{sampleStats(1_700_000_000, "100")}}
	client := newTestClient(t, stub)
	_, ok, err := client.StatsDay(context.Background(), 9)
	if err != nil {
		t.Fatalf("stats day: %v", err)
	}
	if ok {
		t.Fatalf("expected day 9 unarchived")
	}
}

func TestNewNodeClientValidatesEndpoint(t *testing.T) {
	if _, err := NewNodeClient("", time.Second); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
	if _, err := NewNodeClient("localhost:8080", time.Second); err == nil {
		t.Fatalf("expected error for endpoint without scheme")
	}
}
