package statsd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// DayStats mirrors the stats payload the node serves over JSON-RPC. Settlement
// amounts travel as decimal strings.
type DayStats struct {
	DayStart        int64  `json:"dayStart"`
	Released        string `json:"released"`
	ReleasedNormal  string `json:"releasedNormal"`
	ReleasedReverse string `json:"releasedReverse"`
	SwapCount       uint64 `json:"swapCount"`
	Participants    uint64 `json:"participants"`
}

// The node's not-found code, duplicated so the service stays decoupled from
// the rpc package.
const rpcCodeNotFound = -32014

const defaultRequestTimeout = 10 * time.Second

// NodeClient polls the node's stats methods over JSON-RPC.
type NodeClient struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	nextID   atomic.Int64
}

// NewNodeClient validates the endpoint and builds a polling client.
func NewNodeClient(endpoint string, timeout time.Duration) (*NodeClient, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("node endpoint required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse node endpoint: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("node endpoint must include scheme and host")
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &NodeClient{
		endpoint: parsed.String(),
		client:   &http.Client{Timeout: timeout + 5*time.Second},
		timeout:  timeout,
	}, nil
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int64         `json:"id"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("node rpc error %d: %s", e.Code, e.Message)
}

func (c *NodeClient) call(ctx context.Context, method string, params []interface{}, out interface{}) (*rpcError, error) {
	if c == nil {
		return nil, fmt.Errorf("node client not configured")
	}
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: c.nextID.Add(1)})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()
	var envelope rpcEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return envelope.Error, nil
	}
	if out != nil {
		if len(envelope.Result) == 0 {
			return nil, fmt.Errorf("empty %s result", method)
		}
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil, nil
}

// StatsToday fetches the running day's counters.
func (c *NodeClient) StatsToday(ctx context.Context) (DayStats, error) {
	var result DayStats
	rpcErr, err := c.call(ctx, "stats_today", nil, &result)
	if err != nil {
		return DayStats{}, err
	}
	if rpcErr != nil {
		return DayStats{}, rpcErr
	}
	return result, nil
}

// StatsDayCount reports how many days the node has archived.
func (c *NodeClient) StatsDayCount(ctx context.Context) (uint64, error) {
	var result struct {
		Days uint64 `json:"days"`
	}
	rpcErr, err := c.call(ctx, "stats_days", nil, &result)
	if err != nil {
		return 0, err
	}
	if rpcErr != nil {
		return 0, rpcErr
	}
	return result.Days, nil
}

// StatsDay fetches the archived day at index. A false second return means the
// node has not archived that index yet.
func (c *NodeClient) StatsDay(ctx context.Context, index uint64) (DayStats, bool, error) {
	var result struct {
		Index uint64   `json:"index"`
		Stats DayStats `json:"stats"`
	}
	rpcErr, err := c.call(ctx, "stats_day", []interface{}{map[string]uint64{"index": index}}, &result)
	if err != nil {
		return DayStats{}, false, err
	}
	if rpcErr != nil {
		if rpcErr.Code == rpcCodeNotFound {
			return DayStats{}, false, nil
		}
		return DayStats{}, false, rpcErr
	}
	return result.Stats, true, nil
}
