package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// Wire codes the rotex node reports for failed calls. Duplicated here so the
// gateway stays decoupled from the node's rpc package.
const (
	nodeCodeInvalidParams = -32602
	nodeCodeUnauthorized  = -32001
	nodeCodeConflict      = -32010
	nodeCodeNotFound      = -32014
	nodeCodePaused        = -32021
)

const nodeDefaultTimeout = 10 * time.Second

// NodeClient speaks JSON-RPC to the rotex node on behalf of REST handlers.
type NodeClient struct {
	target  *url.URL
	client  *http.Client
	timeout time.Duration
	nextID  atomic.Int64
}

type nodeRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type NodeRPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *NodeRPCError) Error() string {
	return fmt.Sprintf("node rpc error %d: %s", e.Code, e.Message)
}

type nodeRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *NodeRPCError   `json:"error"`
}

func NewNodeClient(target *url.URL, timeout time.Duration) (*NodeClient, error) {
	if target == nil {
		return nil, fmt.Errorf("nil node target")
	}
	cloned := *target
	if strings.TrimSpace(cloned.Scheme) == "" {
		return nil, fmt.Errorf("node target scheme required")
	}
	if strings.TrimSpace(cloned.Host) == "" {
		return nil, fmt.Errorf("node target host required")
	}
	if strings.TrimSpace(cloned.Path) == "" {
		cloned.Path = "/"
	}
	if timeout <= 0 {
		timeout = nodeDefaultTimeout
	}
	return &NodeClient{
		target:  &cloned,
		client:  &http.Client{Timeout: timeout + 5*time.Second},
		timeout: timeout,
	}, nil
}

// Call posts a single JSON-RPC request and separates transport failures from
// node-reported errors so handlers can map each to a distinct HTTP status.
func (nc *NodeClient) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, *NodeRPCError, error) {
	id := nc.nextID.Add(1)
	wrapped := []interface{}{}
	if params != nil {
		wrapped = append(wrapped, params)
	}
	payload, err := json.Marshal(nodeRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  wrapped,
		ID:      id,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, nc.target.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := nc.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("perform rpc request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read rpc response: %w", err)
	}
	var rpcResp nodeRPCResponse
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return nil, nil, fmt.Errorf("decode rpc response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error, nil
	}
	return rpcResp.Result, nil, nil
}

func (nc *NodeClient) context(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := nc.timeout
	if timeout <= 0 {
		timeout = nodeDefaultTimeout
	}
	return context.WithTimeout(parent, timeout)
}

func statusForNodeError(code int) int {
	switch code {
	case nodeCodeInvalidParams:
		return http.StatusBadRequest
	case nodeCodeUnauthorized:
		return http.StatusUnauthorized
	case nodeCodeConflict:
		return http.StatusConflict
	case nodeCodeNotFound:
		return http.StatusNotFound
	case nodeCodePaused:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeNodeError(w http.ResponseWriter, rpcErr *NodeRPCError) {
	writeJSONError(w, statusForNodeError(rpcErr.Code), errors.New(rpcErr.Message))
}

func writeResultJSON(w http.ResponseWriter, result json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if len(result) == 0 {
		_, _ = w.Write([]byte("null"))
		return
	}
	_, _ = w.Write(result)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadRequest, err)
}

func writeBadGateway(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusBadGateway, err)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	message := strings.TrimSpace(err.Error())
	if message == "" {
		message = http.StatusText(status)
	}
	payload, marshalErr := json.Marshal(map[string]string{"error": message})
	if marshalErr != nil {
		payload = []byte(`{"error":"internal error"}`)
	}
	_, _ = w.Write(payload)
}
