package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"

	"rotexchain/cmd/internal/passphrase"
	"rotexchain/crypto"
)

var rpcEndpoint = defaultRPCEndpoint() // Defaults to localhost, can be overridden via RPC_URL or --rpc flag
var rpcAuthToken = os.Getenv("ROTEX_RPC_TOKEN")

const keystorePassEnv = "ROTEX_KEYSTORE_PASS"

var keystorePass = passphrase.NewSource(keystorePassEnv)

func main() {
	args := os.Args[1:]
	var err error
	rpcEndpoint = defaultRPCEndpoint()
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "generate-key":
		fileName := "wallet.key"
		if len(args) > 1 {
			fileName = args[1]
		}
		generateKey(fileName)
	case "export-keystore":
		if len(args) < 3 {
			fmt.Println("Usage: export-keystore <key_file> <keystore_file>")
			return
		}
		exportKeystore(args[1], args[2])
	case "address":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a key file.")
			printUsage()
			return
		}
		showAddress(args[1])
	case "balance":
		if len(args) < 3 {
			fmt.Println("Error: Please provide an address and a token symbol.")
			printUsage()
			return
		}
		getBalance(args[1], args[2])
	case "nonce":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an address.")
			printUsage()
			return
		}
		getNonce(args[1])
	case "register":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a key file.")
			printUsage()
			return
		}
		registerParticipant(args[1])
	case "burn":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a key file.")
			printUsage()
			return
		}
		burnTokens(args[1])
	case "swap":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a key file.")
			printUsage()
			return
		}
		swapTokens(args[1])
	case "reverse-swap":
		if len(args) < 3 {
			fmt.Println("Error: Please provide an amount and a key file.")
			printUsage()
			return
		}
		reverseSwap(args[1], args[2])
	case "reverse-burn":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a key file.")
			printUsage()
			return
		}
		reverseBurn(args[1])
	case "transfer":
		if len(args) < 5 {
			fmt.Println("Usage: transfer <to> <token> <amount> <key_file>")
			return
		}
		transferTokens(args[1], args[2], args[3], args[4])
	case "transfer-from":
		if len(args) < 6 {
			fmt.Println("Usage: transfer-from <owner> <to> <token> <amount> <key_file>")
			return
		}
		transferFromTokens(args[1], args[2], args[3], args[4], args[5])
	case "approve":
		if len(args) < 5 {
			fmt.Println("Usage: approve <spender> <token> <amount> <key_file>")
			return
		}
		approveSpender(args[1], args[2], args[3], args[4])
	case "cycle":
		if len(args) < 4 {
			fmt.Println("Usage: cycle <user> <token> <cycle>")
			return
		}
		cycleInfo("exchange_cycle", args[1], args[2], args[3])
	case "reverse-cycle":
		if len(args) < 4 {
			fmt.Println("Usage: reverse-cycle <user> <token> <cycle>")
			return
		}
		cycleInfo("exchange_reverseCycle", args[1], args[2], args[3])
	case "receipt":
		if len(args) < 2 {
			fmt.Println("Usage: receipt <digest>")
			return
		}
		receiptInfo(args[1])
	case "set-claim":
		if len(args) < 6 {
			fmt.Println("Usage: set-claim <caller> <user> <token> <cycle> <units>")
			return
		}
		setClaim(args[1], args[2], args[3], args[4], args[5])
	case "auction":
		exitOnCode(runAuctionCommand(args[1:], os.Stdout, os.Stderr))
	case "token":
		exitOnCode(runTokenCommand(args[1:], os.Stdout, os.Stderr))
	case "registry":
		exitOnCode(runRegistryCommand(args[1:], os.Stdout, os.Stderr))
	case "pool":
		exitOnCode(runPoolCommand(args[1:], os.Stdout, os.Stderr))
	case "stats":
		exitOnCode(runStatsCommand(args[1:], os.Stdout, os.Stderr))
	case "gov":
		exitOnCode(runGovCommand(args[1:], os.Stdout, os.Stderr))
	case "system":
		exitOnCode(runSystemCommand(args[1:], os.Stdout, os.Stderr))
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func exitOnCode(code int) {
	if code != 0 {
		os.Exit(code)
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

// --- KEY MANAGEMENT ---

func generateKey(fileName string) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile(fileName, key.Bytes(), 0600); err != nil {
		panic(fmt.Sprintf("Failed to save key to %s: %v", fileName, err))
	}

	fmt.Printf("Generated new key and saved to %s\n", fileName)
	fmt.Printf("Your public address is: %s\n", key.PubKey().Address().String())
	fmt.Println("Store this file securely. Signed commands will refuse to run without a local key.")
}

func exportKeystore(keyFile, keystoreFile string) {
	key, err := loadSigningKey(keyFile)
	if err != nil {
		fmt.Printf("Error loading signing key: %v\n", err)
		return
	}
	pass, err := keystorePass.Get()
	if err != nil {
		fmt.Printf("Error resolving keystore passphrase: %v\n", err)
		return
	}
	if err := crypto.SaveToKeystore(keystoreFile, key, pass); err != nil {
		fmt.Printf("Error writing keystore: %v\n", err)
		return
	}
	fmt.Printf("Wrote encrypted keystore to %s\n", keystoreFile)
	fmt.Println("Signed commands accept the keystore file anywhere a key file is expected.")
}

func showAddress(keyFile string) {
	key, err := loadSigningKey(keyFile)
	if err != nil {
		fmt.Printf("Error loading signing key: %v\n", err)
		return
	}
	fmt.Println(key.PubKey().Address().String())
}

// loadSigningKey reads either a raw key file produced by generate-key or an
// encrypted keystore produced by export-keystore. Keystore files are JSON, so
// a leading brace selects the encrypted path.
func loadSigningKey(path string) (*crypto.PrivateKey, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key file %s not found. run ./rotex-cli generate-key first", path)
		}
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	if len(keyBytes) == 0 {
		return nil, fmt.Errorf("key file %s is empty. run ./rotex-cli generate-key first", path)
	}
	if bytes.HasPrefix(bytes.TrimSpace(keyBytes), []byte("{")) {
		pass, err := keystorePass.Get()
		if err != nil {
			return nil, err
		}
		key, err := crypto.LoadFromKeystore(path, pass)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt keystore %s: %w", path, err)
		}
		return key, nil
	}
	privKey, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key in %s: %w", path, err)
	}
	return privKey, nil
}

// --- RPC HELPER FUNCTIONS ---

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func doRPCRequest(payload []byte, requireAuth bool) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if requireAuth {
		if rpcAuthToken == "" {
			return nil, fmt.Errorf("privileged RPC call requires ROTEX_RPC_TOKEN to be set")
		}
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(rpcAuthToken))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	return resp, nil
}

func callNodeRPC(method string, params interface{}, requireAuth bool) (json.RawMessage, *rpcError, error) {
	payload := map[string]interface{}{
		"id":     1,
		"method": method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	} else {
		payload["params"] = []interface{}{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	resp, err := doRPCRequest(body, requireAuth)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}
	return rpcResp.Result, rpcResp.Error, nil
}

func handleRPCCallError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "RPC call failed: %v\n", err)
	return 1
}

func handleRPCError(w io.Writer, err *rpcError) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "RPC error %d: %s\n", err.Code, err.Message)
	return 1
}

func writeRPCResult(w io.Writer, result json.RawMessage) {
	if len(result) == 0 {
		fmt.Fprintln(w, "null")
		return
	}
	if _, err := w.Write(result); err == nil {
		if len(result) == 0 || result[len(result)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}

func printJSONResult(result json.RawMessage) {
	if len(result) == 0 {
		fmt.Println("No result.")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(buf.String())
}

// fetchNonce asks the node for the next expected nonce of an account. Every
// signed command does this immediately before signing so the signature binds
// the live nonce.
func fetchNonce(addr string) (uint64, error) {
	result, rpcErr, err := callNodeRPC("account_nonce", map[string]string{"address": addr}, false)
	if err != nil {
		return 0, err
	}
	if rpcErr != nil {
		return 0, fmt.Errorf("error from node: %s", rpcErr.Message)
	}
	var out struct {
		Nonce uint64 `json:"nonce"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		return 0, fmt.Errorf("failed to decode nonce response: %w", err)
	}
	return out.Nonce, nil
}

// normalizeAmount parses a decimal amount and re-renders it canonically. The
// node signs receipts over the canonical rendering, so leading zeroes or
// whitespace in operator input would otherwise break signature verification.
func normalizeAmount(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return "", fmt.Errorf("invalid amount %q", value)
	}
	if amount.Sign() < 0 {
		return "", fmt.Errorf("amount must not be negative")
	}
	return amount.String(), nil
}

func getBalance(addr, token string) {
	result, rpcErr, err := callNodeRPC("token_balance", map[string]string{"address": addr, "token": token}, false)
	if err != nil {
		fmt.Printf("Error fetching balance: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	var out struct {
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}
	fmt.Printf("Balance of %s for %s: %s\n", token, addr, out.Balance)
}

func getNonce(addr string) {
	nonce, err := fetchNonce(addr)
	if err != nil {
		fmt.Printf("Error fetching nonce: %v\n", err)
		return
	}
	fmt.Printf("Next nonce for %s: %d\n", addr, nonce)
}

func printUsage() {
	fmt.Println("Usage: rotex-cli [--rpc <url>] <command> [arguments]")
	fmt.Println()
	fmt.Println("Signed commands require a locally generated key. Run ./rotex-cli generate-key first.")
	fmt.Println("Privileged commands additionally require ROTEX_RPC_TOKEN in the environment.")
	fmt.Println("Commands:")
	fmt.Println("  generate-key [file]                    - Generates a new key (default wallet.key)")
	fmt.Println("  export-keystore <key_file> <out>       - Encrypts a key into an Ethereum v3 keystore")
	fmt.Println("  address <key_file>                     - Prints the bech32 address of a key")
	fmt.Println("  balance <address> <token>              - Shows a token balance")
	fmt.Println("  nonce <address>                        - Shows the next expected account nonce")
	fmt.Println("  register <key_file>                    - Registers the key holder for auctions")
	fmt.Println("  burn <key_file>                        - Burns the active token against a claim")
	fmt.Println("  swap <key_file>                        - Swaps burn settlement through the pool")
	fmt.Println("  reverse-swap <amount> <key_file>       - Buys auction tokens in a reverse window")
	fmt.Println("  reverse-burn <key_file>                - Settles tokens bought in a reverse window")
	fmt.Println("  transfer <to> <token> <amt> <key_file> - Transfers tokens")
	fmt.Println("  transfer-from <owner> <to> <token> <amt> <key_file> - Spends an allowance")
	fmt.Println("  approve <spender> <token> <amt> <key_file> - Grants an allowance")
	fmt.Println("  cycle <user> <token> <cycle>           - Shows a user's normal cycle state")
	fmt.Println("  reverse-cycle <user> <token> <cycle>   - Shows a user's reverse cycle state")
	fmt.Println("  receipt <digest>                       - Looks up a settlement receipt")
	fmt.Println("  set-claim <caller> <user> <token> <cycle> <units> - Records claim units (privileged)")
	fmt.Println("  auction                                - Schedule and slot subcommands")
	fmt.Println("  token                                  - Token registry and mint subcommands")
	fmt.Println("  registry                               - Participant and listing subcommands")
	fmt.Println("  pool                                   - Liquidity pool subcommands")
	fmt.Println("  stats                                  - Daily counter subcommands")
	fmt.Println("  gov                                    - Governance subcommands")
	fmt.Println("  system                                 - Pause switch subcommands")
}
