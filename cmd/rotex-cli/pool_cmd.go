package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func runPoolCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, poolUsage())
		return 1
	}
	switch args[0] {
	case "get":
		return runPoolGet(args[1:], stdout, stderr)
	case "for-token":
		return runPoolForToken(args[1:], stdout, stderr)
	case "create":
		return runPoolCreate(args[1:], stdout, stderr)
	case "seed":
		return runPoolSeed(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown pool subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, poolUsage())
		return 1
	}
}

func runPoolGet(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pool get", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var pairID string
	fs.StringVar(&pairID, "pair", "", "pool pair id, e.g. AUR-STATE")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if pairID == "" && fs.NArg() == 1 {
		pairID = fs.Arg(0)
	}
	if strings.TrimSpace(pairID) == "" {
		fmt.Fprintln(stderr, "Error: --pair is required")
		return 1
	}
	result, rpcErr, err := nodeRPCCall("pool_get", map[string]string{"pairId": pairID}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runPoolForToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pool for-token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var token string
	fs.StringVar(&token, "token", "", "token symbol")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if token == "" && fs.NArg() == 1 {
		token = fs.Arg(0)
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintln(stderr, "Error: --token is required")
		return 1
	}
	result, rpcErr, err := nodeRPCCall("pool_forToken", map[string]string{"token": token}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runPoolCreate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pool create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller string
		tokenA string
		tokenB string
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&tokenA, "token-a", "", "auction side token symbol")
	fs.StringVar(&tokenB, "token-b", "", "settlement side token symbol")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(tokenA) == "" || strings.TrimSpace(tokenB) == "" {
		fmt.Fprintln(stderr, "Error: --caller, --token-a and --token-b are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "tokenA": tokenA, "tokenB": tokenB}
	result, rpcErr, err := nodeRPCCall("pool_create", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runPoolSeed(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("pool seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller  string
		pairID  string
		amountA string
		amountB string
	)
	fs.StringVar(&caller, "caller", "", "funding account bech32 address")
	fs.StringVar(&pairID, "pair", "", "pool pair id, e.g. AUR-STATE")
	fs.StringVar(&amountA, "amount-a", "", "auction side amount in base units")
	fs.StringVar(&amountB, "amount-b", "", "settlement side amount in base units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(pairID) == "" {
		fmt.Fprintln(stderr, "Error: --caller and --pair are required")
		return 1
	}
	normalizedA, err := normalizeAmount(amountA)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --amount-a: %v\n", err)
		return 1
	}
	normalizedB, err := normalizeAmount(amountB)
	if err != nil {
		fmt.Fprintf(stderr, "Error: invalid --amount-b: %v\n", err)
		return 1
	}
	params := map[string]interface{}{
		"caller":  caller,
		"pairId":  pairID,
		"amountA": normalizedA,
		"amountB": normalizedB,
	}
	result, rpcErr, err := nodeRPCCall("pool_seed", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func poolUsage() string {
	return `Usage: rotex-cli pool <command>

Commands:
  get        Show a pool's reserves
  for-token  Resolve the pool pair id serving a token
  create     Create an empty pool (privileged)
  seed       Move reserves from an account into a pool (privileged)`
}
