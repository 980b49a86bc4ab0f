package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func runRegistryCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, registryUsage())
		return 1
	}
	switch args[0] {
	case "participants":
		return runRegistryParticipants(args[1:], stdout, stderr)
	case "is-registered":
		return runRegistryIsRegistered(args[1:], stdout, stderr)
	case "token":
		return runRegistryToken(args[1:], stdout, stderr)
	case "tokens":
		return runRegistryTokens(args[1:], stdout, stderr)
	case "register-token":
		return runRegistryRegisterToken(args[1:], stdout, stderr)
	case "attach-pool":
		return runRegistryAttachPool(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown registry subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, registryUsage())
		return 1
	}
}

func runRegistryParticipants(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry participants", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("registry_participants", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runRegistryIsRegistered(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry is-registered", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var address string
	fs.StringVar(&address, "address", "", "participant bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if address == "" && fs.NArg() == 1 {
		address = fs.Arg(0)
	}
	if strings.TrimSpace(address) == "" {
		fmt.Fprintln(stderr, "Error: --address is required")
		return 1
	}
	result, rpcErr, err := nodeRPCCall("registry_isRegistered", map[string]string{"address": address}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runRegistryToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var symbol string
	fs.StringVar(&symbol, "symbol", "", "listed token symbol")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if symbol == "" && fs.NArg() == 1 {
		symbol = fs.Arg(0)
	}
	if strings.TrimSpace(symbol) == "" {
		fmt.Fprintln(stderr, "Error: --symbol is required")
		return 1
	}
	result, rpcErr, err := nodeRPCCall("registry_token", map[string]string{"symbol": symbol}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runRegistryTokens(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry tokens", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("registry_tokens", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runRegistryRegisterToken(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry register-token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller   string
		symbol   string
		name     string
		decimals uint
		owner    string
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&symbol, "symbol", "", "token symbol to list")
	fs.StringVar(&name, "name", "", "display name")
	fs.UintVar(&decimals, "decimals", 0, "token decimals")
	fs.StringVar(&owner, "owner", "", "listing owner bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(symbol) == "" {
		fmt.Fprintln(stderr, "Error: --caller and --symbol are required")
		return 1
	}
	if decimals > 255 {
		fmt.Fprintln(stderr, "Error: --decimals must fit a single byte")
		return 1
	}
	params := map[string]interface{}{
		"caller":   caller,
		"symbol":   symbol,
		"name":     name,
		"decimals": decimals,
		"owner":    owner,
	}
	result, rpcErr, err := nodeRPCCall("registry_registerToken", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runRegistryAttachPool(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("registry attach-pool", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller string
		symbol string
		pairID string
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&symbol, "symbol", "", "listed token symbol")
	fs.StringVar(&pairID, "pair", "", "pool pair id, e.g. AUR-STATE")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(symbol) == "" || strings.TrimSpace(pairID) == "" {
		fmt.Fprintln(stderr, "Error: --caller, --symbol and --pair are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "symbol": symbol, "pairId": pairID}
	result, rpcErr, err := nodeRPCCall("registry_attachPool", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func registryUsage() string {
	return `Usage: rotex-cli registry <command>

Commands:
  participants    List registered auction participants
  is-registered   Check whether an address is registered
  token           Show a token listing
  tokens          List all token listings
  register-token  Create a token listing (privileged)
  attach-pool     Bind a listing to a liquidity pool (privileged)`
}
