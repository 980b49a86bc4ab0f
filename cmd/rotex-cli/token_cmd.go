package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func transferTokens(to, token, amount, keyFile string) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	from, nonce, sig, err := signedEnvelope("token_transfer", keyFile, to, token, normalized)
	if err != nil {
		fmt.Printf("Error preparing transfer: %v\n", err)
		return
	}
	params := map[string]interface{}{
		"from":      from,
		"to":        to,
		"token":     token,
		"amount":    normalized,
		"nonce":     nonce,
		"signature": sig,
	}
	if _, rpcErr, err := callNodeRPC("token_transfer", params, false); err != nil {
		fmt.Printf("Error sending transfer: %v\n", err)
		return
	} else if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	fmt.Printf("Transferred %s %s to %s.\n", normalized, token, to)
}

func transferFromTokens(owner, to, token, amount, keyFile string) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	spender, nonce, sig, err := signedEnvelope("token_transferFrom", keyFile, owner, to, token, normalized)
	if err != nil {
		fmt.Printf("Error preparing transfer: %v\n", err)
		return
	}
	params := map[string]interface{}{
		"spender":   spender,
		"owner":     owner,
		"to":        to,
		"token":     token,
		"amount":    normalized,
		"nonce":     nonce,
		"signature": sig,
	}
	if _, rpcErr, err := callNodeRPC("token_transferFrom", params, false); err != nil {
		fmt.Printf("Error sending transfer: %v\n", err)
		return
	} else if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	fmt.Printf("Transferred %s %s from %s to %s.\n", normalized, token, owner, to)
}

func approveSpender(spender, token, amount, keyFile string) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	owner, nonce, sig, err := signedEnvelope("token_approve", keyFile, spender, token, normalized)
	if err != nil {
		fmt.Printf("Error preparing approval: %v\n", err)
		return
	}
	params := map[string]interface{}{
		"owner":     owner,
		"spender":   spender,
		"token":     token,
		"amount":    normalized,
		"nonce":     nonce,
		"signature": sig,
	}
	if _, rpcErr, err := callNodeRPC("token_approve", params, false); err != nil {
		fmt.Printf("Error sending approval: %v\n", err)
		return
	} else if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	fmt.Printf("Approved %s to spend %s %s.\n", spender, normalized, token)
}

func runTokenCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, tokenUsage())
		return 1
	}
	switch args[0] {
	case "list":
		return runTokenList(args[1:], stdout, stderr)
	case "info":
		return runTokenInfo(args[1:], stdout, stderr)
	case "supply":
		return runTokenSupply(args[1:], stdout, stderr)
	case "allowance":
		return runTokenAllowance(args[1:], stdout, stderr)
	case "mint":
		return runTokenMint(args[1:], stdout, stderr)
	case "set-mint-authority":
		return runTokenSetMintAuthority(args[1:], stdout, stderr)
	case "set-mint-paused":
		return runTokenSetMintPaused(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown token subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, tokenUsage())
		return 1
	}
}

func runTokenList(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("token_list", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenInfo(args []string, stdout, stderr io.Writer) int {
	return runTokenSymbolQuery("token_info", args, stdout, stderr)
}

func runTokenSupply(args []string, stdout, stderr io.Writer) int {
	return runTokenSymbolQuery("token_supply", args, stdout, stderr)
}

func runTokenSymbolQuery(method string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(method, flag.ContinueOnError)
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
	result, rpcErr, err := nodeRPCCall(method, map[string]string{"token": token}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenAllowance(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token allowance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		owner   string
		spender string
		token   string
	)
	fs.StringVar(&owner, "owner", "", "allowance owner bech32 address")
	fs.StringVar(&spender, "spender", "", "approved spender bech32 address")
	fs.StringVar(&token, "token", "", "token symbol")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(owner) == "" || strings.TrimSpace(spender) == "" || strings.TrimSpace(token) == "" {
		fmt.Fprintln(stderr, "Error: --owner, --spender and --token are required")
		return 1
	}
	params := map[string]string{"owner": owner, "spender": spender, "token": token}
	result, rpcErr, err := nodeRPCCall("token_allowance", params, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenMint(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token mint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller string
		token  string
		to     string
		amount string
	)
	fs.StringVar(&caller, "caller", "", "mint authority bech32 address")
	fs.StringVar(&token, "token", "", "token symbol")
	fs.StringVar(&to, "to", "", "recipient bech32 address")
	fs.StringVar(&amount, "amount", "", "amount in base units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(token) == "" || strings.TrimSpace(to) == "" {
		fmt.Fprintln(stderr, "Error: --caller, --token and --to are required")
		return 1
	}
	normalized, err := normalizeAmount(amount)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	params := map[string]interface{}{"caller": caller, "token": token, "to": to, "amount": normalized}
	result, rpcErr, err := nodeRPCCall("token_mint", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenSetMintAuthority(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token set-mint-authority", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller    string
		token     string
		authority string
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&token, "token", "", "token symbol")
	fs.StringVar(&authority, "authority", "", "new mint authority bech32 address (empty clears)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(token) == "" {
		fmt.Fprintln(stderr, "Error: --caller and --token are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "token": token, "authority": authority}
	result, rpcErr, err := nodeRPCCall("token_setMintAuthority", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenSetMintPaused(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token set-mint-paused", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller string
		token  string
		paused bool
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&token, "token", "", "token symbol")
	fs.BoolVar(&paused, "paused", true, "whether minting is paused")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(token) == "" {
		fmt.Fprintln(stderr, "Error: --caller and --token are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "token": token, "paused": paused}
	result, rpcErr, err := nodeRPCCall("token_setMintPaused", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func tokenUsage() string {
	return `Usage: rotex-cli token <command>

Commands:
  list                List supported token symbols
  info                Show token metadata and supply
  supply              Show the circulating supply of a token
  allowance           Show an owner/spender allowance
  mint                Mint tokens (privileged)
  set-mint-authority  Rotate a token's mint authority (privileged)
  set-mint-paused     Pause or resume minting (privileged)`
}
