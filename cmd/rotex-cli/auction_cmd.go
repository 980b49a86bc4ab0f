package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

var nodeRPCCall = callNodeRPC

func runAuctionCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, auctionUsage())
		return 1
	}
	switch args[0] {
	case "today":
		return runAuctionSimpleQuery("auction_todayToken", args[1:], stdout, stderr)
	case "active":
		return runAuctionSimpleQuery("auction_active", args[1:], stdout, stderr)
	case "schedule":
		return runAuctionSimpleQuery("auction_schedule", args[1:], stdout, stderr)
	case "time-left":
		return runAuctionTokenQuery("auction_timeLeft", args[1:], stdout, stderr)
	case "appearances":
		return runAuctionTokenQuery("auction_appearances", args[1:], stdout, stderr)
	case "set-schedule":
		return runAuctionSetSchedule(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown auction subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, auctionUsage())
		return 1
	}
}

func runAuctionSimpleQuery(method string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(method, flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall(method, nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runAuctionTokenQuery(method string, args []string, stdout, stderr io.Writer) int {
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

func runAuctionSetSchedule(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("auction set-schedule", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller string
		tokens string
		start  int64
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&tokens, "tokens", "", "comma separated roster, e.g. AUR,VLT,NOVA")
	fs.Int64Var(&start, "start", 0, "unix start time (0 keeps the genesis time)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	roster := splitRoster(tokens)
	if len(roster) == 0 {
		fmt.Fprintln(stderr, "Error: --tokens must name at least one symbol")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "tokens": roster, "startTime": start}
	result, rpcErr, err := nodeRPCCall("auction_setSchedule", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func splitRoster(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func auctionUsage() string {
	return `Usage: rotex-cli auction <command>

Commands:
  today         Show the token holding today's slot
  active        Show whether a slot window is currently open
  schedule      Show the configured rotation schedule
  time-left     Seconds remaining in a token's current window
  appearances   How many times a token has held a slot
  set-schedule  Install the rotation roster (privileged)`
}
