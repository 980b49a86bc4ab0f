package main

import (
	"flag"
	"fmt"
	"io"
)

func runStatsCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, statsUsage())
		return 1
	}
	switch args[0] {
	case "today":
		return runStatsToday(args[1:], stdout, stderr)
	case "day":
		return runStatsDay(args[1:], stdout, stderr)
	case "days":
		return runStatsDays(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown stats subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, statsUsage())
		return 1
	}
}

func runStatsToday(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stats today", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("stats_today", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runStatsDay(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stats day", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var index uint64
	fs.Uint64Var(&index, "index", 0, "archived day index, oldest first")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("stats_day", map[string]uint64{"index": index}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runStatsDays(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("stats days", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("stats_days", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func statsUsage() string {
	return `Usage: rotex-cli stats <command>

Commands:
  today  Show the counters of the current day
  day    Show an archived day by index
  days   Show how many days are archived`
}
