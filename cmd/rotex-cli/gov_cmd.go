package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

func runGovCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, govUsage())
		return 1
	}
	switch args[0] {
	case "info":
		return runGovInfo(args[1:], stdout, stderr)
	case "grant-role":
		return runGovGrantRole(args[1:], stdout, stderr)
	case "queue":
		return runGovQueue(args[1:], stdout, stderr)
	case "clear":
		return runGovCallerOnly("gov_clear", "gov clear", args[1:], stdout, stderr)
	case "commit":
		return runGovCallerOnly("gov_commit", "gov commit", args[1:], stdout, stderr)
	case "set-delegate":
		return runGovSetDelegate(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown gov subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, govUsage())
		return 1
	}
}

func runGovInfo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gov info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 1
	}
	result, rpcErr, err := nodeRPCCall("gov_info", nil, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runGovGrantRole(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gov grant-role", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller  string
		role    string
		address string
	)
	fs.StringVar(&caller, "caller", "", "governance bech32 address")
	fs.StringVar(&role, "role", "", "role identifier, e.g. ROLE_CLAIM_MODULE")
	fs.StringVar(&address, "address", "", "grantee bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(role) == "" || strings.TrimSpace(address) == "" {
		fmt.Fprintln(stderr, "Error: --caller, --role and --address are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "role": role, "address": address}
	result, rpcErr, err := nodeRPCCall("gov_grantRole", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runGovQueue(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gov queue", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller        string
		newGovernance string
	)
	fs.StringVar(&caller, "caller", "", "current governance bech32 address")
	fs.StringVar(&newGovernance, "new", "", "successor governance bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(newGovernance) == "" {
		fmt.Fprintln(stderr, "Error: --caller and --new are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "newGovernance": newGovernance}
	result, rpcErr, err := nodeRPCCall("gov_queue", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runGovCallerOnly(method, name string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller string
	fs.StringVar(&caller, "caller", "", "governance bech32 address")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	result, rpcErr, err := nodeRPCCall(method, map[string]string{"caller": caller}, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runGovSetDelegate(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gov set-delegate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller   string
		delegate string
	)
	fs.StringVar(&caller, "caller", "", "governance bech32 address")
	fs.StringVar(&delegate, "delegate", "", "admin delegate bech32 address (empty clears)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "delegate": delegate}
	result, rpcErr, err := nodeRPCCall("gov_setDelegate", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runSystemCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, systemUsage())
		return 1
	}
	switch args[0] {
	case "paused":
		return runSystemPaused(args[1:], stdout, stderr)
	case "set-paused":
		return runSystemSetPaused(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown system subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, systemUsage())
		return 1
	}
}

func runSystemPaused(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("system paused", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var module string
	fs.StringVar(&module, "module", "", "module name, e.g. exchange")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if module == "" && fs.NArg() == 1 {
		module = fs.Arg(0)
	}
	if strings.TrimSpace(module) == "" {
		fmt.Fprintln(stderr, "Error: --module is required")
		return 1
	}
	result, rpcErr, err := nodeRPCCall("system_paused", map[string]string{"module": module}, false)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runSystemSetPaused(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("system set-paused", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		caller string
		module string
		paused bool
	)
	fs.StringVar(&caller, "caller", "", "governance or delegate bech32 address")
	fs.StringVar(&module, "module", "", "module name, e.g. exchange")
	fs.BoolVar(&paused, "paused", true, "whether the module is paused")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(module) == "" {
		fmt.Fprintln(stderr, "Error: --caller and --module are required")
		return 1
	}
	params := map[string]interface{}{"caller": caller, "module": module, "paused": paused}
	result, rpcErr, err := nodeRPCCall("system_setPaused", params, true)
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func govUsage() string {
	return `Usage: rotex-cli gov <command>

Commands:
  info          Show governance, delegate and any pending handoff
  grant-role    Grant a module role to an address (privileged)
  queue         Queue a governance handoff (privileged)
  clear         Cancel a queued handoff (privileged)
  commit        Commit a queued handoff after its delay (privileged)
  set-delegate  Rotate the admin delegate (privileged)`
}

func systemUsage() string {
	return `Usage: rotex-cli system <command>

Commands:
  paused      Show whether a module is paused
  set-paused  Pause or resume a module (privileged)`
}
