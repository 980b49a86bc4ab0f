package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"rotexchain/rpc"
)

// signedEnvelope prepares everything a signed call needs: it loads the key,
// fetches the live account nonce and signs the canonical field order for the
// method. The extras are the method-specific fields that sit between the
// account address and the nonce in the digest.
func signedEnvelope(method, keyFile string, extras ...string) (string, uint64, string, error) {
	key, err := loadSigningKey(keyFile)
	if err != nil {
		return "", 0, "", err
	}
	user := key.PubKey().Address().String()
	nonce, err := fetchNonce(user)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to fetch account nonce: %w", err)
	}
	sig, err := rpc.SignOperation(key, method, rpc.SignedFields(user, nonce, extras...)...)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to sign operation: %w", err)
	}
	return user, nonce, sig, nil
}

func registerParticipant(keyFile string) {
	user, nonce, sig, err := signedEnvelope("registry_register", keyFile)
	if err != nil {
		fmt.Printf("Error preparing registration: %v\n", err)
		return
	}
	params := map[string]interface{}{"user": user, "nonce": nonce, "signature": sig}
	result, rpcErr, err := callNodeRPC("registry_register", params, false)
	if err != nil {
		fmt.Printf("Error sending registration: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	var out struct {
		Added bool `json:"added"`
	}
	if err := json.Unmarshal(result, &out); err != nil {
		fmt.Printf("Error decoding response: %v\n", err)
		return
	}
	if out.Added {
		fmt.Printf("Registered %s for the auction roster.\n", user)
	} else {
		fmt.Printf("%s was already registered.\n", user)
	}
}

func burnTokens(keyFile string) {
	user, nonce, sig, err := signedEnvelope("exchange_burn", keyFile)
	if err != nil {
		fmt.Printf("Error preparing burn: %v\n", err)
		return
	}
	params := map[string]interface{}{"user": user, "nonce": nonce, "signature": sig}
	result, rpcErr, err := callNodeRPC("exchange_burn", params, false)
	if err != nil {
		fmt.Printf("Error sending burn: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

func swapTokens(keyFile string) {
	user, nonce, sig, err := signedEnvelope("exchange_swap", keyFile)
	if err != nil {
		fmt.Printf("Error preparing swap: %v\n", err)
		return
	}
	params := map[string]interface{}{"user": user, "nonce": nonce, "signature": sig}
	result, rpcErr, err := callNodeRPC("exchange_swap", params, false)
	if err != nil {
		fmt.Printf("Error sending swap: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

func reverseSwap(amount, keyFile string) {
	normalized, err := normalizeAmount(amount)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	user, nonce, sig, err := signedEnvelope("exchange_reverseSwap", keyFile, normalized)
	if err != nil {
		fmt.Printf("Error preparing reverse swap: %v\n", err)
		return
	}
	params := map[string]interface{}{"user": user, "amount": normalized, "nonce": nonce, "signature": sig}
	result, rpcErr, err := callNodeRPC("exchange_reverseSwap", params, false)
	if err != nil {
		fmt.Printf("Error sending reverse swap: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

func reverseBurn(keyFile string) {
	user, nonce, sig, err := signedEnvelope("exchange_reverseBurn", keyFile)
	if err != nil {
		fmt.Printf("Error preparing reverse burn: %v\n", err)
		return
	}
	params := map[string]interface{}{"user": user, "nonce": nonce, "signature": sig}
	result, rpcErr, err := callNodeRPC("exchange_reverseBurn", params, false)
	if err != nil {
		fmt.Printf("Error sending reverse burn: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

func cycleInfo(method, user, token, cycle string) {
	cycleNum, err := strconv.ParseUint(strings.TrimSpace(cycle), 10, 64)
	if err != nil {
		fmt.Println("Error: Invalid cycle number.")
		return
	}
	params := map[string]interface{}{"user": user, "token": token, "cycle": cycleNum}
	result, rpcErr, err := callNodeRPC(method, params, false)
	if err != nil {
		fmt.Printf("Error fetching cycle: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

func receiptInfo(digest string) {
	params := map[string]string{"digest": digest}
	result, rpcErr, err := callNodeRPC("exchange_receipt", params, false)
	if err != nil {
		fmt.Printf("Error fetching receipt: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

func setClaim(caller, user, token, cycle, units string) {
	cycleNum, err := strconv.ParseUint(strings.TrimSpace(cycle), 10, 64)
	if err != nil {
		fmt.Println("Error: Invalid cycle number.")
		return
	}
	normalizedUnits, err := normalizeAmount(units)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	params := map[string]interface{}{
		"caller": caller,
		"user":   user,
		"token":  token,
		"cycle":  cycleNum,
		"units":  normalizedUnits,
	}
	if _, rpcErr, err := callNodeRPC("exchange_setClaim", params, true); err != nil {
		fmt.Printf("Error recording claim: %v\n", err)
		return
	} else if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	fmt.Printf("Recorded %s claim units for %s in cycle %d.\n", normalizedUnits, user, cycleNum)
}
