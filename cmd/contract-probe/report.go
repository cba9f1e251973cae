package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/archon-research/contract-probe/internal/domain/entity"
)

// printReport writes the console report: basic facts, every probed method
// and a summary of the methods that answered.
func printReport(w io.Writer, report *entity.Report, symbol string) {
	info := report.Info
	fmt.Fprintf(w, "Using RPC endpoint: %s\n", report.Endpoint)

	fmt.Fprintln(w, "\n=== Basic Contract Info ===")
	fmt.Fprintf(w, "Contract: %s\n", info.Address)
	fmt.Fprintf(w, "Bytecode Size: %d bytes\n", info.BytecodeSize)
	fmt.Fprintf(w, "Balance: %v %s\n", info.Balance, symbol)
	fmt.Fprintf(w, "Transaction Count: %d\n", info.TransactionCount)

	fmt.Fprintln(w, "\n=== Testing Contract Methods ===")
	for _, m := range report.Methods {
		fmt.Fprintf(w, "Trying %s...\n", m.Method)
		if m.Success {
			fmt.Fprintf(w, "✅ Success: %s\n", m.Decoded())
		} else {
			fmt.Fprintf(w, "❌ Failed: %s\n", m.Error)
		}
	}

	fmt.Fprintln(w, "\n=== Summary of Working Methods ===")
	working := report.Working()
	if len(working) == 0 {
		fmt.Fprintln(w, "No working methods found.")
		return
	}
	for _, m := range working {
		fmt.Fprintf(w, "%s - %s\n", m.Method, m.Decoded())
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
