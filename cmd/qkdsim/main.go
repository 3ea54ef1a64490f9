// Command qkdsim runs simulated BB84 key exchanges from the command line, or
// serves them over HTTP.
//
// Usage:
//
//	qkdsim serve      Serve the HTTP API and websocket batch stream
//	qkdsim run        Run one session and print its summary
//	qkdsim batch      Run a seeded batch and print its comparison
//	qkdsim analyze    Predict QBER and detectability per intercept rate
package main

import (
	"fmt"
	"os"
)

const usage = `qkdsim: BB84 quantum key distribution simulator

Usage:
  qkdsim <command> [flags]

Commands:
  serve      Serve the HTTP API and websocket batch stream
  run        Run one session and print its summary
  batch      Run a seeded batch and print its comparison
  analyze    Predict QBER and detectability per intercept rate

Run 'qkdsim <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "run":
		err = runOnce(args)
	case "batch":
		err = runBatch(args)
	case "analyze":
		err = runAnalyze(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "qkdsim: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "qkdsim %s: %v\n", cmd, err)
		os.Exit(1)
	}
}
