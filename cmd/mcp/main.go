// Stellarbeat MCP Server - Exposes Stellar network monitoring as MCP tools for LLMs
package main

import (
	"os"
)

var version = "dev" // Set at build time using -ldflags

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
