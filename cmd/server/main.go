// Package main is the entry point for the AgroPower server.
package main

import (
	"os"

	"github.com/softcane/agropower/cmd/server/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
