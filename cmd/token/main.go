// Command token signs and verifies shopfront access tokens with the JWT_SECRET of the current environment.
//
// Usage:
//
//	token sign --uid 42 --email ada@example.com --role admin --expires 15m
//	token verify <token>
package main

import (
	"fmt"
	"os"

	"shopfront.dev/pkg/shopfront/config"
	"shopfront.dev/pkg/shopfront/logging"
)

func main() {
	logger := logging.NewLogger(logging.ERROR)

	if err := newRootCmd(config.NewEnvFile("./configs", logger)).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
