// Command keygen prints a new write API key and the bcrypt hash to set as
// API_KEY_HASH. The raw key is shown once and never stored.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/daap14/blueprints/internal/auth"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	rawKey, hash, err := auth.GenerateKey(*cost)
	if err != nil {
		slog.Error("failed to generate API key", "error", err)
		os.Exit(1)
	}

	fmt.Printf("API key:      %s\n", rawKey)
	fmt.Printf("API_KEY_HASH: %s\n", hash)
}
