package main

import (
	"encoding/base64"
	"fmt"

	"github.com/gorilla/securecookie"
	"github.com/urfave/cli/v2"
)

var keygenCommand = &cli.Command{
	Name:  "keygen",
	Usage: "Generate cookie encryption keys for the session manager",
	Action: func(c *cli.Context) error {
		hashKey := securecookie.GenerateRandomKey(32)
		blockKey := securecookie.GenerateRandomKey(32)
		if hashKey == nil || blockKey == nil {
			return fmt.Errorf("failed to generate random keys")
		}

		fmt.Printf("COOKIE_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hashKey))
		fmt.Printf("COOKIE_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(blockKey))
		return nil
	},
}
