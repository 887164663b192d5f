package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

// keygenCmd genera un secreto de 32 bytes apto para AUTH_SESSION_SECRET o
// AUTH_STATE_SECRET.
func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Genera un secreto aleatorio de 32 bytes (base64)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			buf := make([]byte, 32)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(buf))
			return nil
		},
	}
}
