// chingyd es el binario del broker de autenticación.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env es opcional; las env del sistema mandan igual.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "chingyd",
		Short:         "Broker de login/registro contra el SSO de EVE Online",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), keygenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
