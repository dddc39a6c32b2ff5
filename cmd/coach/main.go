// Command coach runs and inspects the interview coach service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "coach",
	Short: "Interview coach service",
	Long: `Real-time coding interview coach.

  coach serve              Start the HTTP and websocket server
  coach session <id>       Print the mirrored state of a session`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
