// texpad is the local UI host for a LaTeX resume editor: it serves the
// editor front-end to the app's webview and delegates file access and
// compilation to the native host process.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
