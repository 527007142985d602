package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"yt2mediacms/internal/cli"
)

func main() {
	// .env is optional; credentials can also come from the config file
	// or the environment directly.
	_ = godotenv.Load()

	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
