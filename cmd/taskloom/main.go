package main

import (
	"context"
	"fmt"
	"os"

	"taskloom/internal/cli"
)

func main() {
	exitCode, err := cli.Run(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode)
}
