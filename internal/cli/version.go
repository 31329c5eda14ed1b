package cli

import (
	"fmt"

	"taskloom/internal/buildinfo"
)

// RunVersion prints the binary's version and returns success.
func RunVersion() int {
	fmt.Println("taskloom " + buildinfo.Version)
	return ExitSuccess
}
