// Command kindex computes the indexing cells of K configurations.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/roach88/kindex/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(cli.ExitCommandError)
		}
	}()

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "kindex: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
