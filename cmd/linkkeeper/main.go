// Command linkkeeper is a client of the remote links API. It runs either the
// local web front end ("serve") or one command per invocation.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/patric-chuzhbe/linkkeeper/internal/app"
	"github.com/patric-chuzhbe/linkkeeper/internal/config"
)

// run returns the process exit code once every deferred cleanup has run.
func run() int {
	theApp, err := app.New(os.Stdout, os.Stderr)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer theApp.Close()

	if err := theApp.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	return 0
}

func exit(code int) {
	os.Exit(code)
}

func main() {
	exit(run())
}
