package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rshade/batchkit/internal/cli"
	"github.com/rshade/batchkit/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.ExecuteContext(context.Background())
	if err != nil && cli.ExitCode(err) != cli.ExitItemFailures {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return cli.ExitCode(err)
}
