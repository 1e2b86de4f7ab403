// Command pmtracker is the project tracker server and its terminal client.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sakif/pm-tracker/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
