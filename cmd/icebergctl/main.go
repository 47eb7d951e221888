// Command icebergctl manually exercises the catalog layer against a
// filesystem-backed warehouse rooted on local disk. It is not part of the
// core library's public API surface; it exists purely as a thin cobra front
// end over the library for interactive poking, the same role cmd/icebox
// plays for the original query engine.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/dot-do/iceberg-sub003/cmd/icebergctl/cli"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().
		Timestamp().Str("app", "icebergctl").Logger()

	if err := cli.ExecuteWithLogger(logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
