// Command ingesttest runs pipeline test suites locally or through Temporal.
//
// Usage:
//
//	ingesttest run    suite.json
//	ingesttest diff   actual.json expected.json
//	ingesttest submit suite.json --wait
//	ingesttest status WORKFLOW_ID
//	ingesttest list   --status Running
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ingest-test/ingesttest-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
