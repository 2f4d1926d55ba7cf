// Command crawlershard runs one shard of the sharded web crawler pipeline
// (spec §2): a seeder plus four independently-runnable pool-of-workers
// stages — fetcher, analyzer, filter, logger — wired together over local
// Unix-socket channels the way original_source/illume/crawler/basic.py's
// BasicCrawler wires process-pool actors.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
