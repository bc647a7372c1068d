package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/workflow"
)

func main() {
	continueOnError := flag.Bool("continue-on-error", true, "Collect per-document failures instead of aborting")
	last := flag.Bool("last", false, "Print the cached summary of the most recent rebuild and exit")
	flag.Parse()

	if *last {
		config.ConnectRedisWithRetry()
		summary, found, err := workflow.LastRebuildSummary()
		if err != nil {
			fmt.Fprintf(os.Stderr, "read cached summary: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Fprintln(os.Stderr, "no cached rebuild summary")
			os.Exit(1)
		}
		printSummary(summary)
		return
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()

	summary, err := workflow.RebuildFifoQueue(context.Background(), db, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
		os.Exit(1)
	}

	printSummary(summary)

	if summary.DocumentsFailed > 0 && !*continueOnError {
		os.Exit(1)
	}
	fmt.Println("fifo rebuild complete")
}

func printSummary(summary *workflow.RebuildSummary) {
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
