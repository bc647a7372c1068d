package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models/reports"
)

func main() {
	out := flag.String("out", "fifo_ledger.xlsx", "Output workbook path")
	productCode := flag.String("product", "", "Optional: limit the ledger to one product code")
	reconciliation := flag.Bool("reconciliation", false, "Export recorded reconciliation discrepancies instead of the ledger")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	ctx := context.Background()

	var filter *string
	if *productCode != "" {
		filter = productCode
	}

	if *reconciliation {
		rows, err := reports.GetReconciliationReport(ctx, filter)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load reconciliation report: %v\n", err)
			os.Exit(1)
		}
		if err := reports.ExportReconciliationExcel(rows, *out); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d discrepancy row(s) to %s\n", len(rows), *out)
		return
	}

	ledger, err := reports.GetFifoLedgerReport(ctx, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load ledger: %v\n", err)
		os.Exit(1)
	}
	summary, err := reports.GetStockSummaryReport(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load stock summary: %v\n", err)
		os.Exit(1)
	}
	if err := reports.ExportFifoLedgerExcel(ledger, summary, *out); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d ledger row(s), %d product summary row(s) to %s\n", len(ledger), len(summary), *out)
}
