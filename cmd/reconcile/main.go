package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/workflow"
	"github.com/shopspring/decimal"
)

func main() {
	productCode := flag.String("product", "", "Product code to reconcile")
	expectedStr := flag.String("expected", "", "Externally counted on-hand quantity for --product")
	countsFile := flag.String("counts", "", "Optional: CSV file of product_code,expected_qty rows")
	conservation := flag.Bool("conservation", false, "Also run queue conservation and status checks")
	flag.Parse()

	if *productCode == "" && *countsFile == "" && !*conservation {
		fmt.Fprintln(os.Stderr, "--product with --expected, --counts, or --conservation is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()
	ctx := context.Background()

	if *productCode != "" {
		expected, err := utils.ParseDecimal(*expectedStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid expected quantity: %v\n", err)
			os.Exit(1)
		}
		result, err := workflow.ReconcileProduct(ctx, db, logger, *productCode, expected)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconcile failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(result)
	}

	if *countsFile != "" {
		counts, err := readCounts(*countsFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read counts: %v\n", err)
			os.Exit(1)
		}
		results, err := workflow.ReconcileProducts(ctx, db, logger, counts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reconcile failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(results)
	}

	if *conservation {
		mismatches, err := workflow.RunConservationChecks(ctx, db, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "conservation checks failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("conservation checks complete, %d mismatch(es) recorded\n", mismatches)
	}
}

func readCounts(path string) (map[string]decimal.Decimal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]decimal.Decimal, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: expected product_code,expected_qty", i+1)
		}
		qty, err := utils.ParseDecimal(rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		counts[strings.TrimSpace(rec[0])] = qty
	}
	return counts, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
