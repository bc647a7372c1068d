package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/models"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/workflow"
)

func main() {
	filePath := flag.String("file", "", "Optional: path to one raw invoice text file to store and ingest")
	documentID := flag.String("document-id", "", "Optional: document id for --file (defaults to the file name without extension)")
	dir := flag.String("dir", "", "Optional: directory of .txt invoice files to store and ingest")
	all := flag.Bool("all", false, "Reprocess every stored invoice document")
	flag.Parse()

	if *filePath == "" && *dir == "" && !*all {
		fmt.Fprintln(os.Stderr, "one of --file, --dir or --all is required")
		os.Exit(1)
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
	ctx := context.Background()

	if *all {
		summary, err := workflow.IngestAllDocuments(ctx, db, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "batch ingest failed: %v\n", err)
			os.Exit(1)
		}
		printJSON(summary)
		return
	}

	var paths []string
	if *filePath != "" {
		paths = append(paths, *filePath)
	}
	if *dir != "" {
		matches, err := filepath.Glob(filepath.Join(*dir, "*.txt"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "scan directory: %v\n", err)
			os.Exit(1)
		}
		paths = append(paths, matches...)
	}

	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", p, err)
			os.Exit(1)
		}

		docID := *documentID
		if docID == "" || *dir != "" {
			docID = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}

		doc, err := models.GetInvoiceDocumentByDocumentId(db, docID)
		if err != nil {
			doc, err = models.CreateInvoiceDocument(ctx, &models.NewInvoiceDocument{
				DocumentId: docID,
				RawText:    string(raw),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "store %s: %v\n", docID, err)
				os.Exit(1)
			}
		}

		result, err := workflow.IngestInvoiceDocument(ctx, db, logger, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ingest %s: %v\n", docID, err)
			os.Exit(1)
		}
		printJSON(result)
	}
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
