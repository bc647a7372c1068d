package models

import (
	"log"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&InvoiceDocument{},
		&InvoiceLineItem{},
		&LineItemCase{},
		&FifoQueueEntry{},
		&ReconciliationReport{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
