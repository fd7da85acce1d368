package config

import (
	"fmt"
	"os"
)

type DynamoConfig struct {
	AccountsTableName string
	EntriesTableName  string
	SegmentsTableName string
}

func GetDynamoConfig() (*DynamoConfig, error) {
	accountsTable := os.Getenv("ACCOUNTS_TABLE_NAME")
	if accountsTable == "" {
		return nil, fmt.Errorf("ACCOUNTS_TABLE_NAME must be set")
	}
	entriesTable := os.Getenv("LEDGER_ENTRIES_TABLE_NAME")
	if entriesTable == "" {
		return nil, fmt.Errorf("LEDGER_ENTRIES_TABLE_NAME must be set")
	}
	segmentsTable := os.Getenv("SEGMENTS_TABLE_NAME")
	if segmentsTable == "" {
		return nil, fmt.Errorf("SEGMENTS_TABLE_NAME must be set")
	}

	return &DynamoConfig{
		AccountsTableName: accountsTable,
		EntriesTableName:  entriesTable,
		SegmentsTableName: segmentsTable,
	}, nil
}
