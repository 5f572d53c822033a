package model

import "time"

// Product represents an orderable item in the clinic catalogue.
// Products are keyed by the supplier item number.
type Product struct {
	ItemNumber string    `json:"itemNumber" db:"item_number"`
	Name       string    `json:"name" db:"name"`
	Size       string    `json:"size" db:"size"`
	Category   string    `json:"category" db:"category"`
	Supplier   string    `json:"supplier" db:"supplier"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// ProductFilter narrows a catalogue search.
type ProductFilter struct {
	Query    string `json:"query,omitempty"`
	Category string `json:"category,omitempty"`
	Supplier string `json:"supplier,omitempty"`
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
}

// CatalogFacets lists the distinct filter values present in the catalogue.
type CatalogFacets struct {
	Categories []string `json:"categories"`
	Suppliers  []string `json:"suppliers"`
}

// SkippedLine is a catalogue source line the parser could not turn into a product.
type SkippedLine struct {
	LineNumber int    `json:"lineNumber"`
	Line       string `json:"line"`
	Reason     string `json:"reason"`
}

// ImportResult summarises a catalogue import run.
type ImportResult struct {
	Imported      int           `json:"imported"`
	Skipped       int           `json:"skipped"`
	FailedBatches int           `json:"failedBatches"`
	FailedRecords int           `json:"failedRecords"`
	SkippedLines  []SkippedLine `json:"skippedLines"`
}
