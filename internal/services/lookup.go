package services

import (
	"context"
	"log"

	"github.com/VikramTex/filedesk-backend/internal/models"
)

// Sheet names and ranges in the production spreadsheet.
const (
	designSheet  = "Designs"
	designRange  = "A:D"
	invoiceSheet = "Invoices"
	invoiceRange = "A:H"
)

// RowFetcher fetches raw rows from the tabular data source. A transport
// failure yields an empty result, so lookups degrade to "no file found".
type RowFetcher interface {
	FetchRows(ctx context.Context, sheetName, rangeSpec string) [][]string
}

// DesignResult is the outcome of a design-number lookup.
type DesignResult struct {
	// Registered is true when the sender appears in ANY row's registered
	// list, not only rows matching the requested key. Registration is
	// global across the sheet.
	Registered bool
	Files      []*models.FileReference
	Colors     []string // parallel to Files, one color per reference
}

// DistinctColors returns the distinct color values in first-seen order.
func (r DesignResult) DistinctColors() []string {
	seen := make(map[string]bool, len(r.Colors))
	var distinct []string
	for _, color := range r.Colors {
		if !seen[color] {
			seen[color] = true
			distinct = append(distinct, color)
		}
	}
	return distinct
}

// FilterByColor returns the references whose color equals the selection.
func (r DesignResult) FilterByColor(color string) []*models.FileReference {
	var refs []*models.FileReference
	for i, ref := range r.Files {
		if r.Colors[i] == color {
			refs = append(refs, ref)
		}
	}
	return refs
}

// DocumentResult is the outcome of an invoice, PT or LR lookup.
type DocumentResult struct {
	Registered bool
	File       *models.FileReference // nil when no row matched
}

// LookupService resolves request keys against the spreadsheet and checks
// sender registration. Authorization is re-evaluated on every request;
// nothing is cached.
type LookupService struct {
	rows RowFetcher
}

// NewLookupService creates a lookup service backed by the given row source.
func NewLookupService(rows RowFetcher) *LookupService {
	return &LookupService{rows: rows}
}

// ResolveDesign scans the Designs sheet. Every row whose design number
// matches the key (loose comparison, cells may hold numbers typed as text)
// contributes one file reference and its color, in row order. Rows with a
// malformed share link are skipped and count as not found.
func (s *LookupService) ResolveDesign(ctx context.Context, designNumber, sender string) DesignResult {
	var res DesignResult
	for _, row := range s.rows.FetchRows(ctx, designSheet, designRange) {
		rec := models.ParseDesignRecord(row)
		if !rec.Registered(sender) {
			continue
		}
		res.Registered = true
		if !models.KeysEqual(rec.DesignNumber, designNumber) {
			continue
		}
		ref, err := models.FileReferenceFromLink(rec.ShareLink)
		if err != nil {
			log.Printf("⚠️  Skipping row for design %s: %v", designNumber, err)
			continue
		}
		res.Files = append(res.Files, ref)
		res.Colors = append(res.Colors, rec.Color)
	}
	return res
}

// ResolveDocument scans the Invoices sheet keyed on the invoice number and
// returns the share link from the selected document column. When several
// rows share a key the last one wins: later rows are corrections.
func (s *LookupService) ResolveDocument(ctx context.Context, invoiceNumber, sender string, col models.DocumentColumn) DocumentResult {
	var res DocumentResult
	for _, row := range s.rows.FetchRows(ctx, invoiceSheet, invoiceRange) {
		rec := models.ParseShipmentRecord(row)
		if !rec.Registered(sender) {
			continue
		}
		res.Registered = true
		if !models.KeysEqual(rec.InvoiceNumber, invoiceNumber) {
			continue
		}
		ref, err := models.FileReferenceFromLink(rec.Link(col))
		if err != nil {
			log.Printf("⚠️  Skipping row for invoice %s: %v", invoiceNumber, err)
			continue
		}
		res.File = ref
	}
	return res
}

// ResolveLR scans the Invoices sheet keyed on the LR number column.
// LR numbers are compared exactly, case-sensitive. Last match wins, as in
// ResolveDocument.
func (s *LookupService) ResolveLR(ctx context.Context, lrNumber, sender string) DocumentResult {
	var res DocumentResult
	for _, row := range s.rows.FetchRows(ctx, invoiceSheet, invoiceRange) {
		rec := models.ParseShipmentRecord(row)
		if !rec.Registered(sender) {
			continue
		}
		res.Registered = true
		if rec.LRNumber != lrNumber {
			continue
		}
		ref, err := models.FileReferenceFromLink(rec.LRImageLink)
		if err != nil {
			log.Printf("⚠️  Skipping row for LR %s: %v", lrNumber, err)
			continue
		}
		res.File = ref
	}
	return res
}
