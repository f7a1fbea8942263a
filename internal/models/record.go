package models

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedLink is returned when a stored share link does not contain
// an embedded Drive file ID.
var ErrMalformedLink = errors.New("share link has no embedded file ID")

// shareLinkPattern matches the /d/<fileID>/ segment of a Drive share link.
var shareLinkPattern = regexp.MustCompile(`/d/(.*?)/`)

// DocumentColumn selects which share-link column of the Invoices sheet a
// document lookup reads.
type DocumentColumn int

const (
	ColumnInvoice DocumentColumn = 3
	ColumnPTFile  DocumentColumn = 4
	ColumnLRImage DocumentColumn = 5
)

// FileReference is a resolved, directly downloadable file locator. It is
// used exactly once per delivery and never cached.
type FileReference struct {
	FileID string `json:"file_id"`
	URL    string `json:"url"`
}

// FileReferenceFromLink extracts the file ID embedded in a shareable Drive
// link and rewrites it into a direct-download endpoint URL.
func FileReferenceFromLink(link string) (*FileReference, error) {
	m := shareLinkPattern.FindStringSubmatch(link)
	if m == nil || m[1] == "" {
		return nil, fmt.Errorf("%w: %q", ErrMalformedLink, link)
	}
	return &FileReference{
		FileID: m[1],
		URL:    fmt.Sprintf("https://www.googleapis.com/drive/v3/files/%s?alt=media", m[1]),
	}, nil
}

// DesignRecord is one row of the Designs sheet.
type DesignRecord struct {
	DesignNumber      string
	ShareLink         string
	RegisteredNumbers []string
	Color             string
}

// ParseDesignRecord maps a raw Designs!A:D row onto a DesignRecord.
// Short rows are tolerated; missing cells parse as empty.
func ParseDesignRecord(row []string) DesignRecord {
	return DesignRecord{
		DesignNumber:      cell(row, 0),
		ShareLink:         cell(row, 1),
		RegisteredNumbers: splitNumbers(cell(row, 2)),
		Color:             cell(row, 3),
	}
}

// ShipmentRecord is one row of the Invoices sheet. One row carries the
// invoice, PT and LR documents for a single shipment.
type ShipmentRecord struct {
	InvoiceNumber     string
	LRNumber          string
	InvoiceLink       string
	PTLink            string
	LRImageLink       string
	RegisteredNumbers []string
}

// ParseShipmentRecord maps a raw Invoices!A:H row onto a ShipmentRecord.
func ParseShipmentRecord(row []string) ShipmentRecord {
	return ShipmentRecord{
		InvoiceNumber:     cell(row, 0),
		LRNumber:          cell(row, 1),
		InvoiceLink:       cell(row, 3),
		PTLink:            cell(row, 4),
		LRImageLink:       cell(row, 5),
		RegisteredNumbers: splitNumbers(cell(row, 7)),
	}
}

// Link returns the share link for the given document column.
func (r ShipmentRecord) Link(col DocumentColumn) string {
	switch col {
	case ColumnInvoice:
		return r.InvoiceLink
	case ColumnPTFile:
		return r.PTLink
	case ColumnLRImage:
		return r.LRImageLink
	}
	return ""
}

// Registered reports whether phone appears in the row's registered list.
func (r DesignRecord) Registered(phone string) bool {
	return contains(r.RegisteredNumbers, phone)
}

// Registered reports whether phone appears in the row's registered list.
func (r ShipmentRecord) Registered(phone string) bool {
	return contains(r.RegisteredNumbers, phone)
}

// KeysEqual compares a user-supplied key against a sheet cell. Cells often
// hold numbers typed as text, so two keys are equal when they match as
// trimmed strings or when both parse as the same number.
func KeysEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return a != ""
	}
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	return errA == nil && errB == nil && fa == fb
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func splitNumbers(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	numbers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			numbers = append(numbers, p)
		}
	}
	return numbers
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
