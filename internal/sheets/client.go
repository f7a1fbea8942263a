package sheets

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// DriveReadonlyScope grants read access to the file store the sheet links
// into. Declared here so credential building in main stays in one place.
const DriveReadonlyScope = "https://www.googleapis.com/auth/drive.readonly"

// Scopes returns the authorization scopes the backend needs: read access
// to the spreadsheet and to the linked Drive files.
func Scopes() []string {
	return []string{sheetsapi.SpreadsheetsReadonlyScope, DriveReadonlyScope}
}

// Client fetches rows of tabular data from one Google spreadsheet.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
}

// NewClient builds a sheets client bound to spreadsheetID, authenticated
// with the given token source.
func NewClient(ctx context.Context, spreadsheetID string, ts oauth2.TokenSource) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("missing spreadsheet ID")
	}
	svc, err := sheetsapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// FetchRows returns the values of sheetName!rangeSpec with every cell
// coerced to a string. A fetch failure is logged and yields an empty
// result; lookups then report "no file found" instead of surfacing the
// transport error. No retries.
func (c *Client) FetchRows(ctx context.Context, sheetName, rangeSpec string) [][]string {
	resp, err := c.svc.Spreadsheets.Values.
		Get(c.spreadsheetID, fmt.Sprintf("%s!%s", sheetName, rangeSpec)).
		Context(ctx).
		Do()
	if err != nil {
		log.Printf("❌ Failed to fetch %s!%s from Google Sheets: %v", sheetName, rangeSpec, err)
		return nil
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, v := range raw {
			row[i] = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows
}
