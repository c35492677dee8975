package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"directory-scraper/models"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Writer exports records to a Google spreadsheet
type Writer struct {
	service       *sheets.Service
	spreadsheetID string
	log           logrus.FieldLogger
}

// NewWriter creates a Sheets writer. Service account credentials come from
// credentialsPath or, when empty, the GOOGLE_SHEETS_CREDENTIALS variable.
func NewWriter(ctx context.Context, spreadsheetURL, credentialsPath string, log logrus.FieldLogger) (*Writer, error) {
	spreadsheetID := ExtractSpreadsheetID(spreadsheetURL)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("could not extract spreadsheet ID from URL: %s", spreadsheetURL)
	}

	credsJSON, err := readCredentials(credentialsPath)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Writer{
		service:       service,
		spreadsheetID: spreadsheetID,
		log:           log,
	}, nil
}

func readCredentials(path string) ([]byte, error) {
	var credsJSON []byte
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		credsJSON = data
	} else {
		credsEnv := strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_CREDENTIALS"))
		if credsEnv == "" {
			return nil, fmt.Errorf("credentials not found: no credentials file and GOOGLE_SHEETS_CREDENTIALS is empty")
		}
		credsJSON = []byte(credsEnv)
	}

	var creds struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(credsJSON, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials JSON: %w", err)
	}
	if creds.Type != "service_account" {
		return nil, fmt.Errorf("credentials must be a service account JSON file, got type %q", creds.Type)
	}
	return credsJSON, nil
}

// CreateSheetAndWriteRecords adds a sheet at the front of the spreadsheet
// and writes the records into it. It returns the sanitized sheet name.
func (w *Writer) CreateSheetAndWriteRecords(ctx context.Context, sheetName, sourceURL string, records []models.Record) (string, error) {
	sheetName = sanitizeSheetName(sheetName)

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName, Index: 0},
			},
		}},
	}
	if _, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}

	valueRange := &sheets.ValueRange{Values: buildValues(sourceURL, records)}
	_, err := w.service.Spreadsheets.Values.Update(w.spreadsheetID, sheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to write to sheet: %w", err)
	}

	w.log.Infof("Wrote %d records to sheet '%s'", len(records), sheetName)
	return sheetName, nil
}

// buildValues lays out an optional source row, the CSV header and the records
func buildValues(sourceURL string, records []models.Record) [][]interface{} {
	var values [][]interface{}
	if sourceURL != "" {
		values = append(values, []interface{}{"URL", sourceURL})
	}

	header := make([]interface{}, len(models.CSVHeader))
	for i, col := range models.CSVHeader {
		header[i] = col
	}
	values = append(values, header)

	for _, record := range records {
		row := record.Row()
		cells := make([]interface{}, len(row))
		for i, cell := range row {
			cells[i] = cell
		}
		values = append(values, cells)
	}
	return values
}

// sanitizeSheetName strips characters Sheets rejects and caps the length
func sanitizeSheetName(name string) string {
	for _, char := range []string{"/", "\\", "?", "*", "[", "]", ":"} {
		name = strings.ReplaceAll(name, char, "_")
	}
	name = strings.TrimSpace(name)
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "Sheet1"
	}
	return name
}

// ExtractSpreadsheetID extracts the spreadsheet ID from a Google Sheets URL
// such as https://docs.google.com/spreadsheets/d/ID/edit?usp=sharing
func ExtractSpreadsheetID(url string) string {
	parts := strings.Split(url, "/d/")
	if len(parts) < 2 {
		return ""
	}

	idPart := parts[1]
	if idx := strings.IndexAny(idPart, "/?#"); idx != -1 {
		idPart = idPart[:idx]
	}
	return strings.TrimSpace(idPart)
}
