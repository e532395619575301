package config

import "os"

const (
	sheetsSpreadsheetIDEnv   = "SHEETS_SPREADSHEET_ID"
	sheetsTaskRangeEnv       = "SHEETS_TASK_RANGE"
	sheetsCredentialsFileEnv = "SHEETS_CREDENTIALS_FILE"
	sheetsEndpointEnv        = "SHEETS_ENDPOINT"

	defaultSheetsTaskRange = "Tasks!A1:H"
)

type SheetsConfig struct {
	SpreadsheetID string
	// TaskRange is an A1 range whose first row is the header row.
	TaskRange       string
	CredentialsFile string
	// Endpoint overrides the API endpoint, for emulators and tests.
	Endpoint string
}

func LoadSheetsConfig() *SheetsConfig {
	taskRange := os.Getenv(sheetsTaskRangeEnv)
	if taskRange == "" {
		taskRange = defaultSheetsTaskRange
	}

	return &SheetsConfig{
		SpreadsheetID:   os.Getenv(sheetsSpreadsheetIDEnv),
		TaskRange:       taskRange,
		CredentialsFile: os.Getenv(sheetsCredentialsFileEnv),
		Endpoint:        os.Getenv(sheetsEndpointEnv),
	}
}

func (c *SheetsConfig) Validate() error {
	if c == nil || c.SpreadsheetID == "" {
		return ErrSpreadsheetIDMissing
	}
	return nil
}
