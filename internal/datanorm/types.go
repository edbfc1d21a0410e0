package datanorm

import (
	"time"

	"github.com/ignite/address-eligibility/internal/domain"
)

// ImportResult tracks the outcome of one list import.
type ImportResult struct {
	SourceFile    string          `json:"source_file,omitempty"`
	Kind          domain.ListKind `json:"kind"`
	TotalRows     int             `json:"total_rows"`
	ImportedRows  int             `json:"imported_rows"`
	DuplicateRows int             `json:"duplicate_rows"`
	ErrorRows     int             `json:"error_rows"`
	Errors        []RowError      `json:"errors,omitempty"`
	Duration      time.Duration   `json:"duration_ns"`
}

// RowError describes a rejected row. Row is 1-based and counts the header.
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// maxRowErrors bounds ImportResult.Errors.
const maxRowErrors = 20

// Config holds S3 import configuration loaded from config.yaml.
type Config struct {
	Bucket     string
	Region     string
	AWSProfile string
	AccessKey  string
	SecretKey  string
	Prefix     string
}
