// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionBackend identifies the PDF-to-text tool.
type ConversionBackend string

const (
	// BackendNative extracts text in-process.
	BackendNative ConversionBackend = "native"

	// BackendPdftotext pipes the PDF through a pdftotext container image.
	BackendPdftotext ConversionBackend = "pdftotext"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion tool: native or pdftotext.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"required,oneof=native pdftotext"`

	// DocumentsDir is the base directory for documents (contains raw/, text/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir" mapstructure:"documents_dir" validate:"required"`
}

// ScanConfig holds settings for the scan stage.
type ScanConfig struct {
	// DocumentsDir is the base directory for documents (contains text/).
	DocumentsDir string `json:"documents_dir" yaml:"documents_dir" mapstructure:"documents_dir" validate:"required"`

	// TakeoffDir is the base directory for scan output (contains records/).
	TakeoffDir string `json:"takeoff_dir" yaml:"takeoff_dir" mapstructure:"takeoff_dir" validate:"required"`

	// Workers bounds how many documents are scanned at once (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers" validate:"gte=0,lte=64"`
}

// ScheduleConfig holds settings for the schedule store.
type ScheduleConfig struct {
	// TakeoffDir is the base directory for scan output (contains records/, index/).
	TakeoffDir string `json:"takeoff_dir" yaml:"takeoff_dir" mapstructure:"takeoff_dir" validate:"required"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results" validate:"gte=0"`
}

// LogConfig holds settings for diagnostic logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=text json"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Scan       ScanConfig       `json:"scan" yaml:"scan" mapstructure:"scan"`
	Schedule   ScheduleConfig   `json:"schedule" yaml:"schedule" mapstructure:"schedule"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}
