package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML overlay loaded from CONFIG_FILE.
type FileConfig struct {
	Column ColumnFileConfig `yaml:"column"`
	Report ReportFileConfig `yaml:"report"`
}

type ColumnFileConfig struct {
	Keywords []string `yaml:"keywords"`
}

type ReportFileConfig struct {
	Columns ReportColumns `yaml:"columns"`
	Labels  ReportLabels  `yaml:"labels"`
}

// ReportColumns names the input CSV headers the summarizer projects.
type ReportColumns struct {
	Project string `yaml:"project"`
	Summary string `yaml:"summary"`
	Due     string `yaml:"due"`
	Created string `yaml:"created"`
}

// ReportLabels names the headers and sheets of the generated workbook.
type ReportLabels struct {
	WordCount      string `yaml:"word_count"`
	Language       string `yaml:"language"`
	RequestCount   string `yaml:"request_count"`
	WordCountTotal string `yaml:"word_count_total"`
	Total          string `yaml:"total"`
	RawSheet       string `yaml:"raw_sheet"`
	SummarySheet   string `yaml:"summary_sheet"`
}

func DefaultFileConfig() FileConfig {
	return FileConfig{
		Column: ColumnFileConfig{
			Keywords: []string{"중간_CNS", "zh-hans", "CNS", "zh_CN", "Simplified Chinese", "CNS (중국어 간체)"},
		},
		Report: ReportFileConfig{
			Columns: ReportColumns{
				Project: "Project Name",
				Summary: "Summary",
				Due:     "Due",
				Created: "Created",
			},
			Labels: ReportLabels{
				WordCount:      "Word Count",
				Language:       "Source Language",
				RequestCount:   "Request Count",
				WordCountTotal: "Word Count Total",
				Total:          "Total",
				RawSheet:       "Raw Data",
				SummarySheet:   "Project Summary",
			},
		},
	}
}

// LoadFile reads a YAML overlay. Keys missing from the file keep their defaults.
func LoadFile(path string) (FileConfig, error) {
	fc := DefaultFileConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("config file %s: %w", path, err)
	}
	return fc, nil
}

func (fc FileConfig) Validate() error {
	cols := fc.Report.Columns
	for name, v := range map[string]string{
		"project": cols.Project,
		"summary": cols.Summary,
		"due":     cols.Due,
		"created": cols.Created,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("report.columns.%s must not be empty", name)
		}
	}

	l := fc.Report.Labels
	if strings.TrimSpace(l.RawSheet) == "" || strings.TrimSpace(l.SummarySheet) == "" {
		return fmt.Errorf("report.labels sheet names must not be empty")
	}
	if l.RawSheet == l.SummarySheet {
		return fmt.Errorf("report.labels.raw_sheet and summary_sheet must differ")
	}
	return nil
}
