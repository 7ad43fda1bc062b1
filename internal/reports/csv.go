package reports

import (
	"fmt"
	"io"
	"strings"
	"time"

	"blue-carbon-registry/registry-backend/internal/projects"
)

// csvHeaders is the fixed export column order. Spreadsheet tools key on
// these names, so changing them is a breaking change for downstream users.
var csvHeaders = []string{
	"Project ID",
	"Project Name",
	"Submitted By",
	"Organization",
	"Email",
	"Status",
	"Ecosystem Type",
	"Area (Hectares)",
	"CO2e Estimate (tonnes)",
	"Sequestration Rate",
	"State",
	"District",
	"Submission Date",
	"Photos Count",
}

// WriteCSV renders the report as UTF-8 CSV with a BOM so Excel detects the
// encoding. Every field is quoted; missing values are written as "N/A".
func WriteCSV(w io.Writer, report *Report) error {
	if _, err := io.WriteString(w, "\uFEFF"); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	if err := writeCSVRow(w, csvHeaders); err != nil {
		return err
	}

	for _, p := range report.Projects {
		if err := writeCSVRow(w, csvRow(p)); err != nil {
			return err
		}
	}
	return nil
}

func csvRow(p *projects.Project) []string {
	submitter, org, email := "N/A", "N/A", "N/A"
	if p.Submitter != nil {
		submitter = orNA(p.Submitter.Name)
		email = orNA(p.Submitter.Email)
		if p.Submitter.Organization != nil {
			org = orNA(p.Submitter.Organization.Name)
		}
	}

	return []string{
		orNA(p.ProjectID),
		orNA(p.ProjectName),
		submitter,
		org,
		email,
		orNA(p.Status),
		orNA(p.Restoration.EcosystemType),
		fmt.Sprintf("%.2f", p.Restoration.AreaHectares),
		fmt.Sprintf("%.2f", p.Carbon.EstimatedCO2e),
		fmt.Sprintf("%.1f", p.Carbon.SequestrationRate),
		orNA(p.Location.State),
		orNA(p.Location.District),
		formatDate(p.CreatedAt),
		fmt.Sprintf("%d", len(p.Photos)),
	}
}

// writeCSVRow quotes every field, doubling embedded quotes.
func writeCSVRow(w io.Writer, fields []string) error {
	var sb strings.Builder
	for i, field := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(field, `"`, `""`))
		sb.WriteByte('"')
	}
	sb.WriteByte('\n')

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02")
}
