package reports

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"blue-carbon-registry/registry-backend/internal/projects"
)

// WritePDF renders the report as a landscape A4 table with a summary footer.
func WritePDF(w io.Writer, report *Report) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Blue Carbon Registry Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Blue Carbon Registry - Project Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s | %d projects",
		report.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"), len(report.Projects)))
	pdf.Ln(10)

	headers := []string{"Project ID", "Name", "Submitted By", "Status", "Ecosystem", "Area (ha)", "CO2e (t)", "State", "Submitted"}
	widths := []float64{38, 48, 38, 28, 28, 22, 22, 30, 24}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(27, 122, 90)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(0, 0, 0)
	fill := false
	pdf.SetFillColor(240, 247, 244)
	for _, p := range report.Projects {
		row := pdfRow(p)
		for i, value := range row {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Total area: %.2f ha    Total CO2e: %.2f tonnes    Approved: %d    Pending: %d",
		report.Stats.TotalArea, report.Stats.TotalCarbon,
		report.Stats.ApprovedProjects, report.Stats.PendingProjects))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func pdfRow(p *projects.Project) []string {
	submitter := "N/A"
	if p.Submitter != nil && p.Submitter.Name != "" {
		submitter = p.Submitter.Name
	}
	return []string{
		p.ProjectID,
		truncate(p.ProjectName, 32),
		truncate(submitter, 24),
		p.Status,
		p.Restoration.EcosystemType,
		fmt.Sprintf("%.2f", p.Restoration.AreaHectares),
		fmt.Sprintf("%.2f", p.Carbon.EstimatedCO2e),
		orNA(p.Location.State),
		formatDate(p.CreatedAt),
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
