package reports

import (
	"fmt"
	"html/template"
	"io"
)

// reportTemplate is a self-contained printable page; admins open it in a
// browser tab and print to PDF from there.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"na": orNA,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Blue Carbon Registry Report</title>
<style>
  body { font-family: Georgia, serif; margin: 2rem; color: #1a2e28; }
  h1 { color: #1b7a5a; border-bottom: 3px solid #1b7a5a; padding-bottom: .5rem; }
  .meta { color: #557; font-size: .9rem; margin-bottom: 1.5rem; }
  table { border-collapse: collapse; width: 100%; font-size: .85rem; }
  th { background: #1b7a5a; color: #fff; padding: .5rem; text-align: left; }
  td { border: 1px solid #cdd; padding: .4rem .5rem; }
  tr:nth-child(even) td { background: #f0f7f4; }
  .summary { margin-top: 1.5rem; padding: 1rem; background: #f0f7f4; border-left: 4px solid #1b7a5a; }
  @media print { .summary { break-inside: avoid; } }
</style>
</head>
<body>
<h1>Blue Carbon Registry &mdash; Project Report</h1>
<p class="meta">Generated {{.GeneratedAt.UTC.Format "2006-01-02 15:04 MST"}} &middot; {{len .Projects}} projects</p>
<table>
<thead>
<tr>
<th>Project ID</th><th>Name</th><th>Submitted By</th><th>Status</th>
<th>Ecosystem</th><th>Area (ha)</th><th>CO2e (t)</th><th>State</th><th>Submitted</th>
</tr>
</thead>
<tbody>
{{range .Projects}}
<tr>
<td>{{.ProjectID}}</td>
<td>{{.ProjectName}}</td>
<td>{{if .Submitter}}{{na .Submitter.Name}}{{else}}N/A{{end}}</td>
<td>{{.Status}}</td>
<td>{{na .Restoration.EcosystemType}}</td>
<td>{{f2 .Restoration.AreaHectares}}</td>
<td>{{f2 .Carbon.EstimatedCO2e}}</td>
<td>{{na .Location.State}}</td>
<td>{{.CreatedAt.UTC.Format "2006-01-02"}}</td>
</tr>
{{end}}
</tbody>
</table>
<div class="summary">
<strong>Totals:</strong>
{{.Stats.TotalProjects}} projects &middot;
{{f2 .Stats.TotalArea}} hectares restored &middot;
{{f2 .Stats.TotalCarbon}} tonnes CO2e estimated &middot;
{{.Stats.ApprovedProjects}} approved / {{.Stats.PendingProjects}} pending / {{.Stats.RejectedProjects}} rejected
</div>
</body>
</html>
`))

// WriteHTML renders the printable report page.
func WriteHTML(w io.Writer, report *Report) error {
	if err := reportTemplate.Execute(w, report); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}
