package reports

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blue-carbon-registry/registry-backend/internal/projects"
)

func csvReport() *Report {
	list := []*projects.Project{
		{
			ProjectID:   "BCR-00001-A",
			ProjectName: `Mangrove "Delta" Revival`,
			Status:      projects.StatusApproved,
			Submitter: &projects.Submitter{
				Name:         "Asha",
				Email:        "asha@example.com",
				Organization: &projects.SubmitterOrganization{Name: "Coastal Trust"},
			},
			Location:    projects.Location{State: "Kerala", District: "Alappuzha"},
			Restoration: projects.Restoration{AreaHectares: 2.5, EcosystemType: projects.EcosystemMangrove},
			Carbon:      projects.Carbon{EstimatedCO2e: 37.5, SequestrationRate: 15},
			Photos:      []projects.Photo{{Filename: "a.jpg"}, {Filename: "b.jpg"}},
			CreatedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			ProjectID: "BCR-00002-B",
			Status:    projects.StatusSubmitted,
		},
	}
	return &Report{Projects: list, GeneratedAt: time.Now()}
}

func TestWriteCSVStartsWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, csvReport()))
	assert.True(t, strings.HasPrefix(buf.String(), "\uFEFF"))
}

func TestWriteCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, csvReport()))

	// Standard CSV readers must be able to parse the output, embedded
	// quotes included.
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\uFEFF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, csvHeaders, records[0])
	require.Len(t, records[1], 14)

	assert.Equal(t, "BCR-00001-A", records[1][0])
	assert.Equal(t, `Mangrove "Delta" Revival`, records[1][1])
	assert.Equal(t, "Asha", records[1][2])
	assert.Equal(t, "Coastal Trust", records[1][3])
	assert.Equal(t, "2.50", records[1][7])
	assert.Equal(t, "37.50", records[1][8])
	assert.Equal(t, "2025-03-01", records[1][12])
	assert.Equal(t, "2", records[1][13])
}

func TestWriteCSVMissingFieldsBecomeNA(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, csvReport()))

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\uFEFF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)

	bare := records[2]
	assert.Equal(t, "N/A", bare[1])  // name
	assert.Equal(t, "N/A", bare[2])  // submitter
	assert.Equal(t, "N/A", bare[3])  // organization
	assert.Equal(t, "N/A", bare[10]) // state
	assert.Equal(t, "N/A", bare[12]) // submission date
	assert.Equal(t, "0", bare[13])   // photos
}

func TestWriteCSVQuotesEveryField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, csvReport()))

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\uFEFF")), "\n")
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, `"`), line)
		assert.True(t, strings.HasSuffix(line, `"`), line)
	}
}

func TestWriteHTMLEscapesContent(t *testing.T) {
	report := csvReport()
	report.Projects[0].ProjectName = `<script>alert(1)</script>`

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, report))
	assert.NotContains(t, buf.String(), "<script>alert")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestWriteExcelProducesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, csvReport()))
	// xlsx files are zip archives.
	assert.Equal(t, "PK", buf.String()[:2])
}

func TestWritePDFProducesDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, csvReport()))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF"))
}
