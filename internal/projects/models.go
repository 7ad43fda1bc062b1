package projects

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Project status workflow values.
const (
	StatusDraft       = "DRAFT"
	StatusSubmitted   = "SUBMITTED"
	StatusUnderReview = "UNDER_REVIEW"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
	StatusMinted      = "MINTED"
)

// Ecosystem types accepted for restoration submissions.
const (
	EcosystemMangrove       = "mangrove"
	EcosystemSeagrass       = "seagrass"
	EcosystemSaltMarsh      = "salt_marsh"
	EcosystemCoastalWetland = "coastal_wetland"
	EcosystemOther          = "other"
)

// DefaultMethodology is recorded on every carbon estimate.
const DefaultMethodology = "IPCC Tier 1 - Default Factor"

// sequestrationRates holds the default CO2e sequestration rate per ecosystem
// type, in tons per hectare per year.
var sequestrationRates = map[string]float64{
	EcosystemMangrove:       15,
	EcosystemSeagrass:       8,
	EcosystemSaltMarsh:      6,
	EcosystemCoastalWetland: 10,
	EcosystemOther:          5,
}

// DefaultSequestrationRate returns the default rate for an ecosystem type.
// Unknown types fall back to the mangrove rate, matching the schema default.
func DefaultSequestrationRate(ecosystemType string) float64 {
	if rate, ok := sequestrationRates[ecosystemType]; ok {
		return rate
	}
	return sequestrationRates[EcosystemMangrove]
}

// ValidEcosystemType reports whether t is an accepted ecosystem type.
func ValidEcosystemType(t string) bool {
	_, ok := sequestrationRates[t]
	return ok
}

// ErrNotFound is returned when a project does not exist or is not visible to
// the requesting user.
var ErrNotFound = errors.New("project not found")

// Location is the GPS fix plus administrative region of a restoration site.
// SiteBoundary optionally holds the site perimeter as GeoJSON.
type Location struct {
	Latitude     float64  `bson:"latitude" json:"latitude"`
	Longitude    float64  `bson:"longitude" json:"longitude"`
	Accuracy     *float64 `bson:"accuracy,omitempty" json:"accuracy,omitempty"`
	State        string   `bson:"state,omitempty" json:"state,omitempty"`
	District     string   `bson:"district,omitempty" json:"district,omitempty"`
	Village      string   `bson:"village,omitempty" json:"village,omitempty"`
	CoastalZone  string   `bson:"coastalZone,omitempty" json:"coastalZone,omitempty"`
	SiteBoundary string   `bson:"siteBoundary,omitempty" json:"siteBoundary,omitempty"`
}

// Species is a planted species with its count.
type Species struct {
	Name  string `bson:"name" json:"name"`
	Count int    `bson:"count" json:"count"`
}

// Restoration describes the restored area.
type Restoration struct {
	AreaHectares  float64    `bson:"areaHectares" json:"areaHectares"`
	Species       []Species  `bson:"species,omitempty" json:"species,omitempty"`
	EcosystemType string     `bson:"ecosystemType" json:"ecosystemType"`
	PlantingDate  *time.Time `bson:"plantingDate,omitempty" json:"plantingDate,omitempty"`
	SurvivalRate  *float64   `bson:"survivalRate,omitempty" json:"survivalRate,omitempty"`
}

// Carbon holds the derived CO2e estimate. EstimatedCO2e is always
// round(AreaHectares * SequestrationRate, 2); ApplyCarbonEstimate is the only
// place that sets it.
type Carbon struct {
	EstimatedCO2e     float64 `bson:"estimatedCO2e" json:"estimatedCO2e"`
	SequestrationRate float64 `bson:"sequestrationRate" json:"sequestrationRate"`
	Methodology       string  `bson:"methodology" json:"methodology"`
}

// Photo is an uploaded evidence photo. IPFSHash is "pending" when the pin
// failed and the file is only available from local storage.
type Photo struct {
	Filename     string    `bson:"filename" json:"filename"`
	OriginalName string    `bson:"originalName" json:"originalName"`
	IPFSHash     string    `bson:"ipfsHash" json:"ipfsHash"`
	IPFSURL      string    `bson:"ipfsUrl" json:"ipfsUrl"`
	UploadedAt   time.Time `bson:"uploadedAt" json:"uploadedAt"`
	PhotoType    string    `bson:"photoType" json:"photoType"`
}

// StatusChange is one append-only entry of the status history log.
type StatusChange struct {
	Status    string             `bson:"status" json:"status"`
	ChangedBy primitive.ObjectID `bson:"changedBy,omitempty" json:"changedBy,omitempty"`
	ChangedAt time.Time          `bson:"changedAt" json:"changedAt"`
	Remarks   string             `bson:"remarks,omitempty" json:"remarks,omitempty"`
}

// SubmitterOrganization mirrors the organization block on the user record.
type SubmitterOrganization struct {
	Name string `bson:"name,omitempty" json:"name,omitempty"`
	Type string `bson:"type,omitempty" json:"type,omitempty"`
}

// Submitter is the populated identity of the submitting user.
type Submitter struct {
	ID           primitive.ObjectID     `bson:"_id" json:"_id"`
	Name         string                 `bson:"name" json:"name"`
	Email        string                 `bson:"email" json:"email"`
	Role         string                 `bson:"role" json:"role"`
	Organization *SubmitterOrganization `bson:"organization,omitempty" json:"organization,omitempty"`
}

// Project is a coastal restoration submission.
type Project struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ProjectID     string             `bson:"projectId" json:"projectId"`
	ProjectName   string             `bson:"projectName" json:"projectName"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	SubmittedByID primitive.ObjectID `bson:"submittedBy" json:"-"`
	Submitter     *Submitter         `bson:"-" json:"submittedBy,omitempty"`

	Location    Location    `bson:"location" json:"location"`
	Restoration Restoration `bson:"restoration" json:"restoration"`
	Carbon      Carbon      `bson:"carbon" json:"carbon"`
	Photos      []Photo     `bson:"photos,omitempty" json:"photos,omitempty"`

	Status        string         `bson:"status" json:"status"`
	StatusHistory []StatusChange `bson:"statusHistory,omitempty" json:"statusHistory,omitempty"`

	IsOfflineSubmission bool       `bson:"isOfflineSubmission" json:"isOfflineSubmission"`
	SyncedAt            *time.Time `bson:"syncedAt,omitempty" json:"syncedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ApplyCarbonEstimate fills rate/methodology defaults and recomputes the CO2e
// estimate from area and rate. Called on every save path.
func (p *Project) ApplyCarbonEstimate() {
	if p.Carbon.SequestrationRate <= 0 {
		p.Carbon.SequestrationRate = DefaultSequestrationRate(p.Restoration.EcosystemType)
	}
	if p.Carbon.Methodology == "" {
		p.Carbon.Methodology = DefaultMethodology
	}
	p.Carbon.EstimatedCO2e = round2(p.Restoration.AreaHectares * p.Carbon.SequestrationRate)
}

// AppendStatus sets the status and records the change in the history log.
func (p *Project) AppendStatus(status string, changedBy primitive.ObjectID, remarks string) {
	p.Status = status
	p.StatusHistory = append(p.StatusHistory, StatusChange{
		Status:    status,
		ChangedBy: changedBy,
		ChangedAt: time.Now(),
		Remarks:   remarks,
	})
}

// NewProjectID builds the human-readable registry id: a zero-padded sequence
// number plus an uppercased base36 millisecond timestamp.
func NewProjectID(seq int64, now time.Time) string {
	suffix := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("BCR-%05d-%s", seq, suffix)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
