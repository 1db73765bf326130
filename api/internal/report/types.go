package report

type Classification string

const (
	ClassNormal               Classification = "Normal"
	ClassMyocardialInfarction Classification = "MyocardialInfarction"
	ClassStructuralDeformity  Classification = "StructuralDeformity"
	ClassOther                Classification = "Other"
)

type Severity string

const (
	SeverityMild     Severity = "Mild"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Label is the human-readable form of a classification.
func (c Classification) Label() string {
	switch c {
	case ClassMyocardialInfarction:
		return "Myocardial Infarction"
	case ClassStructuralDeformity:
		return "Structural Deformity"
	default:
		return string(c)
	}
}

type PrimaryDiagnosis struct {
	Classification Classification `json:"classification"`
	Confidence     int            `json:"confidence"` // 0..100
}

type AffectedRegion struct {
	Region   string   `json:"region"`
	Severity Severity `json:"severity"`
}

type RiskAssessment struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Rationale string    `json:"rationale"`
}

// DiagnosticReport is the validated result of one analysis. Slices are never nil.
type DiagnosticReport struct {
	PrimaryDiagnosis PrimaryDiagnosis `json:"primary_diagnosis"`
	AffectedRegions  []AffectedRegion `json:"affected_regions"`
	ClinicalFindings []string         `json:"clinical_findings"`
	Explanation      string           `json:"explanation"`
	RiskAssessment   RiskAssessment   `json:"risk_assessment"`
}
