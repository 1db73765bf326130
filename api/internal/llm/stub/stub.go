package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"cardiac-xai/api/internal/apperr"
	"cardiac-xai/api/internal/imaging"
	"cardiac-xai/api/internal/llm"
	"cardiac-xai/api/internal/report"
)

// Engine is a deterministic, no-network provider for local runs and CI. Its
// output depends only on the image bytes and is wrapped in a code fence the
// way chat models often answer.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (e *Engine) Name() string     { return "stub" }
func (e *Engine) GetModel() string { return "stub-v1" }

var verdicts = []struct {
	class    report.Classification
	risk     report.RiskLevel
	regions  []report.AffectedRegion
	findings []string
}{
	{
		class:    report.ClassNormal,
		risk:     report.RiskLow,
		regions:  []report.AffectedRegion{},
		findings: []string{"No abnormalities detected"},
	},
	{
		class: report.ClassMyocardialInfarction,
		risk:  report.RiskHigh,
		regions: []report.AffectedRegion{
			{Region: "anterior wall of left ventricle", Severity: report.SeverityModerate},
		},
		findings: []string{"Regional wall thinning", "Subendocardial hyperenhancement"},
	},
	{
		class: report.ClassStructuralDeformity,
		risk:  report.RiskModerate,
		regions: []report.AffectedRegion{
			{Region: "interventricular septum", Severity: report.SeverityMild},
		},
		findings: []string{"Asymmetric septal thickening"},
	},
}

func (e *Engine) Infer(ctx context.Context, _ string, img imaging.Image) (string, error) {
	const op = "stub.Infer"
	if err := ctx.Err(); err != nil {
		return "", llm.FromContext(ctx, op, err)
	}

	sum := sha256.Sum256(img.Data)
	short := hex.EncodeToString(sum[:4])
	v := verdicts[int(sum[0])%len(verdicts)]

	out := report.DiagnosticReport{
		PrimaryDiagnosis: report.PrimaryDiagnosis{
			Classification: v.class,
			Confidence:     60 + int(sum[1])%36,
		},
		AffectedRegions:  v.regions,
		ClinicalFindings: v.findings,
		Explanation:      fmt.Sprintf("Stubbed analysis of image %s; not a clinical opinion.", short),
		RiskAssessment: report.RiskAssessment{
			RiskLevel: v.risk,
			Rationale: "Deterministic stub output.",
		},
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, op, "stub encode failed", err)
	}
	return "```json\n" + string(b) + "\n```", nil
}
