package telegram

import (
	"fmt"
	"strings"

	"cardiac-xai/api/internal/analysis"
	"cardiac-xai/api/internal/apperr"
)

// FormatOutcome renders an outcome as legacy Telegram Markdown.
func FormatOutcome(out analysis.Outcome) string {
	if !out.Success || out.Analysis == nil {
		return formatFailure(out)
	}
	rep := out.Analysis

	var b strings.Builder
	b.WriteString("🫀 *Cardiac MRI analysis*\n\n")
	fmt.Fprintf(&b, "*Diagnosis:* %s (%d%% confidence)\n",
		esc(rep.PrimaryDiagnosis.Classification.Label()), rep.PrimaryDiagnosis.Confidence)
	fmt.Fprintf(&b, "*Risk:* %s", esc(string(rep.RiskAssessment.RiskLevel)))
	if s := strings.TrimSpace(rep.RiskAssessment.Rationale); s != "" {
		b.WriteString(": ")
		b.WriteString(esc(s))
	}
	b.WriteString("\n")

	if len(rep.AffectedRegions) > 0 {
		b.WriteString("\n*Affected regions:*\n")
		for _, reg := range rep.AffectedRegions {
			fmt.Fprintf(&b, "• %s (%s)\n", esc(reg.Region), esc(string(reg.Severity)))
		}
	}
	var findings []string
	for _, f := range rep.ClinicalFindings {
		if f = strings.TrimSpace(f); f != "" {
			findings = append(findings, f)
		}
	}
	if len(findings) > 0 {
		b.WriteString("\n*Findings:*\n")
		for _, f := range findings {
			fmt.Fprintf(&b, "• %s\n", esc(f))
		}
	}
	b.WriteString("\n*Explanation:*\n")
	b.WriteString(esc(strings.TrimSpace(rep.Explanation)))
	b.WriteString("\n\n_Decision support only, not a medical diagnosis._")
	return b.String()
}

func formatFailure(out analysis.Outcome) string {
	if out.Error == nil {
		return "❌ Analysis failed."
	}
	var hint string
	switch out.Error.Kind {
	case apperr.KindInvalidImage:
		hint = "Check the file and send a JPEG, PNG or DICOM image."
	case apperr.KindNotConfigured:
		hint = "The service is not configured yet."
	case apperr.KindUpstreamTimeout, apperr.KindUpstreamUnavailable:
		hint = "The analysis service is busy, please try again later."
	case apperr.KindUpstreamRejected:
		hint = "The analysis provider refused the request."
	case apperr.KindMalformedResponse:
		hint = "The model returned an unreadable answer, please try again."
	}
	s := "❌ Analysis failed: " + esc(out.Error.Message)
	if hint != "" {
		s += "\n" + hint
	}
	return s
}

func esc(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "[", "\\[")
	return s
}
