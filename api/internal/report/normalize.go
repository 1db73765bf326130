package report

import "strings"

var classifications = map[string]Classification{
	"normal":                    ClassNormal,
	"normalstudy":               ClassNormal,
	"unremarkable":              ClassNormal,
	"healthy":                   ClassNormal,
	"noabnormality":             ClassNormal,
	"noabnormalities":           ClassNormal,
	"noabnormalitiesdetected":   ClassNormal,
	"myocardialinfarction":      ClassMyocardialInfarction,
	"myocardialinfarct":         ClassMyocardialInfarction,
	"acutemyocardialinfarction": ClassMyocardialInfarction,
	"oldmyocardialinfarction":   ClassMyocardialInfarction,
	"mi":                        ClassMyocardialInfarction,
	"infarction":                ClassMyocardialInfarction,
	"infarct":                   ClassMyocardialInfarction,
	"heartattack":               ClassMyocardialInfarction,
	"stemi":                     ClassMyocardialInfarction,
	"nstemi":                    ClassMyocardialInfarction,
	"structuraldeformity":       ClassStructuralDeformity,
	"structuralabnormality":     ClassStructuralDeformity,
	"structuraldefect":          ClassStructuralDeformity,
	"structuralanomaly":         ClassStructuralDeformity,
	"structuralheartdisease":    ClassStructuralDeformity,
	"deformity":                 ClassStructuralDeformity,
	"other":                     ClassOther,
	"inconclusive":              ClassOther,
	"indeterminate":             ClassOther,
	"equivocal":                 ClassOther,
	"uncertain":                 ClassOther,
	"unknown":                   ClassOther,
	"nondiagnostic":             ClassOther,
}

var severities = map[string]Severity{
	"mild":         SeverityMild,
	"minimal":      SeverityMild,
	"minor":        SeverityMild,
	"slight":       SeverityMild,
	"low":          SeverityMild,
	"moderate":     SeverityModerate,
	"medium":       SeverityModerate,
	"intermediate": SeverityModerate,
	"severe":       SeveritySevere,
	"marked":       SeveritySevere,
	"significant":  SeveritySevere,
	"major":        SeveritySevere,
	"high":         SeveritySevere,
}

var riskLevels = map[string]RiskLevel{
	"low":          RiskLow,
	"minimal":      RiskLow,
	"moderate":     RiskModerate,
	"medium":       RiskModerate,
	"intermediate": RiskModerate,
	"high":         RiskHigh,
	"elevated":     RiskHigh,
	"critical":     RiskCritical,
	"veryhigh":     RiskCritical,
	"severe":       RiskCritical,
	"urgent":       RiskCritical,
	"emergent":     RiskCritical,
}

// canonKey folds case and drops separators: "Myocardial-Infarction" -> "myocardialinfarction".
func canonKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func CanonicalClassification(s string) (Classification, bool) {
	c, ok := classifications[canonKey(s)]
	return c, ok
}

func CanonicalSeverity(s string) (Severity, bool) {
	v, ok := severities[canonKey(s)]
	return v, ok
}

func CanonicalRiskLevel(s string) (RiskLevel, bool) {
	v, ok := riskLevels[canonKey(s)]
	return v, ok
}
