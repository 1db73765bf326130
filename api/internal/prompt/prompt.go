package prompt

import (
	"fmt"
	"strings"

	"cardiac-xai/api/internal/imaging"
	"cardiac-xai/api/internal/util"
)

// SchemaVersion is bumped whenever ReportSchema changes shape.
const SchemaVersion = "cardiac-report/v1"

// maxHistoryRunes bounds the free-text patient history appended to the prompt.
const maxHistoryRunes = 2000

// ReportSchema is the response contract the model must follow.
const ReportSchema = `{
  "primary_diagnosis": {
    "classification": "Normal" | "MyocardialInfarction" | "StructuralDeformity" | "Other",
    "confidence": integer 0-100
  },
  "affected_regions": [
    { "region": string, "severity": "Mild" | "Moderate" | "Severe" }
  ],
  "clinical_findings": [ string ],
  "explanation": string,
  "risk_assessment": {
    "risk_level": "Low" | "Moderate" | "High" | "Critical",
    "rationale": string
  }
}`

const system = `You are an expert cardiac imaging analyst reviewing a single cardiac MRI image.
Assess the myocardium, chamber geometry and wall motion visible in the image and classify the study.

Classification rules:
- "Normal": no visible abnormality.
- "MyocardialInfarction": scar, thinning or late enhancement in a coronary territory.
- "StructuralDeformity": abnormal chamber size, wall thickness, valves or geometry.
- "Other": any other finding, or the image is inconclusive.

Output rules (MANDATORY):
1) Return ONLY one JSON object that matches the schema below exactly. No prose, no markdown, no code fences.
2) Use exactly the field names and enum values shown. Do not add fields.
3) "confidence" is an integer percentage from 0 to 100.
4) "affected_regions" and "clinical_findings" are empty arrays when nothing is found.
5) "explanation" is a short plain-language justification for a clinician; it must not be empty.`

type Options struct {
	// PatientHistory is optional clinical context supplied by the requester.
	PatientHistory string
}

// Build renders the instruction text for one image. The output depends only on
// the image's encoding metadata and opts, never on earlier requests.
func Build(img imaging.Image, opts Options) string {
	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\nSchema version: ")
	b.WriteString(SchemaVersion)
	b.WriteString("\n")
	b.WriteString(ReportSchema)
	b.WriteString("\n\n")
	b.WriteString(imageLine(img))

	if h := strings.TrimSpace(opts.PatientHistory); h != "" {
		b.WriteString("\n\nPatient history (context only, do not copy into the output):\n")
		b.WriteString(util.ClampRunes(h, maxHistoryRunes))
	}
	b.WriteString("\n\nRespond with the JSON object only.")
	return b.String()
}

func imageLine(img imaging.Image) string {
	line := "Attached image: " + img.MIMEType
	if img.Format == "dicom" {
		line += " (rendered from the first DICOM frame)"
	}
	if img.Width > 0 && img.Height > 0 {
		line += fmt.Sprintf(", %dx%d pixels", img.Width, img.Height)
	}
	return line + "."
}
