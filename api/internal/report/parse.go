package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"cardiac-xai/api/internal/apperr"
)

const op = "report.Parse"

// Parse extracts the JSON object from a model response and validates it into a
// DiagnosticReport. Validation is all-or-nothing: any missing required field,
// wrong JSON kind or unknown enum value rejects the whole report with a
// KindMalformedResponse error. Confidence is clamped to [0, 100] and unknown
// extra fields are ignored.
func Parse(raw string) (DiagnosticReport, error) {
	if strings.TrimSpace(raw) == "" {
		return DiagnosticReport{}, apperr.Malformed(apperr.DetailUnparsableJSON, op, "model returned an empty response")
	}
	span, ok := ExtractObject(raw)
	if !ok {
		return DiagnosticReport{}, apperr.Malformed(apperr.DetailUnparsableJSON, op, "model response contains no JSON object")
	}
	top, err := decodeObject("", span)
	if err != nil {
		return DiagnosticReport{}, err
	}

	var r DiagnosticReport

	pd, err := top.object("primary_diagnosis")
	if err != nil {
		return DiagnosticReport{}, err
	}
	if r.PrimaryDiagnosis, err = parsePrimary(pd); err != nil {
		return DiagnosticReport{}, err
	}

	if r.AffectedRegions, err = parseRegions(top); err != nil {
		return DiagnosticReport{}, err
	}
	if r.ClinicalFindings, err = parseFindings(top); err != nil {
		return DiagnosticReport{}, err
	}

	if r.Explanation, err = top.requiredString("explanation"); err != nil {
		return DiagnosticReport{}, err
	}

	ra, err := top.object("risk_assessment")
	if err != nil {
		return DiagnosticReport{}, err
	}
	if r.RiskAssessment, err = parseRisk(ra); err != nil {
		return DiagnosticReport{}, err
	}
	return r, nil
}

func parsePrimary(o fields) (PrimaryDiagnosis, error) {
	var pd PrimaryDiagnosis

	cls, err := o.requiredString("classification")
	if err != nil {
		return pd, err
	}
	c, ok := CanonicalClassification(cls)
	if !ok {
		return pd, apperr.Malformed(apperr.DetailUnknownEnum, op, "%s has unknown value %q", o.at("classification"), cls)
	}
	pd.Classification = c

	conf, err := o.number("confidence")
	if err != nil {
		return pd, err
	}
	pd.Confidence = ClampConfidence(conf)
	return pd, nil
}

func parseRegions(top fields) ([]AffectedRegion, error) {
	items, err := top.optionalArray("affected_regions")
	if err != nil {
		return nil, err
	}
	regions := make([]AffectedRegion, 0, len(items))
	for i, item := range items {
		o, err := decodeObject(indexPath(top.at("affected_regions"), i), item)
		if err != nil {
			return nil, err
		}
		name, err := o.requiredString("region", "location", "name", "region_name")
		if err != nil {
			return nil, err
		}
		sev, err := o.requiredString("severity")
		if err != nil {
			return nil, err
		}
		s, ok := CanonicalSeverity(sev)
		if !ok {
			return nil, apperr.Malformed(apperr.DetailUnknownEnum, op, "%s has unknown value %q", o.at("severity"), sev)
		}
		regions = append(regions, AffectedRegion{Region: name, Severity: s})
	}
	return regions, nil
}

func parseFindings(top fields) ([]string, error) {
	items, err := top.optionalArray("clinical_findings")
	if err != nil {
		return nil, err
	}
	findings := make([]string, 0, len(items))
	for i, item := range items {
		path := indexPath(top.at("clinical_findings"), i)
		if kindOf(item) != kindString {
			return nil, apperr.Malformed(apperr.DetailWrongType, op, "%s must be a string", path)
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, apperr.Malformed(apperr.DetailWrongType, op, "%s must be a string", path)
		}
		findings = append(findings, s)
	}
	return findings, nil
}

func parseRisk(o fields) (RiskAssessment, error) {
	var ra RiskAssessment

	lvl, err := o.requiredString("risk_level")
	if err != nil {
		return ra, err
	}
	l, ok := CanonicalRiskLevel(lvl)
	if !ok {
		return ra, apperr.Malformed(apperr.DetailUnknownEnum, op, "%s has unknown value %q", o.at("risk_level"), lvl)
	}
	ra.RiskLevel = l

	if ra.Rationale, err = o.optionalString("rationale"); err != nil {
		return ra, err
	}
	return ra, nil
}

// ClampConfidence rounds to the nearest integer and clamps into [0, 100].
func ClampConfidence(v float64) int {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(math.Round(v))
}

// --- field access ---

type jsonKind int

const (
	kindNull jsonKind = iota
	kindObject
	kindArray
	kindString
	kindNumber
	kindBool
)

func kindOf(raw json.RawMessage) jsonKind {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return kindNull
	}
	switch c := b[0]; {
	case c == '{':
		return kindObject
	case c == '[':
		return kindArray
	case c == '"':
		return kindString
	case c == 't' || c == 'f':
		return kindBool
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	}
	return kindNull
}

func (k jsonKind) String() string {
	switch k {
	case kindObject:
		return "an object"
	case kindArray:
		return "an array"
	case kindString:
		return "a string"
	case kindNumber:
		return "a number"
	case kindBool:
		return "a boolean"
	}
	return "null"
}

// fields is one decoded JSON object plus its path for error messages.
type fields struct {
	path string
	m    map[string]json.RawMessage
}

func decodeObject(path string, raw json.RawMessage) (fields, error) {
	if k := kindOf(raw); k != kindObject {
		name := path
		if name == "" {
			name = "response"
		}
		return fields{}, apperr.Malformed(apperr.DetailWrongType, op, "%s must be an object, got %s", name, k)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return fields{}, &apperr.Error{
			Kind:    apperr.KindMalformedResponse,
			Op:      op,
			Message: "model response is not valid JSON",
			Detail:  apperr.DetailUnparsableJSON,
			Cause:   err,
		}
	}
	return fields{path: path, m: m}, nil
}

func (f fields) at(name string) string {
	if f.path == "" {
		return name
	}
	return f.path + "." + name
}

func indexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// lookup returns the first present, non-null field among names.
func (f fields) lookup(names ...string) (string, json.RawMessage, bool) {
	for _, n := range names {
		if raw, ok := f.m[n]; ok && kindOf(raw) != kindNull {
			return n, raw, true
		}
	}
	return names[0], nil, false
}

func (f fields) object(name string) (fields, error) {
	_, raw, ok := f.lookup(name)
	if !ok {
		return fields{}, apperr.Malformed(apperr.DetailMissingField, op, "%s is required", f.at(name))
	}
	return decodeObject(f.at(name), raw)
}

func (f fields) str(name string, raw json.RawMessage) (string, error) {
	if k := kindOf(raw); k != kindString {
		return "", apperr.Malformed(apperr.DetailWrongType, op, "%s must be a string, got %s", f.at(name), k)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", apperr.Malformed(apperr.DetailWrongType, op, "%s must be a string", f.at(name))
	}
	return s, nil
}

// requiredString reads the first present alias; blank strings count as missing.
// The value itself is returned unmodified.
func (f fields) requiredString(names ...string) (string, error) {
	name, raw, ok := f.lookup(names...)
	if !ok {
		return "", apperr.Malformed(apperr.DetailMissingField, op, "%s is required", f.at(name))
	}
	s, err := f.str(name, raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", apperr.Malformed(apperr.DetailMissingField, op, "%s must not be empty", f.at(name))
	}
	return s, nil
}

func (f fields) optionalString(name string) (string, error) {
	_, raw, ok := f.lookup(name)
	if !ok {
		return "", nil
	}
	return f.str(name, raw)
}

func (f fields) number(name string) (float64, error) {
	_, raw, ok := f.lookup(name)
	if !ok {
		return 0, apperr.Malformed(apperr.DetailMissingField, op, "%s is required", f.at(name))
	}
	if k := kindOf(raw); k != kindNumber {
		return 0, apperr.Malformed(apperr.DetailWrongType, op, "%s must be a number, got %s", f.at(name), k)
	}
	v, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			// v is ±Inf or 0 here; clamping handles it
			return v, nil
		}
		return 0, apperr.Malformed(apperr.DetailWrongType, op, "%s must be a number", f.at(name))
	}
	return v, nil
}

func (f fields) optionalArray(name string) ([]json.RawMessage, error) {
	_, raw, ok := f.lookup(name)
	if !ok {
		return nil, nil
	}
	if k := kindOf(raw); k != kindArray {
		return nil, apperr.Malformed(apperr.DetailWrongType, op, "%s must be an array, got %s", f.at(name), k)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, apperr.Malformed(apperr.DetailWrongType, op, "%s must be an array", f.at(name))
	}
	return items, nil
}
