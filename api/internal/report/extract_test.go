package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare", `{"a":1}`, `{"a":1}`, true},
		{"prose around", `result: {"a":1} ok`, `{"a":1}`, true},
		{"nested", `x {"a":{"b":[1,{"c":2}]}} y`, `{"a":{"b":[1,{"c":2}]}}`, true},
		{"braces in strings", `{"a":"}{","b":"\"{"}`, `{"a":"}{","b":"\"{"}`, true},
		{"skips non-json braces", `{not json} {"a":1}`, `{"a":1}`, true},
		{"skips unbalanced brace", `oops { then {"a":1}`, `{"a":1}`, true},
		{"first wins", `{"a":1} {"b":2}`, `{"a":1}`, true},
		{"none", `no objects here`, ``, false},
		{"only array", `[1,2,3]`, ``, false},
		{"unterminated", `{"a":1`, ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func TestCanonicalEnums(t *testing.T) {
	c, ok := CanonicalClassification("structural_deformity")
	assert.True(t, ok)
	assert.Equal(t, ClassStructuralDeformity, c)

	c, ok = CanonicalClassification("Inconclusive")
	assert.True(t, ok)
	assert.Equal(t, ClassOther, c)

	_, ok = CanonicalClassification("cardiomyopathy")
	assert.False(t, ok)

	s, ok := CanonicalSeverity(" Severe ")
	assert.True(t, ok)
	assert.Equal(t, SeveritySevere, s)

	r, ok := CanonicalRiskLevel("very-high")
	assert.True(t, ok)
	assert.Equal(t, RiskCritical, r)

	assert.Equal(t, "Myocardial Infarction", ClassMyocardialInfarction.Label())
	assert.Equal(t, "Normal", ClassNormal.Label())
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0, ClampConfidence(-0.4))
	assert.Equal(t, 50, ClampConfidence(49.5))
	assert.Equal(t, 100, ClampConfidence(100.4))
	assert.Equal(t, 100, ClampConfidence(1e9))
}
