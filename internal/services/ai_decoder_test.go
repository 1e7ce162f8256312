package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDamageAnalysisFencedJSON(t *testing.T) {
	content := "```json\n{\"detectedObject\": \"window\", \"damageType\": \"cracked glass\", \"severity\": \"HIGH\", \"repairRecommendation\": \"Replace the pane\", \"confidence\": 0.87}\n```"

	analysis, err := DecodeDamageAnalysis(content)
	require.NoError(t, err)
	assert.Equal(t, "window", analysis.DetectedObject)
	assert.Equal(t, "cracked glass", analysis.DamageType)
	assert.Equal(t, "high", analysis.Severity)
	assert.InDelta(t, 0.87, analysis.Confidence, 0.001)
}

func TestDecodeDamageAnalysisProsePadding(t *testing.T) {
	content := `Sure! Here is the analysis you asked for:
{"detectedObject": "door", "damageType": "broken hinge", "severity": "medium", "confidence": 0.6}
Let me know if you need anything else.`

	analysis, err := DecodeDamageAnalysis(content)
	require.NoError(t, err)
	assert.Equal(t, "door", analysis.DetectedObject)
}

func TestDecodeDamageAnalysisClampsConfidence(t *testing.T) {
	over := `{"detectedObject": "desk", "damageType": "scratched", "severity": "low", "confidence": 17.5}`
	analysis, err := DecodeDamageAnalysis(over)
	require.NoError(t, err)
	assert.Equal(t, 1.0, analysis.Confidence)

	under := `{"detectedObject": "desk", "damageType": "scratched", "severity": "low", "confidence": -3}`
	analysis, err = DecodeDamageAnalysis(under)
	require.NoError(t, err)
	assert.Equal(t, 0.0, analysis.Confidence)
}

func TestDecodeDamageAnalysisRejectsGarbage(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"plain prose", "I cannot analyze this image, sorry."},
		{"empty", ""},
		{"missing required fields", `{"severity": "low", "confidence": 0.9}`},
		{"severity outside enum", `{"detectedObject": "wall", "damageType": "hole", "severity": "catastrophic", "confidence": 0.9}`},
		{"truncated json", `{"detectedObject": "wall", "damageType":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := DecodeDamageAnalysis(tt.content)
			assert.ErrorIs(t, err, ErrAIParse)
			assert.Nil(t, analysis)
		})
	}
}
