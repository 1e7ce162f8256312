package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/campuscare/backend/internal/dto"
	"github.com/campuscare/backend/internal/models"
)

// ErrAIParse marks model output that could not be decoded into the expected
// structure. Callers must not substitute guessed fields.
var ErrAIParse = errors.New("failed to parse AI response")

// stripCodeFences removes the markdown wrapper models like to put around
// JSON payloads.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// DecodeDamageAnalysis is the single place model text becomes a structured
// damage analysis. It strips formatting wrappers, parses, normalizes the
// severity enum and clamps confidence to [0,1]. Anything it cannot decode is
// an ErrAIParse; it never fabricates fields.
func DecodeDamageAnalysis(content string) (*dto.DamageAnalysis, error) {
	cleaned := stripCodeFences(content)

	var analysis dto.DamageAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		// Some models pad the object with prose; retry on the outermost braces.
		start := strings.Index(cleaned, "{")
		end := strings.LastIndex(cleaned, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("%w: %s", ErrAIParse, err.Error())
		}
		if err2 := json.Unmarshal([]byte(cleaned[start:end+1]), &analysis); err2 != nil {
			return nil, fmt.Errorf("%w: %s", ErrAIParse, err2.Error())
		}
	}

	analysis.DetectedObject = strings.TrimSpace(analysis.DetectedObject)
	analysis.DamageType = strings.TrimSpace(analysis.DamageType)
	if analysis.DetectedObject == "" || analysis.DamageType == "" {
		return nil, fmt.Errorf("%w: missing detectedObject or damageType", ErrAIParse)
	}

	severity := strings.ToLower(strings.TrimSpace(analysis.Severity))
	if !models.ValidSeverities[severity] {
		return nil, fmt.Errorf("%w: severity %q outside enumeration", ErrAIParse, analysis.Severity)
	}
	analysis.Severity = severity

	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 1 {
		analysis.Confidence = 1
	}

	return &analysis, nil
}
