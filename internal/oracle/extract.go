package oracle

import (
	"encoding/json"
	"strings"
)

// ExtractJSON finds the first '{' and the last '}' in free text and parses the
// substring as a JSON object. Returns ok=false when no such object exists or
// the substring is not valid JSON.
func ExtractJSON(text string) (map[string]any, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// RecommendationResult is the typed outcome of a specialist-recommendation
// call. OK is false for any parse failure, missing status, or status other
// than "done" — callers treat that as "no recommendation available".
type RecommendationResult struct {
	Specialists []string
	Rationale   string
	OK          bool
}

// ParseRecommendation extracts a recommendation object from oracle output.
func ParseRecommendation(text string) RecommendationResult {
	obj, ok := ExtractJSON(text)
	if !ok {
		return RecommendationResult{}
	}
	if status, _ := obj["status"].(string); status != "done" {
		return RecommendationResult{}
	}

	var specialists []string
	if raw, ok := obj["recommended_specialist"].([]any); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				specialists = append(specialists, s)
			}
		}
	}
	rationale, _ := obj["rationale"].(string)
	return RecommendationResult{Specialists: specialists, Rationale: rationale, OK: true}
}

// IntakeCompletion is the typed outcome of a health-assessment turn. Done is
// true only when the oracle emitted status "complete" with a patient_data
// object; anything else means "not yet complete".
type IntakeCompletion struct {
	Done        bool
	PatientData map[string]any
}

// ParseIntakeCompletion extracts a completion payload from oracle output.
func ParseIntakeCompletion(text string) IntakeCompletion {
	obj, ok := ExtractJSON(text)
	if !ok {
		return IntakeCompletion{}
	}
	if status, _ := obj["status"].(string); status != "complete" {
		return IntakeCompletion{}
	}
	data, ok := obj["patient_data"].(map[string]any)
	if !ok {
		return IntakeCompletion{}
	}
	return IntakeCompletion{Done: true, PatientData: data}
}
