package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/miradorstack/mirador-slo/internal/models"
)

const defaultTimeRange = "current"

type rawClassification struct {
	PrimaryIntent    string   `json:"primary_intent"`
	SecondaryIntents []string `json:"secondary_intents"`
	Entities         struct {
		Service         *string `json:"service"`
		TimeRange       *string `json:"time_range"`
		ComparisonRange *string `json:"comparison_range"`
	} `json:"entities"`
}

// ParseResponse extracts the JSON object from model output and validates it.
// Text around the object is ignored. An unknown primary intent is an error;
// unknown secondary intents are dropped and reported in Unrecognized.
func ParseResponse(raw string) (models.Classification, error) {
	text := strings.TrimSpace(raw)
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return models.Classification{}, &models.ClassificationError{Raw: raw, Err: errors.New("no JSON object in classifier output")}
	}

	var parsed rawClassification
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return models.Classification{}, &models.ClassificationError{Raw: raw, Err: err}
	}

	primary, ok := models.ParseIntent(parsed.PrimaryIntent)
	if !ok {
		return models.Classification{}, &models.ClassificationError{Raw: raw, Err: fmt.Errorf("unknown primary intent %q", parsed.PrimaryIntent)}
	}

	cls := models.Classification{Primary: primary}
	for _, s := range parsed.SecondaryIntents {
		id, ok := models.ParseIntent(s)
		if !ok {
			cls.Unrecognized = append(cls.Unrecognized, s)
			continue
		}
		cls.Secondary = append(cls.Secondary, id)
	}

	cls.Entities.ServiceName = optional(parsed.Entities.Service)
	cls.Entities.ComparisonExpression = optional(parsed.Entities.ComparisonRange)
	cls.Entities.TimeExpression = defaultTimeRange
	if tr := optional(parsed.Entities.TimeRange); tr != nil {
		cls.Entities.TimeExpression = *tr
	}
	return cls, nil
}

// optional treats blanks and the literal "null" as absent.
func optional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return nil
	}
	return &v
}
