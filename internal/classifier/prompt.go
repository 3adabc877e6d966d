package classifier

import (
	"fmt"
	"strings"

	"github.com/miradorstack/mirador-slo/internal/tables"
)

const promptPreamble = `You are an intent classification engine for an SRE reliability platform.

Your only job is to:
1. Identify the PRIMARY intent of the user question.
2. Identify any SECONDARY intents if clearly implied.
3. Extract ENTITIES:
   - service name, if mentioned
   - time range, explicit or implicit
   - comparison period, if present ("vs yesterday", "vs last month")

TIME RANGE RULES:
- Static ranges: "today", "yesterday", "last_hour", "this_week", "last_week", "last_month".
- Dynamic ranges: "past_N_minutes", "past_N_hours", "past_N_days", "past_N_weeks", "past_N_months".
  * "past 10 days" -> "past_10_days"
  * "last 5 hours" -> "past_5_hours"
  * "past 2 weeks" -> "past_2_weeks"
- "recently" -> "last_hour".
- Any other explicit range may be copied verbatim, for example "since 2024-01-10".
- If no time range is mentioned, use "current".

RULES:
- Return ONLY valid JSON. No explanation text.
- Do not guess application, tenant or numeric IDs.
- If the service is unclear, set service to null.
- Use ONLY intents from the allowed list.
- Be conservative. If unsure, choose the closest high-level intent.

ALLOWED INTENTS:

`

const promptSchema = `OUTPUT JSON SCHEMA:

{
  "primary_intent": "<ONE_ALLOWED_INTENT>",
  "secondary_intents": [],
  "entities": {
    "service": null,
    "time_range": "current",
    "comparison_range": null
  }
}

Do not include data sources; they are derived from the intents.
Return ONLY the JSON object.
`

// BuildSystemPrompt renders the classification instructions for categories.
func BuildSystemPrompt(categories []tables.Category) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	for _, cat := range categories {
		fmt.Fprintf(&b, "%s:\n", cat.Name)
		for _, def := range cat.Intents {
			fmt.Fprintf(&b, "- %s: %s\n", def.ID, def.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString(promptSchema)
	return b.String()
}
