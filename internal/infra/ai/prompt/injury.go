package prompt

import (
	"encoding/json"
	"errors"
	"strings"
)

// Version of the injury prompt. Clients key off the JSON field names below,
// so bump this whenever the schema changes.
const Version = "injury-v2"

// InjurySystemPrompt provides strict directions and schema for the injury assessment.
func InjurySystemPrompt() string {
	return `You are an expert in veterinary analysis. Your task is to meticulously examine an image of an animal and provide a comprehensive analysis of any visible injuries.

Crucially, before assessing the injury, you must first accurately identify the animal.

1. Animal Identification:
- Determine the animal type (e.g., Dog, Cat, Bird, etc.). If unsure, make your best educated guess.
- If the animal is a common domestic pet (like a dog or cat), provide a breed guess. If a specific breed is not discernible, state "Mixed Breed" or "Unknown Breed" for domestic animals, and "N/A" for wild animals where breed doesn't apply.

2. Injury Analysis:
- Identify the type of injury (e.g., cut, bruise, fracture, skin irritation, external parasites, etc.). Be as specific as possible.
- Assess the severity of the injury as "Low", "Medium" or "High".
- Note any relevant environment factors that might be contributing to or affecting the injury (e.g., dirty wound, presence of debris, specific location). If no relevant factors are visible, state "None observed".
- Provide suggestions for immediate first aid or next steps. These suggestions should be general advice, always recommending professional veterinary consultation for serious injuries.

3. Rescue Planning (only when an injury is visible):
- person_required: how many responders are needed.
- equipments: a list of equipment the responders should carry.
- procedure: a short ordered description of the rescue.

Output Format:
Present your analysis strictly as one JSON object with the fields below. Ensure all required fields are present. Do not add commentary.

{
  "animal_type": "...",
  "breed_guess": "...",
  "injury": "...",
  "severity": "...",
  "environment_factors": "...",
  "suggestions": "...",
  "person_required": 0,
  "equipments": ["..."],
  "procedure": "..."
}`
}

// InjuryUserPrompt is sent alongside the image.
func InjuryUserPrompt() string {
	return "Analyze the animal in this photo and respond with the JSON per schema."
}

// Assessment is the typed view of the schema requested by InjurySystemPrompt.
type Assessment struct {
	AnimalType         string   `json:"animal_type"`
	BreedGuess         string   `json:"breed_guess"`
	Injury             string   `json:"injury"`
	Severity           string   `json:"severity"`
	EnvironmentFactors string   `json:"environment_factors"`
	Suggestions        string   `json:"suggestions"`
	PersonRequired     *int     `json:"person_required,omitempty"`
	Equipments         []string `json:"equipments,omitempty"`
	Procedure          string   `json:"procedure,omitempty"`
}

// ParseAssessment extracts the JSON object from provider text, tolerating
// markdown code fences around it. Required fields must be present.
func ParseAssessment(text string) (*Assessment, error) {
	body := extractJSON(strings.TrimSpace(text))

	var a Assessment
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		return nil, err
	}
	if a.AnimalType == "" {
		return nil, errors.New("animal_type is required")
	}
	if a.Severity == "" {
		return nil, errors.New("severity is required")
	}
	return &a, nil
}

func extractJSON(s string) string {
	const fence = "```"
	start := strings.Index(s, fence)
	if start == -1 {
		open, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
		if open == -1 || end < open {
			return s
		}
		return s[open : end+1]
	}
	rest := s[start+len(fence):]
	end := strings.Index(rest, fence)
	if end == -1 {
		return s
	}
	content := strings.TrimSpace(rest[:end])
	// strip language hint, e.g. ```json
	content = strings.TrimPrefix(content, "json")
	return strings.TrimSpace(content)
}
