package animals

import "strings"

// KeywordTagger marks details mentioning any keyword as urgent.
type KeywordTagger struct {
	Keywords []string
}

// DefaultTagger flags anything that mentions an injury.
var DefaultTagger = KeywordTagger{Keywords: []string{"injured"}}

func (k KeywordTagger) Tags(details string) []string {
	lower := strings.ToLower(details)
	for _, kw := range k.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return []string{"urgent", "help-needed"}
		}
	}
	return []string{"healthy"}
}
