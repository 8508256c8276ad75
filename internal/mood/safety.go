package mood

import "strings"

// ConcernLevel grades the safety scan outcome.
type ConcernLevel string

const (
	ConcernLow  ConcernLevel = "low"
	ConcernHigh ConcernLevel = "high"
)

// SafetyReport is the outcome of scanning one message for high-risk phrases.
type SafetyReport struct {
	NeedsIntervention bool
	ConcernLevel      ConcernLevel
}

// concerningPhrases are self-harm and suicidal-ideation indicators. Any
// match escalates to a support response instead of normal generation.
var concerningPhrases = []string{
	"suicide", "kill myself", "end it all", "not worth living", "want to die",
	"self harm", "hurt myself", "cutting", "overdose", "hopeless",
}

// SafetyCheck scans message against the concerning-phrase list. The scan
// is pure; the caller is responsible for recording the concern against
// the profile (Store.FlagConcern) exactly once per intervention.
func SafetyCheck(message string) SafetyReport {
	msg := strings.ToLower(message)
	for _, phrase := range concerningPhrases {
		if strings.Contains(msg, phrase) {
			return SafetyReport{NeedsIntervention: true, ConcernLevel: ConcernHigh}
		}
	}
	return SafetyReport{NeedsIntervention: false, ConcernLevel: ConcernLow}
}
