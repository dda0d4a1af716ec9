// internal/escalation/triggers.go
package escalation

import (
	"fmt"
	"regexp"
	"strings"

	"care-chatbot/internal/models"
)

// TriggerType identifies which detector fired.
type TriggerType string

const (
	TriggerExplicitRequest  TriggerType = "explicit_request"
	TriggerFrustration      TriggerType = "frustration"
	TriggerRepeatedFailures TriggerType = "repeated_failures"
	TriggerSensitiveTopic   TriggerType = "sensitive_topic"
	TriggerComplexQuery     TriggerType = "complex_query"
)

// triggerOrder fixes the tie-break between triggers with equal confidence.
var triggerOrder = map[TriggerType]int{
	TriggerExplicitRequest:  0,
	TriggerFrustration:      1,
	TriggerRepeatedFailures: 2,
	TriggerSensitiveTopic:   3,
	TriggerComplexQuery:     4,
}

// Trigger is one detector result.
type Trigger struct {
	Type       TriggerType
	Confidence float64
	Reason     string
}

// Decision is the outcome of evaluating all triggers for a message.
type Decision struct {
	ShouldEscalate bool
	Trigger        TriggerType
	Reason         string
	Priority       models.TicketPriority
	Confidence     float64
	AllTriggers    []Trigger
}

var explicitPhrases = []string{
	"talk to a human", "speak to a person", "real person",
	"human agent", "live agent", "customer service representative",
	"connect me with someone", "get me a person", "agent please",
	"representative", "support agent", "customer support agent",
}

var sensitiveKeywords = []string{
	"legal", "lawsuit", "attorney", "lawyer", "sue",
	"cancel service", "terminate", "breach", "privacy",
	"data breach", "compensation", "refund", "complain",
	"formal complaint", "escalate", "manager", "supervisor",
	"ceo", "executive", "board", "regulatory", "compliance",
}

// Whole-word matchers; bare Contains would fire "sue" inside "issues" or
// "board" inside "dashboard".
var sensitiveKeywordRes = compileKeywordRes(sensitiveKeywords)

func compileKeywordRes(keywords []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(keywords))
	for i, kw := range keywords {
		res[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
	}
	return res
}

var technicalTerms = []string{
	"api integration", "custom development", "enterprise architecture",
	"migration strategy", "data migration", "system integration",
	"custom workflow", "advanced configuration",
}

var conjunctions = []string{" and ", " also ", " plus ", " furthermore "}

// failurePatterns classify a user turn as a failed interaction.
var failurePatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{"correction", regexp.MustCompile(`(?i)\b(no|not|wrong|that's not|incorrect|misunderstood)\b`)},
	{"repetition", regexp.MustCompile(`(?i)\b(i said|as i said|again|still)\b`)},
	{"clarification", regexp.MustCompile(`(?i)\b(what i mean is|let me rephrase|i meant)\b`)},
	{"dissatisfaction", regexp.MustCompile(`(?i)\b(not helpful|not answering|not what i asked)\b`)},
}

// lowConfidenceCutoff marks a classifier result as a failed interaction.
const lowConfidenceCutoff = 0.3

func isExplicitRequest(message string) bool {
	lower := strings.ToLower(message)
	for _, phrase := range explicitPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func sensitiveTopic(message string) (string, bool) {
	for i, re := range sensitiveKeywordRes {
		if re.MatchString(message) {
			return sensitiveKeywords[i], true
		}
	}
	return "", false
}

// complexQuery fires on long multi-part messages or advanced technical asks.
func complexQuery(message string) (Trigger, bool) {
	lower := strings.ToLower(message)

	for _, term := range technicalTerms {
		if strings.Contains(lower, term) {
			return Trigger{
				Type:       TriggerComplexQuery,
				Confidence: 0.8,
				Reason:     "Advanced technical/architectural query",
			}, true
		}
	}

	conjunctionCount := 0
	for _, conj := range conjunctions {
		if strings.Contains(lower, conj) {
			conjunctionCount++
		}
	}
	wordCount := len(strings.Fields(message))
	if wordCount > 25 && conjunctionCount >= 2 {
		return Trigger{
			Type:       TriggerComplexQuery,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("Complex multi-part query (%d words, %d conjunctions)", wordCount, conjunctionCount),
		}, true
	}

	return Trigger{}, false
}

// failureReason classifies the current turn as a failed interaction, or
// returns false when it looks fine.
func failureReason(message string, intentConfidence float64) (string, bool) {
	for _, fp := range failurePatterns {
		if fp.pattern.MatchString(message) {
			return fp.kind + ": user correcting or clarifying", true
		}
	}
	if intentConfidence < lowConfidenceCutoff {
		return fmt.Sprintf("low intent confidence: %.2f", intentConfidence), true
	}
	return "", false
}

func determinePriority(trigger TriggerType, confidence float64) models.TicketPriority {
	switch {
	case trigger == TriggerSensitiveTopic || trigger == TriggerExplicitRequest:
		return models.PriorityHigh
	case confidence > 0.8:
		return models.PriorityHigh
	case confidence > 0.5:
		return models.PriorityMedium
	default:
		return models.PriorityNormal
	}
}
