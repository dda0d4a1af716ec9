// Package nlp implements text analysis for the chatbot: entity extraction,
// sentiment scoring and frustration detection.
package nlp

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"care-chatbot/internal/models"
)

// Entity category keys returned by Analyze.
const (
	EntityEmail       = "email"
	EntityPhone       = "phone"
	EntityDate        = "date"
	EntityTime        = "time"
	EntityServiceType = "service_type"
	EntityName        = "name"
)

var (
	emailPatternRe = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	phonePatternRe = regexp.MustCompile(`\b(?:\+?\d{1,3}[\-.\s]?)?\(?\d{3}\)?[\-.\s]?\d{3}[\-.\s]?\d{4}\b`)

	datePatternRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[\-/]\d{1,2}(?:[\-/]\d{2,4})?\b`),
		regexp.MustCompile(`(?i)\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2}(?:st|nd|rd|th)?,?\s*(?:\d{4})?\b`),
		regexp.MustCompile(`(?i)\b(?:next\s+|this\s+)?(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\b`),
		regexp.MustCompile(`(?i)\b(?:today|tomorrow|next\s+week)\b`),
	}

	timePatternRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}[:.]\d{2}\s*(?:AM|PM|a\.m\.|p\.m\.)?\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s*(?:AM|PM|a\.m\.|p\.m\.)\b`),
		regexp.MustCompile(`(?i)\b(?:morning|afternoon|evening|noon|midnight)\b`),
	}

	nameIntroRe   = regexp.MustCompile(`(?i)(?:my name is|i am|i'm|call me|this is)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)
	capitalizedRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})\b`)
)

// serviceKeywords maps canonical service types to trigger vocabulary.
var serviceKeywords = map[string][]string{
	"consultation": {"consultation", "consult", "consulting", "advice", "guidance", "discuss"},
	"support":      {"support", "help", "assistance", "issue", "problem", "fix", "troubleshoot"},
	"installation": {"install", "installation", "setup", "set up", "configure", "implement"},
	"maintenance":  {"maintenance", "maintain", "service", "checkup", "inspection", "update"},
	"training":     {"training", "train", "learn", "educate", "workshop", "course", "teach"},
}

// nameDenyList holds temporal vocabulary that must never be accepted as a name.
var nameDenyList = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
	"January": true, "February": true, "March": true, "April": true,
	"May": true, "June": true, "July": true, "August": true,
	"September": true, "October": true, "November": true, "December": true,
	"Today": true, "Tomorrow": true, "Morning": true, "Afternoon": true,
	"Evening": true, "Noon": true, "Midnight": true, "Am": true, "Pm": true,
	"Next": true, "This": true,
}

var frustrationKeywords = []string{
	"angry", "frustrated", "annoyed", "upset", "disappointed",
	"terrible", "awful", "horrible", "worst", "useless", "stupid",
	"not working", "broken", "again", "still", "waste",
	"never works", "give up", "forget it", "ridiculous",
}

var issueKeywords = []string{"problem", "issue", "error", "not work", "doesn't work"}

// Small polarity lexicons for sentiment scoring.
var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "awesome": true,
	"amazing": true, "wonderful": true, "fantastic": true, "love": true,
	"like": true, "happy": true, "thanks": true, "thank": true,
	"perfect": true, "nice": true, "helpful": true, "appreciate": true,
	"pleased": true, "glad": true, "best": true, "works": true,
}

var negativeWords = map[string]bool{
	"bad": true, "terrible": true, "awful": true, "horrible": true,
	"worst": true, "hate": true, "angry": true, "frustrated": true,
	"annoyed": true, "upset": true, "disappointed": true, "useless": true,
	"stupid": true, "broken": true, "wrong": true, "waste": true,
	"ridiculous": true, "slow": true, "confusing": true, "never": true,
	"poor": true, "fail": true, "failed": true, "failing": true,
}

// Analyzer performs deterministic text analysis over one message.
type Analyzer struct {
	dateTime *DateTimeParser
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{dateTime: NewDateTimeParser()}
}

// NewAnalyzerAt creates an Analyzer whose date resolution uses the given
// clock instead of time.Now.
func NewAnalyzerAt(now func() time.Time) *Analyzer {
	return &Analyzer{dateTime: NewDateTimeParserAt(now)}
}

// DateTime exposes the shared date/time parser for callers that need
// normalized values rather than raw phrases.
func (a *Analyzer) DateTime() *DateTimeParser {
	return a.dateTime
}

// Analyze extracts entities, scores sentiment and flags frustration.
// Same input and history always produce the same output.
func (a *Analyzer) Analyze(text string, recentHistory []string) models.AnalysisResult {
	sentiment := a.Sentiment(text)
	frustrated, score := a.frustration(text, sentiment, recentHistory)

	return models.AnalysisResult{
		Entities:         a.ExtractEntities(text),
		Sentiment:        sentiment,
		Frustrated:       frustrated,
		FrustrationScore: score,
	}
}

// ExtractEntities runs all pattern families and returns only non-empty categories.
func (a *Analyzer) ExtractEntities(text string) map[string][]string {
	entities := make(map[string][]string)

	if emails := dedupe(emailPatternRe.FindAllString(text, -1)); len(emails) > 0 {
		entities[EntityEmail] = emails
	}
	if phones := dedupe(phonePatternRe.FindAllString(text, -1)); len(phones) > 0 {
		entities[EntityPhone] = phones
	}

	var dates []string
	for _, re := range datePatternRes {
		dates = append(dates, re.FindAllString(text, -1)...)
	}
	if dates = dedupe(dates); len(dates) > 0 {
		entities[EntityDate] = dates
	}

	var times []string
	for _, re := range timePatternRes {
		times = append(times, re.FindAllString(text, -1)...)
	}
	if times = dedupe(times); len(times) > 0 {
		entities[EntityTime] = times
	}

	if services := a.extractServiceTypes(text); len(services) > 0 {
		entities[EntityServiceType] = services
	}
	if names := a.ExtractNames(text); len(names) > 0 {
		entities[EntityName] = names
	}

	return entities
}

func (a *Analyzer) extractServiceTypes(text string) []string {
	lower := strings.ToLower(text)
	var detected []string

	for _, service := range []string{"consultation", "support", "installation", "maintenance", "training"} {
		for _, keyword := range serviceKeywords[service] {
			if matchKeyword(lower, keyword) {
				detected = append(detected, service)
				break
			}
		}
	}

	return detected
}

// ExtractNames finds candidate person names. Temporal vocabulary is rejected
// up front so weekday and month words are never captured as names.
func (a *Analyzer) ExtractNames(text string) []string {
	var names []string

	for _, m := range nameIntroRe.FindAllStringSubmatch(text, -1) {
		if candidate := stripDeniedWords(m[1]); candidate != "" {
			names = append(names, candidate)
		}
	}

	for _, m := range capitalizedRe.FindAllStringSubmatch(text, -1) {
		candidate := m[1]
		if len(strings.Fields(candidate)) > 4 {
			continue
		}
		if candidate = stripDeniedWords(candidate); candidate != "" && strings.Contains(candidate, " ") {
			names = append(names, candidate)
		}
	}

	return dedupe(names)
}

// stripDeniedWords drops a candidate that contains any deny-listed word.
func stripDeniedWords(candidate string) string {
	for _, word := range strings.Fields(candidate) {
		if nameDenyList[word] {
			return ""
		}
	}
	return candidate
}

// Sentiment scores polarity with a small lexicon. Compound is the normalized
// difference between positive and negative hits in [-1, 1].
func (a *Analyzer) Sentiment(text string) models.SentimentScores {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return models.SentimentScores{}
	}

	var pos, neg float64
	negated := false
	for _, tok := range tokens {
		lower := strings.ToLower(tok)
		if lower == "not" || lower == "no" || strings.HasSuffix(lower, "n't") {
			negated = true
			continue
		}
		switch {
		case positiveWords[lower]:
			if negated {
				neg++
			} else {
				pos++
			}
		case negativeWords[lower]:
			if negated {
				pos++
			} else {
				neg++
			}
		}
		negated = false
	}

	total := float64(len(tokens))
	compound := 0.0
	if pos+neg > 0 {
		compound = (pos - neg) / (pos + neg)
		// Dampen by message length so one word in a long message scores lower.
		weight := (pos + neg) / total
		if weight > 1 {
			weight = 1
		}
		compound *= 0.5 + 0.5*weight
	}

	return models.SentimentScores{
		Positive: pos / total,
		Negative: neg / total,
		Compound: compound,
	}
}

// IsFrustrated reports whether any frustration signal fires for the message.
func (a *Analyzer) IsFrustrated(text string, recentHistory []string) bool {
	frustrated, _ := a.frustration(text, a.Sentiment(text), recentHistory)
	return frustrated
}

// FrustrationScore returns the summed signal confidence in [0, 1].
func (a *Analyzer) FrustrationScore(text string, recentHistory []string) float64 {
	_, score := a.frustration(text, a.Sentiment(text), recentHistory)
	return score
}

// frustration evaluates the independent signals. Any single signal is enough
// to flag frustration; signals also accumulate into a continuous score.
func (a *Analyzer) frustration(text string, sentiment models.SentimentScores, recentHistory []string) (bool, float64) {
	lower := strings.ToLower(text)
	score := 0.0

	// Signal 1: very negative sentiment.
	if sentiment.Compound < -0.5 {
		score += 0.4
	}

	// Signal 2: frustration keywords.
	for _, keyword := range frustrationKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.3
			break
		}
	}

	// Signal 3: excessive punctuation or caps.
	if strings.Count(text, "!") >= 2 {
		score += 0.2
	}
	if len(text) > 10 {
		upper := 0
		letters := 0
		for _, r := range text {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters > 0 && float64(upper)/float64(len(text)) > 0.5 {
			score += 0.2
		}
	}

	// Signal 4: short abrupt message naming a problem.
	if len(strings.Fields(text)) <= 4 {
		for _, keyword := range issueKeywords {
			if strings.Contains(lower, keyword) {
				score += 0.2
				break
			}
		}
	}

	// Signal 5: repeated issues across the last 3 history turns.
	if len(recentHistory) >= 3 {
		recent := recentHistory[len(recentHistory)-3:]
		issues := 0
		for _, msg := range recent {
			msgLower := strings.ToLower(msg)
			for _, keyword := range issueKeywords {
				if strings.Contains(msgLower, keyword) {
					issues++
					break
				}
			}
		}
		if issues >= 2 {
			score += 0.3
		}
	}

	if score > 1.0 {
		score = 1.0
	}

	return score > 0, score
}

// Tokenize splits text into lowercased word tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// WordFrequencies counts alphabetic tokens, lowercased.
func WordFrequencies(text string) map[string]int {
	freq := make(map[string]int)
	for _, tok := range Tokenize(text) {
		lower := strings.ToLower(tok)
		alpha := true
		for _, r := range lower {
			if !unicode.IsLetter(r) {
				alpha = false
				break
			}
		}
		if alpha {
			freq[lower]++
		}
	}
	return freq
}

// matchKeyword matches keyword (optionally pluralized) at word boundaries.
func matchKeyword(lower, keyword string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		if end < len(lower) && lower[end] == 's' {
			end++
		}
		beforeOK := start == 0 || !isWordChar(lower[start-1])
		afterOK := end == len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		key := strings.ToLower(item)
		if !seen[key] {
			seen[key] = true
			out = append(out, item)
		}
	}
	return out
}
