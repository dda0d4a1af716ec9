// Package intent turns raw user text plus short context into a canonical
// intent and confidence.
package intent

import (
	"regexp"
	"strings"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
	"care-chatbot/internal/nlp"
)

// Context carries the conversational context needed for classification.
type Context struct {
	LastBotMessage string
	RecentMessages []string
}

// patternGroup is one ordered rule-table entry.
type patternGroup struct {
	name     string
	mapped   models.Intent
	patterns []*regexp.Regexp
}

var ruleTable = []patternGroup{
	{
		name:   "appointment",
		mapped: models.IntentAction,
		patterns: compileAll(
			`\b(schedule|book|make|set up|arrange|reserve)\s+(an?\s+)?(appointment|meeting|call|demo|consultation|session)\b`,
			`\bi\s+(want|need|would like)\s+to\s+(schedule|book|set up)\b`,
			`\bcan\s+(i|we)\s+(schedule|book|arrange)\b`,
			`\bappointment\s+(for|on|at)\b`,
			`\b(demo|consultation)\s+(at|on|for)\b`,
		),
	},
	{
		name:   "support",
		mapped: models.IntentKnowledgeBase,
		patterns: compileAll(
			`\b(technical\s+)?(support|help|assistance|issue|problem)\b`,
			`\bneed\s+(help|support|assistance)\s+with\b`,
			`\b(not\s+working|broken|error|fix|troubleshoot)\b`,
			`\bhave\s+(a|an)\s+(problem|issue)\b`,
			`\bcan\s+you\s+(help|assist|support)\b`,
		),
	},
	{
		name:   "product_inquiry",
		mapped: models.IntentKnowledgeBase,
		patterns: compileAll(
			`\b(what|tell|show|explain)\s+(me\s+)?(about\s+)?your\s+(product|service|feature|solution)`,
			`\bproduct\s+(information|details|features|catalog)\b`,
			`\b(pricing|price|cost|plan)\s+(for|of|about)\b`,
			`\bwant\s+to\s+(know|learn)\s+(more\s+)?about\s+(product|service)`,
			`\bcompare\s+(product|service|plan|feature)`,
		),
	},
	{
		name:   "pricing",
		mapped: models.IntentKnowledgeBase,
		patterns: compileAll(
			`\b(how\s+much|what.*cost|price|pricing|plan.*price)\b`,
			`\b(enterprise|custom|unlimited)\s+(pricing|plan|cost)\b`,
			`\bget\s+(pricing|quote|estimate)\b`,
		),
	},
	{
		name:   "escalation",
		mapped: models.IntentEscalation,
		patterns: compileAll(
			`\b(human|real\s+person|live\s+agent|manager|supervisor)\b`,
			`\b(talk|speak|connect)\s+to\s+(a\s+)?(human|person|agent)\b`,
			`\btransfer\s+(me\s+)?to\b`,
			`\b(not\s+helping|useless|frustrated)\b`,
		),
	},
	{
		name:   "greeting",
		mapped: models.IntentGreeting,
		patterns: compileAll(
			`^(hi|hello|hey|good\s+(morning|afternoon|evening)|greetings)[\s!?.]*$`,
		),
	},
	{
		name:   "goodbye",
		mapped: models.IntentGoodbye,
		patterns: compileAll(
			`^(bye|goodbye|see\s+you|thanks|thank\s+you|that's\s+all)[\s!?.]*$`,
			`\bno\s+(more\s+)?(question|help)\b`,
			`\bi'm\s+(done|finished|all\s+set)\b`,
		),
	},
}

var (
	bareDigitRe = regexp.MustCompile(`^[1-5]$`)

	menuIndicators = []string{
		"reply with", "please reply", "would you like",
		"option 1", "option 2", "option 3", "option 4",
		"1.", "2.", "3.", "4.",
		"select", "choose", "pick",
	}

	confirmationPhrases = []string{
		"is this correct", "confirm", "please confirm",
		"reply yes", "reply no", "yes or no",
	}

	confirmationWords = map[string]bool{
		"yes": true, "no": true, "yeah": true, "yep": true, "nope": true,
	}
)

// Classifier maps one message to a canonical intent. Rules outrank the
// statistical layer so the flows that must never misfire stay deterministic.
type Classifier struct {
	analyzer *nlp.Analyzer
	bayes    *bayesClassifier
	log      logger.Logger
}

// NewClassifier trains the statistical fallback and builds the classifier.
func NewClassifier(analyzer *nlp.Analyzer, log logger.Logger) *Classifier {
	return &Classifier{
		analyzer: analyzer,
		bayes:    newBayesClassifier(trainingSet()),
		log:      log,
	}
}

// Classify evaluates the priority ladder; first match wins.
func (c *Classifier) Classify(text string, ctx Context) (models.Intent, float64) {
	lower := strings.ToLower(strings.TrimSpace(text))

	// Priority 1: menu/confirmation continuation of the prior bot message.
	if ctx.LastBotMessage != "" {
		if intent, ok := c.checkMenuContext(lower, ctx.LastBotMessage); ok {
			c.log.Debug("context-based classification", map[string]interface{}{
				"intent": string(intent),
			})
			return intent, 0.95
		}
	}

	// Priority 2: bare digit with no menu context.
	if bareDigitRe.MatchString(lower) {
		return models.IntentMenuSelection, 0.85
	}

	// Priority 3: rule table, first matching group wins.
	for _, group := range ruleTable {
		for _, pattern := range group.patterns {
			if pattern.MatchString(lower) {
				c.log.Debug("rule match", map[string]interface{}{
					"group":  group.name,
					"intent": string(group.mapped),
				})
				return group.mapped, 0.90
			}
		}
	}

	// Priority 4: statistical fallback; low-confidence guesses are suppressed
	// rather than acted upon.
	if label, prob := c.bayes.predict(text); label != "" {
		if prob < 0.6 {
			return models.IntentKnowledgeBase, 0.6
		}
		return models.Intent(label), prob
	}

	return models.IntentKnowledgeBase, 0.5
}

// GetDetails layers entities, sentiment and frustration onto the intent.
func (c *Classifier) GetDetails(text string, ctx Context) models.IntentResult {
	intent, confidence := c.Classify(text, ctx)
	analysis := c.analyzer.Analyze(text, ctx.RecentMessages)

	return models.IntentResult{
		Intent:     intent,
		Confidence: confidence,
		Entities:   analysis.Entities,
		Sentiment:  analysis.Sentiment,
		Frustrated: analysis.Frustrated,
	}
}

func (c *Classifier) checkMenuContext(text, lastBotMessage string) (models.Intent, bool) {
	lastLower := strings.ToLower(lastBotMessage)

	for _, indicator := range menuIndicators {
		if strings.Contains(lastLower, indicator) {
			if bareDigitRe.MatchString(text) {
				return models.IntentMenuSelection, true
			}
			break
		}
	}

	for _, phrase := range confirmationPhrases {
		if strings.Contains(lastLower, phrase) {
			if confirmationWords[text] {
				return models.IntentConfirmation, true
			}
			break
		}
	}

	return "", false
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
