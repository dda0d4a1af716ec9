// internal/intent/classifier_test.go
package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
	"care-chatbot/internal/nlp"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(nlp.NewAnalyzer(), logger.NewTestLogger(t))
}

func TestClassify_MenuContext(t *testing.T) {
	c := newTestClassifier(t)

	intent, confidence := c.Classify("2", Context{
		LastBotMessage: "Please reply with the number of your choice:\n1. Consultation\n2. Technical Support",
	})

	assert.Equal(t, models.IntentMenuSelection, intent)
	assert.Equal(t, 0.95, confidence)
}

func TestClassify_ConfirmationContext(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		text   string
		intent models.Intent
	}{
		{"yes", models.IntentConfirmation},
		{"no", models.IntentConfirmation},
		{"yep", models.IntentConfirmation},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent, confidence := c.Classify(tt.text, Context{
				LastBotMessage: "Is this correct? Reply yes or no.",
			})
			assert.Equal(t, tt.intent, intent)
			assert.Equal(t, 0.95, confidence)
		})
	}
}

func TestClassify_BareDigitWithoutContext(t *testing.T) {
	c := newTestClassifier(t)

	intent, confidence := c.Classify("3", Context{})
	assert.Equal(t, models.IntentMenuSelection, intent)
	assert.Equal(t, 0.85, confidence)

	// Digits outside 1-5 fall through to the other layers.
	intent, _ = c.Classify("7", Context{})
	assert.NotEqual(t, models.IntentMenuSelection, intent)
}

func TestClassify_RuleTable(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name   string
		text   string
		intent models.Intent
	}{
		{"appointment phrasing maps to action", "I want to book an appointment", models.IntentAction},
		{"schedule demo", "can we schedule a demo", models.IntentAction},
		{"support phrasing maps to knowledge base", "I need technical support", models.IntentKnowledgeBase},
		{"broken product", "my screen is not working", models.IntentKnowledgeBase},
		{"pricing maps to knowledge base", "how much does the enterprise plan cost", models.IntentKnowledgeBase},
		{"escalation phrasing", "let me talk to a human", models.IntentEscalation},
		{"manager request", "I want to speak to a manager", models.IntentEscalation},
		{"greeting", "good morning", models.IntentGreeting},
		{"goodbye", "thank you", models.IntentGoodbye},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, confidence := c.Classify(tt.text, Context{})
			assert.Equal(t, tt.intent, intent)
			assert.Equal(t, 0.90, confidence)
		})
	}
}

func TestClassify_StatisticalFallbackSuppressed(t *testing.T) {
	c := newTestClassifier(t)

	// Gibberish with no rule match and no confident statistical class must
	// land on the safe default, never on a low-confidence specific label.
	intent, confidence := c.Classify("purple elephant quantum zebra", Context{})
	assert.Equal(t, models.IntentKnowledgeBase, intent)
	assert.GreaterOrEqual(t, confidence, 0.5)
}

func TestClassify_DefaultsToKnowledgeBase(t *testing.T) {
	c := newTestClassifier(t)

	intent, confidence := c.Classify("?!", Context{})
	assert.Equal(t, models.IntentKnowledgeBase, intent)
	assert.Equal(t, 0.5, confidence)
}

func TestGetDetails(t *testing.T) {
	c := newTestClassifier(t)

	result := c.GetDetails("book a consultation tomorrow at 2pm, I'm Jane Doe, jane@x.com", Context{})

	assert.Equal(t, models.IntentAction, result.Intent)
	assert.Equal(t, 0.90, result.Confidence)
	assert.Contains(t, result.Entities, nlp.EntityEmail)
	assert.Contains(t, result.Entities, nlp.EntityDate)
	assert.Contains(t, result.Entities, nlp.EntityTime)
	assert.Contains(t, result.Entities, nlp.EntityServiceType)
	assert.False(t, result.Frustrated)
}

func TestClassify_MenuContextRequiresDigit(t *testing.T) {
	c := newTestClassifier(t)

	// Menu context alone is not enough; the reply must be a digit 1-5.
	intent, _ := c.Classify("tell me about pricing", Context{
		LastBotMessage: "Please reply with the number of your choice",
	})
	assert.Equal(t, models.IntentKnowledgeBase, intent)
}
