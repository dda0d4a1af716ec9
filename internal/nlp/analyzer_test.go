// internal/nlp/analyzer_test.go
package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEntities_Email(t *testing.T) {
	a := NewAnalyzer()

	entities := a.ExtractEntities("reach me at jane.doe@example.com thanks")
	require.Contains(t, entities, EntityEmail)
	assert.Equal(t, []string{"jane.doe@example.com"}, entities[EntityEmail])
}

func TestExtractEntities_Phone(t *testing.T) {
	a := NewAnalyzer()

	entities := a.ExtractEntities("call 555-123-4567 tomorrow")
	require.Contains(t, entities, EntityPhone)
	assert.Contains(t, entities[EntityPhone][0], "555")
}

func TestExtractEntities_DateAndTime(t *testing.T) {
	a := NewAnalyzer()

	entities := a.ExtractEntities("book me for next Tuesday at 3:30 PM")
	assert.Contains(t, entities, EntityDate)
	assert.Contains(t, entities, EntityTime)
}

func TestExtractEntities_ServiceTypes(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		text    string
		service string
	}{
		{"I need a consultation", "consultation"},
		{"help me troubleshoot this", "support"},
		{"set up my account", "installation"},
		{"schedule a maintenance checkup", "maintenance"},
		{"I want a training workshop", "training"},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			entities := a.ExtractEntities(tt.text)
			require.Contains(t, entities, EntityServiceType)
			assert.Contains(t, entities[EntityServiceType], tt.service)
		})
	}
}

func TestExtractEntities_OmitsEmptyCategories(t *testing.T) {
	a := NewAnalyzer()

	entities := a.ExtractEntities("ok")
	assert.NotContains(t, entities, EntityEmail)
	assert.NotContains(t, entities, EntityDate)
	assert.NotContains(t, entities, EntityName)
}

func TestExtractNames(t *testing.T) {
	a := NewAnalyzer()

	names := a.ExtractNames("my name is Jane Doe")
	assert.Contains(t, names, "Jane Doe")
}

func TestExtractNames_RejectsTemporalWords(t *testing.T) {
	a := NewAnalyzer()

	// Weekday and month words are deny-listed before accepting capitalized text.
	assert.Empty(t, a.ExtractNames("See you Monday Morning"))
	assert.Empty(t, a.ExtractNames("December 15 works"))
	assert.Empty(t, a.ExtractNames("Next Friday please"))
}

func TestSentiment_Polarity(t *testing.T) {
	a := NewAnalyzer()

	pos := a.Sentiment("this is great, thank you, very helpful")
	neg := a.Sentiment("this is terrible and useless, worst service")
	neutral := a.Sentiment("what time do you open")

	assert.Greater(t, pos.Compound, 0.0)
	assert.Less(t, neg.Compound, 0.0)
	assert.Equal(t, 0.0, neutral.Compound)
}

func TestSentiment_Negation(t *testing.T) {
	a := NewAnalyzer()

	s := a.Sentiment("this is not good")
	assert.Less(t, s.Compound, 0.0)
}

func TestIsFrustrated(t *testing.T) {
	a := NewAnalyzer()

	tests := []struct {
		name       string
		text       string
		history    []string
		frustrated bool
	}{
		{
			name:       "frustration keyword",
			text:       "I am so frustrated with this",
			frustrated: true,
		},
		{
			name:       "multiple exclamations",
			text:       "fix it!! now!!",
			frustrated: true,
		},
		{
			name:       "excessive caps",
			text:       "WHY IS THIS NOT WORKING",
			frustrated: true,
		},
		{
			name:       "short abrupt trouble message",
			text:       "still broken",
			frustrated: true,
		},
		{
			name:       "calm question",
			text:       "what are your opening hours",
			frustrated: false,
		},
		{
			name:       "repeated issues in history",
			text:       "it happened once more",
			history:    []string{"I have a problem", "same issue again", "error keeps coming"},
			frustrated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.frustrated, a.IsFrustrated(tt.text, tt.history))
		})
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	a := NewAnalyzer()
	history := []string{"problem", "issue", "error"}

	first := a.Analyze("this keeps failing, book a consultation tomorrow at 2pm", history)
	second := a.Analyze("this keeps failing, book a consultation tomorrow at 2pm", history)

	assert.Equal(t, first, second)
}

func TestFrustrationScore_Bounded(t *testing.T) {
	a := NewAnalyzer()

	score := a.FrustrationScore("TERRIBLE!! USELESS!! BROKEN!! WORST PROBLEM EVER!!", []string{"problem", "issue", "error"})
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.5)
}

func TestWordFrequencies(t *testing.T) {
	freq := WordFrequencies("the cat and the dog")
	assert.Equal(t, 2, freq["the"])
	assert.Equal(t, 1, freq["cat"])
}
