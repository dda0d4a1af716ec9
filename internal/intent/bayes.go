// internal/intent/bayes.go
package intent

import (
	"math"
	"strings"

	"care-chatbot/internal/nlp"
)

// stopWords are dropped before training and prediction.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "am": true,
	"i": true, "you": true, "me": true, "my": true, "your": true, "our": true,
	"to": true, "for": true, "of": true, "with": true, "about": true,
	"do": true, "does": true, "can": true, "could": true, "would": true,
	"want": true, "need": true, "please": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "this": true, "that": true,
	"have": true, "has": true, "be": true, "it": true, "its": true,
}

// bayesClassifier is a multinomial naive Bayes model trained in-process over
// the fixed labeled example set. Laplace smoothing keeps unseen tokens from
// zeroing out a class.
type bayesClassifier struct {
	classes     []string
	classPrior  map[string]float64
	tokenCounts map[string]map[string]int
	classTotals map[string]int
	vocabulary  map[string]bool
}

// newBayesClassifier trains the model from (text, label) pairs.
func newBayesClassifier(examples []trainingExample) *bayesClassifier {
	c := &bayesClassifier{
		classPrior:  make(map[string]float64),
		tokenCounts: make(map[string]map[string]int),
		classTotals: make(map[string]int),
		vocabulary:  make(map[string]bool),
	}

	classCounts := make(map[string]int)
	for _, ex := range examples {
		classCounts[ex.label]++
		if c.tokenCounts[ex.label] == nil {
			c.tokenCounts[ex.label] = make(map[string]int)
			c.classes = append(c.classes, ex.label)
		}
		for _, tok := range preprocess(ex.text) {
			c.tokenCounts[ex.label][tok]++
			c.classTotals[ex.label]++
			c.vocabulary[tok] = true
		}
	}

	total := float64(len(examples))
	for class, count := range classCounts {
		c.classPrior[class] = float64(count) / total
	}

	return c
}

// predict returns the most likely class and its normalized probability.
func (c *bayesClassifier) predict(text string) (string, float64) {
	tokens := preprocess(text)
	if len(tokens) == 0 {
		return "", 0
	}

	vocabSize := float64(len(c.vocabulary))
	logProbs := make(map[string]float64, len(c.classes))

	for _, class := range c.classes {
		logProb := math.Log(c.classPrior[class])
		denom := float64(c.classTotals[class]) + vocabSize
		for _, tok := range tokens {
			count := float64(c.tokenCounts[class][tok])
			logProb += math.Log((count + 1) / denom)
		}
		logProbs[class] = logProb
	}

	// Normalize via log-sum-exp to a proper probability.
	maxLog := math.Inf(-1)
	for _, lp := range logProbs {
		if lp > maxLog {
			maxLog = lp
		}
	}
	var sum float64
	for _, lp := range logProbs {
		sum += math.Exp(lp - maxLog)
	}

	best := ""
	bestProb := 0.0
	for _, class := range c.classes {
		prob := math.Exp(logProbs[class]-maxLog) / sum
		if prob > bestProb {
			best = class
			bestProb = prob
		}
	}

	return best, bestProb
}

// preprocess lowercases, tokenizes and strips stop words.
func preprocess(text string) []string {
	var out []string
	for _, tok := range nlp.Tokenize(strings.ToLower(text)) {
		if !stopWords[tok] {
			out = append(out, tok)
		}
	}
	return out
}
