// internal/retrieval/chunker.go
package retrieval

import (
	"regexp"
	"strings"
)

// Chunker splits documents into retrieval units with a three-tier strategy:
// structural headers first, paragraph packing second, sentence packing with
// overlap as the last resort.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. chunkSize is a character budget, overlap is
// the number of trailing characters carried into the next sentence chunk.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 400
	}
	if overlap < 0 {
		overlap = 50
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

var (
	headerSplitRe   = regexp.MustCompile(`\n#{2,3}\s+`)
	sentenceSplitRe = regexp.MustCompile(`([.!?])\s+`)
)

// Chunk splits text into bounded chunks.
func (c *Chunker) Chunk(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) < c.chunkSize {
		return []string{text}
	}

	// Strategy 1: markdown headers preserve document structure.
	headerChunks := c.chunkByHeaders(text)
	if len(headerChunks) > 0 && allWithin(headerChunks, c.chunkSize*3/2) {
		return headerChunks
	}

	// Strategy 2: paragraph-bounded packing.
	paragraphChunks := c.chunkByParagraphs(text)
	if len(paragraphChunks) > 0 && allWithin(paragraphChunks, c.chunkSize*3/2) {
		return paragraphChunks
	}

	// Strategy 3: sentence-bounded packing with overlap.
	return c.chunkBySentences(text)
}

func (c *Chunker) chunkByHeaders(text string) []string {
	// Keep the header line with its section by splitting just before it.
	indices := headerSplitRe.FindAllStringIndex(text, -1)
	var sections []string
	prev := 0
	for _, idx := range indices {
		sections = append(sections, text[prev:idx[0]])
		prev = idx[0]
	}
	sections = append(sections, text[prev:])

	var chunks []string
	for _, section := range sections {
		if s := strings.TrimSpace(section); s != "" {
			chunks = append(chunks, s)
		}
	}
	return chunks
}

func (c *Chunker) chunkByParagraphs(text string) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	current := ""

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(current)+len(para) <= c.chunkSize {
			current += para + "\n\n"
		} else {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
			}
			current = para + "\n\n"
		}
	}

	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

func (c *Chunker) chunkBySentences(text string) []string {
	sentences := splitSentences(text)
	var chunks []string
	current := ""

	for _, sentence := range sentences {
		if len(current)+len(sentence) <= c.chunkSize {
			current += sentence + " "
			continue
		}

		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}

		// Carry a fixed-size tail of the previous chunk for continuity.
		if c.overlap > 0 && len(chunks) > 0 {
			tail := current
			if len(tail) > c.overlap {
				tail = tail[len(tail)-c.overlap:]
			}
			current = tail + sentence + " "
		} else {
			current = sentence + " "
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	terms := sentenceSplitRe.FindAllStringSubmatch(text, -1)

	var sentences []string
	for i, part := range parts {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		if i < len(terms) {
			s += terms[i][1]
		}
		sentences = append(sentences, s)
	}
	return sentences
}

func allWithin(chunks []string, limit int) bool {
	for _, chunk := range chunks {
		if len(chunk) > limit {
			return false
		}
	}
	return true
}
