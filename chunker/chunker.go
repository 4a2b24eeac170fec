package chunker

import (
	"log/slog"
	"regexp"
	"strings"
)

// Method selects the chunking strategy.
type Method string

const (
	// MethodRecursive splits on the most semantic separator present.
	MethodRecursive Method = "recursive"
	// MethodSentence splits on sentence-ending punctuation.
	MethodSentence Method = "sentence"
	// MethodParagraph splits on blank lines.
	MethodParagraph Method = "paragraph"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Separators in order of preference, most semantic first.
var separators = []string{
	"\n\n", // paragraph breaks
	"\n",   // line breaks
	". ",   // sentence endings
	"! ",   // exclamation sentences
	"? ",   // question sentences
	"; ",   // semicolon breaks
	", ",   // comma breaks
	" ",    // word breaks
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
	newlinePadding  = regexp.MustCompile(` *\n *`)
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	sentenceBounds  = regexp.MustCompile(`([.!?])\s+`)
)

// Chunker splits text into bounded segments. It is a pure function of the
// input plus the configured size and overlap; safe for concurrent use.
type Chunker struct {
	size    int
	overlap int
	logger  *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Chunker with the given chunk size and overlap in characters.
// Non-positive sizes fall back to DefaultChunkSize; negative overlap becomes
// zero; overlap is capped below the chunk size.
func New(size, overlap int, opts ...Option) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 4
	}

	c := &Chunker{
		size:    size,
		overlap: overlap,
		logger:  slog.Default().With("component", "chunker"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Size returns the configured maximum chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text using the given method. Unknown methods fall back to
// MethodRecursive. Empty or whitespace-only input yields no chunks.
func (c *Chunker) Chunk(text string, method Method) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	cleaned := c.cleanText(text)

	switch method {
	case MethodSentence:
		return c.chunkBySentences(cleaned)
	case MethodParagraph:
		return c.chunkByParagraphs(cleaned)
	default:
		return c.chunkRecursively(cleaned)
	}
}

// cleanText collapses runs of horizontal whitespace to single spaces,
// reduces 3+ consecutive newlines to exactly two so single paragraph breaks
// survive, and trims the ends.
func (c *Chunker) cleanText(text string) string {
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = newlinePadding.ReplaceAllString(text, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// chunkRecursively splits text on the first separator, in priority order,
// that actually occurs in it. Text that already fits is returned whole.
func (c *Chunker) chunkRecursively(text string) []string {
	if len(text) <= c.size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	for _, sep := range separators {
		if strings.Contains(text, sep) {
			chunks = c.splitBySeparator(text, sep)
			if len(chunks) > 0 {
				break
			}
		}
	}

	// No separator occurs at all; fall back to fixed-width slicing.
	if len(chunks) == 0 {
		chunks = c.chunkByCharacters(text)
	}

	out := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

// splitBySeparator greedily accumulates separator-delimited parts into a
// buffer, flushing whenever the next part would exceed the chunk size.
// A part that alone exceeds the size is chunked recursively with the
// lower-priority separators.
func (c *Chunker) splitBySeparator(text, sep string) []string {
	parts := strings.Split(text, sep)

	var chunks []string
	current := ""

	for _, part := range parts {
		test := part
		if current != "" {
			test = current + sep + part
		}

		if len(test) <= c.size {
			current = test
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
		}

		if len(part) > c.size {
			chunks = append(chunks, c.chunkRecursively(part)...)
			current = ""
		} else {
			current = part
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	if len(chunks) > 1 {
		chunks = c.applyOverlap(chunks)
	}
	return chunks
}

// chunkBySentences splits on sentence-ending punctuation followed by
// whitespace, then accumulates sentences up to the chunk size.
func (c *Chunker) chunkBySentences(text string) []string {
	// Mark sentence boundaries, then split; regexp lookbehind is not
	// available so the terminator is kept with its sentence.
	marked := sentenceBounds.ReplaceAllString(text, "$1\x00")
	sentences := strings.Split(marked, "\x00")

	var chunks []string
	current := ""

	for _, sentence := range sentences {
		test := sentence
		if current != "" {
			test = current + " " + sentence
		}

		if len(test) <= c.size {
			current = test
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
		}

		if len(sentence) > c.size {
			chunks = append(chunks, c.chunkRecursively(sentence)...)
			current = ""
		} else {
			current = sentence
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	if len(chunks) > 1 {
		return c.applyOverlap(chunks)
	}
	return chunks
}

// chunkByParagraphs splits on blank lines; oversized paragraphs fall back to
// recursive chunking.
func (c *Chunker) chunkByParagraphs(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if len(paragraph) <= c.size {
			chunks = append(chunks, paragraph)
		} else {
			chunks = append(chunks, c.chunkRecursively(paragraph)...)
		}
	}

	if len(chunks) > 1 {
		return c.applyOverlap(chunks)
	}
	return chunks
}

// chunkByCharacters slices fixed-width chunks, backing off to the nearest
// preceding space so words are not split. A single word longer than the
// chunk size is hard-cut at the limit.
func (c *Chunker) chunkByCharacters(text string) []string {
	var chunks []string
	start := 0

	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}

		cut := end
		for cut > start && text[cut] != ' ' {
			cut--
		}
		if cut == start {
			cut = end
		}

		chunks = append(chunks, text[start:cut])

		next := cut - c.overlap
		if next <= start {
			// Overlap would stall the scan; advance without it.
			next = cut
		}
		start = next
	}

	return chunks
}

// applyOverlap prepends the trailing overlap of chunk i-1 to chunk i.
// The first chunk is never modified, and the overlap source is always the
// pre-overlap text so it never compounds.
func (c *Chunker) applyOverlap(chunks []string) []string {
	if len(chunks) <= 1 || c.overlap <= 0 {
		return chunks
	}

	out := make([]string, len(chunks))
	out[0] = chunks[0]

	for i := 1; i < len(chunks); i++ {
		overlap := c.overlapText(chunks[i-1])
		if overlap != "" {
			out[i] = overlap + " " + chunks[i]
		} else {
			out[i] = chunks[i]
		}
	}
	return out
}

// overlapText extracts up to overlap trailing characters from text, extended
// forward to the next word boundary so no word is truncated.
func (c *Chunker) overlapText(text string) string {
	if len(text) <= c.overlap {
		return text
	}

	pos := len(text) - c.overlap
	for pos < len(text) && text[pos] != ' ' {
		pos++
	}
	if pos < len(text) {
		pos++
	}

	return strings.TrimSpace(text[pos:])
}

// Info describes how a text would be chunked with the current settings.
type Info struct {
	OriginalLength   int
	ChunkCount       int
	AverageChunkSize float64
	MinChunkSize     int
	MaxChunkSize     int
	ChunkSizeLimit   int
	OverlapSize      int
}

// Info reports chunking statistics for text using the recursive method.
func (c *Chunker) Info(text string) Info {
	chunks := c.Chunk(text, MethodRecursive)

	info := Info{
		OriginalLength: len(text),
		ChunkCount:     len(chunks),
		ChunkSizeLimit: c.size,
		OverlapSize:    c.overlap,
	}

	if len(chunks) == 0 {
		return info
	}

	total := 0
	info.MinChunkSize = len(chunks[0])
	for _, chunk := range chunks {
		total += len(chunk)
		if len(chunk) < info.MinChunkSize {
			info.MinChunkSize = len(chunk)
		}
		if len(chunk) > info.MaxChunkSize {
			info.MaxChunkSize = len(chunk)
		}
	}
	info.AverageChunkSize = float64(total) / float64(len(chunks))

	return info
}
