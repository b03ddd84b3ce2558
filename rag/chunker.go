package rag

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultChunkSize is the default number of characters per chunk.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the default number of characters shared by consecutive chunks.
	DefaultChunkOverlap = 200
)

// Splitter splits text into an ordered sequence of chunks. Sizes are in
// characters (runes).
type Splitter interface {
	Split(text string, chunkSize, chunkOverlap int) ([]string, error)
}

// SplitterFunc adapts a plain function to the Splitter interface.
type SplitterFunc func(text string, chunkSize, chunkOverlap int) ([]string, error)

func (f SplitterFunc) Split(text string, chunkSize, chunkOverlap int) ([]string, error) {
	return f(text, chunkSize, chunkOverlap)
}

// FixedSizeSplitter cuts text into windows of exactly chunkSize characters
// that overlap by chunkOverlap characters.
type FixedSizeSplitter struct{}

func (FixedSizeSplitter) Split(text string, chunkSize, chunkOverlap int) ([]string, error) {
	return SplitFixedSize(text, chunkSize, chunkOverlap)
}

func validateChunkParams(chunkSize, chunkOverlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidArgument, chunkSize)
	}
	if chunkOverlap < 0 {
		return fmt.Errorf("%w: chunk overlap cannot be negative, got %d", ErrInvalidArgument, chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return fmt.Errorf("%w: chunk overlap (%d) must be less than chunk size (%d)", ErrInvalidArgument, chunkOverlap, chunkSize)
	}
	return nil
}

// SplitFixedSize splits text into chunks of chunkSize characters, each
// starting chunkSize-chunkOverlap characters after the previous one. Every
// chunk but the last has exactly chunkSize characters; the last one ends at
// the end of text and is never empty. Empty text yields no chunks.
func SplitFixedSize(text string, chunkSize, chunkOverlap int) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if err := validateChunkParams(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}

	runes := []rune(text)
	n := len(runes)
	stride := chunkSize - chunkOverlap

	chunks := make([]string, 0, n/stride+1)
	for start := 0; start < n; start += stride {
		end := min(start+chunkSize, n)
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks, nil
}

// SentenceSplitter groups whole sentences into chunks of at most chunkSize
// characters. Trailing sentences of a chunk totalling no more than
// chunkOverlap characters are repeated at the start of the next one. A single
// sentence longer than chunkSize is cut with SplitFixedSize.
type SentenceSplitter struct{}

func (SentenceSplitter) Split(text string, chunkSize, chunkOverlap int) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	if err := validateChunkParams(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}

	var (
		chunks []string
		buffer []string
		size   int
	)

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(buffer, " "))

		// keep the longest suffix of sentences that fits in the overlap
		keep, kept := len(buffer), 0
		for keep > 0 {
			l := utf8.RuneCountInString(buffer[keep-1])
			if kept > 0 {
				l++
			}
			if kept+l > chunkOverlap {
				break
			}
			kept += l
			keep--
		}
		if keep == 0 {
			// the whole chunk would be carried over; drop it to guarantee progress
			buffer, size = nil, 0
			return
		}
		buffer = append([]string(nil), buffer[keep:]...)
		size = kept
	}

	for _, s := range splitSentences(text) {
		l := utf8.RuneCountInString(s)
		if l > chunkSize {
			flush()
			buffer, size = nil, 0
			parts, _ := SplitFixedSize(s, chunkSize, chunkOverlap)
			chunks = append(chunks, parts...)
			continue
		}
		sep := 0
		if len(buffer) > 0 {
			sep = 1
		}
		if size+sep+l > chunkSize {
			flush()
			sep = 0
			if len(buffer) > 0 {
				sep = 1
			}
			if size+sep+l > chunkSize {
				buffer, size, sep = nil, 0, 0
			}
		}
		buffer = append(buffer, s)
		size += sep + l
	}
	if len(buffer) > 0 {
		chunks = append(chunks, strings.Join(buffer, " "))
	}
	return chunks, nil
}

// splitSentences cuts text after '.', '?' and '!' and trims each sentence.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	for i, r := range text {
		if r == '.' || r == '?' || r == '!' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// Structurizer splits text into chunks using a configured size, overlap and
// splitting strategy.
type Structurizer struct {
	chunkSize    int
	chunkOverlap int
	splitter     Splitter
}

// Option configures a Structurizer.
type Option func(*Structurizer)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Structurizer) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets the overlap between chunks in characters.
func WithChunkOverlap(overlap int) Option {
	return func(s *Structurizer) {
		s.chunkOverlap = overlap
	}
}

// WithSplitter replaces the fixed-size splitting strategy. A nil splitter is ignored.
func WithSplitter(sp Splitter) Option {
	return func(s *Structurizer) {
		if sp != nil {
			s.splitter = sp
		}
	}
}

// NewStructurizer creates a Structurizer. Sizes are not corrected here;
// invalid values are reported by Structure.
func NewStructurizer(opts ...Option) *Structurizer {
	s := &Structurizer{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		splitter:     FixedSizeSplitter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Structurizer) ChunkSize() int    { return s.chunkSize }
func (s *Structurizer) ChunkOverlap() int { return s.chunkOverlap }

// Structure splits text into chunks.
func (s *Structurizer) Structure(text string) ([]string, error) {
	if text == "" {
		return nil, nil
	}
	return s.splitter.Split(text, s.chunkSize, s.chunkOverlap)
}

// Chunks splits text and labels each piece with source.
func (s *Structurizer) Chunks(text, source string) ([]Chunk, error) {
	parts, err := s.Structure(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, Chunk{
			ID:      source + "-" + strconv.Itoa(i+1),
			Index:   i,
			Content: p,
			Source:  source,
		})
	}
	return chunks, nil
}
