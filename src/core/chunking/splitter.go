package chunking

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidConfig is returned when a splitter is configured with sizes that
// cannot produce a valid chunk sequence.
var ErrInvalidConfig = errors.New("invalid chunking config")

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// DefaultSeparators orders boundaries from coarsest to finest: paragraph,
// line, sentence, word and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter recursively splits text into chunks of at most chunkSize
// characters, preferring the coarsest separator present in the text.
// A Splitter holds no mutable state and is safe for concurrent use.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// Option configures a Splitter
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk length in characters
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets how many trailing characters of a chunk may be
// repeated at the start of the next one
func WithChunkOverlap(overlap int) Option {
	return func(s *Splitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators replaces the separator priority list
func WithSeparators(separators []string) Option {
	return func(s *Splitter) {
		s.separators = append([]string(nil), separators...)
	}
}

// NewSplitter creates a Splitter with default settings overridden by opts.
func NewSplitter(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Split is a convenience wrapper for one-off splitting.
func Split(text string, chunkSize, chunkOverlap int, separators []string) ([]string, error) {
	s, err := NewSplitter(
		WithChunkSize(chunkSize),
		WithChunkOverlap(chunkOverlap),
		WithSeparators(separators),
	)
	if err != nil {
		return nil, err
	}

	return s.SplitText(text)
}

func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

func (s *Splitter) ChunkOverlap() int {
	return s.chunkOverlap
}

func (s *Splitter) validate() error {
	switch {
	case s.chunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, s.chunkSize)
	case s.chunkOverlap < 0:
		return fmt.Errorf("%w: chunk overlap must not be negative, got %d", ErrInvalidConfig, s.chunkOverlap)
	case s.chunkOverlap >= s.chunkSize:
		return fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", ErrInvalidConfig, s.chunkOverlap, s.chunkSize)
	}
	return nil
}

// SplitText splits text into whitespace-trimmed, non-empty chunks in
// document order.
func (s *Splitter) SplitText(text string) ([]string, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	chunks := make([]string, 0)
	for _, chunk := range s.split(text, s.separators) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func (s *Splitter) split(text string, separators []string) []string {
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}

	sep, finer := pickSeparator(text, separators)
	if sep == "" {
		return s.window(text)
	}

	pieces, join := splitKeep(text, sep)

	var (
		chunks []string
		fits   []string
	)
	for _, piece := range pieces {
		if runeLen(piece) <= s.chunkSize {
			fits = append(fits, piece)
			continue
		}

		// oversized piece: close what has been collected, then go finer
		if len(fits) > 0 {
			chunks = append(chunks, s.merge(fits, join)...)
			fits = nil
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(fits) > 0 {
		chunks = append(chunks, s.merge(fits, join)...)
	}

	return chunks
}

// merge packs pieces greedily into chunks joined by sep. When a chunk is
// closed, its trailing pieces totalling at most chunkOverlap characters seed
// the next chunk, as long as the incoming piece still fits next to them.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)

	var (
		chunks []string
		buf    []string
		total  int
	)
	for _, piece := range pieces {
		n := runeLen(piece)

		if len(buf) > 0 && total+sepLen+n > s.chunkSize {
			chunks = append(chunks, strings.Join(buf, sep))

			for len(buf) > 0 && (total > s.chunkOverlap || total+sepLen+n > s.chunkSize) {
				total -= runeLen(buf[0])
				if len(buf) > 1 {
					total -= sepLen
				}
				buf = buf[1:]
			}
		}

		if len(buf) > 0 {
			total += sepLen
		}
		total += n
		buf = append(buf, piece)
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, sep))
	}

	return chunks
}

// window cuts text into consecutive chunkSize-character slices. It is the
// last resort for text without any usable separator.
func (s *Splitter) window(text string) []string {
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+s.chunkSize-1)/s.chunkSize)
	for start := 0; start < len(runes); start += s.chunkSize {
		end := min(start+s.chunkSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// splitKeep splits text on sep. The non-whitespace head of sep (the "." of
// ". ") stays on the piece it ends, so no content is lost at chunk
// boundaries. The returned join is the whitespace tail of sep used to glue
// pieces back together.
func splitKeep(text, sep string) ([]string, string) {
	keep := strings.TrimRightFunc(sep, unicode.IsSpace)
	join := sep[len(keep):]

	pieces := strings.Split(text, sep)
	if keep != "" {
		for i := 0; i < len(pieces)-1; i++ {
			pieces[i] += keep
		}
	}
	return pieces, join
}

// pickSeparator returns the first separator that is empty or occurs in text,
// together with the finer separators after it.
func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
