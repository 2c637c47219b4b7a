package chunking_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"chatbotrag/src/core/chunking"
)

func TestSplitText(t *testing.T) {
	para1 := strings.TrimSpace(strings.Repeat("a ", 150))
	para2 := strings.TrimSpace(strings.Repeat("b ", 150))

	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
		want    []string
	}{
		{
			name:    "empty text",
			text:    "",
			size:    500,
			overlap: 50,
			want:    []string{},
		},
		{
			name:    "short text is a single chunk",
			text:    "hello world",
			size:    500,
			overlap: 50,
			want:    []string{"hello world"},
		},
		{
			name:    "text shorter than overlap",
			text:    "hi",
			size:    10,
			overlap: 5,
			want:    []string{"hi"},
		},
		{
			name:    "paragraphs that fit stay whole",
			text:    para1 + "\n\n" + para2,
			size:    500,
			overlap: 50,
			want:    []string{para1, para2},
		},
		{
			name:    "word level overlap",
			text:    "aaaa bbbb cccc dddd",
			size:    10,
			overlap: 5,
			want:    []string{"aaaa bbbb", "bbbb cccc", "cccc dddd"},
		},
		{
			name:    "oversized paragraph falls back to sentences",
			text:    "Intro line.\n\nFirst sentence here. Second sentence here. Third one.",
			size:    30,
			overlap: 0,
			want:    []string{"Intro line.", "First sentence here.", "Second sentence here.", "Third one."},
		},
		{
			name:    "sentence periods stay at chunk boundaries",
			text:    "The cat sat. The dog ran. Birds fly high.",
			size:    20,
			overlap: 0,
			want:    []string{"The cat sat.", "The dog ran.", "Birds fly high."},
		},
		{
			name:    "sentence overlap keeps periods",
			text:    "One. Two. Six. Ten.",
			size:    10,
			overlap: 5,
			want:    []string{"One. Two.", "Two. Six.", "Six. Ten."},
		},
		{
			name:    "no separator falls back to characters",
			text:    strings.Repeat("x", 25),
			size:    10,
			overlap: 2,
			want:    []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"},
		},
		{
			name:    "multibyte text is measured in characters",
			text:    strings.Repeat("日本語", 4),
			size:    5,
			overlap: 1,
			want:    []string{"日本語日本", "語日本語日", "本語"},
		},
		{
			name:    "whitespace is trimmed and empty chunks dropped",
			text:    "  alpha  \n\n   \n\n  beta  ",
			size:    10,
			overlap: 0,
			want:    []string{"alpha", "beta"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := chunking.NewSplitter(
				chunking.WithChunkSize(tt.size),
				chunking.WithChunkOverlap(tt.overlap),
			)
			if err != nil {
				t.Fatalf("NewSplitter() error = %v", err)
			}

			got, err := s.SplitText(tt.text)
			if err != nil {
				t.Fatalf("SplitText() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{name: "zero size", size: 0, overlap: 0},
		{name: "negative size", size: -10, overlap: 0},
		{name: "negative overlap", size: 100, overlap: -1},
		{name: "overlap equal to size", size: 100, overlap: 100},
		{name: "overlap larger than size", size: 100, overlap: 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chunking.NewSplitter(
				chunking.WithChunkSize(tt.size),
				chunking.WithChunkOverlap(tt.overlap),
			)
			if !errors.Is(err, chunking.ErrInvalidConfig) {
				t.Errorf("NewSplitter() error = %v, want ErrInvalidConfig", err)
			}

			_, err = chunking.Split("some text", tt.size, tt.overlap, chunking.DefaultSeparators)
			if !errors.Is(err, chunking.ErrInvalidConfig) {
				t.Errorf("Split() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestZeroValueSplitterFails(t *testing.T) {
	var s chunking.Splitter
	if _, err := s.SplitText("text"); !errors.Is(err, chunking.ErrInvalidConfig) {
		t.Errorf("SplitText() error = %v, want ErrInvalidConfig", err)
	}
}

func TestDefaults(t *testing.T) {
	s, err := chunking.NewSplitter()
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}
	if s.ChunkSize() != chunking.DefaultChunkSize || s.ChunkOverlap() != chunking.DefaultChunkOverlap {
		t.Errorf("defaults = (%d, %d), want (%d, %d)",
			s.ChunkSize(), s.ChunkOverlap(), chunking.DefaultChunkSize, chunking.DefaultChunkOverlap)
	}
}

// wordText builds multi-paragraph text made only of short words and whitespace.
func wordText(words int) string {
	vocab := []string{"lorem", "ipsum", "dolor", "sit", "amet", "tempor", "magna", "aliqua", "enim", "veniam"}

	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			switch {
			case i%20 == 0:
				b.WriteString("\n\n")
			case i%7 == 0:
				b.WriteString("\n")
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString(vocab[(i*7+3)%len(vocab)])
	}
	return b.String()
}

func TestChunkBounds(t *testing.T) {
	text := wordText(400)

	for _, size := range []int{20, 50, 120} {
		for _, overlap := range []int{0, 5, 15} {
			chunks, err := chunking.Split(text, size, overlap, chunking.DefaultSeparators)
			if err != nil {
				t.Fatalf("Split(size=%d, overlap=%d) error = %v", size, overlap, err)
			}
			if len(chunks) == 0 {
				t.Fatalf("Split(size=%d, overlap=%d) returned no chunks", size, overlap)
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > size {
					t.Errorf("size=%d overlap=%d: chunk %d has %d characters", size, overlap, i, n)
				}
				if c != strings.TrimSpace(c) || c == "" {
					t.Errorf("size=%d overlap=%d: chunk %d is not trimmed: %q", size, overlap, i, c)
				}
			}
		}
	}
}

func TestNoOverlapReconstructsWords(t *testing.T) {
	text := wordText(300)

	for _, size := range []int{20, 64, 200} {
		chunks, err := chunking.Split(text, size, 0, chunking.DefaultSeparators)
		if err != nil {
			t.Fatalf("Split(size=%d) error = %v", size, err)
		}

		got := strings.Fields(strings.Join(chunks, " "))
		want := strings.Fields(text)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("size=%d: rejoined words differ from source", size)
		}
	}
}

// sentenceText builds paragraphs of sentences made of unique fixed-width
// words, so every chunk occurs exactly once in the source.
func sentenceText(words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			switch {
			case i%23 == 0:
				b.WriteString(".\n\n")
			case i%11 == 0:
				b.WriteString(".\n")
			case i%4 == 0:
				b.WriteString(". ")
			default:
				b.WriteString(" ")
			}
		}
		fmt.Fprintf(&b, "w%04d", i)
	}
	b.WriteString(".")
	return b.String()
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// TestChunksCoverSource checks that chunks, in order and with their shared
// overlap removed, account for every non-whitespace character of the source.
func TestChunksCoverSource(t *testing.T) {
	text := sentenceText(300)
	full := stripSpace(text)

	for _, size := range []int{20, 35, 60, 120} {
		for _, overlap := range []int{0, 5, 15} {
			chunks, err := chunking.Split(text, size, overlap, chunking.DefaultSeparators)
			if err != nil {
				t.Fatalf("Split(size=%d, overlap=%d) error = %v", size, overlap, err)
			}

			covered := 0
			for i, c := range chunks {
				c = stripSpace(c)
				idx := strings.Index(full, c)
				if idx < 0 {
					t.Fatalf("size=%d overlap=%d: chunk %d %q is not in the source", size, overlap, i, c)
				}
				if idx > covered {
					t.Fatalf("size=%d overlap=%d: gap before chunk %d: %q is missing",
						size, overlap, i, full[covered:idx])
				}
				if overlap == 0 && idx != covered {
					t.Fatalf("size=%d overlap=0: chunk %d repeats %q", size, i, full[idx:covered])
				}
				if end := idx + len(c); end > covered {
					covered = end
				}
			}
			if covered != len(full) {
				t.Errorf("size=%d overlap=%d: source tail %q is missing", size, overlap, full[covered:])
			}
		}
	}
}

func TestOverlapIsBounded(t *testing.T) {
	text := wordText(200)
	const size, overlap = 40, 12

	chunks, err := chunking.Split(text, size, overlap, []string{" "})
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prev, next := chunks[i-1], chunks[i]
		shared := 0
		for n := 1; n <= len(prev) && n <= len(next); n++ {
			if strings.HasSuffix(prev, next[:n]) {
				shared = n
			}
		}
		if shared > overlap {
			t.Errorf("chunks %d and %d share %d characters, want at most %d", i-1, i, shared, overlap)
		}
	}
}

func TestCharacterFallbackCount(t *testing.T) {
	tests := []struct {
		name   string
		length int
		size   int
		want   int
	}{
		{name: "exact multiple", length: 100, size: 10, want: 10},
		{name: "remainder", length: 101, size: 10, want: 11},
		{name: "single window", length: 7, size: 10, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := chunking.Split(strings.Repeat("z", tt.length), tt.size, 3, chunking.DefaultSeparators)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(chunks) != tt.want {
				t.Errorf("Split() returned %d chunks, want %d", len(chunks), tt.want)
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	text := wordText(250)
	s, err := chunking.NewSplitter(chunking.WithChunkSize(60), chunking.WithChunkOverlap(10))
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	first, _ := s.SplitText(text)
	second, _ := s.SplitText(text)
	if !reflect.DeepEqual(first, second) {
		t.Error("SplitText() is not deterministic")
	}
}

func TestChunkDocument(t *testing.T) {
	s, err := chunking.NewSplitter(chunking.WithChunkSize(10), chunking.WithChunkOverlap(0))
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	doc := chunking.Document{
		Filename: "notes.txt",
		Content:  "aaaa bbbb cccc dddd",
		Type:     "text/plain",
	}
	got, err := s.ChunkDocument(doc)
	if err != nil {
		t.Fatalf("ChunkDocument() error = %v", err)
	}

	want := []chunking.Chunk{
		{Filename: "notes.txt", ChunkIndex: 0, Content: "aaaa bbbb", Type: "text/plain"},
		{Filename: "notes.txt", ChunkIndex: 1, Content: "cccc dddd", Type: "text/plain"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChunkDocument() = %+v, want %+v", got, want)
	}
}

func TestChunkDocumentsRestartsIndexPerDocument(t *testing.T) {
	s, err := chunking.NewSplitter(chunking.WithChunkSize(10), chunking.WithChunkOverlap(0))
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	got, err := s.ChunkDocuments([]chunking.Document{
		{Filename: "a.txt", Content: "aaaa bbbb cccc", Type: "text/plain"},
		{Filename: "b.md", Content: "short", Type: "text/markdown"},
	})
	if err != nil {
		t.Fatalf("ChunkDocuments() error = %v", err)
	}

	wantIdx := []int{0, 1, 0}
	wantFile := []string{"a.txt", "a.txt", "b.md"}
	if len(got) != len(wantIdx) {
		t.Fatalf("ChunkDocuments() returned %d chunks, want %d", len(got), len(wantIdx))
	}
	for i, c := range got {
		if c.ChunkIndex != wantIdx[i] || c.Filename != wantFile[i] {
			t.Errorf("chunk %d = (%s, %d), want (%s, %d)", i, c.Filename, c.ChunkIndex, wantFile[i], wantIdx[i])
		}
	}
}
