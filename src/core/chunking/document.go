package chunking

// Document is the extracted text of one uploaded file.
type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Type     string `json:"type"`
}

// Chunk is one retrieval unit cut from a Document. ChunkIndex is the 0-based
// position within that document's chunk sequence.
type Chunk struct {
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	Type       string `json:"type"`
}

// ChunkDocument splits a single document into ordered chunk records.
func (s *Splitter) ChunkDocument(doc Document) ([]Chunk, error) {
	texts, err := s.SplitText(doc.Content)
	if err != nil {
		return nil, err
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			Filename:   doc.Filename,
			ChunkIndex: i,
			Content:    text,
			Type:       doc.Type,
		}
	}

	return chunks, nil
}

// ChunkDocuments chunks every document and concatenates the results,
// keeping document order.
func (s *Splitter) ChunkDocuments(docs []Document) ([]Chunk, error) {
	all := make([]Chunk, 0, len(docs))
	for _, doc := range docs {
		chunks, err := s.ChunkDocument(doc)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}
	return all, nil
}
