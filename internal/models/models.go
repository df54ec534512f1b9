package models

import "fmt"

// SourcePage is one raw scraped page as produced by the noi-search scraper.
type SourcePage struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

// VerseRecord is one parsed structural unit of the book: a numbered verse
// or the preface. Persisted one record per line in the clean JSONL log.
type VerseRecord struct {
	ID            string `json:"id"`
	Book          string `json:"book"`
	VerseNumber   string `json:"verse_number"`
	VerseSanskrit string `json:"verse_sanskrit"`
	Translation   string `json:"translation"`
	Purport       string `json:"purport"`
	SectionTitle  string `json:"section_title"`
	SourceURI     string `json:"source_uri"`
}

// Validate checks the fields every downstream stage depends on.
func (r VerseRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("verse record has empty id")
	}
	if r.Book == "" {
		return fmt.Errorf("verse record %s has empty book", r.ID)
	}
	if r.VerseNumber == "" {
		return fmt.Errorf("verse record %s has empty verse_number", r.ID)
	}
	return nil
}

// Chunk is one retrieval-sized slice of a verse record.
type Chunk struct {
	ChunkID     string `json:"chunk_id"`
	ParentID    string `json:"parent_id"`
	Book        string `json:"book"`
	VerseNumber string `json:"verse_number"`
	Section     string `json:"section"`
	Text        string `json:"text"`
	SourceURI   string `json:"source_uri"`
}

// Validate checks the fields the index and retriever depend on.
func (c Chunk) Validate() error {
	if c.ChunkID == "" {
		return fmt.Errorf("chunk has empty chunk_id")
	}
	if c.ParentID == "" {
		return fmt.Errorf("chunk %s has empty parent_id", c.ChunkID)
	}
	if c.Text == "" {
		return fmt.Errorf("chunk %s has empty text", c.ChunkID)
	}
	return nil
}

// RetrievalHit is one ranked result from a vector index query.
// Distance is in cosine-distance space: lower means more similar.
type RetrievalHit struct {
	Text        string  `json:"text"`
	ChunkID     string  `json:"chunk_id"`
	VerseNumber string  `json:"verse_number"`
	Section     string  `json:"section"`
	SourceURI   string  `json:"source_uri"`
	Distance    float32 `json:"distance"`
}

// Relevance converts the distance into a displayable 0..1 score.
func (h RetrievalHit) Relevance() float32 {
	rel := 1 - h.Distance
	if rel < 0 {
		return 0
	}
	if rel > 1 {
		return 1
	}
	return rel
}

// Job is one unit of background note-generation work, persisted as a
// single JSON file under the jobs directory.
type Job struct {
	JobID       string `json:"job_id"`
	Topic       string `json:"topic"`
	Audience    string `json:"audience"`
	Duration    int    `json:"duration"`
	Style       string `json:"style"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at"`
	ResultPath  string `json:"result_path"`
	Error       string `json:"error"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusError
}
