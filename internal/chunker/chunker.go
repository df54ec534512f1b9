package chunker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/helper"
	"vedabase-notes/internal/models"
	"vedabase-notes/internal/parser"
)

const (
	// Purports longer than this split into two overlapping halves so each
	// chunk fits an embedding-friendly window.
	purportSplitChars = 1200
	overlapChars      = 200

	// Preface paragraphs at or under this length are dropped.
	minParagraphChars = 50

	// Near-empty fragments are never worth indexing.
	minChunkChars = 11
)

// ChunkRecord splits one verse record into retrieval chunks.
//
// Non-preface records yield up to three chunks: one translation chunk
// (transliteration + translation) and one or two purport chunks. The
// preface yields one chunk per qualifying paragraph. Chunk ids are
// deterministic: the ordinal suffix appears only when a section produces
// more than one chunk, so repeated runs emit identical ids.
func ChunkRecord(record models.VerseRecord) []models.Chunk {
	var chunks []models.Chunk

	makeChunk := func(section, text string, part int) models.Chunk {
		suffix := ""
		if part > 0 {
			suffix = fmt.Sprintf("-%d", part)
		}
		return models.Chunk{
			ChunkID:     fmt.Sprintf("%s-%s%s", record.ID, section, suffix),
			ParentID:    record.ID,
			Book:        record.Book,
			VerseNumber: record.VerseNumber,
			Section:     section,
			Text:        strings.TrimSpace(text),
			SourceURI:   record.SourceURI,
		}
	}

	// Preface: one chunk per paragraph, numbered by position.
	if record.VerseNumber == models.VersePreface {
		part := 0
		for _, para := range strings.Split(record.Purport, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			part++
			if len([]rune(para)) > minParagraphChars {
				chunks = append(chunks, makeChunk(models.SectionPreface, para, part))
			}
		}
		return dropShort(chunks)
	}

	// Translation chunk: transliteration plus translation, omitted when
	// both are empty.
	var b strings.Builder
	if record.VerseSanskrit != "" {
		fmt.Fprintf(&b, "Transliteration: %s\n\n", record.VerseSanskrit)
	}
	if record.Translation != "" {
		fmt.Fprintf(&b, "Translation: %s", record.Translation)
	}
	if strings.TrimSpace(b.String()) != "" {
		chunks = append(chunks, makeChunk(models.SectionTranslation, b.String(), 0))
	}

	purport := strings.TrimSpace(record.Purport)
	if purport == "" {
		return dropShort(chunks)
	}

	runes := []rune(purport)
	if len(runes) <= purportSplitChars {
		chunks = append(chunks, makeChunk(models.SectionPurport, purport, 0))
		return dropShort(chunks)
	}

	// Split at the midpoint with a shared overlap window so retrieval
	// keeps cross-boundary context.
	mid := len(runes) / 2
	part1 := string(runes[:mid+overlapChars])
	part2 := string(runes[mid-overlapChars:])
	chunks = append(chunks, makeChunk(models.SectionPurport, part1, 1))
	chunks = append(chunks, makeChunk(models.SectionPurport, part2, 2))
	return dropShort(chunks)
}

func dropShort(chunks []models.Chunk) []models.Chunk {
	kept := chunks[:0]
	for _, c := range chunks {
		if len([]rune(c.Text)) >= minChunkChars {
			kept = append(kept, c)
		}
	}
	return kept
}

// ChunkAll chunks every record in document order.
func ChunkAll(records []models.VerseRecord) []models.Chunk {
	var all []models.Chunk
	for _, record := range records {
		all = append(all, ChunkRecord(record)...)
	}
	return all
}

// ChunkFile reads the clean record log and writes the chunk log.
// Returns the number of chunks written.
func ChunkFile(cleanFile, outFile string) (int, error) {
	records, err := parser.LoadRecords(cleanFile)
	if err != nil {
		return 0, err
	}

	log.Info().Int("records", len(records)).Msg("Chunking records")

	chunks := ChunkAll(records)
	if err := WriteChunks(outFile, chunks); err != nil {
		return 0, err
	}

	log.Info().Int("chunks", len(chunks)).Str("out", outFile).Msg("Created chunks")
	return len(chunks), nil
}

// WriteChunks overwrites the chunk log wholesale. The chunk set is
// derived output: re-chunking always replaces it, never merges.
func WriteChunks(path string, chunks []models.Chunk) error {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunks file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
			return fmt.Errorf("failed to encode chunk %s: %w", chunk.ChunkID, err)
		}
	}
	return w.Flush()
}

// LoadChunks reads the chunk log, validating each chunk.
func LoadChunks(path string) ([]models.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunks file %s (run the chunk stage first): %w", path, err)
	}
	defer f.Close()

	var chunks []models.Chunk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk models.Chunk
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, fmt.Errorf("malformed chunk in %s: %w", path, err)
		}
		if err := chunk.Validate(); err != nil {
			return nil, fmt.Errorf("invalid chunk in %s: %w", path, err)
		}
		chunks = append(chunks, chunk)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks file: %w", err)
	}
	return chunks, nil
}
