package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/helper"
	"vedabase-notes/internal/models"
)

// The preface page has no verse structure; keep the leading slice of the
// raw text as its purport.
const prefacePurportMax = 3000

var (
	// Section markers appear at most once each, in order. First
	// greedy-minimal match wins; behavior with repeated markers is
	// deliberately left as-is.
	translationRe = regexp.MustCompile(`(?is)TRANSLATION\s*(.*?)\s*PURPORT`)
	purportRe     = regexp.MustCompile(`(?is)PURPORT\s*(.*)`)

	// Sanskrit diacritics that mark a transliteration line. Known to
	// misfire on passages with stray accented characters.
	diacriticRe = regexp.MustCompile(`[āīūṛṝḷṭḍṇśṣñṁḥĀĪŪ]`)
)

// ParsePages converts raw scraped pages into structured verse records.
// Pages with empty text are skipped, not treated as errors.
func ParsePages(pages []models.SourcePage, book string) []models.VerseRecord {
	records := make([]models.VerseRecord, 0, len(pages))
	for _, page := range pages {
		record, ok := parsePage(page, book)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records
}

// parsePage parses one raw page. The raw text looks roughly like:
//
//	"... Text 1 vāco vegaṁ ... TRANSLATION A sober person ... PURPORT In the ..."
func parsePage(page models.SourcePage, book string) (models.VerseRecord, bool) {
	if strings.TrimSpace(page.Text) == "" {
		return models.VerseRecord{}, false
	}

	// "preface" is a sentinel id; every other page id is the verse ordinal.
	verseNumber := page.ID

	translation := extractSection(translationRe, page.Text)
	purport := extractSection(purportRe, page.Text)
	sanskrit := extractTransliteration(page.Text)

	if verseNumber == models.VersePreface {
		// No verse/translation structure on the preface page.
		translation = ""
		sanskrit = ""
		purport = truncateRunes(strings.TrimSpace(page.Text), prefacePurportMax)
	}

	return models.VerseRecord{
		ID:            fmt.Sprintf("%s-%s", book, verseNumber),
		Book:          book,
		VerseNumber:   verseNumber,
		VerseSanskrit: sanskrit,
		Translation:   strings.TrimSpace(translation),
		Purport:       strings.TrimSpace(purport),
		SectionTitle:  page.Title,
		SourceURI:     page.URL,
	}, true
}

func extractSection(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractTransliteration scans line by line for the Roman transliteration
// (e.g. "vāco vegaṁ manasaḥ krodha-vegaṁ"). First match wins; no match
// yields the empty string.
func extractTransliteration(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		if diacriticRe.MatchString(line) &&
			len([]rune(line)) > 20 &&
			len([]rune(line)) < 500 &&
			!strings.Contains(upper, "TRANSLATION") &&
			!strings.Contains(upper, "PURPORT") {
			return line
		}
	}
	return ""
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// ParseRawFile reads the raw pages file and parses every page without
// writing anything.
func ParseRawFile(rawFile, book string) ([]models.VerseRecord, error) {
	data, err := os.ReadFile(rawFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw pages file %s (run the ingest stage first): %w", rawFile, err)
	}

	var pages []models.SourcePage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to decode raw pages file %s: %w", rawFile, err)
	}

	log.Info().Int("pages", len(pages)).Msg("Parsing raw pages")
	return ParsePages(pages, book), nil
}

// ParseFile parses the raw pages file and writes the clean JSONL record
// log. Returns the number of records written.
func ParseFile(rawFile, outFile, book string) (int, error) {
	records, err := ParseRawFile(rawFile, book)
	if err != nil {
		return 0, err
	}
	if err := WriteRecords(outFile, records); err != nil {
		return 0, err
	}

	log.Info().Int("records", len(records)).Str("out", outFile).Msg("Parsed clean records")
	return len(records), nil
}

// WriteRecords writes the clean record log, one JSON object per line in
// document order. Diacritics are preserved as-is (encoding/json does not
// escape multibyte runes).
func WriteRecords(path string, records []models.VerseRecord) error {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create records file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to encode record %s: %w", record.ID, err)
		}
	}
	return w.Flush()
}

// LoadRecords reads the clean JSONL log and validates each record, so
// malformed upstream data fails here with a named record instead of
// deep inside a later stage.
func LoadRecords(path string) ([]models.VerseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open clean records file %s (run the parse stage first): %w", path, err)
	}
	defer f.Close()

	var records []models.VerseRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record models.VerseRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("malformed record in %s: %w", path, err)
		}
		if err := record.Validate(); err != nil {
			return nil, fmt.Errorf("invalid record in %s: %w", path, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}
	return records, nil
}
