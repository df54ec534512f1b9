package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"vedabase-notes/internal/helper"
)

const maxSlugChars = 50

var (
	// \w in Go regexps is ASCII-only; spell out the Unicode classes so
	// diacritics in topic titles survive slugification.
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	whitespaceRe = regexp.MustCompile(`[\s-]+`)
)

// ExportNotes saves notes to a dated markdown file and returns its path.
// Filename pattern: notes_<topic-slug>_<YYYY-MM-DD>.md
func ExportNotes(notes, topic, outDir string) (string, error) {
	if err := helper.CreateFolder(outDir); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("notes_%s_%s.md", Slugify(topic), time.Now().Format("2006-01-02"))
	outPath := filepath.Join(outDir, filename)

	if err := os.WriteFile(outPath, []byte(notes), 0o644); err != nil {
		return "", fmt.Errorf("failed to write notes file: %w", err)
	}
	return outPath, nil
}

// Slugify converts a topic into a safe filename fragment:
// "Controlling the Senses!" -> "controlling_the_senses"
func Slugify(topic string) string {
	slug := nonWordRe.ReplaceAllString(strings.ToLower(topic), "")
	slug = whitespaceRe.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if r := []rune(slug); len(r) > maxSlugChars {
		slug = string(r[:maxSlugChars])
	}
	return slug
}
