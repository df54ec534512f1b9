package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/helper"
	"vedabase-notes/internal/models"
)

// ErrRawDataNotFound means no scraped data could be located anywhere.
var ErrRawDataNotFound = errors.New("cannot find scraped data")

// Ingest locates previously scraped pages and copies them into the raw
// data directory. Scraping itself lives in the noi-search project; this
// stage only adopts its output. Candidate locations, in order:
//
//  1. data.json next to the configured scraper path
//  2. data.json in a sibling noi-search checkout
//
// Returns the number of pages and the path written.
func Ingest(scraperPath, outFile string) (int, string, error) {
	var candidates []string
	if scraperPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(scraperPath), "data.json"))
	}
	candidates = append(candidates, filepath.Join("..", "noi-search", "data.json"))

	for _, candidate := range candidates {
		pages, err := readPages(candidate)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", candidate).Msg("Skipping unreadable raw data candidate")
			}
			continue
		}

		log.Info().Str("path", candidate).Int("pages", len(pages)).Msg("Found scraped data")
		if err := writePages(outFile, pages); err != nil {
			return 0, "", err
		}
		return len(pages), outFile, nil
	}

	return 0, "", fmt.Errorf(`%w.

Please do ONE of the following:

  Option A: set NOI_SCRAPER_PATH in your .env file:
    NOI_SCRAPER_PATH=/path/to/noi-search/scraper.py

  Option B: manually copy data.json:
    cp /path/to/noi-search/data.json %s

  Option C: run the noi-search scraper, then run ingest again`,
		ErrRawDataNotFound, outFile)
}

// readPages loads and validates a scraped data file. Validation happens
// before anything is written so a malformed source never produces
// partial output.
func readPages(path string) ([]models.SourcePage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pages []models.SourcePage
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return pages, nil
}

func writePages(path string, pages []models.SourcePage) error {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode raw pages: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write raw pages file: %w", err)
	}
	return nil
}
