package eval

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/agent"
	"vedabase-notes/internal/chromemdb"
	"vedabase-notes/internal/chunker"
	"vedabase-notes/internal/embedding"
	"vedabase-notes/internal/models"
	"vedabase-notes/internal/retriever"
)

// sampleVerse lets the smoke test run without scraper data or an API key.
var sampleVerse = models.VerseRecord{
	ID:            "NOI-TEST",
	Book:          "NOI",
	VerseNumber:   "1",
	VerseSanskrit: "vāco vegaṁ manasaḥ krodha-vegaṁ",
	Translation: "A sober person who can tolerate the urge to speak, the mind's demands, " +
		"the actions of anger and the urges of the tongue, belly and genitals is " +
		"qualified to make disciples all over the world.",
	Purport: "Gosvāmī means one who can control the senses and mind. " +
		"The six Gosvāmīs of Vṛndāvana were great sages who controlled all urges. " +
		"A person who has learned to control the tongue, belly and genitals is " +
		"qualified to be called gosvāmī and can accept disciples anywhere.",
	SectionTitle: "Text 1 (TEST)",
	SourceURI:    "https://vedabase.io/en/library/noi/1/",
}

type checkResult struct {
	name   string
	passed bool
	detail string
}

// RunSmokeTest sanity-checks each pipeline stage with canned input and a
// stub embedder. Returns true when every check passes.
func RunSmokeTest(ctx context.Context) bool {
	results := []checkResult{
		checkChunker(),
		checkEmbedder(ctx),
		checkVectorStore(ctx),
		checkVerifier(),
	}

	allPassed := true
	for _, result := range results {
		event := log.Info()
		if !result.passed {
			event = log.Error()
			allPassed = false
		}
		event.Str("check", result.name).Bool("passed", result.passed).Msg(result.detail)
	}

	if allPassed {
		log.Info().Msg("All smoke tests passed")
	} else {
		log.Error().Msg("Some smoke tests failed")
	}
	return allPassed
}

func checkChunker() checkResult {
	chunks := chunker.ChunkRecord(sampleVerse)
	if len(chunks) == 0 {
		return checkResult{"chunker", false, "no chunks produced"}
	}
	for _, chunk := range chunks {
		if chunk.ChunkID == "" || len(chunk.Text) <= 10 {
			return checkResult{"chunker", false, "chunk " + chunk.ChunkID + " is malformed"}
		}
	}
	return checkResult{"chunker", true, "chunks produced OK"}
}

func checkEmbedder(ctx context.Context) checkResult {
	embedder := embedding.NewStubEmbedder()
	vectors, err := embedder.EmbedTexts(ctx, []string{sampleVerse.Translation})
	if err != nil {
		return checkResult{"embedder", false, err.Error()}
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return checkResult{"embedder", false, "unexpected vector shape"}
	}
	return checkResult{"embedder", true, "vector produced OK"}
}

func checkVectorStore(ctx context.Context) checkResult {
	embedder := embedding.NewStubEmbedder()
	store, err := chromemdb.NewStore("", "noi_smoke", true, embedder)
	if err != nil {
		return checkResult{"vector store", false, err.Error()}
	}

	chunks := chunker.ChunkRecord(sampleVerse)
	if err := store.Index(ctx, chunks); err != nil {
		return checkResult{"vector store", false, err.Error()}
	}
	if store.Count() != len(chunks) {
		return checkResult{"vector store", false, "indexed count mismatch"}
	}

	hits, err := retriever.New(store, embedder).Retrieve(ctx, "controlling the senses", 3)
	if err != nil {
		return checkResult{"vector store", false, err.Error()}
	}
	if len(hits) == 0 {
		return checkResult{"vector store", false, "query returned no hits"}
	}
	return checkResult{"vector store", true, "index and query OK"}
}

func checkVerifier() checkResult {
	badNotes := "## Outline\n## Detailed Notes\nSome point without citation.\n"
	if agent.RuleCheck(badNotes, 300).Pass {
		return checkResult{"verifier", false, "uncited notes should fail"}
	}

	goodNotes := strings.Join([]string{
		"## Outline",
		"## Detailed Notes",
		"Key point. [NOI 1 Translation]",
		"Another point. [NOI 3 Purport]",
		"Third point. [NOI 2 Purport]",
		"## Practical Applications",
		"## Discussion Prompts",
		"## Appendix",
	}, "\n")
	if !agent.RuleCheck(goodNotes, 300).CitationsOK {
		return checkResult{"verifier", false, "cited notes should pass citation check"}
	}
	return checkResult{"verifier", true, "citation check logic works"}
}
