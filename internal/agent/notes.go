package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/models"
	"vedabase-notes/internal/retriever"
)

// ErrEmptyIndex means retrieval returned nothing: the pipeline has not
// been run. Fatal and not retried; an empty index cannot self-heal.
var ErrEmptyIndex = errors.New("no chunks found in the vector index: run the chunk and index stages first")

// LLMCaller is the single synchronous LLM boundary: one system prompt,
// one user prompt, plain text back.
type LLMCaller interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// PassageRetriever is the retrieval boundary the agent drives.
type PassageRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]models.RetrievalHit, error)
}

// Deps are the agent's injected collaborators and tuning knobs.
type Deps struct {
	Retriever PassageRetriever
	LLM       LLMCaller

	TopK            int
	ContextMaxChars int
	ExcerptMaxChars int
}

// Request describes one note-generation run.
type Request struct {
	Topic    string
	Audience string
	Duration int
	Style    string
}

// GenerateNotes drives the four ordered phases:
//
//	RETRIEVE -> PLAN -> DRAFT -> VERIFY
//
// No phase is retried or skipped. The LLM is called once for the plan,
// once for the draft, and once more inside the verifier. Verification
// never blocks the notes: its outcome is appended as a footer, pass or
// fail.
func GenerateNotes(ctx context.Context, deps Deps, req Request) (string, error) {
	if deps.LLM == nil {
		// Precondition, checked before any expensive work.
		return "", errors.New("LLM client is not configured")
	}

	// RETRIEVE
	log.Info().Str("topic", req.Topic).Msg("Retrieving relevant passages")
	hits, err := deps.Retriever.Retrieve(ctx, req.Topic, deps.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	if len(hits) == 0 {
		return "", ErrEmptyIndex
	}
	contextBlock := retriever.FormatContext(hits, deps.ContextMaxChars)
	log.Info().Int("passages", len(hits)).Msg("Retrieved passages")

	vars := map[string]string{
		"topic":    req.Topic,
		"audience": req.Audience,
		"duration": strconv.Itoa(req.Duration),
		"style":    req.Style,
		"context":  contextBlock,
	}

	// PLAN: the returned text is the outline, taken as an opaque string.
	log.Info().Msg("Planning outline")
	outline, err := deps.LLM.Generate(ctx, systemPrompt, renderPrompt(planTemplate, vars))
	if err != nil {
		return "", fmt.Errorf("plan phase failed: %w", err)
	}

	// DRAFT
	log.Info().Msg("Drafting notes")
	vars["outline"] = outline
	vars["excerpt_max"] = strconv.Itoa(deps.ExcerptMaxChars)
	notes, err := deps.LLM.Generate(ctx, systemPrompt, renderPrompt(draftTemplate, vars))
	if err != nil {
		return "", fmt.Errorf("draft phase failed: %w", err)
	}

	// VERIFY: both checks always run so the user sees both signal
	// sources, then the footer is appended regardless of outcome.
	log.Info().Msg("Verifying notes quality")
	ruleResult := RuleCheck(notes, deps.ExcerptMaxChars)
	if ruleResult.Pass {
		log.Info().Int("citations", ruleResult.CitationCount).Msg("Rule check passed")
	} else {
		log.Warn().Strs("issues", ruleResult.Issues).Msg("Rule check found issues")
	}

	llmResult, err := LLMCheck(ctx, deps.LLM, notes, deps.ExcerptMaxChars)
	if err != nil {
		return "", err
	}
	if !llmResult.Pass {
		log.Warn().Strs("issues", llmResult.Issues).Msg("LLM check found issues")
	}

	return notes + verificationFooter(ruleResult, llmResult), nil
}

// verificationFooter summarizes both checks at the end of the notes.
func verificationFooter(ruleResult RuleResult, llmResult LLMResult) string {
	status := "PASSED"
	if !ruleResult.Pass || !llmResult.Pass {
		status = "WARNINGS"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n\n---\n\n## Verification (%s)\n", status)
	fmt.Fprintf(&b, "- Citations found: %d\n", ruleResult.CitationCount)
	fmt.Fprintf(&b, "- Sections check: %s\n", checkMark(ruleResult.SectionsOK))
	fmt.Fprintf(&b, "- Excerpts check: %s\n", checkMark(ruleResult.ExcerptsOK))

	issues := append(append([]string{}, ruleResult.Issues...), llmResult.Issues...)
	if len(issues) > 0 {
		b.WriteString("\n**Issues found:**\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "- %s\n", issue)
		}
	}
	return b.String()
}

func checkMark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}
