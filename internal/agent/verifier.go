package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section headings that must appear in valid notes.
var requiredSections = []string{
	"Outline",
	"Detailed Notes",
	"Practical Applications",
	"Discussion Prompts",
	"Appendix",
}

var (
	// Citations like [NOI 1 Translation] or [NOI Preface]. Must stay in
	// lockstep with retriever.CitationLabel.
	citationRe = regexp.MustCompile(`(?i)\[NOI\s+\w+\s+\w+\]|\[NOI\s+Preface\]`)

	// Quoted excerpts in the appendix: > "quote text"
	excerptRe = regexp.MustCompile(`>\s*"([^"]+)"`)

	jsonFenceOpenRe  = regexp.MustCompile("^```(?:json)?\\s*")
	jsonFenceCloseRe = regexp.MustCompile("\\s*```$")
)

// RuleResult aggregates the fast rule-based checks. Pass is true iff no
// issues were found. Findings are data, never errors.
type RuleResult struct {
	SectionsOK    bool     `json:"sections_ok"`
	CitationsOK   bool     `json:"citations_ok"`
	ExcerptsOK    bool     `json:"excerpts_ok"`
	CitationCount int      `json:"citation_count"`
	Issues        []string `json:"issues"`
	Pass          bool     `json:"pass"`
}

// RuleCheck runs the rule-based checks on a notes string: required
// section headings, a minimum of three citations, and excerpt length.
// Pure function, no external calls.
func RuleCheck(notes string, excerptMaxChars int) RuleResult {
	var issues []string

	headings := headingTexts(notes)
	var missing []string
	for _, section := range requiredSections {
		if !hasHeading(headings, section) {
			missing = append(missing, "## "+section)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, fmt.Sprintf("Missing sections: [%s]", strings.Join(missing, ", ")))
	}

	citations := citationRe.FindAllString(notes, -1)
	if len(citations) < 3 {
		issues = append(issues, fmt.Sprintf(
			"Too few citations (%d found, expected at least 3). Every key point should have a citation.",
			len(citations)))
	}

	var longExcerpts int
	for _, m := range excerptRe.FindAllStringSubmatch(notes, -1) {
		if len([]rune(m[1])) > excerptMaxChars {
			longExcerpts++
		}
	}
	if longExcerpts > 0 {
		issues = append(issues, fmt.Sprintf("%d excerpt(s) exceed %d chars.", longExcerpts, excerptMaxChars))
	}

	return RuleResult{
		SectionsOK:    len(missing) == 0,
		CitationsOK:   len(citations) >= 3,
		ExcerptsOK:    longExcerpts == 0,
		CitationCount: len(citations),
		Issues:        issues,
		Pass:          len(issues) == 0,
	}
}

// headingTexts collects level-2 heading texts from the notes markdown.
func headingTexts(notes string) []string {
	source := []byte(notes)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var headings []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 2 {
			headings = append(headings, string(h.Text(source)))
		}
		return ast.WalkContinue, nil
	})
	return headings
}

func hasHeading(headings []string, section string) bool {
	for _, h := range headings {
		if strings.HasPrefix(strings.TrimSpace(h), section) {
			return true
		}
	}
	return false
}

// LLMResult is the self-review verdict returned by the model.
type LLMResult struct {
	AllPointsCited          bool     `json:"all_points_cited"`
	RequiredSectionsPresent bool     `json:"required_sections_present"`
	ExcerptsWithinLimit     bool     `json:"excerpts_within_limit"`
	Issues                  []string `json:"issues"`
	Pass                    bool     `json:"pass"`
}

// How much of the notes the self-check sees; keeps the call under the
// verifier's token budget.
const llmCheckMaxChars = 8000

// LLMCheck asks the model to review the notes against the citation and
// structure requirements, expecting strict JSON back. A nil caller means
// no credential is configured: the check is skipped and reported as
// passing with an explanatory issue. An unparseable response degrades to
// a failing result carrying a response excerpt, never an error. Only
// transport failures propagate.
func LLMCheck(ctx context.Context, llm LLMCaller, notes string, excerptMaxChars int) (LLMResult, error) {
	if llm == nil {
		return LLMResult{
			Pass:   true,
			Issues: []string{"LLM check skipped: no API key configured"},
		}, nil
	}

	prompt := renderPrompt(verifyTemplate, map[string]string{
		"excerpt_max": strconv.Itoa(excerptMaxChars),
		"notes":       truncateRunes(notes, llmCheckMaxChars),
	})

	raw, err := llm.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return LLMResult{}, fmt.Errorf("verification call failed: %w", err)
	}

	// The model sometimes wraps the JSON in a markdown code fence.
	cleaned := jsonFenceOpenRe.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = jsonFenceCloseRe.ReplaceAllString(cleaned, "")

	var result LLMResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return LLMResult{
			Pass:   false,
			Issues: []string{fmt.Sprintf("Could not parse verifier response: %s", truncateRunes(raw, 200))},
		}, nil
	}
	return result, nil
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
