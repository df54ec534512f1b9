package models

const (
	// Chunk sections.
	SectionTranslation = "translation"
	SectionPurport     = "purport"
	SectionPreface     = "preface"

	// Sentinel verse number for the preface page.
	VersePreface = "preface"

	// Job statuses. Transitions are running -> done or running -> error,
	// never backward.
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusError   = "error"

	// Separator between context blocks in the LLM prompt.
	ContextSeparator = "\n\n---\n\n"
)
