package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"vedabase-notes/internal/agent"
	"vedabase-notes/internal/chromemdb"
	"vedabase-notes/internal/chunker"
	"vedabase-notes/internal/config"
	"vedabase-notes/internal/embedding"
	"vedabase-notes/internal/eval"
	"vedabase-notes/internal/export"
	"vedabase-notes/internal/helper"
	"vedabase-notes/internal/ingest"
	"vedabase-notes/internal/jobs"
	"vedabase-notes/internal/llmservice"
	"vedabase-notes/internal/models"
	"vedabase-notes/internal/parser"
	"vedabase-notes/internal/retriever"
)

const collectionName = "noi_collection"

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "vedabase-notes",
		Usage: "Cited study notes from the Nectar of Instruction",
		Commands: []*cli.Command{
			ingestCommand(),
			parseCommand(),
			chunkCommand(),
			indexCommand(),
			generateNotesCommand(),
			jobsCommand(),
			smokeTestCommand(),
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the config file",
		Value:   "./configs/config.yaml",
		Sources: cli.EnvVars("VEDABASE_NOTES_CONFIG"),
	}
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	return config.LoadConfig(c.String("config"))
}

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Step 1: adopt scraped pages from the noi-search project",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "out",
				Usage: "Output path for the raw pages file",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			outFile := c.String("out")
			if outFile == "" {
				outFile = cfg.RawFile()
			}
			pages, path, err := ingest.Ingest(cfg.ScraperPath, outFile)
			if err != nil {
				return err
			}
			log.Info().Int("pages", pages).Str("path", path).Msg("Raw data saved")
			return nil
		},
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Step 2: parse raw pages into structured verse records",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "raw", Usage: "Path to the raw pages file"},
			&cli.StringFlag{Name: "out", Usage: "Path for the clean JSONL file"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print parsed records without writing"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			rawFile := c.String("raw")
			if rawFile == "" {
				rawFile = cfg.RawFile()
			}
			outFile := c.String("out")
			if outFile == "" {
				outFile = cfg.CleanFile()
			}

			if c.Bool("dry-run") {
				records, err := parser.ParseRawFile(rawFile, cfg.Book)
				if err != nil {
					return err
				}
				helper.PrettyPrint(records)
				return nil
			}

			_, err = parser.ParseFile(rawFile, outFile, cfg.Book)
			return err
		},
	}
}

func chunkCommand() *cli.Command {
	return &cli.Command{
		Name:  "chunk",
		Usage: "Step 3: split verse records into retrieval chunks",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "clean", Usage: "Path to the clean JSONL file"},
			&cli.StringFlag{Name: "out", Usage: "Path for the chunks JSONL file"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			cleanFile := c.String("clean")
			if cleanFile == "" {
				cleanFile = cfg.CleanFile()
			}
			outFile := c.String("out")
			if outFile == "" {
				outFile = cfg.ChunksFile()
			}
			_, err = chunker.ChunkFile(cleanFile, outFile)
			return err
		},
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Step 4: embed chunks into the local vector index",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "chunks", Usage: "Path to the chunks JSONL file"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			chunksFile := c.String("chunks")
			if chunksFile == "" {
				chunksFile = cfg.ChunksFile()
			}

			allChunks, err := chunker.LoadChunks(chunksFile)
			if err != nil {
				return err
			}

			embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
			if err != nil {
				return err
			}
			store, err := chromemdb.NewStore(cfg.IndexDir(), collectionName, false, embedder)
			if err != nil {
				return err
			}

			if err := store.Index(ctx, allChunks); err != nil {
				return err
			}
			log.Info().Int("indexed", store.Count()).Msg("Chunks now in vector index")
			return nil
		},
	}
}

func generateFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		&cli.StringFlag{Name: "topic", Usage: "Topic for the notes", Required: true},
		&cli.StringFlag{Name: "audience", Usage: "Who the notes are for", Value: "general devotees"},
		&cli.IntFlag{Name: "duration-min", Usage: "Class duration in minutes", Value: 60},
		&cli.StringFlag{Name: "style", Usage: "class or discourse", Value: "class"},
	}
}

func requestFromFlags(c *cli.Command) agent.Request {
	return agent.Request{
		Topic:    c.String("topic"),
		Audience: c.String("audience"),
		Duration: int(c.Int("duration-min")),
		Style:    c.String("style"),
	}
}

func generateNotesCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate-notes",
		Usage: "Step 5: run the agent loop and export cited study notes",
		Flags: append(generateFlags(),
			&cli.StringFlag{Name: "out", Usage: "Output directory for the notes file"},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			outDir := c.String("out")
			if outDir == "" {
				outDir = cfg.OutDir()
			}
			path, err := runGeneration(ctx, cfg, requestFromFlags(c), outDir)
			if err != nil {
				return err
			}
			log.Info().Str("path", path).Msg("Notes saved")
			return nil
		},
	}
}

// runGeneration wires the retrieval and LLM collaborators, runs the
// agent and exports the result. Shared by the synchronous command and
// the background job runner.
func runGeneration(ctx context.Context, cfg *config.Config, req agent.Request, outDir string) (string, error) {
	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		return "", err
	}
	store, err := chromemdb.NewStore(cfg.IndexDir(), collectionName, false, embedder)
	if err != nil {
		return "", err
	}
	llm, err := llmservice.NewClient(&cfg.LLM, cfg.RAG.MaxTokens)
	if err != nil {
		return "", err
	}

	deps := agent.Deps{
		Retriever:       retriever.New(store, embedder),
		LLM:             llm,
		TopK:            cfg.RAG.TopK,
		ContextMaxChars: cfg.RAG.ContextMaxChars,
		ExcerptMaxChars: cfg.RAG.ExcerptMaxChars,
	}

	notes, err := agent.GenerateNotes(ctx, deps, req)
	if err != nil {
		return "", err
	}
	return export.ExportNotes(notes, req.Topic, outDir)
}

func jobsCommand() *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Manage background note-generation jobs",
		Commands: []*cli.Command{
			jobsStartCommand(),
			jobsStatusCommand(),
			jobsListCommand(),
			jobsRemoveCommand(),
		},
	}
}

func newJobManager(cfg *config.Config) (*jobs.Manager, error) {
	return jobs.NewManager(cfg.JobsDir(), func(job models.Job) (string, error) {
		req := agent.Request{
			Topic:    job.Topic,
			Audience: job.Audience,
			Duration: job.Duration,
			Style:    job.Style,
		}
		return runGeneration(context.Background(), cfg, req, cfg.OutDir())
	})
}

func jobsStartCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start a generation job and wait for it to finish",
		Flags: generateFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			manager, err := newJobManager(cfg)
			if err != nil {
				return err
			}

			jobID, err := manager.Start(c.String("topic"), c.String("audience"), int(c.Int("duration-min")), c.String("style"))
			if err != nil {
				return err
			}
			log.Info().Str("job_id", jobID).Msg("Job started; poll with 'jobs status' from another shell")

			// The job runs in this process; wait for its terminal state
			// so exiting does not abandon the goroutine.
			for {
				time.Sleep(2 * time.Second)
				job, err := manager.Get(jobID)
				if err != nil {
					return err
				}
				if job == nil {
					return jobs.ErrJobNotFound
				}
				if !job.Terminal() {
					continue
				}
				if job.Status == models.JobStatusError {
					return fmt.Errorf("job %s failed: %s", jobID, job.Error)
				}
				log.Info().Str("job_id", jobID).Str("result", job.ResultPath).Msg("Job done")
				return nil
			}
		},
	}
}

func jobsStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show one job record",
		ArgsUsage: "<job-id>",
		Flags:     []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			manager, err := newJobManager(cfg)
			if err != nil {
				return err
			}
			job, err := manager.Get(c.Args().First())
			if err != nil {
				return err
			}
			if job == nil {
				return jobs.ErrJobNotFound
			}
			helper.PrettyPrint(job)
			return nil
		},
	}
}

func jobsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all jobs, newest first",
		Flags: []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			manager, err := newJobManager(cfg)
			if err != nil {
				return err
			}
			all, err := manager.List()
			if err != nil {
				return err
			}
			helper.PrettyPrint(all)
			return nil
		},
	}
}

func jobsRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Delete a finished job record",
		ArgsUsage: "<job-id>",
		Flags:     []cli.Flag{configFlag()},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			manager, err := newJobManager(cfg)
			if err != nil {
				return err
			}
			return manager.Remove(c.Args().First())
		},
	}
}

func smokeTestCommand() *cli.Command {
	return &cli.Command{
		Name:  "smoke-test",
		Usage: "Quick sanity checks for each pipeline stage",
		Action: func(ctx context.Context, c *cli.Command) error {
			if !eval.RunSmokeTest(ctx) {
				return fmt.Errorf("smoke test failed")
			}
			return nil
		},
	}
}
