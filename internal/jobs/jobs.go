package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"vedabase-notes/internal/helper"
	"vedabase-notes/internal/models"
)

// ErrJobNotFound is returned by Remove for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// GenerateFunc runs one note-generation request and returns the path of
// the exported notes file.
type GenerateFunc func(job models.Job) (string, error)

// Manager tracks background note-generation jobs, one JSON file per job
// under the jobs directory. Each job's file is written only by the
// goroutine that owns the job after creation, so status reads always
// see the latest completed write. Jobs cannot be cancelled once
// started; retrying means starting a new job id.
type Manager struct {
	dir string
	run GenerateFunc
}

func NewManager(dir string, run GenerateFunc) (*Manager, error) {
	if err := helper.CreateFolder(dir); err != nil {
		return nil, err
	}
	return &Manager{dir: dir, run: run}, nil
}

// Start creates the job record with status "running", durably on disk
// before returning, then launches generation in a goroutine. A status
// read immediately after Start always sees at least the running state;
// a crash mid-generation leaves a visibly stuck running record rather
// than nothing.
func (m *Manager) Start(topic, audience string, duration int, style string) (string, error) {
	jobID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	job := models.Job{
		JobID:     jobID,
		Topic:     topic,
		Audience:  audience,
		Duration:  duration,
		Style:     style,
		Status:    models.JobStatusRunning,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	if err := m.writeJob(job); err != nil {
		return "", err
	}

	go m.runJob(job)
	return jobID, nil
}

// runJob executes in the background and performs the job's single
// terminal transition: running -> done or running -> error. Failures
// are captured into the record, never allowed to crash the process.
func (m *Manager) runJob(job models.Job) {
	defer func() {
		if r := recover(); r != nil {
			job.Status = models.JobStatusError
			job.Error = fmt.Sprintf("panic: %v", r)
			if err := m.writeJob(job); err != nil {
				log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to record job panic")
			}
		}
	}()

	resultPath, err := m.run(job)
	if err != nil {
		job.Status = models.JobStatusError
		job.Error = err.Error()
	} else {
		job.Status = models.JobStatusDone
		job.CompletedAt = time.Now().Format(time.RFC3339)
		job.ResultPath = resultPath
	}

	if err := m.writeJob(job); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to update job record")
	}
}

// List returns all jobs, newest first. Unreadable record files are
// skipped rather than failing the listing.
func (m *Manager) List() ([]models.Job, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read jobs directory: %w", err)
	}

	var jobs []models.Job
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			continue
		}
		var job models.Job
		if err := json.Unmarshal(data, &job); err != nil {
			log.Warn().Str("file", entry.Name()).Msg("Skipping malformed job record")
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt > jobs[j].CreatedAt
	})
	return jobs, nil
}

// Get returns a job by id, or nil when absent.
func (m *Manager) Get(jobID string) (*models.Job, error) {
	data, err := os.ReadFile(m.jobFile(jobID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", jobID, err)
	}
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("malformed job record %s: %w", jobID, err)
	}
	return &job, nil
}

// Remove deletes a job record. Intended for terminal jobs; removing a
// running job's file does not stop its goroutine, whose terminal write
// recreates the record.
func (m *Manager) Remove(jobID string) error {
	err := os.Remove(m.jobFile(jobID))
	if os.IsNotExist(err) {
		return ErrJobNotFound
	}
	return err
}

// HasRunning reports whether any job is still generating.
func (m *Manager) HasRunning() (bool, error) {
	jobs, err := m.List()
	if err != nil {
		return false, err
	}
	for _, job := range jobs {
		if job.Status == models.JobStatusRunning {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) jobFile(jobID string) string {
	return filepath.Join(m.dir, jobID+".json")
}

// writeJob persists the record with a temp-file rename so a poll never
// observes a half-written file.
func (m *Manager) writeJob(job models.Job) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job %s: %w", job.JobID, err)
	}

	tmp := m.jobFile(job.JobID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write job %s: %w", job.JobID, err)
	}
	if err := os.Rename(tmp, m.jobFile(job.JobID)); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.JobID, err)
	}
	return nil
}
