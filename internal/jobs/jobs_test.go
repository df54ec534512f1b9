package jobs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vedabase-notes/internal/models"
)

func newTestManager(t *testing.T, run GenerateFunc) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), run)
	require.NoError(t, err)
	return m
}

func waitTerminal(t *testing.T, m *Manager, jobID string) models.Job {
	t.Helper()
	var job *models.Job
	require.Eventually(t, func() bool {
		got, err := m.Get(jobID)
		if err != nil || got == nil || !got.Terminal() {
			return false
		}
		job = got
		return true
	}, 5*time.Second, 10*time.Millisecond)
	return *job
}

func TestManagerLifecycle(t *testing.T) {
	t.Run("Start is immediately visible as running", func(t *testing.T) {
		release := make(chan struct{})
		m := newTestManager(t, func(models.Job) (string, error) {
			<-release
			return "out/notes.md", nil
		})

		jobID, err := m.Start("the six urges", "general devotees", 60, "class")
		require.NoError(t, err)
		assert.Len(t, jobID, 8)

		job, err := m.Get(jobID)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.Equal(t, models.JobStatusRunning, job.Status)
		assert.Equal(t, "the six urges", job.Topic)
		assert.NotEmpty(t, job.CreatedAt)
		assert.False(t, job.Terminal())

		close(release)
		waitTerminal(t, m, jobID)
	})

	t.Run("Successful run transitions to done", func(t *testing.T) {
		m := newTestManager(t, func(models.Job) (string, error) {
			return "out/notes_six_urges.md", nil
		})

		jobID, err := m.Start("the six urges", "general devotees", 60, "class")
		require.NoError(t, err)

		job := waitTerminal(t, m, jobID)
		assert.Equal(t, models.JobStatusDone, job.Status)
		assert.Equal(t, "out/notes_six_urges.md", job.ResultPath)
		assert.NotEmpty(t, job.CompletedAt)
		assert.Empty(t, job.Error)
	})

	t.Run("Failed run transitions to error with message", func(t *testing.T) {
		m := newTestManager(t, func(models.Job) (string, error) {
			return "", errors.New("plan phase failed: rate limited")
		})

		jobID, err := m.Start("the six urges", "general devotees", 60, "class")
		require.NoError(t, err)

		job := waitTerminal(t, m, jobID)
		assert.Equal(t, models.JobStatusError, job.Status)
		assert.Contains(t, job.Error, "rate limited")
		assert.Empty(t, job.ResultPath)
	})

	t.Run("Panic in generation is captured as error", func(t *testing.T) {
		m := newTestManager(t, func(models.Job) (string, error) {
			panic("index corrupted")
		})

		jobID, err := m.Start("the six urges", "general devotees", 60, "class")
		require.NoError(t, err)

		job := waitTerminal(t, m, jobID)
		assert.Equal(t, models.JobStatusError, job.Status)
		assert.Contains(t, job.Error, "index corrupted")
	})
}

func TestManagerList(t *testing.T) {
	t.Run("Newest first", func(t *testing.T) {
		m := newTestManager(t, nil)
		older := models.Job{JobID: "aaaa1111", Topic: "old", Status: models.JobStatusDone, CreatedAt: "2026-08-30T10:00:00Z"}
		newer := models.Job{JobID: "bbbb2222", Topic: "new", Status: models.JobStatusRunning, CreatedAt: "2026-08-31T10:00:00Z"}
		require.NoError(t, m.writeJob(older))
		require.NoError(t, m.writeJob(newer))

		jobs, err := m.List()

		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "bbbb2222", jobs[0].JobID)
		assert.Equal(t, "aaaa1111", jobs[1].JobID)
	})

	t.Run("Malformed records are skipped", func(t *testing.T) {
		m := newTestManager(t, nil)
		require.NoError(t, m.writeJob(models.Job{JobID: "good0001", Status: models.JobStatusDone, CreatedAt: "2026-08-31T10:00:00Z"}))
		require.NoError(t, os.WriteFile(filepath.Join(m.dir, "broken.json"), []byte("{not json"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(m.dir, "notes.txt"), []byte("ignore me"), 0o644))

		jobs, err := m.List()

		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "good0001", jobs[0].JobID)
	})
}

func TestManagerGet(t *testing.T) {
	m := newTestManager(t, nil)

	job, err := m.Get("deadbeef")

	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestManagerRemove(t *testing.T) {
	t.Run("Removes an existing record", func(t *testing.T) {
		m := newTestManager(t, nil)
		require.NoError(t, m.writeJob(models.Job{JobID: "gone0001", Status: models.JobStatusDone, CreatedAt: "2026-08-31T10:00:00Z"}))

		require.NoError(t, m.Remove("gone0001"))

		job, err := m.Get("gone0001")
		require.NoError(t, err)
		assert.Nil(t, job)
	})

	t.Run("Unknown id is a named error", func(t *testing.T) {
		m := newTestManager(t, nil)

		err := m.Remove("deadbeef")

		assert.ErrorIs(t, err, ErrJobNotFound)
	})
}

func TestHasRunning(t *testing.T) {
	m := newTestManager(t, nil)

	running, err := m.HasRunning()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, m.writeJob(models.Job{JobID: "live0001", Status: models.JobStatusRunning, CreatedAt: "2026-08-31T10:00:00Z"}))

	running, err = m.HasRunning()
	require.NoError(t, err)
	assert.True(t, running)
}
