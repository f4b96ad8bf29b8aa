package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/totw/pkg/config"
	"github.com/wonny/totw/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     int
	err      error
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func testScheduler() *Scheduler {
	s := New(logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"}))
	s.maxRetries = 1
	s.retryDelay = time.Millisecond
	return s
}

func TestAddJob_Duplicate(t *testing.T) {
	s := testScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "sync", schedule: "0 0 6 * * *"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "sync", schedule: "0 0 7 * * *"}))
}

func TestAddJob_BadSchedule(t *testing.T) {
	s := testScheduler()
	assert.Error(t, s.AddJob(&fakeJob{name: "broken", schedule: "not a cron line"}))
}

func TestRunNow(t *testing.T) {
	s := testScheduler()
	job := &fakeJob{name: "sync", schedule: "0 0 6 * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunNow("sync"))
	assert.Equal(t, 1, job.runs)

	results, err := s.History("sync", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	assert.Error(t, s.RunNow("missing"))
}

func TestRunNow_RetriesAndRecordsFailure(t *testing.T) {
	s := testScheduler()
	job := &fakeJob{name: "flaky", schedule: "0 0 6 * * *", err: errors.New("boom")}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunNow("flaky"))
	assert.Equal(t, 2, job.runs, "initial attempt plus one retry")

	results, err := s.History("flaky", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "boom", results[0].Error)
}

func TestHistory_Unknown(t *testing.T) {
	_, err := testScheduler().History("nope", 5)
	assert.Error(t, err)
}
