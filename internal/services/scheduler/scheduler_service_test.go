package scheduler

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/gapscan/internal/common"
)

func newTestScheduler(t *testing.T) *Service {
	t.Helper()
	return NewService(time.UTC, common.GetLogger())
}

func TestRegisterJob_RejectsInvalidSchedule(t *testing.T) {
	s := newTestScheduler(t)

	err := s.RegisterJob("bad", "not a cron", func() error { return nil })
	assert.Error(t, err)

	err = s.RegisterJob("too-frequent", "* * * * *", func() error { return nil })
	assert.Error(t, err)
}

func TestRegisterJob_RejectsDuplicateName(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterJob("scan", "30 10 * * 1-5", func() error { return nil }))
	err := s.RegisterJob("scan", "30 10 * * 1-5", func() error { return nil })
	assert.Error(t, err)
}

func TestStart_DoubleStartIsNoop(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
}

func TestTriggerJob_RunsHandler(t *testing.T) {
	s := newTestScheduler(t)

	ran := make(chan struct{}, 1)
	require.NoError(t, s.RegisterJob("scan", "30 10 * * 1-5", func() error {
		ran <- struct{}{}
		return nil
	}))

	require.NoError(t, s.TriggerJob("scan"))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run")
	}
}

func TestTriggerJob_UnknownJob(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.TriggerJob("nope"))
}

func TestTriggerJob_RejectsWhileRunning(t *testing.T) {
	s := newTestScheduler(t)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.RegisterJob("slow", "30 10 * * 1-5", func() error {
		close(started)
		<-release
		return nil
	}))

	require.NoError(t, s.TriggerJob("slow"))
	<-started

	err := s.TriggerJob("slow")
	assert.Error(t, err)

	close(release)
}

func TestExecuteJob_RecordsFailure(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterJob("failing", "30 10 * * 1-5", func() error {
		return fmt.Errorf("feed unavailable")
	}))

	s.executeJob("failing")

	status, err := s.GetJobStatus("failing")
	require.NoError(t, err)
	assert.False(t, status.IsRunning)
	assert.NotNil(t, status.LastRun)
	assert.Equal(t, "feed unavailable", status.LastError)
}

func TestExecuteJob_RecoversFromPanic(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterJob("panicky", "30 10 * * 1-5", func() error {
		panic("boom")
	}))

	s.executeJob("panicky")

	status, err := s.GetJobStatus("panicky")
	require.NoError(t, err)
	assert.False(t, status.IsRunning)
	assert.Contains(t, status.LastError, "panic")
}

func TestExecuteJob_ClearsErrorOnSuccess(t *testing.T) {
	s := newTestScheduler(t)

	var mu sync.Mutex
	shouldFail := true
	require.NoError(t, s.RegisterJob("flaky", "30 10 * * 1-5", func() error {
		mu.Lock()
		defer mu.Unlock()
		if shouldFail {
			return fmt.Errorf("transient")
		}
		return nil
	}))

	s.executeJob("flaky")

	mu.Lock()
	shouldFail = false
	mu.Unlock()

	s.executeJob("flaky")

	status, err := s.GetJobStatus("flaky")
	require.NoError(t, err)
	assert.Empty(t, status.LastError)
}

func TestGetAllJobStatuses(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterJob("scan", "30 10 * * 1-5", func() error { return nil }))
	require.NoError(t, s.RegisterJob("import", "5 10 * * *", func() error { return nil }))

	statuses := s.GetAllJobStatuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "30 10 * * 1-5", statuses["scan"].Schedule)
	assert.True(t, statuses["import"].Enabled)
}
