package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PhotoCurator/internal/domain"
)

type listSource struct {
	mu      sync.Mutex
	uploads []domain.Upload
	err     error
}

func (s *listSource) Fetch(context.Context) ([]domain.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Upload(nil), s.uploads...), s.err
}

func (s *listSource) add(up ...domain.Upload) {
	s.mu.Lock()
	s.uploads = append(s.uploads, up...)
	s.mu.Unlock()
}

type manualScheduler struct {
	job     func(time.Time)
	stopped bool
}

func (m *manualScheduler) Start(_ context.Context, job func(time.Time)) error {
	m.job = job
	return nil
}

func (m *manualScheduler) Stop(context.Context) error {
	m.stopped = true
	return nil
}

func TestWatcherIngestsOnlyNewUploads(t *testing.T) {
	t.Parallel()

	intel := newFakeIntel()
	o := newTestOrchestrator(intel, fakeReader{})
	src := &listSource{}
	src.add(uploads(nil, "a.jpg", "b.jpg")...)

	w := NewWatcher(nil, src, o, nil)
	first, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, first, 2)

	src.add(uploads(nil, "c.jpg")...)
	second, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, 1)

	third, err := w.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, third)

	o.Wait()
	assert.Equal(t, 3, o.Stats().Analyzed)
}

func TestWatcherRunsOnSchedule(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(newFakeIntel(), fakeReader{})
	src := &listSource{err: errors.New("disk gone")}
	driver := &manualScheduler{}

	w := NewWatcher(driver, src, o, nil)
	require.NoError(t, w.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	assert.Empty(t, o.Items(), "fetch errors ingest nothing")

	src.mu.Lock()
	src.err = nil
	src.mu.Unlock()
	src.add(uploads(nil, "x.jpg")...)
	driver.job(time.Now())
	o.Wait()
	assert.Len(t, o.Items(), 1)

	require.NoError(t, w.Stop(context.Background()))
	assert.True(t, driver.stopped)
}
