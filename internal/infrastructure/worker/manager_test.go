package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWorker struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
	ctx      context.Context
}

func (w *fakeWorker) Start(ctx context.Context) error {
	*w.log = append(*w.log, "start "+w.name)
	w.ctx = ctx
	return w.startErr
}

func (w *fakeWorker) Stop() error {
	*w.log = append(*w.log, "stop "+w.name)
	return w.stopErr
}

func (w *fakeWorker) Name() string { return w.name }

func TestWorkerManager_Lifecycle(t *testing.T) {
	var log []string
	a := &fakeWorker{name: "a", log: &log}
	b := &fakeWorker{name: "b", startErr: errors.New("port in use"), log: &log}
	c := &fakeWorker{name: "c", log: &log}

	m := NewWorkerManager(zap.NewNop())
	m.Register(a)
	m.Register(b)
	m.Register(c)
	assert.Equal(t, 3, m.GetWorkerCount())

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Error(t, m.StartAll(context.Background()))

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Error(t, a.ctx.Err(), "worker context is cancelled on stop")

	assert.Equal(t, []string{"start a", "start b", "start c", "stop c", "stop a"}, log)
}

func TestWorkerManager_StopErrors(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", stopErr: boom, log: &log})
	m.Register(&fakeWorker{name: "b", log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	err := m.StopAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.NoError(t, m.StopAll(), "stopping twice is a no-op")
}
