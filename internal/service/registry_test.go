package service_test

import (
	"context"
	"testing"
	"time"

	"poker-coach/internal/analyzer"
	"poker-coach/internal/mocks"
	"poker-coach/internal/models"
	"poker-coach/internal/photocache"
	"poker-coach/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRegistry() *service.SessionRegistry {
	return service.NewSessionRegistry(context.Background(), service.RegistryConfig{SpeakTimeout: time.Second}, zap.NewNop())
}

func TestRegistry_StartGetEnd(t *testing.T) {
	r := newRegistry()
	dev := newFakeDevice("s1", "u1")

	s := r.Start("s1", "u1", dev)
	assert.Equal(t, models.StageHole, s.State().Stage)
	assert.Equal(t, 1, s.ContextLen())

	got, ok := r.Get("s1")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Count())

	assert.True(t, r.End("s1", "test"))
	assert.False(t, r.End("s1", "test"))
	_, ok = r.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_StartReplacesSession(t *testing.T) {
	r := newRegistry()
	first := r.Start("s1", "u1", newFakeDevice("s1", "u1"))
	second := r.Start("s1", "u1", newFakeDevice("s1", "u1"))

	assert.NotSame(t, first, second)
	got, _ := r.Get("s1")
	assert.Same(t, second, got)
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_ReleaseIgnoresReplacedDevice(t *testing.T) {
	r := newRegistry()
	oldDev := newFakeDevice("s1", "u1")
	newDev := newFakeDevice("s1", "u1")
	r.Start("s1", "u1", oldDev)
	current := r.Start("s1", "u1", newDev)

	assert.False(t, r.Release(oldDev, "disconnect"))
	got, ok := r.Get("s1")
	require.True(t, ok)
	assert.Same(t, current, got)

	assert.True(t, r.Release(newDev, "disconnect"))
	assert.Equal(t, 0, r.Count())
}

func TestRegistry_EndCancelsPipeline(t *testing.T) {
	r := newRegistry()
	dev := newFakeDevice("s1", "u1")
	s := r.Start("s1", "u1", dev)

	controller := service.NewStageController(service.ControllerConfig{
		PublicURL:      testPublicURL,
		CaptureTimeout: time.Minute,
		DetectTimeout:  time.Second,
		AnalyzeTimeout: time.Second,
	}, photocache.NewMemoryCache(), mocks.NewMockDetector(t), analyzer.NewHandAnalyzer(mocks.NewMockAIClient(t), nil, nil), nil, nil)

	controller.OnButtonPress(s, models.PressShort)
	started := make(chan struct{})
	dev.capture = func(ctx context.Context, _ int) (*models.CapturedPhoto, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	finished := make(chan struct{})
	go func() {
		controller.OnButtonPress(s, models.PressShort)
		close(finished)
	}()
	<-started

	r.EndAll("shutdown")

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline survived session end")
	}
	assert.Equal(t, models.StageHole, s.State().Stage)
	assert.NotContains(t, dev.Spoken(), service.MsgAnalysisError)
	assert.Equal(t, 0, r.Count())
}

func TestCoach_RoutesEvents(t *testing.T) {
	f := newFixture(t)
	coach := service.NewCoach(f.registry, f.controller, zap.NewNop())

	dev := newFakeDevice("s2", "u2")
	s := coach.Connect(dev)
	assert.Equal(t, 2, f.registry.Count())

	coach.Press("s2", models.PressShort)
	coach.Wait()
	assert.Equal(t, models.StageAwaitHolePhoto, s.State().Stage)
	assert.Equal(t, []string{service.Prompt(models.StreetHole)}, dev.Spoken())

	// unknown session is ignored
	coach.Press("missing", models.PressShort)
	coach.Wait()

	coach.Disconnect(dev)
	_, ok := f.registry.Get("s2")
	assert.False(t, ok)
	f.detector.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything)
}
