package animation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures frames written by the loop.
type recorder struct {
	mu     sync.Mutex
	frames [][]byte
	failAt int
	err    error
}

func (r *recorder) WriteRaw(grb []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil && len(r.frames) == r.failAt {
		return r.err
	}
	r.frames = append(r.frames, append([]byte(nil), grb...))
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *recorder) snapshot() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

func threeRows() FrameTable {
	return FrameTable{
		{1, 1, 1},
		{2, 2, 2},
		{3, 3, 3},
	}
}

func TestNewRejectsBadFPS(t *testing.T) {
	for _, fps := range []int{0, -30} {
		_, err := New(&recorder{}, fps, Hooks{})
		assert.ErrorIs(t, err, ErrInvalidAnimationConfig)
	}
}

func TestFrameTableValidate(t *testing.T) {
	assert.ErrorIs(t, FrameTable{}.Validate(), ErrInvalidAnimationConfig)
	assert.ErrorIs(t, FrameTable{{}}.Validate(), ErrInvalidAnimationConfig)
	assert.ErrorIs(t, FrameTable{{1, 2, 3}, {1}}.Validate(), ErrInvalidAnimationConfig)
	assert.NoError(t, threeRows().Validate())
}

func TestStartWithoutFrames(t *testing.T) {
	d, err := New(&recorder{}, 100, Hooks{})
	require.NoError(t, err)
	assert.ErrorIs(t, d.Start(), ErrInvalidAnimationConfig)
	assert.Equal(t, Stopped, d.State())
	assert.ErrorIs(t, d.SetFrames(nil), ErrInvalidAnimationConfig)
}

func TestWrapsAroundInOrder(t *testing.T) {
	rec := &recorder{}
	d, err := New(rec, 200, Hooks{})
	require.NoError(t, err)
	require.NoError(t, d.Play(threeRows()))
	assert.Equal(t, Running, d.State())

	require.Eventually(t, func() bool { return rec.count() >= 7 }, 2*time.Second, time.Millisecond)
	require.NoError(t, d.Stop())

	got := rec.snapshot()
	for i, f := range got {
		assert.Equal(t, threeRows()[i%3], f, "frame %d", i)
	}
	assert.Equal(t, got[0], got[3])
}

func TestStopJoinsLoop(t *testing.T) {
	rec := &recorder{}
	d, err := New(rec, 500, Hooks{})
	require.NoError(t, err)
	require.NoError(t, d.Play(threeRows()))
	require.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, time.Millisecond)

	require.NoError(t, d.Stop())
	n := rec.count()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.count(), "no writes after Stop returns")
	assert.Equal(t, Stopped, d.State())
}

func TestStopIsIdempotent(t *testing.T) {
	d, err := New(&recorder{}, 100, Hooks{})
	require.NoError(t, err)
	assert.NoError(t, d.Stop())

	require.NoError(t, d.Play(threeRows()))
	assert.NoError(t, d.Stop())
	assert.NoError(t, d.Stop())
	assert.Equal(t, Stopped, d.State())
}

func TestRestartAfterStop(t *testing.T) {
	rec := &recorder{}
	d, err := New(rec, 500, Hooks{})
	require.NoError(t, err)
	require.NoError(t, d.Play(threeRows()))
	require.NoError(t, d.Stop())
	require.NoError(t, d.Start())
	require.NoError(t, d.Start(), "second start while running is a no-op")
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, time.Millisecond)
	require.NoError(t, d.Stop())
}

func TestReplaceFramesWhileRunning(t *testing.T) {
	rec := &recorder{}
	d, err := New(rec, 500, Hooks{})
	require.NoError(t, err)
	require.NoError(t, d.Play(threeRows()))
	require.Eventually(t, func() bool { return rec.count() >= 2 }, 2*time.Second, time.Millisecond)

	require.NoError(t, d.SetFrames(FrameTable{{9, 9, 9}}))
	n := rec.count()
	require.Eventually(t, func() bool { return rec.count() >= n+3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, d.Stop())

	got := rec.snapshot()
	assert.Equal(t, []byte{9, 9, 9}, got[len(got)-1])
}

func TestWriteErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{failAt: 2, err: boom}
	failed := make(chan error, 1)
	d, err := New(rec, 500, Hooks{OnFail: func(err error) { failed <- err }})
	require.NoError(t, err)
	require.NoError(t, d.Play(threeRows()))

	select {
	case e := <-failed:
		assert.ErrorIs(t, e, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not fail")
	}
	require.Eventually(t, func() bool { return d.State() == Stopped }, time.Second, time.Millisecond)
	assert.Equal(t, 2, rec.count())

	assert.ErrorIs(t, d.Start(), boom, "start refuses until the failure is collected")
	assert.ErrorIs(t, d.Stop(), boom)
	assert.NoError(t, d.Stop())
}

func TestOnFrameHook(t *testing.T) {
	var mu sync.Mutex
	var seen []int
	d, err := New(&recorder{}, 500, Hooks{OnFrame: func(i int, _ []byte) {
		mu.Lock()
		seen = append(seen, i)
		mu.Unlock()
	}})
	require.NoError(t, err)
	require.NoError(t, d.Play(threeRows()))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 4
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, d.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 0}, seen[:4])
}

// sizedRecorder only takes frames of a fixed size, like led.Strip.
type sizedRecorder struct {
	recorder
	size int
}

func (r *sizedRecorder) FrameLen() int { return r.size }

func TestSetFramesChecksWriterFrameLen(t *testing.T) {
	rec := &sizedRecorder{size: 6}
	d, err := New(rec, 500, Hooks{})
	require.NoError(t, err)

	assert.ErrorIs(t, d.Play(threeRows()), ErrInvalidAnimationConfig)
	assert.Equal(t, Stopped, d.State())
	assert.Zero(t, rec.count())

	require.NoError(t, d.Play(FrameTable{{1, 1, 1, 1, 1, 1}}))
	require.Eventually(t, func() bool { return rec.count() >= 1 }, 2*time.Second, time.Millisecond)
	require.NoError(t, d.Stop())
}
