package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdock/chatdock/internal/domain/entity"
)

func TestProxy_EnsureCreatesHidden(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))

	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	assert.Equal(t, StateReady, p.State())
	assert.False(t, p.Visible())
	assert.Equal(t, 0, host.showCalls[chatLabel("p1")])
	assert.Equal(t, 1, host.createCalls[chatLabel("p1")])
}

func TestProxy_EnsureIdempotent(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))

	require.NoError(t, p.Ensure(context.Background(), testBounds()))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	assert.Equal(t, 1, host.createCalls[chatLabel("p1")])
}

func TestProxy_EnsureRenavigatesWhenPageMovedAway(t *testing.T) {
	host := newFakeHost()
	desc := chatDesc("p1")
	p := NewProxy(context.Background(), host, desc)

	require.NoError(t, p.Ensure(context.Background(), testBounds()))
	// Simulate the embedded page navigating away.
	require.NoError(t, host.NavigateSurface(context.Background(), p.Label(), "https://elsewhere.example.com/"))

	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	url, err := host.SurfaceURL(context.Background(), p.Label())
	require.NoError(t, err)
	assert.Equal(t, desc.URL, url)
	assert.Equal(t, 1, host.createCalls[p.Label()])
}

func TestProxy_EnsureFailureLeavesUninitialized(t *testing.T) {
	host := newFakeHost()
	host.createErr[chatLabel("p1")] = errors.New("boom")
	p := NewProxy(context.Background(), host, chatDesc("p1"))

	err := p.Ensure(context.Background(), testBounds())

	var createErr *SurfaceCreateError
	require.ErrorAs(t, err, &createErr)
	assert.Equal(t, entity.PlatformID("p1"), createErr.Platform)
	assert.Equal(t, StateUninitialized, p.State())

	// Retry succeeds once the host recovers.
	delete(host.createErr, chatLabel("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))
	assert.Equal(t, StateReady, p.State())
}

func TestProxy_ShowIdempotent(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	require.NoError(t, p.Show(context.Background()))
	require.NoError(t, p.Show(context.Background()))

	assert.Equal(t, 1, host.showCalls[p.Label()])
	assert.True(t, p.Visible())
}

func TestProxy_HideIdempotent(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))
	require.NoError(t, p.Show(context.Background()))

	require.NoError(t, p.Hide(context.Background()))
	require.NoError(t, p.Hide(context.Background()))

	assert.Equal(t, 1, host.hideCalls[p.Label()])
	assert.False(t, p.Visible())
}

func TestProxy_ShowBeforeEnsureIsNoop(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))

	require.NoError(t, p.Show(context.Background()))

	assert.Equal(t, 0, host.showCalls[p.Label()])
	assert.False(t, p.Visible())
}

func TestProxy_UpdateBoundsEpsilon(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), entity.Bounds{X: 1, Y: 1, Width: 100, Height: 100, Scale: 1}))

	b1 := entity.Bounds{X: 10, Y: 10, Width: 800, Height: 600, Scale: 1}
	require.NoError(t, p.UpdateBounds(context.Background(), b1))
	assert.Equal(t, 1, host.boundsCalls[p.Label()])

	// Within epsilon: skipped.
	b2 := entity.Bounds{X: 10.2, Y: 10, Width: 800, Height: 600, Scale: 1}
	require.NoError(t, p.UpdateBounds(context.Background(), b2))
	assert.Equal(t, 1, host.boundsCalls[p.Label()])
	assert.Equal(t, b1, *p.LastBounds())

	// Beyond epsilon: applied.
	b3 := entity.Bounds{X: 12, Y: 10, Width: 800, Height: 600, Scale: 1}
	require.NoError(t, p.UpdateBounds(context.Background(), b3))
	assert.Equal(t, 2, host.boundsCalls[p.Label()])
	assert.Equal(t, b3, *p.LastBounds())
}

func TestProxy_CloseIsIdempotentAndClearsState(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))
	require.NoError(t, p.Show(context.Background()))

	require.NoError(t, p.Close(context.Background()))
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, 1, host.closeCalls[p.Label()])
	assert.Equal(t, StateClosed, p.State())
	assert.False(t, p.Visible())
	assert.Nil(t, p.LastBounds())

	assert.ErrorIs(t, p.Show(context.Background()), ErrSurfaceClosed)
	assert.ErrorIs(t, p.UpdateBounds(context.Background(), testBounds()), ErrSurfaceClosed)
	assert.ErrorIs(t, p.Ensure(context.Background(), testBounds()), ErrSurfaceClosed)
}

func TestProxy_EvaluateScriptTimeout(t *testing.T) {
	host := newFakeHost() // default script handler blocks until ctx is done
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	_, err := p.EvaluateScript(context.Background(), "1+1", 20*time.Millisecond)

	var timeoutErr *ScriptTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, p.Label(), timeoutErr.Label)
}

func TestProxy_EvaluateScriptError(t *testing.T) {
	host := newFakeHost()
	host.script = func(_, _ string) (json.RawMessage, error) {
		return nil, errors.New("ReferenceError: foo is not defined")
	}
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	_, err := p.EvaluateScript(context.Background(), "foo()", time.Second)

	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
}

func TestProxy_EvaluateScriptResult(t *testing.T) {
	host := newFakeHost()
	host.script = func(_, _ string) (json.RawMessage, error) {
		return json.RawMessage(`{"success":true}`), nil
	}
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	result, err := p.EvaluateScript(context.Background(), "inject()", time.Second)

	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(result))
}

func TestProxy_FragmentRoundTrip(t *testing.T) {
	host := newFakeHost()
	p := NewProxy(context.Background(), host, chatDesc("p1"))
	require.NoError(t, p.Ensure(context.Background(), testBounds()))

	frag, err := p.Fragment(context.Background())
	require.NoError(t, err)
	assert.Empty(t, frag)

	require.NoError(t, host.NavigateSurface(context.Background(), p.Label(), "https://p1.example.com/#__qa=abc"))

	frag, err = p.Fragment(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "__qa=abc", frag)

	require.NoError(t, p.ClearFragment(context.Background()))

	frag, err = p.Fragment(context.Background())
	require.NoError(t, err)
	assert.Empty(t, frag)
}
