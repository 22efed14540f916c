package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
)

func translationDesc(id string) entity.PlatformDescriptor {
	return entity.PlatformDescriptor{
		ID:      entity.PlatformID(id),
		Name:    id,
		URL:     "https://" + id + ".example.com/",
		Group:   entity.GroupTranslation,
		Enabled: true,
	}
}

func newTestManager(t *testing.T, store *fakeStore) (*Manager, *fakeHost, *fakeWindow) {
	t.Helper()
	host := newFakeHost()
	win := newFakeWindow()
	var stateStore port.StateStore
	if store != nil {
		stateStore = store
	}
	m := NewManager(context.Background(), ManagerConfig{
		Host:   host,
		Window: win,
		Events: win,
		Post:   (&postQueue{}).post,
		Store:  stateStore,
		Platforms: []entity.PlatformDescriptor{
			chatDesc("p1"),
			chatDesc("p2"),
			{ID: "disabled", Name: "disabled", URL: "https://off.example.com/", Group: entity.GroupChat},
			translationDesc("deepl"),
		},
	})
	return m, host, win
}

func TestManager_BuildsCoordinatorPerGroup(t *testing.T) {
	m, _, _ := newTestManager(t, nil)

	groups := m.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, entity.GroupChat, groups[0].Group())
	assert.Equal(t, entity.GroupTranslation, groups[1].Group())

	_, ok := m.Group(entity.GroupQuickAsk)
	assert.False(t, ok, "groups with no enabled platform get no coordinator")
}

func TestManager_GroupsAreIndependentlyVisible(t *testing.T) {
	m, host, _ := newTestManager(t, nil)
	ctx := context.Background()

	chat, ok := m.Group(entity.GroupChat)
	require.True(t, ok)
	trans, ok := m.Group(entity.GroupTranslation)
	require.True(t, ok)

	require.NoError(t, chat.Select(ctx, "p1"))
	require.NoError(t, trans.Select(ctx, "deepl"))

	// One visible surface per group, not one overall.
	visible := host.visibleLabels()
	assert.Len(t, visible, 2)
	assert.True(t, host.surfaceVisible(chatLabel("p1")))
	assert.True(t, host.surfaceVisible(entity.SurfaceLabel(entity.GroupTranslation, "deepl")))
}

func TestManager_ForeignGroupPlatformIsUnknown(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	trans, ok := m.Group(entity.GroupTranslation)
	require.True(t, ok)

	err := trans.Select(context.Background(), "p1")

	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestManager_DisabledPlatformIsUnknown(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	chat, ok := m.Group(entity.GroupChat)
	require.True(t, ok)

	err := chat.Select(context.Background(), "disabled")

	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestManager_RestoreLastActive(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.SaveActive(context.Background(), entity.GroupChat, "p2"))
	m, host, _ := newTestManager(t, store)

	require.NoError(t, m.RestoreLastActive(context.Background(), entity.GroupChat))

	assert.True(t, host.surfaceVisible(chatLabel("p2")))
}

func TestManager_RestoreLastActiveSkipsStaleRecord(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.SaveActive(context.Background(), entity.GroupChat, "removed-platform"))
	m, host, _ := newTestManager(t, store)

	require.NoError(t, m.RestoreLastActive(context.Background(), entity.GroupChat))

	assert.Empty(t, host.visibleLabels())
}

func TestManager_RestoreLastActiveNoRecord(t *testing.T) {
	m, host, _ := newTestManager(t, newFakeStore())

	require.NoError(t, m.RestoreLastActive(context.Background(), entity.GroupChat))

	assert.Empty(t, host.visibleLabels())
}

func TestManager_UpdatePlatformsRemovesPlatform(t *testing.T) {
	m, host, _ := newTestManager(t, nil)
	ctx := context.Background()
	chat, _ := m.Group(entity.GroupChat)
	require.NoError(t, chat.Select(ctx, "p1"))

	m.UpdatePlatforms([]entity.PlatformDescriptor{chatDesc("p2"), translationDesc("deepl")})

	err := chat.Select(ctx, "p1")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
	// the already-created surface is untouched until the user moves on
	assert.True(t, host.surfaceVisible(chatLabel("p1")))
}

func TestManager_UpdatePlatformsDisablesPlatform(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	chat, _ := m.Group(entity.GroupChat)

	disabled := chatDesc("p1")
	disabled.Enabled = false
	m.UpdatePlatforms([]entity.PlatformDescriptor{disabled, chatDesc("p2")})

	err := chat.Select(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrUnknownPlatform)
}

func TestManager_UpdatePlatformsAddsPlatform(t *testing.T) {
	m, host, _ := newTestManager(t, nil)
	ctx := context.Background()
	chat, _ := m.Group(entity.GroupChat)

	require.ErrorIs(t, chat.Select(ctx, "p3"), ErrUnknownPlatform)

	m.UpdatePlatforms([]entity.PlatformDescriptor{
		chatDesc("p1"), chatDesc("p2"), chatDesc("p3"), translationDesc("deepl"),
	})

	require.NoError(t, chat.Select(ctx, "p3"))
	assert.True(t, host.surfaceVisible(chatLabel("p3")))
}

func TestManager_UpdatePlatformsProxyChangeRebuildsOnReselect(t *testing.T) {
	m, host, _ := newTestManager(t, nil)
	ctx := context.Background()
	chat, _ := m.Group(entity.GroupChat)
	require.NoError(t, chat.Select(ctx, "p1"))
	require.Equal(t, 1, host.createCalls[chatLabel("p1")])

	proxied := chatDesc("p1")
	proxied.ProxyURL = "socks5://127.0.0.1:9050"
	m.UpdatePlatforms([]entity.PlatformDescriptor{
		proxied, chatDesc("p2"), translationDesc("deepl"),
	})

	require.NoError(t, chat.Select(ctx, "p1"))

	assert.Equal(t, 1, host.closeCalls[chatLabel("p1")])
	assert.Equal(t, 2, host.createCalls[chatLabel("p1")])
	assert.True(t, host.surfaceVisible(chatLabel("p1")))
}

func TestManager_ShutdownClosesAllGroupsAndDetachesBridges(t *testing.T) {
	m, host, win := newTestManager(t, nil)
	ctx := context.Background()
	chat, _ := m.Group(entity.GroupChat)
	trans, _ := m.Group(entity.GroupTranslation)
	require.NoError(t, chat.Select(ctx, "p1"))
	require.NoError(t, trans.Select(ctx, "deepl"))

	m.Shutdown(ctx)

	assert.Equal(t, 0, chat.Registry().Len())
	assert.Equal(t, 0, trans.Registry().Len())
	assert.Empty(t, host.visibleLabels())

	// Bridges are gone: window events no longer reach the coordinators.
	require.NoError(t, chat.Select(ctx, "p1"))
	win.emitState(port.WindowMinimized)
	assert.True(t, host.surfaceVisible(chatLabel("p1")))
}
