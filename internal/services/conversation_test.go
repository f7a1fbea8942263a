package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VikramTex/filedesk-backend/internal/storage"
)

func newTestConversation(t *testing.T) (*Conversation, *fakeMessenger, *fakeDeliverer, *storage.MemorySessionStore) {
	t.Helper()

	sessions := storage.NewMemorySessionStore(time.Minute)
	t.Cleanup(sessions.Stop)

	messenger := &fakeMessenger{}
	deliverer := &fakeDeliverer{}
	conv := NewConversation(sessions, newTestLookup(), deliverer, messenger)
	return conv, messenger, deliverer, sessions
}

func TestGreetingSendsMenu(t *testing.T) {
	conv, messenger, _, _ := newTestConversation(t)

	conv.HandleMessage(context.Background(), "whatsapp:"+registeredPhone, "Hello")

	require.Len(t, messenger.sentTexts(), 1)
	assert.Contains(t, messenger.lastText(), "Type 1 for Design Image")
}

func TestDesignFlow_SingleColorDeliversDirectly(t *testing.T) {
	conv, messenger, deliverer, sessions := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "1")
	assert.Equal(t, promptDesignNumber, messenger.lastText())

	// Design 202 has one row, one color: no disambiguation.
	conv.HandleMessage(ctx, "917777777777", "1")
	conv.HandleMessage(ctx, "917777777777", "202")

	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "DESIGN-D", batches[0][0].FileID)

	_, ok := sessions.Get("917777777777")
	assert.False(t, ok, "delivery must clear the session")
}

func TestDesignFlow_MultipleColorsPromptsSelection(t *testing.T) {
	conv, messenger, deliverer, sessions := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "1")
	conv.HandleMessage(ctx, registeredPhone, "101")

	prompt := messenger.lastText()
	assert.Contains(t, prompt, "Please select a color:")
	assert.Contains(t, prompt, "• Type a for Red")
	assert.Contains(t, prompt, "• Type b for Blue")
	assert.Empty(t, deliverer.delivered(), "nothing delivered before a color is chosen")

	// Selecting "a" re-resolves and delivers only the Red references.
	conv.HandleMessage(ctx, registeredPhone, "a")
	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "DESIGN-A", batches[0][0].FileID)
	assert.Equal(t, "DESIGN-C", batches[0][1].FileID)

	_, ok := sessions.Get(registeredPhone)
	assert.False(t, ok)
}

func TestDesignFlow_InvalidColorKeepsSession(t *testing.T) {
	conv, messenger, deliverer, sessions := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "1")
	conv.HandleMessage(ctx, registeredPhone, "101")

	conv.HandleMessage(ctx, registeredPhone, "z")
	assert.Equal(t, msgInvalidColor, messenger.lastText())
	assert.Empty(t, deliverer.delivered())

	_, ok := sessions.Get(registeredPhone)
	require.True(t, ok, "invalid selection must not clear the session")

	// A valid retry still works.
	conv.HandleMessage(ctx, registeredPhone, "b")
	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "DESIGN-B", batches[0][0].FileID)
}

func TestDesignFlow_UnregisteredClearsSession(t *testing.T) {
	conv, messenger, _, sessions := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, unregisteredPhone, "1")
	conv.HandleMessage(ctx, unregisteredPhone, "101")

	assert.Equal(t, msgNotRegistered, messenger.lastText())
	_, ok := sessions.Get(unregisteredPhone)
	assert.False(t, ok, "terminal outcome must leave no residual session")
}

func TestDesignFlow_NotFoundClearsSession(t *testing.T) {
	conv, messenger, _, sessions := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "1")
	conv.HandleMessage(ctx, registeredPhone, "999")

	assert.Equal(t, msgNoDesignFile, messenger.lastText())
	_, ok := sessions.Get(registeredPhone)
	assert.False(t, ok)
}

func TestInvoiceFlow_DeliversLastMatch(t *testing.T) {
	conv, messenger, deliverer, sessions := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "2")
	assert.Equal(t, promptInvoiceNumber, messenger.lastText())

	conv.HandleMessage(ctx, registeredPhone, "INV-100")

	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "INV-LAST", batches[0][0].FileID)

	_, ok := sessions.Get(registeredPhone)
	assert.False(t, ok)
}

func TestPTFlow_UsesPTColumn(t *testing.T) {
	conv, _, deliverer, _ := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "3")
	conv.HandleMessage(ctx, registeredPhone, "INV-100")

	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	assert.Equal(t, "PT-2", batches[0][0].FileID)
}

func TestLRFlow_NotFoundMessage(t *testing.T) {
	conv, messenger, _, _ := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "4")
	assert.Equal(t, promptLRNumber, messenger.lastText())

	conv.HandleMessage(ctx, registeredPhone, "LR999")
	assert.Equal(t, "Sorry, no file found for the given LR number.", messenger.lastText())
}

func TestPendingKey_ConsumedByTypeSelection(t *testing.T) {
	conv, messenger, deliverer, sessions := newTestConversation(t)
	ctx := context.Background()

	// Key first, category second.
	conv.HandleMessage(ctx, registeredPhone, "INV-100")
	assert.Equal(t, promptRequestType, messenger.lastText())

	conv.HandleMessage(ctx, registeredPhone, "2")
	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	assert.Equal(t, "INV-LAST", batches[0][0].FileID)

	_, ok := sessions.Get(registeredPhone)
	assert.False(t, ok, "pending key is consumed exactly once")

	// The next "2" starts a fresh request instead of reusing the key.
	conv.HandleMessage(ctx, registeredPhone, "2")
	assert.Equal(t, promptInvoiceNumber, messenger.lastText())
	assert.Len(t, deliverer.delivered(), 1)
}

func TestPendingKey_LatestKeyWins(t *testing.T) {
	conv, _, deliverer, _ := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "INV-999")
	conv.HandleMessage(ctx, registeredPhone, "INV-100")
	conv.HandleMessage(ctx, registeredPhone, "2")

	batches := deliverer.delivered()
	require.Len(t, batches, 1)
	assert.Equal(t, "INV-LAST", batches[0][0].FileID)
}

func TestPendingKey_DesignSelectionDisambiguates(t *testing.T) {
	conv, messenger, _, _ := newTestConversation(t)
	ctx := context.Background()

	conv.HandleMessage(ctx, registeredPhone, "101")
	conv.HandleMessage(ctx, registeredPhone, "1")

	assert.Contains(t, messenger.lastText(), "Please select a color:")
}
