package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwelly/negotiation-service/internal/models"
)

func TestRunOnceMarksRowsDispatched(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// A committed transition leaves a PENDING outbox row behind.
	env.grantAccess(t, ctx)
	pending := env.store.notificationsFor(env.sellerID)
	require.NotEmpty(t, pending)

	// No providers configured: the row is consumed without any send.
	d := NewDispatchService(env.cfg, &fakeNotificationRepo{s: env.store}, &fakeUserRepo{s: env.store})
	require.NoError(t, d.RunOnce(ctx))

	for _, n := range env.store.notifs {
		assert.Equal(t, models.DispatchStatusSent, n.DispatchStatus)
		assert.NotNil(t, n.DispatchedAt)
	}
}

func TestRunOnceSkipsDeletedRecipients(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.grantAccess(t, ctx)
	delete(env.store.users, env.sellerID)

	d := NewDispatchService(env.cfg, &fakeNotificationRepo{s: env.store}, &fakeUserRepo{s: env.store})
	require.NoError(t, d.RunOnce(ctx))

	// The rows are consumed, not retried forever against a gone user.
	for _, n := range env.store.notifs {
		assert.Equal(t, models.DispatchStatusSent, n.DispatchStatus)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	assert.Equal(t, time.Minute, backoffDelay(1))
	assert.Equal(t, 2*time.Minute, backoffDelay(2))
	assert.Equal(t, 32*time.Minute, backoffDelay(6))
	assert.Equal(t, time.Hour, backoffDelay(8))
}
