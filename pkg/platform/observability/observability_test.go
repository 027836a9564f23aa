package observability_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	audit "worldpass/pkg/platform/audit"
	"worldpass/pkg/platform/audit/publisher"
	auditmemory "worldpass/pkg/platform/audit/store/memory"
	"worldpass/pkg/platform/observability"
	"worldpass/pkg/requestcontext"
)

func Test_LogAudit_MapsAttributesToEvent(t *testing.T) {
	store := auditmemory.NewInMemoryStore()
	pub := publisher.NewPublisher(store)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	observability.LogAudit(ctx, logger, pub, audit.ActionIssuerApproved,
		"issuer_did", "did:key:zIssuer",
		"actor_id", "admin@example.com",
		"result", "ok",
		"unmapped_key", "only logged",
	)

	events, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	require.Equal(t, audit.ActionIssuerApproved, event.Action)
	require.Equal(t, "did:key:zIssuer", event.IssuerDID)
	require.Equal(t, "admin@example.com", event.ActorID)
	require.Equal(t, "ok", event.Result)
	require.Equal(t, "req-42", event.RequestID)
	require.False(t, event.Timestamp.IsZero())
}

func Test_LogAudit_NilEmitterOnlyLogs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NotPanics(t, func() {
		observability.LogAudit(context.Background(), logger, nil, audit.ActionIssuerRegistered,
			"issuer_did", "did:key:zIssuer")
	})
}
