// Package observability bridges structured logging and the audit trail.
// Services log an event once with key-value attributes; the same attributes
// feed the audit record so the two stay in sync.
package observability

import (
	"context"
	"log/slog"

	"worldpass/pkg/platform/attrs"
	audit "worldpass/pkg/platform/audit"
	"worldpass/pkg/requestcontext"
)

// AuditEmitter is the publisher surface LogAudit needs.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit-grade event to the structured logger and emits it
// on the audit trail. Event fields are extracted from the attribute list by
// key; attributes without a matching field only appear in the log line.
func LogAudit(ctx context.Context, logger *slog.Logger, emitter AuditEmitter, action audit.Action, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(action), args...)
	}

	if emitter == nil {
		return
	}
	err := emitter.Emit(ctx, audit.Event{
		Action:     action,
		IssuerDID:  attrs.ExtractString(attrList, "issuer_did"),
		SubjectDID: attrs.ExtractString(attrList, "subject_did"),
		VCID:       attrs.ExtractString(attrList, "vc_id"),
		Result:     attrs.ExtractString(attrList, "result"),
		Reason:     attrs.ExtractString(attrList, "reason"),
		RequestID:  requestID,
		ActorID:    attrs.ExtractString(attrList, "actor_id"),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "audit emit failed", "error", err, "action", string(action))
	}
}
