package misauth

import (
	"context"

	"github.com/talha-007/mis-dashboard-sub000/internal/audit"
)

const (
	eventBootstrapRestored    = "bootstrap_restored"
	eventBootstrapEmpty       = "bootstrap_empty"
	eventBootstrapRevalidated = "bootstrap_revalidated"
	eventBootstrapRejected    = "bootstrap_rejected"
	eventBootstrapCorrupt     = "bootstrap_corrupt_entry"
	eventLoginSuccess         = "login_success"
	eventLoginFailure         = "login_failure"
	eventLoginSuperseded      = "login_superseded"
	eventLogout               = "logout"
	eventRefreshSuccess       = "refresh_success"
	eventRefreshFailure       = "refresh_failure"
	eventSessionRevoked       = "session_revoked"
	eventTokenRotated         = "token_rotated"
	eventChannelConnect       = "channel_connect"
	eventChannelDisconnect    = "channel_disconnect"
	eventChannelResubscribe   = "channel_resubscribe"
	eventGuardDenied          = "guard_denied"
)

func (m *Machine) emitAudit(ctx context.Context, eventType, principalID, loginKind string, success bool, err error) {
	if m.audit == nil {
		return
	}

	event := audit.Event{
		EventType:   eventType,
		PrincipalID: principalID,
		LoginKind:   loginKind,
		Success:     success,
	}
	if err != nil {
		event.Error = err.Error()
	}

	m.audit.Emit(ctx, event)
}
