package misauth

import (
	"context"
	"errors"

	"github.com/talha-007/mis-dashboard-sub000/internal/audit"
	"github.com/talha-007/mis-dashboard-sub000/realtime"
	"github.com/talha-007/mis-dashboard-sub000/session"
)

// Builder defines a public type used by misauth APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	store   session.Store
	backend Backend
	channel realtime.Channel

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore describes the withstore operation and its observable behavior.
//
// WithStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithBackend describes the withbackend operation and its observable behavior.
//
// WithBackend does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBackend(backend Backend) *Builder {
	b.backend = backend
	return b
}

// WithChannel describes the withchannel operation and its observable behavior.
//
// WithChannel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithChannel(channel realtime.Channel) *Builder {
	b.channel = channel
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Machine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.backend == nil {
		return nil, errors.New("backend required")
	}

	if b.store == nil {
		b.store = session.NewMemoryStore()
	}

	m := &Machine{
		cfg:     cfg,
		store:   b.store,
		backend: b.backend,
		metrics: NewMetrics(cfg.Metrics),
	}

	m.audit = audit.NewDispatcher(audit.DispatcherConfig{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	if b.channel != nil {
		m.binder = realtime.NewBinder(b.channel, realtime.Hooks{
			OnConnect: func() {
				m.metrics.Inc(MetricChannelConnect)
				m.emitAudit(context.Background(), eventChannelConnect, "", "", true, nil)
			},
			OnDisconnect: func() {
				m.metrics.Inc(MetricChannelDisconnect)
				m.emitAudit(context.Background(), eventChannelDisconnect, "", "", true, nil)
			},
			OnResubscribe: func(principalID string) {
				m.metrics.Inc(MetricChannelResubscribe)
				m.emitAudit(context.Background(), eventChannelResubscribe, principalID, "", true, nil)
			},
		})
	}

	b.built = true

	return m, nil
}
