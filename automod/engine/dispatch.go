package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Narrow command interface to the chat transport. The engine only decides;
// deleting, muting, and notifying are the transport's responsibility.
// Implementations must not block: the engine calls these on the detection
// path's goroutine.
type Dispatcher interface {
	DeleteMessage(guildID, channelID, messageID string)
	WarnUser(guildID, channelID, userID, reason string)
	MuteUser(guildID, userID string, duration time.Duration, reason string)
	EscalateToReview(guildID, userID string, kinds []string, reason string)
}

// One queued transport command.
type transportJob struct {
	kind string
	run  func(ctx context.Context) error
}

// Transport executes a single command against the chat platform. Typically
// backed by the platform's REST API (see cmd/warden).
type Transport interface {
	DeleteMessage(ctx context.Context, guildID, channelID, messageID string) error
	WarnUser(ctx context.Context, guildID, channelID, userID, reason string) error
	MuteUser(ctx context.Context, guildID, userID string, duration time.Duration, reason string) error
	EscalateToReview(ctx context.Context, guildID, userID string, kinds []string, reason string) error
}

// Fire-and-forget dispatcher: commands are queued and executed by a worker
// with retry/backoff and a transport-wide rate limit, decoupled from
// detection. A full queue drops the command (and counts the drop) rather
// than backing up message ingestion.
type AsyncDispatcher struct {
	logger    *slog.Logger
	transport Transport
	jobs      chan transportJob
	limiter   *rate.Limiter
}

var _ Dispatcher = (*AsyncDispatcher)(nil)

const (
	dispatchQueueSize  = 1024
	dispatchRetries    = 3
	dispatchBackoffMin = time.Second
)

func NewAsyncDispatcher(logger *slog.Logger, transport Transport, perSecond int) *AsyncDispatcher {
	if perSecond <= 0 {
		perSecond = 25
	}
	return &AsyncDispatcher{
		logger:    logger,
		transport: transport,
		jobs:      make(chan transportJob, dispatchQueueSize),
		limiter:   rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Processes queued commands until ctx is done. Run in a goroutine from
// service wiring.
func (d *AsyncDispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-d.jobs:
			d.execute(ctx, job)
		}
	}
}

func (d *AsyncDispatcher) execute(ctx context.Context, job transportJob) {
	backoff := dispatchBackoffMin
	for attempt := 0; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			return
		}
		err := job.run(ctx)
		if err == nil {
			dispatchCount.WithLabelValues(job.kind, "ok").Inc()
			return
		}
		if attempt >= dispatchRetries {
			d.logger.Error("transport command failed permanently", "kind", job.kind, "attempts", attempt+1, "err", err)
			dispatchCount.WithLabelValues(job.kind, "failed").Inc()
			return
		}
		d.logger.Warn("transport command failed, retrying", "kind", job.kind, "attempt", attempt+1, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (d *AsyncDispatcher) enqueue(job transportJob) {
	select {
	case d.jobs <- job:
	default:
		d.logger.Error("dispatch queue full, dropping command", "kind", job.kind)
		dispatchCount.WithLabelValues(job.kind, "dropped").Inc()
	}
}

func (d *AsyncDispatcher) DeleteMessage(guildID, channelID, messageID string) {
	d.enqueue(transportJob{kind: "delete", run: func(ctx context.Context) error {
		return d.transport.DeleteMessage(ctx, guildID, channelID, messageID)
	}})
}

func (d *AsyncDispatcher) WarnUser(guildID, channelID, userID, reason string) {
	d.enqueue(transportJob{kind: "warn", run: func(ctx context.Context) error {
		return d.transport.WarnUser(ctx, guildID, channelID, userID, reason)
	}})
}

func (d *AsyncDispatcher) MuteUser(guildID, userID string, duration time.Duration, reason string) {
	d.enqueue(transportJob{kind: "mute", run: func(ctx context.Context) error {
		return d.transport.MuteUser(ctx, guildID, userID, duration, reason)
	}})
}

func (d *AsyncDispatcher) EscalateToReview(guildID, userID string, kinds []string, reason string) {
	d.enqueue(transportJob{kind: "review", run: func(ctx context.Context) error {
		return d.transport.EscalateToReview(ctx, guildID, userID, kinds, reason)
	}})
}
