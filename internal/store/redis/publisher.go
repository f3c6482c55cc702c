package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jeso2410/papertrade-frontend/internal/metrics"
	"github.com/jeso2410/papertrade-frontend/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultLatestTTL = 30 * time.Minute
	snapshotKey      = "dashboard:snapshot:latest"
	snapshotChannel  = "pub:dashboard:snapshot"
)

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	// KeyTTL bounds how long latest-value keys outlive the last update.
	KeyTTL time.Duration

	// Breaker tuning. Zero values get defaults (5 failures, 10s reset).
	MaxFailures  int
	ResetTimeout time.Duration
}

// Publisher mirrors the latest tick per token and the latest dashboard
// snapshot into Redis so sibling processes can render without their own
// stream connection. Writes go through a circuit breaker; while the breaker
// is open the newest value per key is held locally and replayed when the
// connection recovers. Only the latest value per key matters, so the local
// buffer never grows past the working set of tokens.
type Publisher struct {
	client *goredis.Client
	cb     *CircuitBreaker
	ctx    context.Context
	ttl    time.Duration
	met    *metrics.Metrics

	mu        sync.Mutex
	heldTicks map[string]model.Tick
	heldSnap  *model.Snapshot
	closed    bool
}

// NewPublisher connects to Redis and pings it. met may be nil.
func NewPublisher(ctx context.Context, cfg PublisherConfig, met *metrics.Metrics) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.KeyTTL
	if ttl <= 0 {
		ttl = defaultLatestTTL
	}
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	resetTimeout := cfg.ResetTimeout
	if resetTimeout <= 0 {
		resetTimeout = 10 * time.Second
	}

	p := &Publisher{
		client:    client,
		cb:        NewCircuitBreaker(maxFailures, resetTimeout),
		ctx:       ctx,
		ttl:       ttl,
		met:       met,
		heldTicks: make(map[string]model.Tick),
	}
	p.cb.OnStateChange = func(from, to State) {
		slog.Info("redis breaker state change",
			"component", "redis",
			"from", from.String(),
			"to", to.String())
		if to == StateClosed {
			go p.replayHeld()
		}
	}

	slog.Info("redis connected", "component", "redis", "addr", cfg.Addr)
	return p, nil
}

// PublishTick mirrors a tick to tick:latest:{token} and announces it on
// pub:tick:{token}. Never blocks on an open breaker.
func (p *Publisher) PublishTick(tick model.Tick) {
	err := p.cb.Execute(func() error {
		return p.writeTick(tick)
	})
	if err == nil {
		return
	}
	if p.met != nil {
		p.met.RedisPublishDrops.Inc()
	}
	p.hold(func() { p.heldTicks[tick.Token] = tick })
}

// PublishSnapshot mirrors the render-ready snapshot to a fixed key and
// announces it for live subscribers.
func (p *Publisher) PublishSnapshot(snap model.Snapshot) {
	err := p.cb.Execute(func() error {
		return p.writeSnapshot(snap)
	})
	if err == nil {
		return
	}
	if p.met != nil {
		p.met.RedisPublishDrops.Inc()
	}
	p.hold(func() { p.heldSnap = &snap })
}

// PendingCount returns how many held values are waiting for replay.
func (p *Publisher) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.heldTicks)
	if p.heldSnap != nil {
		n++
	}
	return n
}

// Close replays anything still held, then closes the client.
func (p *Publisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.replayHeld()
	return p.client.Close()
}

func (p *Publisher) hold(store func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	store()
}

// replayHeld pushes held values through the client directly. A failure here
// just re-holds the value; the breaker will trip again on live traffic.
func (p *Publisher) replayHeld() {
	p.mu.Lock()
	ticks := p.heldTicks
	snap := p.heldSnap
	p.heldTicks = make(map[string]model.Tick)
	p.heldSnap = nil
	p.mu.Unlock()

	if len(ticks) == 0 && snap == nil {
		return
	}

	replayed := 0
	for _, t := range ticks {
		if err := p.writeTick(t); err != nil {
			p.hold(func() { p.heldTicks[t.Token] = t })
			continue
		}
		replayed++
	}
	if snap != nil {
		if err := p.writeSnapshot(*snap); err != nil {
			p.hold(func() { p.heldSnap = snap })
		} else {
			replayed++
		}
	}

	slog.Info("redis replayed held values", "component", "redis", "count", replayed)
}

// writeTick performs the pipelined SET + PUBLISH for one tick.
func (p *Publisher) writeTick(tick model.Tick) error {
	data, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("marshal tick %s: %w", tick.Token, err)
	}
	payload := string(data)

	pipe := p.client.Pipeline()
	pipe.Set(p.ctx, "tick:latest:"+tick.Token, payload, p.ttl)
	pipe.Publish(p.ctx, "pub:tick:"+tick.Token, payload)
	if _, err := pipe.Exec(p.ctx); err != nil {
		return fmt.Errorf("redis pipeline for %s: %w", tick.Token, err)
	}
	return nil
}

func (p *Publisher) writeSnapshot(snap model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	payload := string(data)

	pipe := p.client.Pipeline()
	pipe.Set(p.ctx, snapshotKey, payload, p.ttl)
	pipe.Publish(p.ctx, snapshotChannel, payload)
	if _, err := pipe.Exec(p.ctx); err != nil {
		return fmt.Errorf("redis snapshot pipeline: %w", err)
	}
	return nil
}

var _ model.TickPublisher = (*Publisher)(nil)
