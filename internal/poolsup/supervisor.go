// Package poolsup implements the pool supervisor from spec §4.1: N
// identical workers sharing one inbox and one outbox, plus the
// administrative control plane encoded as op_code fields on inbound
// messages (ROUTE, TOGGLE_PAUSE, SET_COUNT, KILL_OFF, DIE, SPIN_UP).
package poolsup

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/cametumbling/crawler-shard/internal/actorcore"
	"github.com/cametumbling/crawler-shard/internal/crawlerr"
	"github.com/cametumbling/crawler-shard/internal/ipcsock"
)

// AdminHandler handles one administrative op code. It replaces the
// decorator-based `@admin(OP_CODE)` method registration in the original
// (REDESIGN FLAGS) with an explicit table built once at construction.
type AdminHandler func(ctx context.Context, s *Supervisor, data []byte) error

// WorkerFactory produces a fresh Worker instance for a newly spun-up slot.
type WorkerFactory func() actorcore.Worker

// Supervisor owns a pool of workers of one stage, multiplexing one shared
// inbox across them and forwarding their published results to one outbox.
type Supervisor struct {
	Log     *zap.Logger
	Factory WorkerFactory
	Inbox   *ipcsock.Server
	Outbox  ipcsock.Outbox

	opMap map[ipcsock.OpCode]AdminHandler

	mu              sync.Mutex
	configuredCount int
	handles         map[int]*workerHandle
	nextSlot        int
	dead            bool // set once DIE has been processed
	routeCh         chan []byte
}

type workerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	gate   *pauseGate
}

// New constructs a Supervisor with `count` workers and wires the admin op
// table once. count becomes the configured (target) worker count.
func New(log *zap.Logger, factory WorkerFactory, inbox *ipcsock.Server, outbox ipcsock.Outbox, count int) *Supervisor {
	s := &Supervisor{
		Log:             log,
		Factory:         factory,
		Inbox:           inbox,
		Outbox:          outbox,
		configuredCount: count,
		handles:         make(map[int]*workerHandle),
		routeCh:         make(chan []byte, count*64+64),
	}

	s.opMap = map[ipcsock.OpCode]AdminHandler{
		ipcsock.OpRoute:       adminRoute,
		ipcsock.OpTogglePause: adminTogglePause,
		ipcsock.OpSetCount:    adminSetCount,
		ipcsock.OpKillOff:     adminKillOff,
		ipcsock.OpDie:         adminDie,
		ipcsock.OpSpinUp:      adminSpinUp,
	}

	return s
}

// Run starts the configured number of workers and then pulls envelopes from
// the inbox, dispatching each through the op map, until ctx is done or DIE
// is processed.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	for i := 0; i < s.configuredCount; i++ {
		s.spinUpLocked(ctx)
	}
	s.mu.Unlock()

	for {
		env, err := s.Inbox.Get(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				return ctx.Err()
			}
			s.Log.Warn("inbox read failed", zap.Error(err))
			continue
		}

		handler, ok := s.opMap[env.OpCode]
		if !ok {
			s.Log.Warn("no such administrative operation", zap.Int("op_code", int(env.OpCode)))
			continue
		}

		if err := handler(ctx, s, env.Data); err != nil {
			s.Log.Error("admin operation failed", zap.Error(err))
		}

		if s.isDead() {
			s.shutdown()
			return nil
		}
	}
}

func (s *Supervisor) isDead() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dead
}

func (s *Supervisor) shutdown() {
	s.mu.Lock()
	handles := make([]*workerHandle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	for _, h := range handles {
		h.cancel()
		<-h.done
	}
}

// spinUpLocked starts one worker goroutine. Caller must hold s.mu.
func (s *Supervisor) spinUpLocked(ctx context.Context) {
	slot := s.nextSlot
	s.nextSlot++

	wctx, cancel := context.WithCancel(ctx)
	handle := &workerHandle{
		cancel: cancel,
		done:   make(chan struct{}),
		gate:   newPauseGate(),
	}
	s.handles[slot] = handle

	worker := s.Factory()

	go s.runWorker(wctx, slot, worker, handle)
}

func (s *Supervisor) runWorker(ctx context.Context, slot int, worker actorcore.Worker, handle *workerHandle) {
	defer close(handle.done)
	defer s.reap(slot)
	defer func() {
		if err := worker.OnStop(ctx); err != nil {
			s.Log.Error("worker OnStop failed", zap.Int("slot", slot), zap.Error(err))
		}
	}()

	if err := worker.OnInit(ctx); err != nil {
		s.Log.Error("worker OnInit failed", zap.Int("slot", slot), zap.Error(err))
		return
	}
	if err := worker.OnStart(ctx); err != nil {
		s.Log.Error("worker OnStart failed", zap.Int("slot", slot), zap.Error(err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-s.routeCh:
			if !ok {
				return
			}
			if handle.gate.Paused() {
				if err := worker.OnPause(ctx); err != nil {
					s.Log.Error("worker OnPause failed", zap.Int("slot", slot), zap.Error(err))
				}
				handle.gate.Wait()
				if err := worker.OnResume(ctx); err != nil {
					s.Log.Error("worker OnResume failed", zap.Int("slot", slot), zap.Error(err))
				}
			}
			if err := worker.OnMessage(ctx, payload); err != nil {
				s.Log.Error("worker OnMessage fault", zap.Int("slot", slot), zap.Error(err))
				return
			}
		}
	}
}

// reap removes a worker's bookkeeping once it exits, whatever the cause.
// Reaping only ever shrinks the map; it never spins up a replacement.
func (s *Supervisor) reap(slot int) {
	s.mu.Lock()
	delete(s.handles, slot)
	s.mu.Unlock()
}

func (s *Supervisor) activeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Publish forwards payload to the shared outbox. Refuses after DIE.
func (s *Supervisor) Publish(ctx context.Context, payload any) error {
	if s.isDead() {
		return crawlerr.New(crawlerr.CodeQueueClosed, "pool is dead, cannot publish")
	}
	return s.Outbox.Put(ctx, payload)
}
