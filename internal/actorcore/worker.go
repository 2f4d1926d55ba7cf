// Package actorcore models a stage's cooperative worker lifecycle (spec
// §4.1): on_init, on_start, on_message, on_pause, on_resume, on_stop. Per
// REDESIGN FLAGS, no inheritance is used — a Worker is a plain interface and
// the supervisor (internal/poolsup) drives the lifecycle.
package actorcore

import "context"

// Worker is the capability record a stage implements. Hooks are invoked by
// a poolsup.Supervisor, never called directly by the worker itself.
type Worker interface {
	// OnInit runs synchronously before the loop starts (e.g. opening a
	// database connection, populating a bloom filter from disk).
	OnInit(ctx context.Context) error

	// OnStart runs once, as the first step of the run loop.
	OnStart(ctx context.Context) error

	// OnMessage handles one inbound envelope payload. An error here is a
	// fatal worker fault: OnStop still runs, then the fault propagates to
	// the supervisor for reaping.
	OnMessage(ctx context.Context, payload []byte) error

	// OnPause is invoked before the worker suspends on the pause gate.
	OnPause(ctx context.Context) error

	// OnResume is invoked once the pause gate releases the worker, before it
	// handles the message it was holding.
	OnResume(ctx context.Context) error

	// OnStop is the final step, always invoked on any exit path.
	OnStop(ctx context.Context) error
}

// BaseWorker supplies no-op defaults for the optional hooks so concrete
// workers only need to implement OnMessage (and whichever others they
// care about). Embed it by value in a worker struct.
type BaseWorker struct{}

func (BaseWorker) OnInit(ctx context.Context) error   { return nil }
func (BaseWorker) OnStart(ctx context.Context) error  { return nil }
func (BaseWorker) OnPause(ctx context.Context) error  { return nil }
func (BaseWorker) OnResume(ctx context.Context) error { return nil }
func (BaseWorker) OnStop(ctx context.Context) error   { return nil }
