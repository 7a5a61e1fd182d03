// Package handoff moves a window and its graphics context from the thread
// that created it to a dedicated render thread, exactly once.
//
// The owner thread opens a Subsystem, builds a WindowHandle and passes it to
// Transfer. Transfer starts a worker goroutine locked to its own OS thread;
// inside it Bind makes the context current and yields a RenderContext, which
// every later present or make-current call goes through. The worker signals a
// Ready rendezvous once bound, and the owner keeps pumping input events until
// it sets the StopFlag and joins the worker.
//
//	runtime.LockOSThread() // owner thread, before opening the subsystem
//	sub, _ := handoff.OpenSubsystem("")
//	h, _ := handoff.Build(sub, "my window", 320, 240, handoff.Centered())
//	ready, stop := handoff.NewReady(), handoff.NewStopFlag()
//	join, _ := handoff.Transfer(h, func(h *handoff.WindowHandle) (handoff.LoopResult, error) {
//		rc, err := handoff.Bind(h)
//		if err != nil {
//			ready.Fail(err)
//			return handoff.LoopResult{}, err
//		}
//		defer rc.Release()
//		ready.Signal()
//		return handoff.RunLoop(rc, stop, handoff.LoopConfig{}, draw)
//	})
//	ready.WaitTimeout(5 * time.Second)
//	// ... pump events ...
//	stop.Set()
//	join.Join()
//	sub.Close()
//
// Session wraps that sequence.
//
// # Ownership rules
//
// A WindowHandle is move-only: Transfer and Bind consume it and any later use
// of a consumed value fails with ErrHandleConsumed. A RenderContext records
// the OS thread it was bound on and panics with a *ThreadError when used from
// any other thread (on platforms that expose thread ids).
//
// The Subsystem counts the windows built from it and refuses to Close while
// any of them is alive. Callers must still join every worker before closing:
// a worker that never returns keeps its window, and the subsystem, alive.
//
// Cancellation is cooperative only. The render loop checks the StopFlag at
// iteration boundaries; a worker that ignores it makes Join block forever,
// which is why JoinTimeout exists.
package handoff
