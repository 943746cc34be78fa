package dos

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lunixbochs/doscorn/go/models"
	"github.com/lunixbochs/doscorn/go/models/cpu"
)

// Run executes the loaded image until it exits, faults or runs out of budget.
// Config.Timeout and Config.Count end the run without an error. Cancelling
// ctx stops the engine and returns ctx.Err().
func (k *Kernel) Run(ctx context.Context) error {
	if k.Image == nil {
		return errors.New("no image loaded")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	uninstall := k.Reports.Install(k.crashReporter)
	defer uninstall()

	if k.Config.Display && k.OpenDisplay != nil {
		d, err := k.OpenDisplay()
		if err != nil {
			return errors.Wrap(err, "failed to open display")
		}
		k.display = d
		defer func() {
			k.display = nil
			d.Close()
		}()
	}
	defer func() {
		if err := k.Files.CloseAll(); err != nil {
			k.log.Warn("failed to close guest files", "error", err)
		}
	}()

	k.start = k.Now()
	k.icount = 0
	k.err = nil
	var exhausted int32

	intr, err := k.Task.HookAdd(cpu.HOOK_INTR, func(_ cpu.Cpu, intno uint32) {
		if err := k.Dispatch(intno); err != nil {
			k.stop(err)
		}
	}, 1, 0)
	if err != nil {
		return errors.Wrap(err, "failed to hook interrupts")
	}
	defer k.Task.HookDel(intr)

	limit := k.Config.Count
	code, err := k.Task.HookAdd(cpu.HOOK_CODE, func(_ cpu.Cpu, addr uint64, size uint32) {
		if limit > 0 && k.icount >= limit {
			atomic.StoreInt32(&exhausted, 1)
			k.Task.Stop()
			return
		}
		k.icount++
	}, 1, 0)
	if err != nil {
		return errors.Wrap(err, "failed to hook code")
	}
	defer k.Task.HookDel(code)

	runCtx := ctx
	if k.Config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, k.Config.Timeout)
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-runCtx.Done():
			k.Task.Stop()
		case <-done:
		}
	}()

	state := &k.Image.State
	k.log.Debug("starting", "entry", fmt.Sprintf("%04x:%04x", state.CS, state.IP))
	runErr := k.Task.Start(state.Entry, ^uint64(0))
	elapsed := k.Now().Sub(k.start)

	switch {
	case k.err != nil:
		if _, ok := k.err.(models.ExitStatus); !ok {
			k.Reports.Report(k.err)
		}
		return k.err
	case runErr != nil:
		err := errors.Wrapf(runErr, "emulation fault after %s and %d instructions", elapsed, k.icount)
		k.Reports.Report(err)
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	}
	k.log.Debug("run finished", "elapsed", elapsed, "instructions", k.icount,
		"budget", atomic.LoadInt32(&exhausted) != 0 || runCtx.Err() != nil)
	return nil
}

// stop records the first error raised during a run and halts the engine.
func (k *Kernel) stop(err error) {
	if k.err == nil {
		k.err = err
	}
	k.Task.Stop()
}

// crashReporter shows fatal errors on the active display, then passes them on.
func (k *Kernel) crashReporter(prev models.Reporter) models.Reporter {
	return models.ReporterFunc(func(err error) {
		if d := k.display; d != nil {
			d.Message(fmt.Sprintf("%+v", err))
		}
		if prev != nil {
			prev.Report(err)
		}
	})
}

// Close releases the disks registered with the kernel.
func (k *Kernel) Close() error {
	return k.Disks.Close()
}
