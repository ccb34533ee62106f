// Package pipeline adapts a pskdemod.Demodulator into a channel-based run
// loop, grounded in the teacher's Step/Pipeline dataflow container. The
// Step interface there models a single Out() channel; pskdemod has four
// independent output ports, so Worker exposes four channels directly
// instead of forcing them through one Data stream.
package pipeline

import (
	"context"
	"errors"

	"github.com/itohio/pskdemod"
)

// ErrEOS is the error Run returns when the input channel closes or a
// packet arrives with EOS set: a normal, expected end of stream rather
// than a failure.
var ErrEOS = errors.New("end of stream")

// Worker runs a Demodulator against a channel of input packets, fanning
// each Push's results out onto four output channels, one per spec.md §3
// output port. Configure may be called on the wrapped Demodulator from any
// goroutine while Run is in flight.
type Worker struct {
	Core *pskdemod.Demodulator

	in chan pskdemod.InputPacket

	SoftDecision chan []complex64
	Bits         chan []int16
	Phase        chan []float32
	SampleIndex  chan []int16
	SRI          chan pskdemod.SRIUpdate
}

// NewWorker wraps core in a Worker with the given input/output buffer
// depth (0 for unbuffered, matching the teacher's blocking-by-default
// StepMakeChan behavior).
func NewWorker(core *pskdemod.Demodulator, bufferSize int) *Worker {
	return &Worker{
		Core:         core,
		in:           make(chan pskdemod.InputPacket, bufferSize),
		SoftDecision: make(chan []complex64, bufferSize),
		Bits:         make(chan []int16, bufferSize),
		Phase:        make(chan []float32, bufferSize),
		SampleIndex:  make(chan []int16, bufferSize),
		SRI:          make(chan pskdemod.SRIUpdate, bufferSize),
	}
}

// In returns the channel packets are submitted on.
func (w *Worker) In() chan<- pskdemod.InputPacket { return w.in }

// Run drains In, pushes each packet through Core, and fans the result out
// onto the output channels until ctx is cancelled, In is closed, or a
// packet arrives with EOS set. All output channels are closed on return.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.SoftDecision)
	defer close(w.Bits)
	defer close(w.Phase)
	defer close(w.SampleIndex)
	defer close(w.SRI)

	for {
		var pkt pskdemod.InputPacket
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-w.in:
			if !ok {
				return ErrEOS
			}
			pkt = p
		}

		res, err := w.Core.Push(pkt)
		if err != nil {
			return err
		}

		if err := w.emit(ctx, res); err != nil {
			return err
		}

		if pkt.EOS {
			return ErrEOS
		}
	}
}

func (w *Worker) emit(ctx context.Context, res pskdemod.Result) error {
	if res.SRI != nil {
		select {
		case w.SRI <- *res.SRI:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(res.SoftDecision) > 0 {
		select {
		case w.SoftDecision <- res.SoftDecision:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(res.Phase) > 0 {
		select {
		case w.Phase <- res.Phase:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(res.Bits) > 0 {
		select {
		case w.Bits <- res.Bits:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(res.SampleIndex) > 0 {
		select {
		case w.SampleIndex <- res.SampleIndex:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
