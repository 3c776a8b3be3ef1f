package token

import (
	"fmt"

	"github.com/sarchlab/bridgesim/hooking"
	"github.com/sarchlab/bridgesim/naming"
)

// HookPosChanEnqueue marks when a token enters a channel.
var HookPosChanEnqueue = &hooking.HookPos{Name: "Chan Enqueue"}

// HookPosChanDequeue marks when a token leaves a channel.
var HookPosChanDequeue = &hooking.HookPos{Name: "Chan Dequeue"}

// A ChannelOverflowError reports a channel whose queue exceeded its bound. It
// indicates a host/FPGA rate mismatch bug and is fatal to the run.
type ChannelOverflowError struct {
	Channel  string
	Capacity int
}

func (e *ChannelOverflowError) Error() string {
	return fmt.Sprintf(
		"channel %s overflowed its bound of %d tokens",
		e.Channel, e.Capacity)
}

// A PipeChannel is a FIFO token queue with a fixed delivery latency. A token
// enqueued at step t becomes visible at the output at step t+latency, in
// enqueue order, with no loss or duplication. Under backpressure tokens queue
// up to the capacity bound, beyond which Enqueue fails with a
// ChannelOverflowError.
type PipeChannel struct {
	hooking.HookableBase

	name     string
	latency  uint64
	capacity int

	step    uint64
	entries []pipeEntry
}

type pipeEntry struct {
	token   Token
	readyAt uint64
}

// A PipeChannelBuilder can build pipe channels.
type PipeChannelBuilder struct {
	latency  int
	capacity int
}

// MakePipeChannelBuilder creates a builder with default parameters.
func MakePipeChannelBuilder() PipeChannelBuilder {
	return PipeChannelBuilder{capacity: 16}
}

// WithLatency sets the delivery latency in logical steps.
func (b PipeChannelBuilder) WithLatency(latency int) PipeChannelBuilder {
	b.latency = latency
	return b
}

// WithCapacity sets the queue bound.
func (b PipeChannelBuilder) WithCapacity(capacity int) PipeChannelBuilder {
	b.capacity = capacity
	return b
}

// Build builds a pipe channel.
func (b PipeChannelBuilder) Build(name string) *PipeChannel {
	naming.MustBeValid(name)

	if b.latency < 0 {
		panic("channel latency must not be negative")
	}

	if b.capacity <= b.latency {
		// A channel must be able to hold every in-flight token of its own
		// latency window without counting them against backpressure.
		b.capacity = b.latency + 16
	}

	return &PipeChannel{
		name:     name,
		latency:  uint64(b.latency),
		capacity: b.capacity,
	}
}

// Name returns the name of the channel.
func (c *PipeChannel) Name() string {
	return c.name
}

// Latency returns the delivery latency in logical steps.
func (c *PipeChannel) Latency() int {
	return int(c.latency)
}

// Capacity returns the queue bound.
func (c *PipeChannel) Capacity() int {
	return c.capacity
}

// Len returns the number of queued tokens, delivered or still in flight.
func (c *PipeChannel) Len() int {
	return len(c.entries)
}

// Step returns the channel's current logical step.
func (c *PipeChannel) Step() uint64 {
	return c.step
}

// CanEnqueue tells if one more token fits under the bound.
func (c *PipeChannel) CanEnqueue() bool {
	return len(c.entries) < c.capacity
}

// Enqueue adds a token at the current step. It becomes dequeueable at
// step+latency.
func (c *PipeChannel) Enqueue(t Token) error {
	if len(c.entries) >= c.capacity {
		return &ChannelOverflowError{Channel: c.name, Capacity: c.capacity}
	}

	c.entries = append(c.entries, pipeEntry{
		token:   t,
		readyAt: c.step + c.latency,
	})

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosChanEnqueue,
			Item:   t,
		})
	}

	return nil
}

// Peek returns the head token without removing it. The second return value is
// false when no token has reached the output yet.
func (c *PipeChannel) Peek() (Token, bool) {
	if len(c.entries) == 0 {
		return Token{}, false
	}

	head := c.entries[0]
	if head.readyAt > c.step {
		return Token{}, false
	}

	return head.token, true
}

// Dequeue removes and returns the head token, if one has reached the output.
func (c *PipeChannel) Dequeue() (Token, bool) {
	t, ok := c.Peek()
	if !ok {
		return Token{}, false
	}

	c.entries = c.entries[1:]

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosChanDequeue,
			Item:   t,
		})
	}

	return t, true
}

// Advance moves the channel forward by n logical steps, releasing in-flight
// tokens whose latency has elapsed.
func (c *PipeChannel) Advance(n uint64) {
	c.step += n
}
