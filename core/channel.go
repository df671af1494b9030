package core

import (
	"errors"
	"runtime/debug"
	"sync/atomic"
)

// Channel is an unbuffered rendezvous between tasklets of one scheduler.
//
// A transfer completes only when a sender and a receiver meet. Waiting senders
// and waiting receivers are each served in strict arrival order, and at most
// one of the two queues is non-empty at any time.
//
// Send blocks the sender until a receiver has taken the value; Receive blocks
// only when no sender is waiting. Whichever side arrives second finds its
// counterpart parked and appends it to the back of the ready queue; neither
// side yields at that point.
type Channel[T any] struct {
	sched *Scheduler
	name  string

	senders   taskletQueue
	receivers taskletQueue

	// Atomic mirrors for Stats
	nsenders   atomic.Int64
	nreceivers atomic.Int64
	transfers  atomic.Int64
}

// NewChannel creates a channel whose operations run on s.
func NewChannel[T any](s *Scheduler) *Channel[T] {
	if s == nil {
		panic("tasklet: NewChannel called with nil scheduler")
	}
	return &Channel[T]{
		sched:     s,
		senders:   newTaskletQueue(),
		receivers: newTaskletQueue(),
	}
}

// NewNamedChannel is NewChannel with a name for stats and metrics.
func NewNamedChannel[T any](s *Scheduler, name string) *Channel[T] {
	c := NewChannel[T](s)
	c.name = name
	return c
}

// Name returns the channel name, empty if unnamed.
func (c *Channel[T]) Name() string {
	return c.name
}

// Balance is the number of waiting senders minus the number of waiting receivers.
func (c *Channel[T]) Balance() int {
	return c.senders.Len() - c.receivers.Len()
}

// Stats returns a snapshot of the wait queues; safe from any goroutine.
func (c *Channel[T]) Stats() ChannelStats {
	senders := int(c.nsenders.Load())
	receivers := int(c.nreceivers.Load())
	return ChannelStats{
		Name:      c.name,
		Senders:   senders,
		Receivers: receivers,
		Balance:   senders - receivers,
		Transfers: c.transfers.Load(),
	}
}

// Send delivers v to a receiver. It returns only after a Receive has taken v.
// Send panics with ErrNotInTasklet outside a running tasklet.
func (c *Channel[T]) Send(v T) {
	c.send(v)
}

// SendException sends a Bomb built from kind and message. The receiver's Receive
// returns it as the error, so errors.Is(err, kind) holds there.
func (c *Channel[T]) SendException(kind error, message string) {
	c.send(envelope{bomb: c.newBomb(kind, message)})
}

// SendError sends err as a Bomb. A *Bomb in err's chain is forwarded as is.
func (c *Channel[T]) SendError(err error) {
	var b *Bomb
	if !errors.As(err, &b) {
		b = c.newBomb(err, "")
	}
	c.send(envelope{bomb: b})
}

// Receive takes the next value. If the sender sent a Bomb, Receive returns the
// zero value and the Bomb as the error.
// Receive panics with ErrNotInTasklet outside a running tasklet.
func (c *Channel[T]) Receive() (T, error) {
	cur := c.sched.mustCurrent("receive")

	var payload any
	if sender := c.senders.Pop(); sender != nil {
		c.syncCounts()
		payload = sender.mailbox
		sender.mailbox = nil
		c.sched.makeReady(sender)
		c.recordTransfer(true)
	} else {
		c.receivers.Push(cur)
		c.syncCounts()
		c.sched.block(cur)

		// Paired by a sender, which handed over its payload and is waiting on us.
		payload = cur.mailbox
		partner := cur.partner
		cur.mailbox = nil
		cur.partner = nil
		c.sched.makeReady(partner)
	}

	return c.unpack(payload)
}

func (c *Channel[T]) send(payload any) {
	cur := c.sched.mustCurrent("send")

	if receiver := c.receivers.Pop(); receiver != nil {
		c.syncCounts()
		receiver.mailbox = payload
		receiver.partner = cur
		c.sched.makeReady(receiver)
		c.recordTransfer(false)
		c.sched.block(cur)
		return
	}

	cur.mailbox = payload
	c.senders.Push(cur)
	c.syncCounts()
	c.sched.block(cur)
}

func (c *Channel[T]) unpack(payload any) (T, error) {
	var zero T
	if env, ok := payload.(envelope); ok {
		return zero, env.bomb
	}
	v, _ := payload.(T)
	return v, nil
}

func (c *Channel[T]) newBomb(kind error, message string) *Bomb {
	cur := c.sched.mustCurrent("send")
	if message == "" && kind != nil {
		message = kind.Error()
	}
	return &Bomb{
		Kind:       kind,
		Message:    message,
		Origin:     cur.id,
		OriginName: cur.name,
		Stack:      debug.Stack(),
	}
}

func (c *Channel[T]) syncCounts() {
	c.nsenders.Store(int64(c.senders.Len()))
	c.nreceivers.Store(int64(c.receivers.Len()))
}

func (c *Channel[T]) recordTransfer(immediate bool) {
	c.transfers.Add(1)
	c.sched.metrics.RecordTransfer(c.name, immediate)
}
