package gateway

import (
	"context"
	"sync"

	"github.com/omnigate/omnigate/internal/canonical"
	"github.com/omnigate/omnigate/internal/pkg/logs"
)

type QueueOptions struct {
	LaneBuffer    int
	MaxConcurrent int
}

// MessageQueue serializes messages per conversation lane while bounding
// total concurrency. Messages from the same chat are processed in order;
// unrelated chats proceed in parallel.
type MessageQueue struct {
	lanes         map[string]chan *canonical.Message
	mu            sync.RWMutex
	handler       func(context.Context, *canonical.Message) error
	ctx           context.Context
	laneBuffer    int
	maxConcurrent chan struct{}
}

func newMessageQueue(opts QueueOptions) *MessageQueue {
	laneBuffer := opts.LaneBuffer
	if laneBuffer <= 0 {
		laneBuffer = 10
	}

	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 100
	}

	return &MessageQueue{
		lanes:         make(map[string]chan *canonical.Message),
		laneBuffer:    laneBuffer,
		maxConcurrent: make(chan struct{}, maxConcurrent),
	}
}

func (q *MessageQueue) Init(ctx context.Context, handler func(context.Context, *canonical.Message) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ctx = ctx
	q.handler = handler
	return nil
}

func (q *MessageQueue) Enqueue(ctx context.Context, msg *canonical.Message) error {
	lane := q.getOrCreateLane(laneKey(msg))
	select {
	case lane <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// laneKey pins a message to its conversation so replies keep their order.
func laneKey(msg *canonical.Message) string {
	return msg.ChannelType + ":" + msg.Instance + ":" + msg.ChatID
}

func (q *MessageQueue) getOrCreateLane(key string) chan *canonical.Message {
	q.mu.RLock()
	lane, exists := q.lanes[key]
	q.mu.RUnlock()
	if exists {
		return lane
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if lane, exists := q.lanes[key]; exists {
		return lane
	}

	lane = make(chan *canonical.Message, q.laneBuffer)
	q.lanes[key] = lane
	go q.processLane(key, lane)
	return lane
}

func (q *MessageQueue) processLane(key string, lane chan *canonical.Message) {
	for {
		select {
		case <-q.ctx.Done():
			return
		case msg := <-lane:
			if err := q.acquire(q.ctx); err != nil {
				return
			}
			err := q.handler(q.ctx, msg)
			q.release()
			if err != nil {
				logs.CtxWarn(q.ctx, "[queue] failed to process message in lane %s: %v", key, err)
			}
		}
	}
}

func (q *MessageQueue) acquire(ctx context.Context) error {
	select {
	case q.maxConcurrent <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MessageQueue) release() {
	select {
	case <-q.maxConcurrent:
	default:
	}
}
