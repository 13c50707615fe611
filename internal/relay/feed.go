package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rdelacruz/freshmarket-backend/pkg/config"
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
	pkgerrors "github.com/rdelacruz/freshmarket-backend/pkg/errors"
	"github.com/rdelacruz/freshmarket-backend/pkg/logger"
)

// OrdersTable is the feed table name for order change events.
const OrdersTable = "orders"

// Feed delivers change events for one table to a handler. The returned
// cancel function tears the subscription down and must be called when the
// consuming view unmounts.
type Feed interface {
	Subscribe(ctx context.Context, table string, handler func(ChangeEvent)) (func() error, error)
}

type feedTransport interface {
	Publish(ctx context.Context, channel string, payload any) error
	Subscribe(ctx context.Context, channels ...string) (*redis.PubSub, error)
	FeedChannel(table string) string
}

// feedChannel is the slice of *redis.PubSub the subscription pump needs.
type feedChannel interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// RedisFeed publishes and consumes order change events over redis pub/sub.
// The publish side implements the notifier boundary the order repository
// expects; publish failures are logged and absorbed so a flaky feed never
// fails a write that already committed.
type RedisFeed struct {
	client     feedTransport
	logg       *logger.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewRedisFeed builds the feed. Backoff bounds govern resubscribe attempts
// after a dropped subscription.
func NewRedisFeed(client feedTransport, cfg config.RelayConfig, logg *logger.Logger) *RedisFeed {
	minBackoff := cfg.ResubscribeMinBackoff
	if minBackoff <= 0 {
		minBackoff = 500 * time.Millisecond
	}
	maxBackoff := cfg.ResubscribeMaxBackoff
	if maxBackoff < minBackoff {
		maxBackoff = minBackoff
	}
	return &RedisFeed{
		client:     client,
		logg:       logg,
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}
}

func (f *RedisFeed) OrderCreated(ctx context.Context, order models.Order) {
	f.publish(ctx, enums.ChangeEventInsert, order)
}

func (f *RedisFeed) OrderUpdated(ctx context.Context, order models.Order) {
	f.publish(ctx, enums.ChangeEventUpdate, order)
}

func (f *RedisFeed) OrderDeleted(ctx context.Context, order models.Order) {
	f.publish(ctx, enums.ChangeEventDelete, order)
}

func (f *RedisFeed) publish(ctx context.Context, eventType enums.ChangeEventType, order models.Order) {
	payload, err := json.Marshal(ChangeEvent{Type: eventType, Order: order})
	if err != nil {
		f.logError(ctx, order, "encode change event", err)
		return
	}
	channel := f.client.FeedChannel(OrdersTable)
	if err := f.client.Publish(ctx, channel, payload); err != nil {
		f.logError(ctx, order, "publish change event", err)
	}
}

func (f *RedisFeed) logError(ctx context.Context, order models.Order, msg string, err error) {
	if f.logg == nil {
		return
	}
	logCtx := f.logg.WithOrderID(ctx, order.ID.String())
	f.logg.Error(logCtx, msg, err)
}

// Subscribe opens a pub/sub subscription for the table's feed channel and
// pumps decoded events to the handler on a background goroutine. A dropped
// subscription is reopened automatically with bounded backoff.
func (f *RedisFeed) Subscribe(ctx context.Context, table string, handler func(ChangeEvent)) (func() error, error) {
	channel := f.client.FeedChannel(table)
	sub, err := f.client.Subscribe(ctx, channel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "subscribe to change feed")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		feed:    f,
		handler: handler,
		open: func(ctx context.Context) (feedChannel, error) {
			return f.client.Subscribe(ctx, channel)
		},
		cancel: cancel,
		sub:    sub,
		done:   make(chan struct{}),
	}
	go s.run(runCtx)
	return s.close, nil
}

type subscription struct {
	feed    *RedisFeed
	handler func(ChangeEvent)
	open    func(ctx context.Context) (feedChannel, error)
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	sub feedChannel
}

func (s *subscription) current() feedChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

// swap installs the reopened channel and releases the dropped one.
func (s *subscription) swap(next feedChannel) {
	s.mu.Lock()
	prev := s.sub
	s.sub = next
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

func (s *subscription) run(ctx context.Context) {
	defer close(s.done)

	backoff := s.feed.minBackoff
	for {
		sub := s.current()
		if sub == nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				if !s.resubscribe(ctx, backoff) {
					return
				}
				if backoff *= 2; backoff > s.feed.maxBackoff {
					backoff = s.feed.maxBackoff
				}
				continue
			}
			backoff = s.feed.minBackoff

			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				if s.feed.logg != nil {
					s.feed.logg.Error(ctx, "decode change event", err)
				}
				continue
			}
			if !event.Type.IsValid() {
				continue
			}
			s.handler(event)
		}
	}
}

// resubscribe waits out the backoff and reopens the channel. Returns false
// when the subscription was torn down while waiting.
func (s *subscription) resubscribe(ctx context.Context, backoff time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(backoff):
	}
	if s.current() == nil {
		return false
	}

	next, err := s.open(ctx)
	if err != nil {
		if s.feed.logg != nil {
			s.feed.logg.Error(ctx, "reopen change feed subscription", err)
		}
		return true
	}
	s.swap(next)
	if s.feed.logg != nil {
		s.feed.logg.Info(ctx, "change feed subscription reopened")
	}
	return true
}

func (s *subscription) close() error {
	s.cancel()

	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
	}
	<-s.done
	return err
}
