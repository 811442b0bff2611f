package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"ludo-server/internal/game"
)

// Outbound events leave the core here, fire-and-forget. The socket layer
// subscribes on the other side of redis; the core tracks no delivery state.
// The last envelope per topic is retained for the get-last-event catch-up.

var ErrNoEvents = errors.New("no_events")

type Publisher interface {
	Publish(ctx context.Context, topic string, events ...game.Event)
	LastEvent(ctx context.Context, topic string) ([]byte, error)
}

// Envelope is the wire form: a tag plus the event payload.
type Envelope struct {
	Event string     `json:"event"`
	Data  game.Event `json:"data"`
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func channel(topic string) string { return "push:" + topic }
func lastKey(topic string) string { return "push:last:" + topic }

func (p *RedisPublisher) Publish(ctx context.Context, topic string, events ...game.Event) {
	for _, ev := range events {
		raw, err := json.Marshal(Envelope{Event: ev.Kind(), Data: ev})
		if err != nil {
			log.Error().Err(err).Str("event", ev.Kind()).Msg("marshal outbound event")
			continue
		}
		if err := p.rdb.Publish(ctx, channel(topic), raw).Err(); err != nil {
			log.Warn().Err(err).Str("topic", topic).Str("event", ev.Kind()).Msg("publish failed")
		}
		if err := p.rdb.Set(ctx, lastKey(topic), raw, 0).Err(); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("retain last event failed")
		}
	}
}

func (p *RedisPublisher) LastEvent(ctx context.Context, topic string) ([]byte, error) {
	raw, err := p.rdb.Get(ctx, lastKey(topic)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoEvents
	}
	return raw, err
}

// Capture keeps published events in memory; used by tests and the bot.
type Capture struct {
	mu     sync.Mutex
	topics map[string][]game.Event
}

func NewCapture() *Capture {
	return &Capture{topics: make(map[string][]game.Event)}
}

func (c *Capture) Publish(_ context.Context, topic string, events ...game.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[topic] = append(c.topics[topic], events...)
}

func (c *Capture) LastEvent(_ context.Context, topic string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	evs := c.topics[topic]
	if len(evs) == 0 {
		return nil, ErrNoEvents
	}
	return json.Marshal(Envelope{Event: evs[len(evs)-1].Kind(), Data: evs[len(evs)-1]})
}

// Events returns everything published on a topic, oldest first.
func (c *Capture) Events(topic string) []game.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]game.Event(nil), c.topics[topic]...)
}
