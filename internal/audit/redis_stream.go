package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultStream is the Redis stream key used when none is configured.
const DefaultStream = "audit:address-eligibility"

// RedisStreamSink appends events to a capped Redis stream with XADD.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamSink creates a sink. maxLen <= 0 leaves the stream uncapped.
func NewRedisStreamSink(client *redis.Client, stream string, maxLen int64) *RedisStreamSink {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

// Record implements Sink.
func (s *RedisStreamSink) Record(ctx context.Context, e Event) error {
	if e.Actor == "" {
		e.Actor = ActorFrom(ctx)
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("audit: marshal payload: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":           e.ID,
			"type":         string(e.Type),
			"database_ref": e.DatabaseRef,
			"actor":        e.Actor,
			"payload":      string(payload),
			"at":           e.At.Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("audit: xadd %s: %w", s.stream, err)
	}
	return nil
}

// Recent implements Reader.
func (s *RedisStreamSink) Recent(ctx context.Context, n int64) ([]Event, error) {
	if n <= 0 {
		n = 50
	}
	msgs, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("audit: xrevrange %s: %w", s.stream, err)
	}
	events := make([]Event, 0, len(msgs))
	for _, m := range msgs {
		events = append(events, decode(m.Values))
	}
	return events, nil
}

func decode(v map[string]any) Event {
	str := func(k string) string {
		s, _ := v[k].(string)
		return s
	}
	e := Event{
		ID:          str("id"),
		Type:        EventType(str("type")),
		DatabaseRef: str("database_ref"),
		Actor:       str("actor"),
	}
	if raw := str("payload"); raw != "" && raw != "null" {
		var p any
		if json.Unmarshal([]byte(raw), &p) == nil {
			e.Payload = p
		}
	}
	if at, err := time.Parse(time.RFC3339Nano, str("at")); err == nil {
		e.At = at
	}
	return e
}
