package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultHeartbeat = 25 * time.Second

// Stream 负责把事件安全地写成 SSE 帧，多 goroutine 写入时由内部锁串行化。
type Stream struct {
	w         io.Writer
	flush     func()
	heartbeat time.Duration
	mu        sync.Mutex
}

// NewStream 基于 HTTP 响应构造 SSE 流并写入标准头。
func NewStream(w http.ResponseWriter) *Stream {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")

	s := &Stream{w: w, heartbeat: defaultHeartbeat}
	if f, ok := w.(http.Flusher); ok {
		s.flush = f.Flush
	}
	return s
}

// NewStreamWriter 把任意 writer 包装成流，心跳默认关闭，主要用于测试。
func NewStreamWriter(w io.Writer) *Stream {
	return &Stream{w: w}
}

// SetHeartbeat 调整心跳间隔，<=0 表示关闭心跳。
func (s *Stream) SetHeartbeat(d time.Duration) {
	if d <= 0 {
		s.heartbeat = 0
		return
	}
	s.heartbeat = d
}

// StreamEvents 持续转发事件直到通道关闭（正常结束）或 ctx 取消。
func (s *Stream) StreamEvents(ctx context.Context, events <-chan Event) error {
	if s == nil {
		return errors.New("event: stream is nil")
	}

	var ticks <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Send(evt); err != nil {
				return err
			}
		case now := <-ticks:
			// 注释行对客户端不可见，仅用于保活。
			if err := s.writeFrame(fmt.Sprintf(": ping %d\n\n", now.Unix())); err != nil {
				return err
			}
		}
	}
}

// Send 序列化单个事件并立即刷出。
func (s *Stream) Send(evt Event) error {
	if s == nil {
		return errors.New("event: stream is nil")
	}
	normalized := normalizeEvent(evt)

	body, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("event: marshal SSE payload: %w", err)
	}
	return s.writeFrame(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n",
		normalized.ID, normalized.Type, body))
}

func (s *Stream) writeFrame(frame string) error {
	if s.w == nil {
		return errors.New("event: stream writer not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := io.WriteString(s.w, frame); err != nil {
		return err
	}
	if s.flush != nil {
		s.flush()
	}
	return nil
}
