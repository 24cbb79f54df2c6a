package event

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cexll/deckagent-go/pkg/session"
)

// defaultBuffer 是消费者侧通道的缓冲大小；超出部分进入 forward 的无界队列。
const defaultBuffer = 256

// RunFunc 在会话状态的副本上执行长任务，期间通过 emit 上报进度。
// 返回的 data 会作为成功终止事件的载荷。
type RunFunc func(ctx context.Context, state *session.State, emit func(Event)) (map[string]any, error)

// Relay 将长任务的进度转成事件流：派生会话状态副本、在 worker goroutine
// 中执行任务、先把副本的对话记录提交回存储，再发出恰好一个终止事件并
// 关闭通道。worker 与消费者之间由无界队列解耦：慢消费者不会反压生成
// 过程，事件也绝不丢失。
type Relay struct {
	store  session.Store
	logger *zap.Logger
	buffer int
}

// NewRelay 构造 Relay。logger 为 nil 时使用 no-op logger。
func NewRelay(store session.Store, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		store:  store,
		logger: logger,
		buffer: defaultBuffer,
	}
}

// Run 启动 worker 并立即返回事件通道与完成信号。事件通道关闭即流结束；
// 关闭前必然已发出恰好一个 complete 或 error 事件。done 在对话记录提交
// 且终止事件入队后关闭，此后对同一会话再派生新任务是安全的——无论事件
// 通道是否有人消费。
func (r *Relay) Run(ctx context.Context, sessionID string, fn RunFunc) (<-chan Event, <-chan struct{}, error) {
	if fn == nil {
		return nil, nil, fmt.Errorf("event: run function is nil")
	}
	// Get 返回深拷贝，worker 在副本上追加消息不会与原状态竞争。
	state, err := r.store.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("event: fork session %s: %w", sessionID, err)
	}

	in := make(chan Event)
	out := make(chan Event, r.buffer)
	done := make(chan struct{})
	go forward(in, out)
	go r.work(ctx, in, done, state, fn)
	return out, done, nil
}

// forward 把 worker 的事件搬运到消费者通道。队列没有上限，所以 worker
// 侧的发送永远很快就绪；in 关闭后先清空队列再关闭 out，保证终止事件
// 一定送达且位于最后。
func forward(in <-chan Event, out chan<- Event) {
	var queue []Event
	for {
		var send chan<- Event
		var next Event
		if len(queue) > 0 {
			send = out
			next = queue[0]
		}
		select {
		case evt, ok := <-in:
			if !ok {
				for _, e := range queue {
					out <- e
				}
				close(out)
				return
			}
			queue = append(queue, evt)
		case send <- next:
			queue = queue[1:]
		}
	}
}

func (r *Relay) work(ctx context.Context, in chan Event, done chan struct{}, state *session.State, fn RunFunc) {
	sessionID := state.ID
	var (
		data    map[string]any
		runErr  error
		aborted any
	)

	defer func() {
		if rec := recover(); rec != nil {
			aborted = rec
			r.logger.Error("relay worker panicked",
				zap.String("session_id", sessionID),
				zap.Any("panic", rec))
		}

		// 先提交对话记录，再发终止事件并关闭通道：客户端收到终止信号
		// 时状态已经落盘。
		if err := r.store.Put(context.WithoutCancel(ctx), state); err != nil {
			r.logger.Error("commit session after run failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}

		in <- r.terminalEvent(sessionID, data, runErr, aborted)
		close(in)
		close(done)
	}()

	emit := func(evt Event) {
		// 终止事件由 Relay 统一发出，任务内部只报进度。
		if evt.IsTerminal() {
			r.logger.Warn("run function attempted to emit terminal event",
				zap.String("session_id", sessionID),
				zap.String("type", string(evt.Type)))
			return
		}
		evt.SessionID = sessionID
		in <- normalizeEvent(evt)
	}

	data, runErr = fn(ctx, state, emit)
}

func (r *Relay) terminalEvent(sessionID string, data map[string]any, runErr error, aborted any) Event {
	switch {
	case aborted != nil:
		return New(TypeError, sessionID, map[string]any{
			"message": fmt.Sprintf("internal error: %v", aborted),
		})
	case runErr != nil:
		return New(TypeError, sessionID, map[string]any{
			"message": runErr.Error(),
		})
	default:
		return New(TypeComplete, sessionID, data)
	}
}
