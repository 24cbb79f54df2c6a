package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType 标识进度事件的种类。
type EventType string

const (
	// TypeToolCall 表示一次工具调用已派发。
	TypeToolCall EventType = "tool_call"
	// TypeToolResult 表示一次工具调用完成并产生结果。
	TypeToolResult EventType = "tool_result"
	// TypeScreenshot 表示一张幻灯片已截图。
	TypeScreenshot EventType = "screenshot_captured"
	// TypeSlideAdded 表示合成 PPTX 新增一页。
	TypeSlideAdded EventType = "pptx_slide_added"
	// TypeStatus 表示阶段性状态更新（如开始导出）。
	TypeStatus EventType = "status"
	// TypeComplete 是成功的终止事件，每次会话恰好发出一个终止事件。
	TypeComplete EventType = "complete"
	// TypeError 是失败的终止事件。
	TypeError EventType = "error"
)

// Event 是推送给客户端的单条进度消息。
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	SessionID string         `json:"session_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// New 创建带有唯一 ID 和时间戳的事件。
func New(typ EventType, sessionID string, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Data:      data,
	}
}

// IsTerminal 报告事件是否结束一次会话的事件流。
func (e Event) IsTerminal() bool {
	return e.Type == TypeComplete || e.Type == TypeError
}

// Validate 校验事件的必填字段。
func (e Event) Validate() error {
	if strings.TrimSpace(string(e.Type)) == "" {
		return errors.New("event: type is empty")
	}
	switch e.Type {
	case TypeToolCall, TypeToolResult, TypeScreenshot, TypeSlideAdded, TypeStatus, TypeComplete, TypeError:
		return nil
	default:
		return fmt.Errorf("event: unknown type %q", e.Type)
	}
}

// normalizeEvent 补齐缺失的 ID 和时间戳。
func normalizeEvent(evt Event) Event {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	return evt
}
