package sdk

import (
	"time"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
)

// Notify implements session.Notifier. It runs on the session loop and
// must not block.
func (c *Client) Notify(v engine.View) {
	now := time.Now()
	c.emitView(ViewEvent{When: now, View: v})

	if v.Message == nil {
		c.mu.Lock()
		c.lastMsg = domain.Message{}
		c.mu.Unlock()
		return
	}
	c.mu.Lock()
	fresh := *v.Message != c.lastMsg
	c.lastMsg = *v.Message
	c.mu.Unlock()
	if fresh {
		c.emitMessage(MessageEvent{
			When:     now,
			Scenario: v.Scenario,
			State:    v.State,
			Type:     string(v.Message.Type),
			Body:     v.Message.Body,
		})
	}
}

func (c *Client) emitView(event ViewEvent) {
	select {
	case c.views <- event:
	default:
	}
}

func (c *Client) emitMessage(event MessageEvent) {
	select {
	case c.messages <- event:
	default:
	}
}

func (c *Client) emitErr(err error) {
	if err == nil {
		return
	}
	select {
	case c.errs <- err:
	default:
	}
}
