package stream

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/sjson"
)

// AnthropicAdapter normalizes raw Anthropic streaming events into platform
// events, for backends that proxy the provider stream to the front end
// unchanged instead of re-emitting their own envelope format.
//
// The adapter tracks open content blocks by index so tool_use block
// boundaries can be mapped to tool phase events.
type AnthropicAdapter struct {
	taskID string
	blocks map[int]string // index -> block type
}

// NewAnthropicAdapter creates an adapter for a single provider stream.
func NewAnthropicAdapter() *AnthropicAdapter {
	return &AnthropicAdapter{blocks: make(map[int]string)}
}

// Normalize converts one provider event into zero or more platform events.
// Events with no front-end meaning (text deltas, pings) produce nothing;
// the transcript itself is reconstructed from the session store.
func (a *AnthropicAdapter) Normalize(event anthropic.MessageStreamEventUnion) []Event {
	switch e := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		a.taskID = e.Message.ID
		return []Event{
			{Type: EventExecutionStart, Payload: payload(
				"task_id", e.Message.ID,
			)},
			{Type: EventModelChanged, Payload: payload(
				"model", string(e.Message.Model),
			)},
			{Type: EventTokenUsage, Payload: payload(
				"input_tokens", e.Message.Usage.InputTokens,
			)},
		}

	case anthropic.ContentBlockStartEvent:
		if block, ok := e.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			a.blocks[int(e.Index)] = "tool_use"
			return []Event{{Type: EventToolStart, Payload: payload(
				"task_id", a.taskID,
				"tool", block.Name,
				"tool_use_id", block.ID,
			)}}
		}
		a.blocks[int(e.Index)] = "text"
		return nil

	case anthropic.ContentBlockDeltaEvent:
		if a.blocks[int(e.Index)] != "tool_use" {
			return nil
		}
		if _, ok := e.Delta.AsAny().(anthropic.InputJSONDelta); ok {
			return []Event{{Type: EventToolStep, Payload: payload(
				"task_id", a.taskID,
				"detail", "receiving tool input",
			)}}
		}
		return nil

	case anthropic.ContentBlockStopEvent:
		blockType := a.blocks[int(e.Index)]
		delete(a.blocks, int(e.Index))
		if blockType == "tool_use" {
			return []Event{{Type: EventToolComplete, Payload: payload(
				"task_id", a.taskID,
			)}}
		}
		return nil

	case anthropic.MessageDeltaEvent:
		return []Event{{Type: EventTokenUsage, Payload: payload(
			"output_tokens", e.Usage.OutputTokens,
		)}}

	case anthropic.MessageStopEvent:
		return []Event{{Type: EventExecutionComplete, Payload: payload(
			"task_id", a.taskID,
		)}}

	default:
		// Unknown provider events are dropped; the dispatcher would skip
		// them anyway.
		return nil
	}
}

// payload builds a raw JSON payload from alternating key/value pairs.
func payload(kv ...any) json.RawMessage {
	raw := []byte("{}")
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		raw, _ = sjson.SetBytes(raw, key, kv[i+1])
	}
	return raw
}
