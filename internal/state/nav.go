package state

import (
	"context"
	"encoding/json"
	"fmt"
)

// Screen names rendered by the transport layer.
const (
	ScreenMain           = "main"
	ScreenIdentityChoice = "identity_choice"
	ScreenFeedbackPrompt = "feedback_prompt"
	ScreenFeedbackAck    = "feedback_ack"
)

// Frame is one entry of the per-user navigation stack.
type Frame struct {
	Screen string            `json:"screen"`
	Params map[string]string `json:"params,omitempty"`
}

func mainFrame() Frame {
	return Frame{Screen: ScreenMain, Params: map[string]string{}}
}

// NavStack persists the per-user back-stack as one serialized JSON list.
// The stack is never empty: the bottom frame is always {main, {}}. A stored
// value that fails to parse is treated as absent, not as an error —
// navigation is a UX convenience, not a correctness-critical path.
type NavStack struct {
	kv KeyValue
}

func NewNavStack(kv KeyValue) *NavStack {
	return &NavStack{kv: kv}
}

// Current returns the top frame, defaulting to the main frame when the stack
// is absent or corrupt.
func (n *NavStack) Current(ctx context.Context, userID int64) (Frame, error) {
	frames, err := n.load(ctx, userID)
	if err != nil {
		return Frame{}, err
	}
	return frames[len(frames)-1], nil
}

// Push appends a frame.
func (n *NavStack) Push(ctx context.Context, userID int64, screen string, params map[string]string) error {
	frames, err := n.load(ctx, userID)
	if err != nil {
		return err
	}
	if params == nil {
		params = map[string]string{}
	}
	frames = append(frames, Frame{Screen: screen, Params: params})
	return n.store(ctx, userID, frames)
}

// Pop removes the top frame unless only the bottom remains, and returns the
// new top.
func (n *NavStack) Pop(ctx context.Context, userID int64) (Frame, error) {
	frames, err := n.load(ctx, userID)
	if err != nil {
		return Frame{}, err
	}
	if len(frames) > 1 {
		frames = frames[:len(frames)-1]
		if err := n.store(ctx, userID, frames); err != nil {
			return Frame{}, err
		}
	}
	return frames[len(frames)-1], nil
}

// GoBack pops the stack and returns the resulting top's screen and params.
// Backs the "Назад" control directly.
func (n *NavStack) GoBack(ctx context.Context, userID int64) (string, map[string]string, error) {
	top, err := n.Pop(ctx, userID)
	if err != nil {
		return "", nil, err
	}
	return top.Screen, top.Params, nil
}

// Reset collapses the stack to the single main frame.
func (n *NavStack) Reset(ctx context.Context, userID int64) error {
	return n.store(ctx, userID, []Frame{mainFrame()})
}

// GotoTruncate scans from the bottom for the first frame with the given
// screen, truncates the stack to-and-including it (replacing its params when
// given), and pushes a new frame when no match exists.
func (n *NavStack) GotoTruncate(ctx context.Context, userID int64, screen string, params map[string]string) error {
	frames, err := n.load(ctx, userID)
	if err != nil {
		return err
	}
	for i, f := range frames {
		if f.Screen == screen {
			frames = frames[:i+1]
			if params != nil {
				frames[i].Params = params
			}
			return n.store(ctx, userID, frames)
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	frames = append(frames, Frame{Screen: screen, Params: params})
	return n.store(ctx, userID, frames)
}

func (n *NavStack) load(ctx context.Context, userID int64) ([]Frame, error) {
	raw, ok, err := n.kv.Get(ctx, navStackKey(userID))
	if err != nil {
		return nil, fmt.Errorf("nav load %d: %w", userID, err)
	}
	if !ok {
		return []Frame{mainFrame()}, nil
	}
	var frames []Frame
	if err := json.Unmarshal([]byte(raw), &frames); err != nil || len(frames) == 0 {
		// corrupt stack: fall back to the default
		return []Frame{mainFrame()}, nil
	}
	if frames[0].Screen != ScreenMain {
		frames = append([]Frame{mainFrame()}, frames...)
	}
	return frames, nil
}

func (n *NavStack) store(ctx context.Context, userID int64, frames []Frame) error {
	data, err := json.Marshal(frames)
	if err != nil {
		return fmt.Errorf("nav encode %d: %w", userID, err)
	}
	if err := n.kv.Set(ctx, navStackKey(userID), string(data), 0); err != nil {
		return fmt.Errorf("nav store %d: %w", userID, err)
	}
	return nil
}
