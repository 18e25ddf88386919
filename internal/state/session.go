package state

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Session record TTL. Refreshed by every mutating call; readers never touch it.
const SessionTTL = time.Hour

// Well-known session record fields.
const (
	FieldType            = "type"
	FieldIsNamed         = "is_named"
	FieldImageMessageID  = "image_message_id"
	FieldMenuMessageID   = "menu_message_id"
	FieldPromptMessageID = "prompt_message_id"
	FieldLastText        = "last_text"
	FieldLastImage       = "last_image"
	FieldLastKeyboard    = "last_keyboard"
)

// SessionStore owns serialization of the per-user field map into the
// key-value store. Values go in as strings: booleans as "true"/"false",
// numbers via their decimal form. On the way out only booleans are re-typed;
// numbers come back as strings (documented asymmetry, tested).
type SessionStore struct {
	kv  KeyValue
	ttl time.Duration
}

// NewSessionStore builds a store with the default record TTL.
func NewSessionStore(kv KeyValue) *SessionStore {
	return &SessionStore{kv: kv, ttl: SessionTTL}
}

// Get returns all stored fields for the user, deserialized. A missing record
// yields an empty map, never an error.
func (s *SessionStore) Get(ctx context.Context, userID int64) (map[string]any, error) {
	raw, err := s.kv.HGetAll(ctx, userStateKey(userID))
	if err != nil {
		return nil, fmt.Errorf("session get %d: %w", userID, err)
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = deserializeValue(v)
	}
	return out, nil
}

// Save merges the given fields into the record. Fields with a nil value are
// skipped, not stored. The whole record's TTL is refreshed afterwards.
func (s *SessionStore) Save(ctx context.Context, userID int64, fields map[string]any) error {
	encoded := make(map[string]string, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		encoded[k] = serializeValue(v)
	}
	if len(encoded) == 0 {
		return nil
	}
	key := userStateKey(userID)
	if err := s.kv.HSet(ctx, key, encoded); err != nil {
		return fmt.Errorf("session save %d: %w", userID, err)
	}
	if err := s.kv.Expire(ctx, key, s.ttl); err != nil {
		return fmt.Errorf("session expire %d: %w", userID, err)
	}
	return nil
}

// GetField reads a single field without deserializing the whole record.
func (s *SessionStore) GetField(ctx context.Context, userID int64, name string) (string, bool, error) {
	v, ok, err := s.kv.HGet(ctx, userStateKey(userID), name)
	if err != nil {
		return "", false, fmt.Errorf("session field %s for %d: %w", name, userID, err)
	}
	return v, ok, nil
}

// DeleteField removes a single field from the record.
func (s *SessionStore) DeleteField(ctx context.Context, userID int64, name string) error {
	if err := s.kv.HDel(ctx, userStateKey(userID), name); err != nil {
		return fmt.Errorf("session del field %s for %d: %w", name, userID, err)
	}
	return nil
}

// Clear deletes the whole record plus affiliated keys: feedback type, admin
// reply binding, block flag and the navigation stack. Used when finalizing
// or aborting a ticket lifecycle.
func (s *SessionStore) Clear(ctx context.Context, userID int64) error {
	err := s.kv.Del(ctx,
		userStateKey(userID),
		feedbackTypeKey(userID),
		adminReplyingKey(userID),
		blockedKey(userID),
		navStackKey(userID),
	)
	if err != nil {
		return fmt.Errorf("session clear %d: %w", userID, err)
	}
	return nil
}

// SetFeedbackType stores the in-progress category choice under its own key
// with a short TTL; lapse of the TTL aborts the half-completed flow.
func (s *SessionStore) SetFeedbackType(ctx context.Context, userID int64, feedbackType string, ttl time.Duration) error {
	if err := s.kv.Set(ctx, feedbackTypeKey(userID), feedbackType, ttl); err != nil {
		return fmt.Errorf("set feedback type %d: %w", userID, err)
	}
	return nil
}

// FeedbackType returns the pending category choice, if it has not expired.
func (s *SessionStore) FeedbackType(ctx context.Context, userID int64) (string, bool, error) {
	v, ok, err := s.kv.Get(ctx, feedbackTypeKey(userID))
	if err != nil {
		return "", false, fmt.Errorf("get feedback type %d: %w", userID, err)
	}
	return v, ok, nil
}

// DeleteFeedbackType drops the pending category choice.
func (s *SessionStore) DeleteFeedbackType(ctx context.Context, userID int64) error {
	if err := s.kv.Del(ctx, feedbackTypeKey(userID)); err != nil {
		return fmt.Errorf("del feedback type %d: %w", userID, err)
	}
	return nil
}

func serializeValue(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}

func deserializeValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	default:
		return v
	}
}
