package state

import "fmt"

// Key families in the shared store. One record per user (or admin) identity;
// no record is shared across identities.
const (
	userStateKeyFmt     = "user_state:%d"
	feedbackTypeKeyFmt  = "feedback_type:%d"
	feedbackLockKeyFmt  = "feedback_lock:%d"
	blockedKeyFmt       = "blocked:%d"
	adminReplyingKeyFmt = "admin_replying:%d"
	adminReplyLockFmt   = "admin_reply_lock:%d"
	navStackKeyFmt      = "nav_stack:%d"
)

func userStateKey(userID int64) string    { return fmt.Sprintf(userStateKeyFmt, userID) }
func feedbackTypeKey(userID int64) string { return fmt.Sprintf(feedbackTypeKeyFmt, userID) }
func feedbackLockKey(userID int64) string { return fmt.Sprintf(feedbackLockKeyFmt, userID) }
func blockedKey(userID int64) string      { return fmt.Sprintf(blockedKeyFmt, userID) }
func adminReplyingKey(adminID int64) string {
	return fmt.Sprintf(adminReplyingKeyFmt, adminID)
}
func adminReplyLockKey(adminID int64) string {
	return fmt.Sprintf(adminReplyLockFmt, adminID)
}
func navStackKey(userID int64) string { return fmt.Sprintf(navStackKeyFmt, userID) }
