package shared

import "fmt"

// SubmissionLockKey builds the redis key guarding one form action of one
// session.
func SubmissionLockKey(sessionID, action string) string {
	return fmt.Sprintf("stockroom:submit:%s:%s", sessionID, action)
}
