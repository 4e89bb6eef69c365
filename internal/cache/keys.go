package cache

import "fmt"

// Key builders. The formats are load-bearing: existing deployments already
// hold entries under these names, so they must not change.

func UserProfileKey(userID string) string {
	return "UserProfile_" + userID
}

func ChatMessagesKey(chatID uint) string {
	return fmt.Sprintf("chat_messages_%d", chatID)
}

func UserChatsKey(userID string) string {
	return "user_chats_" + userID
}

func ApprovedProjectsKey(userID string) string {
	return "approved_projects_" + userID
}
