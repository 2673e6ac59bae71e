package cache

import "fmt"

// Staff listings are keyed on the community's staff generation. A commit
// bumps the generation instead of deleting the listings, so a reader that
// loaded a listing before the commit can only write it under the old key.

// StaffGenerationKey counts committed membership, role and ban changes of a community
func StaffGenerationKey(communityID int64) string {
	return fmt.Sprintf("community:%d:staff:gen", communityID)
}

// AdministratorsKey caches the administrator listing of a community
func AdministratorsKey(communityID, gen int64) string {
	return fmt.Sprintf("community:%d:administrators:%d", communityID, gen)
}

// ModeratorsKey caches the moderator listing of a community
func ModeratorsKey(communityID, gen int64) string {
	return fmt.Sprintf("community:%d:moderators:%d", communityID, gen)
}

// BannedKey caches the banned user listing of a community
func BannedKey(communityID, gen int64) string {
	return fmt.Sprintf("community:%d:banned:%d", communityID, gen)
}

// FeedGenerationKey counts changes to what userID may see in feeds: its
// blocks in either direction, its reports and its bans
func FeedGenerationKey(userID int64) string {
	return fmt.Sprintf("feed:viewer:%d:gen", userID)
}
