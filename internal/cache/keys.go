package cache

import "fmt"

// Key builders for every cached view and control key. Writers and
// invalidators must both go through these so a namespace pattern always
// covers the keys built for it.

// SessionKey holds the cached session header written at creation.
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// SessionContextKey holds the cached session header plus recent messages.
func SessionContextKey(sessionID string) string {
	return fmt.Sprintf("session:%s:context", sessionID)
}

// UserSessionsKey names one page of a user's session list. active is the
// filter signature: "" for unfiltered, "true"/"false" otherwise.
func UserSessionsKey(userID, active string, limit, skip int) string {
	base := fmt.Sprintf("user:%s:sessions", userID)
	if active != "" {
		base += ":active:" + active
	}
	return fmt.Sprintf("%s:limit:%d:skip:%d", base, limit, skip)
}

// UserSessionsPattern covers every cached page of a user's session list,
// with or without the active filter.
func UserSessionsPattern(userID string) string {
	return fmt.Sprintf("user:%s:sessions*", userID)
}

// UserFeedKey names one composed feed page for a viewer.
func UserFeedKey(userID string, limit, offset int) string {
	return fmt.Sprintf("user:%s:feed:limit:%d:offset:%d", userID, limit, offset)
}

// UserFeedPattern covers every cached feed page for a viewer.
func UserFeedPattern(userID string) string {
	return fmt.Sprintf("user:%s:feed:*", userID)
}

// UserPostsKey names one page of a user's own posts.
func UserPostsKey(userID string, limit, offset int) string {
	return fmt.Sprintf("user:%s:posts:limit:%d:offset:%d", userID, limit, offset)
}

// UserPostsPattern covers every cached page of a user's own posts.
func UserPostsPattern(userID string) string {
	return fmt.Sprintf("user:%s:posts:*", userID)
}

// PostDetailKey holds a single post's cached detail view.
func PostDetailKey(postID string) string {
	return fmt.Sprintf("post:%s:detail", postID)
}

// TagPostsKey names one page of a tag's post list.
func TagPostsKey(tag string, limit, offset int) string {
	return fmt.Sprintf("tag:%s:posts:limit:%d:offset:%d", tag, limit, offset)
}

// TagPostsPattern covers every cached page of a tag's post list.
func TagPostsPattern(tag string) string {
	return fmt.Sprintf("tag:%s:posts:*", tag)
}

// PopularTagsKey holds the cached tag ranking for one limit.
func PopularTagsKey(limit int) string {
	return fmt.Sprintf("popular_tags:limit:%d", limit)
}

// PopularTagsPattern covers every cached tag ranking.
func PopularTagsPattern() string {
	return "popular_tags:*"
}

// DeviceRegistryKey is the hash of deviceID -> current token string for a user.
func DeviceRegistryKey(userID string) string {
	return fmt.Sprintf("jwt:user:%s", userID)
}

// BlacklistKey marks a revoked token id.
func BlacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:token:%s", jti)
}

// LoginRateKey counts failed logins for a username inside the fixed window.
func LoginRateKey(username string) string {
	return fmt.Sprintf("rate_limit:login:%s", username)
}

// CaptchaKey holds the expected code for a captcha challenge.
func CaptchaKey(sessionID string) string {
	return fmt.Sprintf("captcha:%s", sessionID)
}
