package service

import (
	"fmt"
	"strings"

	"github.com/ScholarChen20/travel-agent/internal/social/domain"
)

// DefaultBlacklist is the stock keyword list applied when no custom list is
// configured.
var DefaultBlacklist = []string{
	"spam", "scam", "fraud", "gambling", "casino", "counterfeit",
}

const (
	// MinPostLength is the shortest acceptable post body.
	MinPostLength = 10
	// MinCommentLength is the shortest acceptable comment body.
	MinCommentLength = 1
)

// Moderator runs the synchronous content check: a lowercase keyword scan
// plus a minimum-length rule.
type Moderator struct {
	blacklist []string
}

// NewModerator returns a Moderator over the given keyword list; keywords
// are matched case-insensitively as substrings.
func NewModerator(blacklist []string) *Moderator {
	if len(blacklist) == 0 {
		blacklist = DefaultBlacklist
	}
	lowered := make([]string, len(blacklist))
	for i, w := range blacklist {
		lowered[i] = strings.ToLower(w)
	}
	return &Moderator{blacklist: lowered}
}

// Review returns the moderation outcome for content and, when rejected, a
// human-readable reason.
func (m *Moderator) Review(content string, minLength int) (domain.ModerationStatus, string) {
	lowered := strings.ToLower(content)
	for _, word := range m.blacklist {
		if strings.Contains(lowered, word) {
			return domain.ModerationRejected, fmt.Sprintf("contains banned keyword %q", word)
		}
	}
	if len(strings.TrimSpace(content)) < minLength {
		return domain.ModerationRejected, fmt.Sprintf("content shorter than %d characters", minLength)
	}
	return domain.ModerationApproved, ""
}
