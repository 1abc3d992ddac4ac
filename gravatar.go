package auth

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GravatarURL builds the avatar URL assigned at registration. Gravatar keys
// images by the md5 of the trimmed, lowercased email.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon", md5.Sum([]byte(normalized)))
}
