package storage

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// GravatarURL is the default avatar of email, used at registration and
// when an uploaded avatar is removed.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon&s=250"
}
