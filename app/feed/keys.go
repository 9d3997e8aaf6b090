package feed

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// ItemKey canonicalizes a link into the seen-set key: surrounding space and the
// fragment are dropped, everything else is kept verbatim.
func ItemKey(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func EntryGUID(key string) string {
	hash := sha1.Sum([]byte(key))
	return hex.EncodeToString(hash[:])
}
