package ntripclient

import (
	"encoding/base64"

	"github.com/bramburn/ntripcore/internal/sourcetable"
)

// EncodeAuth produces the precomputed Authorization header line for the
// GET request, per §4.7. credentials is the raw "user:pass" string from
// the URI (empty if none was given); it is base64-encoded verbatim, with
// no URL-decoding or trimming. Digest authentication silently produces no
// header: a mountpoint advertising digest is already rejected by the
// capability gate in §4.5 before this is ever called.
func EncodeAuth(credentials string, kind sourcetable.Authentication) string {
	switch kind {
	case sourcetable.AuthBasic:
		if credentials == "" {
			return ""
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(credentials))
		return "Authorization: Basic " + encoded + "\r\n"
	default:
		return ""
	}
}
