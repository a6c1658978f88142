package sourcetable

import "strings"

// Format is the RTCM variant a mountpoint advertises.
type Format int

const (
	FormatUnknown Format = iota
	FormatRTCM2
	FormatRTCM2_0
	FormatRTCM2_1
	FormatRTCM2_2
	FormatRTCM2_3
	FormatRTCM3_0
	FormatRTCM3_1
	FormatRTCM3_2
	FormatRTCM3_3
)

// formatTokens maps normalized (case-folded, space-stripped) sourcetable
// tokens to the format they denote. Encoding this as data rather than a
// chain of conditionals keeps the permissive spellings auditable (§9,
// "Format table").
var formatTokens = map[string]Format{
	"rtcm2":    FormatRTCM2,
	"rtcm 2":   FormatRTCM2,
	"rtcm2.0":  FormatRTCM2_0,
	"rtcm 2.0": FormatRTCM2_0,
	"rtcm2.1":  FormatRTCM2_1,
	"rtcm 2.1": FormatRTCM2_1,
	"rtcm2.2":  FormatRTCM2_2,
	"rtcm22":   FormatRTCM2_2,
	"rtcm 2.2": FormatRTCM2_2,
	"rtcm2.3":  FormatRTCM2_3,
	"rtcm 2.3": FormatRTCM2_3,
	"rtcm1_":   FormatRTCM2_3, // vendor token, confirmed SAPOS RTCM2.3
	"rtcm3":    FormatRTCM3_0,
	"rtcm 3":   FormatRTCM3_0,
	"rtcm3.0":  FormatRTCM3_0,
	"rtcm 3.0": FormatRTCM3_0,
	"rtcm3.1":  FormatRTCM3_1,
	"rtcm 3.1": FormatRTCM3_1,
	"rtcm3.2":  FormatRTCM3_2,
	"rtcm32":   FormatRTCM3_2,
	"rtcm 3.2": FormatRTCM3_2,
	"rtcm3.3":  FormatRTCM3_3,
	"rtcm 3.3": FormatRTCM3_3,
}

// ParseFormat folds token to lower-case and maps it through formatTokens,
// returning FormatUnknown (and false) for anything not recognized.
func ParseFormat(token string) (Format, bool) {
	f, ok := formatTokens[strings.ToLower(strings.TrimSpace(token))]
	return f, ok
}

// CompressionEncryption is the compr-encryp field of a stream descriptor.
type CompressionEncryption int

const (
	ComprEncrypNone CompressionEncryption = iota
	ComprEncrypUnknown
)

// ParseCompressionEncryption maps the compr-encryp token per §3: only
// "none" (any case), a single space, or an empty string map to "none".
func ParseCompressionEncryption(token string) CompressionEncryption {
	if token == " " || token == "" || strings.EqualFold(token, "none") {
		return ComprEncrypNone
	}
	return ComprEncrypUnknown
}

// Authentication is the authentication field of a stream descriptor.
type Authentication int

const (
	AuthNone Authentication = iota
	AuthBasic
	AuthDigest
	AuthUnknown
)

// ParseAuthentication maps the single-letter N/B/D authentication code.
func ParseAuthentication(token string) Authentication {
	switch strings.ToUpper(token) {
	case "N":
		return AuthNone
	case "B":
		return AuthBasic
	case "D":
		return AuthDigest
	default:
		return AuthUnknown
	}
}
