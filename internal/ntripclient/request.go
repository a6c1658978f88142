package ntripclient

import "fmt"

// UserAgent is sent on every probe and GET request (§4.6).
const UserAgent = "NTRIP ntripcore/1.0"

// BuildProbeRequest renders the probe request: "GET /" against host, per
// §4.6 and net_ntrip.c's ntrip_stream_req_probe.
func BuildProbeRequest(host string) string {
	return "GET / HTTP/1.1\r\n" +
		"Ntrip-Version: Ntrip/2.0\r\n" +
		"User-Agent: " + UserAgent + "\r\n" +
		"Host: " + host + "\r\n" +
		"Connection: close\r\n" +
		"\r\n"
}

// BuildGetRequest renders the data request for mountpoint against host,
// including the precomputed Authorization header line (empty string when
// no basic credentials apply), per §4.6 and ntrip_stream_get_req. The
// Accept header mirrors the gpsd original's "rtk/rtcm, dgps/rtcm" token,
// dropped from spec.md's distillation but harmless to advertise.
func BuildGetRequest(host, mountpoint, authHeader string) string {
	return fmt.Sprintf(
		"GET /%s HTTP/1.1\r\n"+
			"Ntrip-Version: Ntrip/2.0\r\n"+
			"User-Agent: %s\r\n"+
			"Host: %s\r\n"+
			"Accept: rtk/rtcm, dgps/rtcm\r\n"+
			"%s"+
			"Connection: close\r\n"+
			"\r\n",
		mountpoint, UserAgent, host, authHeader)
}
