package transcriber

import (
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/openai/openai-go/v3/option"

	"voicemode/log"
)

// newHTTPClient keeps a few connections warm so back-to-back dictations
// skip the TLS handshake.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// traced times each API round trip and hands the numbers to report.
// Total runs until response headers arrive; the SDK reads the body later.
func traced(engine string, report func(string, log.Network)) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		var n log.Network
		var dnsStart, tlsStart, wroteRequest time.Time

		trace := &httptrace.ClientTrace{
			GotConn:           func(info httptrace.GotConnInfo) { n.ConnReused = info.Reused },
			DNSStart:          func(httptrace.DNSStartInfo) { dnsStart = time.Now() },
			DNSDone:           func(httptrace.DNSDoneInfo) { n.DNSMs = ms(time.Since(dnsStart)) },
			TLSHandshakeStart: func() { tlsStart = time.Now() },
			TLSHandshakeDone:  func(tls.ConnectionState, error) { n.TLSMs = ms(time.Since(tlsStart)) },
			WroteRequest:      func(httptrace.WroteRequestInfo) { wroteRequest = time.Now() },
			GotFirstResponseByte: func() {
				if !wroteRequest.IsZero() {
					n.TTFBMs = ms(time.Since(wroteRequest))
				}
			},
		}

		req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
		start := time.Now()
		resp, err := next(req)
		n.TotalMs = ms(time.Since(start))
		if resp != nil {
			n.Protocol = resp.Proto
		}
		if report != nil {
			report(engine, n)
		}
		return resp, err
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
