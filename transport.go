package teco

import (
	"net"
	"net/http"
	"time"
)

// newTransport builds the pooled transport of clients that do not bring
// their own *http.Client.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func newHTTPClient() *http.Client {
	// Per-attempt deadlines come from the service config, not the client.
	return &http.Client{Transport: newTransport()}
}
