package sdk

import (
	"crypto/tls"
	"net/http"
)

// insecureTransport disables certificate verification on the transport.
// Only reachable when ClientConfig.AllowSelfSignedCert is set explicitly.
func insecureTransport(t *http.Transport) {
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{}
	}
	t.TLSClientConfig.InsecureSkipVerify = true
}
