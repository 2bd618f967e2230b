// Utilities for rendering HTTP requests as cURL commands.
package shared

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// redactedHeaders are never echoed verbatim into debug output.
var redactedHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
}

// FormatCurl renders an outgoing request as a copy-pasteable cURL command.
//
// Used by the Bluesky client in debug mode so failed XRPC calls can be
// replayed by hand. Credential-bearing headers are redacted.
func FormatCurl(req *http.Request, body []byte) string {
	var b strings.Builder

	fmt.Fprintf(&b, "curl -X %s '%s'", req.Method, req.URL.String())

	keys := make([]string, 0, len(req.Header))
	for key := range req.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := req.Header.Get(key)
		if redactedHeaders[strings.ToLower(key)] {
			value = "REDACTED"
		}
		fmt.Fprintf(&b, " \\\n  -H '%s: %s'", key, value)
	}

	if len(body) > 0 {
		fmt.Fprintf(&b, " \\\n  -d '%s'", strings.ReplaceAll(string(body), "'", `'\''`))
	}

	return b.String()
}
