// ABOUTME: Response and request rendering with LF line endings
// ABOUTME: Includes the frozen 401 reply legacy clients match byte-for-byte

package httpmsg

import (
	"bytes"
	"fmt"
	"sort"
	"time"
)

// dateLayout matches the legacy formatter: RFC 1123 with a literal +0000
// zone instead of the usual GMT.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 +0000"

// unauthorizedReply is emitted for every authentication failure. It is a
// frozen literal: no Date or Server header, so repeated calls are
// byte-identical, and the declared Content-Length of 296 is the historical
// constant peers were built against (the document itself is 287 bytes).
const unauthorizedReply = `HTTP/1.0 401 Authorization Required
WWW-Authenticate: Basic realm="jsonrpc"
Content-Type: text/html
Content-Length: 296

<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01 Transitional//EN"
"http://www.w3.org/TR/1999/REC-html401-19991224/loose.dtd">
<HTML>
<HEAD>
<TITLE>Error</TITLE>
<META HTTP-EQUIV='Content-Type' CONTENT='text/html; charset=ISO-8859-1'>
</HEAD>
<BODY><H1>401 Unauthorized.</H1></BODY>
</HTML>
`

// Unauthorized returns the fixed 401 reply. The result is a fresh copy on
// every call and identical across calls.
func Unauthorized() []byte {
	return []byte(unauthorizedReply)
}

// ReplyFormatter renders responses. The zero value works but emits an empty
// Server header; callers supply their token and, in tests, a fixed clock.
type ReplyFormatter struct {
	// ServerToken is the Server header value, e.g. "meridian-json-rpc/0.1.0".
	ServerToken string

	// Now supplies the Date header clock. Nil means time.Now.
	Now func() time.Time
}

func (f ReplyFormatter) date() string {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return now().UTC().Format(dateLayout)
}

// Header renders the status line and header block, including the
// terminating blank line. The reason phrase comes from StatusText and is
// empty for codes outside the table.
func (f ReplyFormatter) Header(status int, keepAlive bool, contentLength int, contentType string) []byte {
	conn := "close"
	if keepAlive {
		conn = "keep-alive"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\n", status, StatusText(status))
	fmt.Fprintf(&b, "Date: %s\n", f.date())
	fmt.Fprintf(&b, "Connection: %s\n", conn)
	fmt.Fprintf(&b, "Content-Length: %d\n", contentLength)
	fmt.Fprintf(&b, "Content-Type: %s\n", contentType)
	fmt.Fprintf(&b, "Server: %s\n", f.ServerToken)
	b.WriteByte('\n')
	return b.Bytes()
}

// Reply renders a complete response. With headersOnly set the body is
// suppressed and Content-Length is declared as 0.
func (f ReplyFormatter) Reply(status int, body []byte, keepAlive, headersOnly bool, contentType string) []byte {
	if headersOnly {
		return f.Header(status, keepAlive, 0, contentType)
	}
	head := f.Header(status, keepAlive, len(body), contentType)
	return append(head, body...)
}

// Error renders a text/plain response whose body is the reason phrase.
// Status 401 returns the fixed unauthorized reply regardless of the flags.
func (f ReplyFormatter) Error(status int, keepAlive, headersOnly bool) []byte {
	if status == StatusUnauthorized {
		return Unauthorized()
	}
	return f.Reply(status, []byte(StatusText(status)), keepAlive, headersOnly, "text/plain")
}

// PostRequest renders an outbound POST to the RPC root with the fixed
// header set peers expect. Extra headers follow the fixed ones sorted by
// name, keeping output deterministic.
func PostRequest(userAgent, host string, body []byte, extra map[string]string) []byte {
	var b bytes.Buffer
	b.WriteString("POST / HTTP/1.1\n")
	fmt.Fprintf(&b, "User-Agent: %s\n", userAgent)
	fmt.Fprintf(&b, "Host: %s\n", host)
	b.WriteString("Content-Type: application/json\n")
	fmt.Fprintf(&b, "Content-Length: %d\n", len(body))
	b.WriteString("Connection: close\n")
	b.WriteString("Accept: application/json\n")

	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, extra[name])
	}

	b.WriteByte('\n')
	b.Write(body)
	return b.Bytes()
}
