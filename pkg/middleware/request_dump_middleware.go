package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"enquete-backend/utilities"
)

const maxDumpBody = 4 << 10

// RequestDumpMiddleware logs each request at debug level. The body is put
// back so handlers can still read it; Authorization and Cookie values are
// masked.
func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		dumpRequest(c.Request, c.Params.ByName("id"))
		c.Next()
	}
}

// HTTPRequestDump is the net/http form of RequestDumpMiddleware.
func HTTPRequestDump(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dumpRequest(r, "")
		next.ServeHTTP(w, r)
	})
}

// replayBody serves the bytes read for the dump before the rest of the
// original body.
type replayBody struct {
	io.Reader
	io.Closer
}

func dumpRequest(r *http.Request, id string) {
	var head []byte
	if r.Body != nil && r.Body != http.NoBody {
		head, _ = io.ReadAll(io.LimitReader(r.Body, maxDumpBody+1))
		r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	}

	body := string(head)
	if len(body) > maxDumpBody {
		body = body[:maxDumpBody] + "..."
	}

	utilities.Debug(
		"[Request]\n"+
			"\tMethod: %s\n"+
			"\tURL: %s\n"+
			"\tHeaders: %v\n"+
			"\tID: %s\n"+
			"\tBody: %s",
		r.Method,
		r.URL.String(),
		maskedHeaders(r.Header),
		id,
		body,
	)
}

func maskedHeaders(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		switch strings.ToLower(k) {
		case "authorization", "cookie":
			out.Set(k, "***")
		}
	}
	return out
}
