package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/rankdeskapp/rankdesk-server/internal/http/response"
)

// maxBodySize caps request bodies at 1 MiB.
const maxBodySize = 1 << 20

// decodeBody decodes the JSON request body into dst. On failure it
// writes a 400 response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		response.BadRequest(w, "invalid request body", s.logger)
		return false
	}
	return true
}

// pageParams reads the page and limit query parameters. Absent or
// malformed values are left at zero for the store to normalize.
func pageParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	return page, limit
}
