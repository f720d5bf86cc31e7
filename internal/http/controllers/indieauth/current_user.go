package indieauth

import "net/http"

// HeaderCurrentUser resolves the authenticated user from a trusted
// request header, set by the host application or a reverse proxy after
// authentication. The server must not be reachable without that hop.
type HeaderCurrentUser struct {
	Header string
}

func (h HeaderCurrentUser) UserID(r *http.Request) (string, bool) {
	v := r.Header.Get(h.Header)
	return v, v != ""
}
