package oracle

import (
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/samber/oops"
)

// HTTP queries a remote padding oracle. The ciphertext is sent hex encoded
// in the Param query parameter of a GET request to URL. A 2xx response means
// the pad is valid and InvalidStatus means it is not; any other status is an
// error.
type HTTP struct {
	URL   string
	Param string
	// InvalidStatus defaults to 500.
	InvalidStatus int
	// Retries is the number of times a request failing at the transport
	// level is repeated, waiting Backoff times the attempt number.
	Retries int
	Backoff time.Duration
	Client  *http.Client
}

// Do reports whether the remote oracle accepts the pad of c.
func (h *HTTP) Do(c []byte) (bool, error) {
	u, err := url.Parse(h.URL)
	if err != nil {
		return false, oops.In("http").Wrap(err)
	}
	q := u.Query()
	q.Set(h.Param, hex.EncodeToString(c))
	u.RawQuery = q.Encode()

	var res *http.Response
	for attempt := 0; ; attempt++ {
		res, err = h.client().Get(u.String())
		if err == nil {
			break
		}
		if attempt >= h.Retries {
			return false, oops.
				In("http").
				With("attempts", attempt+1).
				Wrapf(err, "querying %s", h.URL)
		}
		time.Sleep(time.Duration(attempt+1) * h.Backoff)
	}
	defer res.Body.Close()
	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, res.Body)

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return true, nil
	case res.StatusCode == h.invalidStatus():
		return false, nil
	default:
		return false, oops.
			In("http").
			With("status", res.StatusCode).
			Errorf("unexpected status %d from %s", res.StatusCode, h.URL)
	}
}

func (h *HTTP) client() *http.Client {
	if h.Client == nil {
		return http.DefaultClient
	}
	return h.Client
}

func (h *HTTP) invalidStatus() int {
	if h.InvalidStatus == 0 {
		return http.StatusInternalServerError
	}
	return h.InvalidStatus
}
