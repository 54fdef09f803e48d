package probe

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// NewClient returns the connection-pooling client shared by all probes.
func NewClient(timeout time.Duration) *http.Client {
	c := cleanhttp.DefaultPooledClient()
	if timeout > 0 {
		c.Timeout = timeout
	}
	return c
}
