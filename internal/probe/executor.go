package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/healthchecker/internal/domain"
)

// maxDrain bounds how much of a body is read so the connection can be reused.
const maxDrain = 64 << 10

type Executor struct {
	Client      *http.Client
	Policy      Policy
	Timeout     time.Duration // per-probe deadline on top of ctx, 0 disables
	DiagnoseDNS bool
	Logger      *zap.Logger
}

func NewExecutor(client *http.Client, policy Policy, logger *zap.Logger) *Executor {
	if client == nil {
		client = NewClient(10 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{Client: client, Policy: policy, Logger: logger}
}

func (e *Executor) Probe(ctx context.Context, ep domain.Endpoint) (res domain.Result) {
	start := time.Now()
	host, err := ep.Domain()
	if err != nil {
		host = ep.URL
	}
	res = domain.Result{
		Domain:    host,
		Endpoint:  ep.Name,
		URL:       ep.URL,
		Method:    ep.Method,
		Timestamp: start.UTC().Truncate(time.Second),
		Status:    domain.StatusDown,
	}
	defer func() {
		if r := recover(); r != nil {
			res.Status = domain.StatusDown
			res.LatencyMS, res.HTTPStatus = nil, nil
			res.Reason = fmt.Sprintf("panic: %v", r)
		}
		e.log(res)
	}()

	parent := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	req, err := newRequest(ctx, ep)
	if err != nil {
		res.Reason = "build request: " + err.Error()
		return res
	}

	start = time.Now()
	resp, err := e.Client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		res.Reason = err.Error()
		if e.DiagnoseDNS && parent.Err() == nil {
			res.Reason += " dns=" + CheckDNS(parent, host).Class
		}
		return res
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	resp.Body.Close()

	lat := float64(elapsed) / float64(time.Millisecond)
	code := resp.StatusCode
	res.LatencyMS = &lat
	res.HTTPStatus = &code
	res.Status = e.Policy.Classify(code, elapsed)

	switch {
	case code < 200 || code >= 300:
		res.Reason = resp.Status
	case res.Status == domain.StatusDown:
		res.Reason = fmt.Sprintf("slow response (limit %s)", e.Policy.maxLatency())
	default:
		res.Reason = resp.Status
	}
	return res
}

func (e *Executor) log(res domain.Result) {
	fields := []zap.Field{
		zap.String("name", res.Endpoint),
		zap.String("url", res.URL),
		zap.String("domain", res.Domain),
		zap.String("status", string(res.Status)),
		zap.Float64p("latency_ms", res.LatencyMS),
		zap.Intp("http_status", res.HTTPStatus),
	}
	if res.Up() {
		e.Logger.Info("probe_up", fields...)
		return
	}
	e.Logger.Warn("probe_down", append(fields, zap.String("reason", res.Reason))...)
}

func newRequest(ctx context.Context, ep domain.Endpoint) (*http.Request, error) {
	var body io.Reader
	if ep.Body != nil {
		b, err := json.Marshal(ep.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(b)
	}
	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, ep.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range ep.Headers {
		if strings.EqualFold(k, "Host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
