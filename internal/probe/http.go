package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const maxRedirects = 5

// HTTPInput is the fully-resolved input to one HTTP probe.
type HTTPInput struct {
	URL                      string
	Method                   string
	Headers                  map[string]string
	Body                     string
	TimeoutMS                int
	ExpectedStatus           []int
	ResponseKeyword          string
	ResponseForbiddenKeyword string
}

// RunHTTP executes one HTTP check per spec §4.2.
func RunHTTP(ctx context.Context, in HTTPInput) Outcome {
	method := in.Method
	if method == "" {
		method = http.MethodGet
	}
	method = strings.ToUpper(method)

	parsed, err := url.Parse(in.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Hostname() == "" {
		return unknown("invalid url")
	}
	if IsBlockedHost(parsed.Hostname()) {
		return unknown("blocked target host")
	}
	if port := parsed.Port(); port != "" && !IsAllowedPort(port) {
		return unknown("blocked target port")
	}

	timeout := time.Duration(in.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if method == http.MethodHead {
				return http.ErrUseLastResponse
			}
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}

	var bodyReader io.Reader
	if in.Body != "" {
		bodyReader = strings.NewReader(in.Body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, in.URL, bodyReader)
	if err != nil {
		return unknown("invalid request: " + err.Error())
	}
	for k, v := range in.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return down(classifyNetError(err), 1)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	statusOK := matchStatus(resp.StatusCode, in.ExpectedStatus)
	if !statusOK {
		return down("status "+strconv.Itoa(resp.StatusCode), 1)
	}

	body := string(data)
	if in.ResponseKeyword != "" && !strings.Contains(body, in.ResponseKeyword) {
		code := resp.StatusCode
		o := down("missing keyword", 1)
		o.HTTPStatus = &code
		return o
	}
	if in.ResponseForbiddenKeyword != "" && strings.Contains(body, in.ResponseForbiddenKeyword) {
		code := resp.StatusCode
		o := down("forbidden keyword present", 1)
		o.HTTPStatus = &code
		return o
	}

	code := resp.StatusCode
	return up(elapsed, &code, 1)
}

func matchStatus(got int, expected []int) bool {
	if len(expected) == 0 {
		return got >= 200 && got < 300
	}
	for _, e := range expected {
		if e == got {
			return true
		}
	}
	return false
}

func classifyNetError(err error) string {
	var netErr net.Error
	if ok := asNetError(err, &netErr); ok && netErr.Timeout() {
		return "timeout"
	}
	return err.Error()
}

func asNetError(err error, target *net.Error) bool {
	if ne, ok := err.(net.Error); ok {
		*target = ne
		return true
	}
	// http.Client wraps timeouts in a *url.Error
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return asNetError(u.Unwrap(), target)
	}
	return false
}
