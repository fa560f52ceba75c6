// Package remote exposes a repository.Connection over HTTP and connects to
// repositories exposed that way.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"fedsearch/internal/repository"
)

// Client is a repository.Connection talking to a remote Handler.
type Client struct {
	domain  repository.Domain
	base    *url.URL
	limiter *rate.Limiter
	HTTP    *http.Client
}

type options struct {
	verbose bool
	// writer receives verbose HTTP logs, typically stderr so structured
	// output on stdout stays clean.
	writer  io.Writer
	timeout time.Duration
	rps     float64
}

type Option func(*options)

func WithVerbose(enabled bool, writer io.Writer) Option {
	return func(o *options) {
		o.verbose = enabled
		o.writer = writer
	}
}

// WithRequestTimeout bounds each HTTP request. The coordinator timeout still
// applies on top.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithRateLimit caps outgoing requests to rps per second. Values <= 0 leave
// the client unlimited.
func WithRateLimit(rps float64) Option {
	return func(o *options) {
		o.rps = rps
	}
}

// loggingRoundTripper emits one line per request and response when verbose
// logging is enabled.
type loggingRoundTripper struct {
	base   http.RoundTripper
	w      io.Writer
	domain repository.Domain
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	if t.w != nil {
		_, _ = fmt.Fprintf(t.w, "[verbose] domain %s: %s %s\n", t.domain, req.Method, req.URL.String())
	}
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start)
	if t.w != nil {
		if err != nil {
			_, _ = fmt.Fprintf(t.w, "[verbose] domain %s: error after %s: %v\n", t.domain, dur.Truncate(time.Millisecond), err)
		} else {
			_, _ = fmt.Fprintf(t.w, "[verbose] domain %s: %d %s (%s)\n", t.domain, resp.StatusCode, http.StatusText(resp.StatusCode), dur.Truncate(time.Millisecond))
		}
	}
	return resp, err
}

func NewClient(ctx context.Context, domain repository.Domain, baseURL, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("remote client: ctx is nil")
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("remote client for domain %s: parse url: %w", domain, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote client for domain %s: unsupported url %q", domain, baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}
	if o.verbose && o.writer == nil {
		o.writer = os.Stderr
	}

	transport := http.DefaultTransport
	if o.verbose {
		transport = &loggingRoundTripper{base: transport, w: o.writer, domain: domain}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}

	c := &Client{
		domain: domain,
		base:   u,
		HTTP:   &http.Client{Transport: transport, Timeout: o.timeout},
	}
	if o.rps > 0 {
		burst := int(o.rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(o.rps), burst)
	}
	return c, nil
}

type executeRequest struct {
	Statement string `json:"statement"`
}

type executeResponse struct {
	Rows []repository.Row `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// msgObjectNotFound is the error body of a fetch for an absent object.
const msgObjectNotFound = "object not found"

func (c *Client) Execute(ctx context.Context, statement string) ([]repository.Row, error) {
	body, err := json.Marshal(executeRequest{Statement: statement})
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "execute", err)
	}
	var resp executeResponse
	if _, err := c.do(ctx, http.MethodPost, "/execute", nil, body, &resp); err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "execute", err)
	}
	if resp.Rows == nil {
		resp.Rows = []repository.Row{}
	}
	return resp.Rows, nil
}

func (c *Client) ClassByTable(ctx context.Context, user repository.User, table string) (repository.ClassDescriptor, error) {
	var cd repository.ClassDescriptor
	if _, err := c.do(ctx, http.MethodGet, "/classes/"+url.PathEscape(table), userQuery(user), nil, &cd); err != nil {
		return repository.ClassDescriptor{}, repository.NewRemoteAccessError(c.domain, "class by table", err)
	}
	if cd.Domain == "" {
		cd.Domain = c.domain
	}
	return cd, nil
}

func (c *Client) FetchByID(ctx context.Context, user repository.User, id int, class repository.ClassDescriptor) (*repository.Object, error) {
	q := userQuery(user)
	q.Set("table", class.Table)
	p := "/classes/" + strconv.Itoa(class.ID) + "/objects/" + strconv.Itoa(id)

	var obj repository.Object
	found, err := c.do(ctx, http.MethodGet, p, q, nil, &obj)
	if err != nil {
		return nil, repository.NewRemoteAccessError(c.domain, "fetch by id", err)
	}
	if !found {
		return nil, nil
	}
	if obj.Domain == "" {
		obj.Domain = c.domain
	}
	return &obj, nil
}

func userQuery(user repository.User) url.Values {
	q := url.Values{}
	if user.Name != "" {
		q.Set("user", user.Name)
	}
	if user.Domain != "" {
		q.Set("user_domain", string(user.Domain))
	}
	return q
}

// do sends one request and decodes a 2xx body into out. Only the handler's
// own object-not-found answer reports found=false with a nil error; any other
// 404 is an error.
func (c *Client) do(ctx context.Context, method, p string, query url.Values, body []byte, out any) (found bool, err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}
	u := *c.base
	u.Path += p
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		decoded := json.Unmarshal(data, &er) == nil
		if decoded && resp.StatusCode == http.StatusNotFound && er.Error == msgObjectNotFound {
			return false, nil
		}
		if decoded && er.Error != "" {
			return false, fmt.Errorf("%s %s: %d: %s", method, p, resp.StatusCode, er.Error)
		}
		return false, fmt.Errorf("%s %s: %d %s", method, p, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return false, fmt.Errorf("%s %s: decode response: %w", method, p, err)
	}
	return true, nil
}
