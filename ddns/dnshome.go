package ddns

import (
	"context"
	"dnshome/common"
	"dnshome/config"
	"dnshome/log"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxReadResponse = 4 * 1024

// Client pushes addresses to the dnshome.de dyndns endpoint.
type Client struct {
	domain   string
	username string
	password string
	endpoint string
	timeout  time.Duration
}

func NewClient(conf *config.Config) (*Client, error) {
	if err := config.ValidateEndpoint(conf.Provider.UpdateURL); err != nil {
		return nil, fmt.Errorf("bad update url: %w", err)
	}

	return &Client{
		domain:   conf.Domain,
		username: conf.Username,
		password: conf.Password,
		endpoint: conf.Provider.UpdateURL,
		timeout:  conf.Provider.Timeout.Or(config.DefaultTimeout),
	}, nil
}

func (c *Client) Typename() string {
	return "dnshome"
}

func (c *Client) requestURL(ipv4, ipv6 string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("ip", ipv4)
	q.Set("ip6", ipv6)
	q.Set("username", c.username)
	q.Set("password", c.password)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Update sends the full pair; an empty family is sent as an empty parameter.
// A nil error means the provider answered 200 with "good" in the body.
func (c *Client) Update(ctx context.Context, ipv4, ipv6 string) error {
	ctx = log.SWith(ctx,
		"type", c.Typename(),
		"action", "update",
		"domain", c.domain,
		"endpoint", c.endpoint,
		log.Addr(common.IPv4, ipv4),
		log.Addr(common.IPv6, ipv6))

	start := time.Now()

	target, err := c.requestURL(ipv4, ipv6)
	if err != nil {
		log.S(ctx).Errorw("build request url failed", zap.Error(err), log.Internal)
		return &RequestError{Err: err}
	}

	if ctxClient, ok := ctx.Value(common.HttpClientKey).(*http.Client); ok && ctxClient != nil {
		return c.do(ctx, ctxClient, target, start)
	}
	return c.do(ctx, http.DefaultClient, target, start)
}

func (c *Client) do(ctx context.Context, client *http.Client, target string, start time.Time) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		log.S(ctx).Errorw("new request failed", zap.Error(err), log.Internal)
		return &RequestError{Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		err = c.redact(err)
		log.S(ctx).Errorw("failed to update DNS records", zap.Error(err), log.Took(start))
		return &RequestError{Err: err}
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.S(ctx).Warnw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadResponse))
	if err != nil {
		log.S(ctx).Errorw("receiving response failed", zap.Error(err), log.Took(start))
		return &RequestError{Err: err}
	}

	if resp.StatusCode != http.StatusOK || !strings.Contains(strings.ToLower(string(data)), "good") {
		log.S(ctx).Errorw("failed to update DNS records", "status", resp.StatusCode, log.ByteField("response", data), log.Took(start))
		return &RejectionError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	log.S(ctx).Infow("successfully updated DNS records", "time", time.Now(), log.ByteField("response", data), log.Took(start))
	return nil
}

// redact replaces the request URL in a *url.Error, whose query carries the
// password, with the bare endpoint.
func (c *Client) redact(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: c.endpoint, Err: ue.Err}
}
