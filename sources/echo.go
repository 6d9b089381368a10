package sources

import (
	"context"
	"dnshome/common"
	"dnshome/config"
	"dnshome/log"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const maxReadEcho = 4 * 1024

type echoResponse struct {
	IP string `json:"ip"`
}

// Echo asks external services for the address the internet sees us on.
// Each family has its own service so routing decides the protocol.
type Echo struct {
	urls    [2]string
	timeout time.Duration
	pin     bool
}

func NewEcho(conf config.Echo) *Echo {
	pin := true
	if conf.PinFamily != nil {
		pin = *conf.PinFamily
	}

	return &Echo{
		urls:    [2]string{common.IPv4: conf.IPv4URL, common.IPv6: conf.IPv6URL},
		timeout: conf.Timeout.Or(config.DefaultTimeout),
		pin:     pin,
	}
}

// Query looks up both families concurrently. Whatever succeeded is returned
// in the pair; a non-nil *RemoteLookupError describes what did not.
func (s *Echo) Query(ctx context.Context) (common.AddressPair, error) {
	var (
		wg      sync.WaitGroup
		results [2]string
		errs    [2]error
	)

	for _, family := range common.Families {
		wg.Add(1)
		go func(family common.Family) {
			defer wg.Done()
			results[family], errs[family] = s.lookup(ctx, family)
		}(family)
	}
	wg.Wait()

	pair := common.AddressPair{IPv4: results[common.IPv4], IPv6: results[common.IPv6]}
	if errs[common.IPv4] != nil || errs[common.IPv6] != nil {
		return pair, &RemoteLookupError{IPv4: errs[common.IPv4], IPv6: errs[common.IPv6]}
	}
	return pair, nil
}

func (s *Echo) lookup(ctx context.Context, family common.Family) (result string, err error) {
	url := s.urls[family]
	ctx = log.SWith(log.ForFamily(ctx, family), "url", url, "timeout", s.timeout)

	defer func() {
		if err == nil {
			log.S(ctx).Debugw("got ip", log.Addr(family, result))
		} else {
			log.S(ctx).Errorw("lookup from echo service failed", zap.Error(err))
		}
	}()

	if url == "" {
		return "", fmt.Errorf("no echo service configured")
	}

	client := httpClient(ctx)
	if s.pin {
		client, err = wrapClientDialer(ctx, client, pinFamily(family))
		if err != nil {
			return "", err
		}
		defer client.CloseIdleConnections()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("new request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("connection failed: %w", err)
	}

	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			log.S(ctx).Warnw("close body failed", zap.Error(err))
		}
	}(resp.Body)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReadEcho))
	if err != nil {
		return "", fmt.Errorf("failed receiving response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.S(ctx).Warnw("unexpected status", "status", resp.StatusCode, log.ByteField("body", data))
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	var body echoResponse
	if err := json.Unmarshal(data, &body); err != nil {
		log.S(ctx).Warnw("response is not JSON", log.ByteField("body", data))
		return "", fmt.Errorf("bad response: %w", err)
	}

	nip, err := netip.ParseAddr(body.IP)
	if err != nil {
		log.S(ctx).Warnw("no IP found in response", log.ByteField("body", data))
		return "", fmt.Errorf("bad IP in response: %w", err)
	}

	switch {
	case nip.Zone() != "":
		return "", fmt.Errorf("unsupported: found zone in IP %q", body.IP)
	case !family.Contains(nip):
		return "", fmt.Errorf("mismatched IP family: got %s", body.IP)
	}

	return nip.Unmap().String(), nil
}
