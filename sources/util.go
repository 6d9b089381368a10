package sources

import (
	"context"
	"dnshome/common"
	"dnshome/log"
	"fmt"
	"net"
	"net/http"
	"reflect"
)

type transportDialer func(ctx context.Context, network, addr string) (net.Conn, error)

func httpClient(ctx context.Context) *http.Client {
	if ctxClient, ok := ctx.Value(common.HttpClientKey).(*http.Client); ok && ctxClient != nil {
		return ctxClient
	}
	return http.DefaultClient
}

// pinFamily forces every connection made by the wrapped dialer onto family.
func pinFamily(family common.Family) func(upstream transportDialer) transportDialer {
	return func(upstream transportDialer) transportDialer {
		return func(ctx context.Context, network, addr string) (net.Conn, error) {
			return upstream(ctx, network+family.Network(), addr)
		}
	}
}

func wrapClientDialer(ctx context.Context, client *http.Client, wrapperBuilder func(upstream transportDialer) transportDialer) (*http.Client, error) {
	if client == nil {
		client = http.DefaultClient
	}

	transport := http.DefaultTransport.(*http.Transport)
	if client.Transport != nil {
		t, ok := client.Transport.(*http.Transport)
		if !ok {
			log.S(ctx).Errorw("found unknown custom http.Client.Transport",
				"transport_type", reflect.TypeOf(client.Transport).String())
			return nil, fmt.Errorf("unknown custom http.Client.Transport")
		}

		transport = t
	}

	transport = transport.Clone()
	if transport.DialContext == nil {
		transport.DialContext = (&net.Dialer{}).DialContext
	}
	transport.DialContext = wrapperBuilder(transport.DialContext)

	if transport.DialTLSContext != nil {
		transport.DialTLSContext = wrapperBuilder(transport.DialTLSContext)
	}

	clientCopy := *client
	clientCopy.Transport = transport
	return &clientCopy, nil
}
