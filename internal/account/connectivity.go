package account

import (
	"context"
	"net/http"
	"time"
)

// Poll intervals for the two callers of the connectivity gate: explicit
// logins race the probe against a short timer before surfacing an offline
// notice, silent re-authentication waits with a longer fixed grace.
const (
	LoginPollInterval  = 2 * time.Second
	SilentPollInterval = 5 * time.Second
)

// ConnectivityGate decides whether the identity provider is reachable. It
// repeatedly races a lightweight probe against a poll timer until a probe
// succeeds or the context is cancelled.
type ConnectivityGate struct {
	endpoint   string
	httpClient *http.Client
}

// NewConnectivityGate creates a gate probing the environment's authority
// endpoint. A nil httpClient selects a default client.
func NewConnectivityGate(env Environment, httpClient *http.Client) *ConnectivityGate {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &ConnectivityGate{
		endpoint:   env.AuthorizeEndpointURL,
		httpClient: httpClient,
	}
}

// BecomeOnline blocks until a probe observes connectivity or ctx is
// cancelled. Each time the poll interval elapses with the previous probe
// still pending, a fresh probe is merged with it and whichever completes
// first is taken. Cancellation is not an error: the gate simply stops
// waiting and returns nil; the caller decides how to proceed.
func (g *ConnectivityGate) BecomeOnline(ctx context.Context, interval time.Duration) error {
	pending := g.probe(ctx)
	for {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case online := <-pending:
			if online {
				timer.Stop()
				return nil
			}
			// Probe came back offline; wait out the poll interval before
			// trying again.
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			pending = g.probe(ctx)
		case <-timer.C:
			// Interval elapsed with the probe still pending. Keep it in the
			// race and merge in a fresh one.
			pending = either(pending, g.probe(ctx))
		}
	}
}

// probe issues one connectivity check. Any HTTP response counts as online;
// only a transport failure counts as offline.
func (g *ConnectivityGate) probe(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)
	go func() {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
		if err != nil {
			ch <- false
			return
		}
		resp, err := g.httpClient.Do(req)
		if err != nil {
			ch <- false
			return
		}
		resp.Body.Close()
		ch <- true
	}()
	return ch
}

// either merges two pending results into one channel that yields whichever
// value arrives first. It is re-armable: the returned channel can itself be
// merged with a fresh operation on the next loop iteration.
func either[T any](a, b <-chan T) <-chan T {
	out := make(chan T, 1)
	go func() {
		select {
		case v := <-a:
			out <- v
		case v := <-b:
			out <- v
		}
	}()
	return out
}
