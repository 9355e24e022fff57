package account

import (
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"signon/pkg/logging"
)

const (
	// portWaitTimeout bounds how long Start waits for the listener to bind
	// and report its port.
	portWaitTimeout = 5 * time.Second

	// codeWaitTimeout bounds how long the listener waits for the provider's
	// callback before failing the attempt.
	codeWaitTimeout = 5 * time.Minute

	// redirectFlushTimeout bounds how long the callback handler holds the
	// browser connection open waiting for the caller to issue the final
	// redirect. The flow always redirects before resolving, so this only
	// triggers if the caller is gone.
	redirectFlushTimeout = 30 * time.Second

	// ListenerCloseGrace is how long callers keep the listener alive after
	// the attempt concludes, so the final redirect response can flush.
	ListenerCloseGrace = 5 * time.Second
)

//go:embed codeflowresult/index.html
var landingPageHTML []byte

//go:embed codeflowresult/main.css
var landingPageCSS []byte

// ResponseHandle defers the HTTP response to the provider's callback
// request. The listener hands it back alongside the outcome; the caller
// issues the final 302 redirect through it. At most one redirect is sent.
type ResponseHandle struct {
	w    http.ResponseWriter
	done chan struct{}
	once sync.Once
}

// Redirect sends a 302 to location and releases the held callback
// connection. Later calls are no-ops.
func (h *ResponseHandle) Redirect(location string) {
	h.once.Do(func() {
		h.w.Header().Set("Location", location)
		h.w.WriteHeader(http.StatusFound)
		close(h.done)
	})
}

// CodeResult is the single outcome of one login attempt's callback. Either
// Code is set, or Err carries the callback-level failure. Response is always
// set; the caller must issue the final redirect through it in both cases.
type CodeResult struct {
	Code     string
	Err      error
	Response *ResponseHandle
}

// RedirectListener owns a transient local HTTP listener bound to an
// ephemeral localhost port. It serves the landing page, the stylesheet and
// the provider's callback endpoint, and resolves exactly one CodeResult per
// login attempt. The listener is closed by the caller, not by itself, so the
// final redirect can be flushed first.
type RedirectListener struct {
	nonce string

	listener net.Listener
	server   *http.Server
	port     int

	resultCh  chan *CodeResult
	errorCh   chan error
	timeoutCh <-chan time.Time
	once      sync.Once
	stopOnce  sync.Once
}

// NewRedirectListener creates a listener that validates callbacks against
// the given CSRF nonce.
func NewRedirectListener(nonce string) *RedirectListener {
	return &RedirectListener{
		nonce:    nonce,
		resultCh: make(chan *CodeResult, 1),
		errorCh:  make(chan error, 1),
	}
}

type bindResult struct {
	ln  net.Listener
	err error
}

// Start binds the listener to an OS-assigned localhost port and begins
// serving. It returns the assigned port, or ErrPortTimeout if no port is
// known within the bound wait.
func (l *RedirectListener) Start(ctx context.Context) (int, error) {
	bindCh := make(chan bindResult, 1)
	go func() {
		ln, err := net.Listen("tcp", "localhost:0")
		bindCh <- bindResult{ln: ln, err: err}
	}()

	select {
	case res := <-bindCh:
		if res.err != nil {
			return 0, fmt.Errorf("failed to start redirect listener: %w", res.err)
		}
		l.listener = res.ln
		l.port = res.ln.Addr().(*net.TCPAddr).Port
	case <-time.After(portWaitTimeout):
		go closeLateBind(bindCh)
		return 0, ErrPortTimeout
	case <-ctx.Done():
		go closeLateBind(bindCh)
		return 0, ctx.Err()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", l.handleCallback)
	mux.HandleFunc("/", l.handleStatic)

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.server.Serve(l.listener); err != nil && err != http.ErrServerClosed {
			select {
			case l.errorCh <- err:
			default:
			}
		}
	}()

	// The code wait window opens as soon as the listener is up.
	l.timeoutCh = time.After(codeWaitTimeout)

	return l.port, nil
}

func closeLateBind(bindCh <-chan bindResult) {
	if res := <-bindCh; res.ln != nil {
		_ = res.ln.Close()
	}
}

// Await blocks until the callback resolves the attempt, the code wait window
// elapses, the server errors, or ctx is cancelled. A CodeResult is returned
// for any outcome that reached the callback endpoint, including failures;
// its Response handle must be redirected by the caller.
func (l *RedirectListener) Await(ctx context.Context) (*CodeResult, error) {
	select {
	case result := <-l.resultCh:
		return result, nil
	case err := <-l.errorCh:
		return nil, err
	case <-l.timeoutCh:
		return nil, ErrCodeTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Port returns the assigned port after a successful Start.
func (l *RedirectListener) Port() int {
	return l.port
}

// RedirectURI returns the redirect_uri the provider must be pointed at.
func (l *RedirectListener) RedirectURI() string {
	return "http://localhost:" + strconv.Itoa(l.port) + "/callback"
}

// Stop shuts the listener down. Safe to call more than once.
func (l *RedirectListener) Stop() {
	l.stopOnce.Do(func() {
		if l.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = l.server.Shutdown(ctx)
		}
		if l.listener != nil {
			_ = l.listener.Close()
		}
	})
}

// handleCallback resolves the attempt's outcome at most once. Later requests
// get a 400 and cannot alter the already-resolved outcome.
func (l *RedirectListener) handleCallback(w http.ResponseWriter, r *http.Request) {
	var handle *ResponseHandle
	l.once.Do(func() {
		handle = l.processCallback(w, r)
	})

	if handle == nil {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	// Hold the connection open until the caller issues the final redirect,
	// so the browser tab always lands on a terminal page.
	select {
	case <-handle.done:
	case <-time.After(redirectFlushTimeout):
		logging.Warn("Account", "callback response was never redirected; releasing connection")
	}
}

func (l *RedirectListener) processCallback(w http.ResponseWriter, r *http.Request) *ResponseHandle {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	handle := &ResponseHandle{w: w, done: make(chan struct{})}
	code, err := evaluateCallback(l.nonce, r.URL.Query())

	result := &CodeResult{Code: code, Err: err, Response: handle}
	select {
	case l.resultCh <- result:
	default:
	}

	return handle
}

// evaluateCallback applies the resolution rule for the provider's redirect:
// provider-reported error first, then the nonce check, then the code.
func evaluateCallback(nonce string, query url.Values) (string, error) {
	errMsg := query.Get("error_description")
	if errMsg == "" {
		errMsg = query.Get("error")
	}

	if errMsg == "" {
		received := ""
		if parts := strings.Split(query.Get("state"), ","); len(parts) > 1 {
			// Tolerate transports that re-encode '+' as ' '.
			received = strings.ReplaceAll(parts[1], " ", "+")
		}
		if received != nonce {
			errMsg = "Nonce does not match."
		}
	}

	if code := query.Get("code"); errMsg == "" && code != "" {
		return code, nil
	}
	if errMsg == "" {
		errMsg = "No code received."
	}
	return "", &CallbackError{Reason: errMsg}
}

// handleStatic serves the bundled landing page and stylesheet. Serving
// errors are logged, never propagated to the attempt's outcome.
func (l *RedirectListener) handleStatic(w http.ResponseWriter, r *http.Request) {
	var body []byte
	var contentType string

	switch r.URL.Path {
	case "/":
		body = landingPageHTML
		contentType = "text/html; charset=utf-8"
	case "/main.css":
		body = landingPageCSS
		contentType = "text/css; charset=utf-8"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write(body); err != nil {
		logging.Warn("Account", "failed to serve %s: %v", r.URL.Path, err)
	}
}
