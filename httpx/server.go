package httpx

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"dqx0.com/go/tinyhttp/httpx/internal/http1"
	"dqx0.com/go/tinyhttp/internal/obs"
)

// Server accepts connections and serves exactly one request on each.
//
// Zero values are usable: no timeouts, 8 KiB header lines, 64 MiB
// bodies, unbounded connections, no logging and no metrics.
type Server struct {
	Addr           string
	Handler        Handler
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxHeaderBytes int
	MaxBodyBytes   int64
	// MaxConns caps concurrently served connections. When the cap is
	// reached the accept loop waits for a slot. Zero means no cap.
	MaxConns int

	Logger obs.Logger
	Meter  obs.Meter

	initOnce  sync.Once
	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	conns     map[net.Conn]struct{}
	sem       chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func (s *Server) init() {
	s.initOnce.Do(func() {
		s.listeners = make(map[net.Listener]struct{})
		s.conns = make(map[net.Conn]struct{})
		s.done = make(chan struct{})
		if s.MaxConns > 0 {
			s.sem = make(chan struct{}, s.MaxConns)
		}
	})
}

func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = "127.0.0.1:4221"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on l until l fails or the server is shut
// down, in which case it returns ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	s.init()
	defer l.Close()
	if !s.trackListener(l, true) {
		return ErrServerClosed
	}
	defer s.trackListener(l, false)
	s.logf(obs.Info, "listening on %s", l.Addr())
	for {
		if s.sem != nil {
			select {
			case s.sem <- struct{}{}:
			case <-s.done:
				return ErrServerClosed
			}
		}
		c, err := l.Accept()
		if err != nil {
			s.release()
			if s.shuttingDown() {
				return ErrServerClosed
			}
			s.logf(obs.Error, "accept: %v", err)
			return err
		}
		if !s.trackConn(c, true) {
			s.release()
			_ = c.Close()
			return ErrServerClosed
		}
		s.metricCounter("tinyhttp_connections_total", 1)
		go s.serveConn(c)
	}
}

func (s *Server) serveConn(c net.Conn) {
	defer s.wg.Done()
	defer s.release()
	defer s.trackConn(c, false)
	defer c.Close()

	start := time.Now()
	if s.ReadTimeout > 0 {
		_ = c.SetReadDeadline(start.Add(s.ReadTimeout))
	}
	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)
	rr := &http1.Reader{
		BR:             br,
		MaxHeaderBytes: s.headerLimit(),
		MaxBodyBytes:   s.bodyLimit(),
		Continue: func() error {
			if err := http1.WriteContinue(bw); err != nil {
				return err
			}
			return bw.Flush()
		},
	}
	pr, err := rr.ReadRequest()
	if err != nil {
		if err == io.EOF {
			return
		}
		s.metricCounter("tinyhttp_request_errors_total", 1, obs.Label{Key: "kind", Value: errorKind(err)})
		s.logf(obs.Warn, "conn %s: read request: %v", c.RemoteAddr(), err)
		if errors.Is(err, ErrBodyTooLarge) {
			// best-effort 413
			s.setWriteDeadline(c)
			_, _ = http1.WriteResponse(bw, 413, "", nil, nil, 0)
			_ = bw.Flush()
		}
		return
	}

	id := genID()
	r := &Request{
		Method:        pr.Method,
		Path:          pr.RequestURI,
		Proto:         pr.Proto,
		Header:        Header(pr.Header),
		Body:          pr.Body,
		ContentLength: pr.ContentLength,
		RemoteAddr:    c.RemoteAddr().String(),
		ID:            id,
		ctx:           WithRequestID(context.Background(), id),
	}
	res := s.handle(r)

	s.setWriteDeadline(c)
	n, err := http1.WriteResponse(bw, res.StatusCode, res.Reason, map[string]string(res.Header), res.Body, res.ContentLength)
	if cl, ok := res.Body.(io.Closer); ok {
		_ = cl.Close()
	}
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		s.metricCounter("tinyhttp_request_errors_total", 1, obs.Label{Key: "kind", Value: "write"})
		s.logf(obs.Warn, "request %s: write response: %v", id, err)
		return
	}
	dur := time.Since(start)
	s.logf(obs.Info, "request %s: %s %s %d %dB %s", id, r.Method, r.Path, res.StatusCode, n, dur)
	status := strconv.Itoa(res.StatusCode)
	s.metricCounter("tinyhttp_requests_total", 1, obs.Label{Key: "method", Value: r.Method}, obs.Label{Key: "status", Value: status})
	s.metricHistogram("tinyhttp_request_duration_seconds", dur.Seconds(), obs.Label{Key: "status", Value: status})
}

// handle runs the handler and turns a panic or a nil response into 500.
func (s *Server) handle(r *Request) (res *Response) {
	defer func() {
		if p := recover(); p != nil {
			s.logf(obs.Error, "request %s: handler panic: %v", r.ID, p)
			res = NewResponse(500)
		}
	}()
	h := s.Handler
	if h == nil {
		return NewResponse(404)
	}
	res = h.ServeRequest(r)
	if res == nil {
		s.logf(obs.Error, "request %s: handler returned no response", r.ID)
		return NewResponse(500)
	}
	return res
}

// Shutdown stops accepting connections and waits for in-flight ones to
// finish. If ctx expires first the remaining connections are closed and
// ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.init()
	s.closeListeners()
	idle := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		s.closeConns()
		return ctx.Err()
	}
}

// Close stops the server and closes every active connection at once.
func (s *Server) Close() error {
	s.init()
	s.closeListeners()
	s.closeConns()
	return nil
}

func (s *Server) closeListeners() {
	s.closeOnce.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()
	for l := range s.listeners {
		_ = l.Close()
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

func (s *Server) shuttingDown() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Server) trackListener(l net.Listener, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !add {
		delete(s.listeners, l)
		return true
	}
	if s.shuttingDown() {
		return false
	}
	s.listeners[l] = struct{}{}
	return true
}

// trackConn registers c and, when adding, reserves it in the wait group
// under the same lock Shutdown uses so no connection slips past Wait.
func (s *Server) trackConn(c net.Conn, add bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !add {
		delete(s.conns, c)
		return true
	}
	if s.shuttingDown() {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) release() {
	if s.sem != nil {
		<-s.sem
	}
}

func (s *Server) setWriteDeadline(c net.Conn) {
	if s.WriteTimeout > 0 {
		_ = c.SetWriteDeadline(time.Now().Add(s.WriteTimeout))
	}
}

func (s *Server) headerLimit() int {
	if s.MaxHeaderBytes <= 0 {
		return 8 << 10
	}
	return s.MaxHeaderBytes
}

func (s *Server) bodyLimit() int64 {
	if s.MaxBodyBytes <= 0 {
		return 64 << 20
	}
	return s.MaxBodyBytes
}

func (s *Server) logf(level obs.Level, format string, args ...interface{}) {
	if s.Logger == nil {
		return
	}
	s.Logger.Logf(level, format, args...)
}

func (s *Server) metricCounter(name string, value float64, labels ...obs.Label) {
	s.getMeter().Counter(name, value, labels...)
}

func (s *Server) metricHistogram(name string, value float64, labels ...obs.Label) {
	s.getMeter().Histogram(name, value, labels...)
}

func (s *Server) getMeter() obs.Meter {
	if s.Meter == nil {
		return obs.NopMeter{}
	}
	return s.Meter
}
