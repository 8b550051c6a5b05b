package xrun

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xserve/pkg/observability/xlog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quiet() Option { return WithLogger(xlog.Discard()) }

func TestStopFlag(t *testing.T) {
	f := NewStopFlag()
	assert.False(t, f.Stopped())
	assert.NoError(t, f.Cause())
	select {
	case <-f.Done():
		t.Fatal("done before stop")
	default:
	}

	first := errors.New("first")
	assert.True(t, f.Stop(first))
	assert.False(t, f.Stop(errors.New("second")), "re-raising has no effect")
	assert.True(t, f.Stopped())
	assert.Same(t, first, f.Cause())
	<-f.Done()
}

func TestStopFlag_ConcurrentStop(t *testing.T) {
	f := NewStopFlag()
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Go(func() {
			if f.Stop(nil) {
				wins.Add(1)
			}
		})
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
	assert.True(t, f.Stopped())
	assert.NoError(t, f.Cause())
}

func TestGroup_EmptyAndSingle(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	assert.NoError(t, g.Wait())

	var ran atomic.Bool
	g, _ = NewGroup(nil, quiet()) //nolint:staticcheck // nil ctx 归一化
	g.Go(func(context.Context) error { ran.Store(true); return nil })
	assert.NoError(t, g.Wait())
	assert.True(t, ran.Load())
	assert.False(t, g.StopFlag().Stopped())
}

func TestGroup_ErrorCancelsOthersAndTripsFlag(t *testing.T) {
	stop := NewStopFlag()
	g, ctx := NewGroup(context.Background(), quiet(), WithStopFlag(stop), nil)
	boom := errors.New("boom")

	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.GoWithName("failing", func(context.Context) error { return boom })

	assert.ErrorIs(t, g.Wait(), boom)
	assert.Error(t, ctx.Err())
	assert.True(t, stop.Stopped())
	assert.ErrorIs(t, stop.Cause(), boom)
	assert.Same(t, stop, g.StopFlag())
}

func TestGroup_CancelWithCause(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	cause := errors.New("operator stop")
	g.GoWithName("waiter", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	g.Cancel(cause)

	assert.ErrorIs(t, g.Wait(), cause)
	assert.True(t, g.StopFlag().Stopped())
	assert.Same(t, cause, g.StopFlag().Cause())
}

func TestGroup_CancelNilReturnsNil(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	g.Cancel(nil)
	assert.NoError(t, g.Wait())
	assert.True(t, g.StopFlag().Stopped())
}

func TestGroup_ServiceCanceledIsKept(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(func(context.Context) error { return context.Canceled })
	assert.ErrorIs(t, g.Wait(), context.Canceled)
	assert.False(t, g.StopFlag().Stopped())
}

func TestGroup_ParentCancelFiltered(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g, _ := NewGroup(parent, quiet())
	g.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	assert.NoError(t, g.Wait())
}

func TestGroup_NilFunc(t *testing.T) {
	g, _ := NewGroup(context.Background(), quiet())
	g.Go(nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)

	g, _ = NewGroup(context.Background(), quiet())
	g.GoWithName("nil", nil)
	assert.ErrorIs(t, g.Wait(), ErrNilFunc)
}

func TestRun_SignalTripsFlag(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), sigCh)
	stop := NewStopFlag()

	done := make(chan error, 1)
	go func() {
		done <- RunWithOptions(ctx, []Option{quiet(), WithStopFlag(stop), WithName("sig")},
			func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			})
	}()
	sigCh <- syscall.SIGTERM

	select {
	case err := <-done:
		var se *SignalError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, syscall.SIGTERM, se.Signal)
		assert.ErrorIs(t, err, ErrSignal)
		assert.True(t, stop.Stopped())
		assert.ErrorIs(t, stop.Cause(), ErrSignal)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after signal")
	}
}

type waitService struct{ ran atomic.Bool }

func (s *waitService) Run(ctx context.Context) error {
	s.ran.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func TestRunServices(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	ctx := withTestSigChan(context.Background(), sigCh)
	svc := &waitService{}

	done := make(chan error, 1)
	go func() {
		done <- RunServicesWithOptions(ctx, []Option{quiet(), WithSignals([]os.Signal{syscall.SIGUSR1})},
			svc, ServiceFunc(func(ctx context.Context) error { <-ctx.Done(); return nil }))
	}()
	require.Eventually(t, svc.ran.Load, 5*time.Second, time.Millisecond)
	sigCh <- syscall.SIGUSR1
	assert.ErrorIs(t, <-done, ErrSignal)

	err := RunServicesWithOptions(context.Background(), []Option{quiet()}, nil)
	assert.ErrorIs(t, err, ErrNilService)
}

func TestRun_WithoutSignalHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	err := RunWithOptions(ctx, []Option{quiet(), WithoutSignalHandler()}, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)

	assert.NoError(t, Run(ctx))
}

func TestTicker(t *testing.T) {
	var n atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- Ticker(time.Millisecond, true, func(context.Context) error {
			if n.Add(1) == 3 {
				cancel()
			}
			return nil
		})(ctx)
	}()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.GreaterOrEqual(t, n.Load(), int32(3))

	stopErr := errors.New("stop")
	err := Ticker(time.Millisecond, false, func(context.Context) error { return stopErr })(context.Background())
	assert.ErrorIs(t, err, stopErr)

	assert.ErrorIs(t, Ticker(0, true, func(context.Context) error { return nil })(context.Background()), ErrInvalidInterval)
	assert.ErrorIs(t, Ticker(time.Second, true, nil)(context.Background()), ErrNilFunc)

	canceled, c := context.WithCancel(context.Background())
	c()
	called := false
	err = Ticker(time.Second, true, func(context.Context) error { called = true; return nil })(canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestHTTPServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- HTTPServer(srv, time.Second)(ctx) }()

	require.Eventually(t, func() bool {
		c, derr := net.Dial("tcp", addr)
		if derr != nil {
			return false
		}
		_ = c.Close()
		return true
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-errc)
	assert.ErrorIs(t, HTTPServer(nil, 0)(context.Background()), ErrNilServer)
}

type fakeServer struct {
	listenErr   error
	shutdownErr error
	closed      chan struct{}
}

func (f *fakeServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.closed
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	close(f.closed)
	return f.shutdownErr
}

func TestHTTPServer_Errors(t *testing.T) {
	bind := errors.New("address in use")
	err := HTTPServer(&fakeServer{listenErr: bind}, 0)(context.Background())
	assert.ErrorIs(t, err, bind)

	sdErr := errors.New("shutdown failed")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = HTTPServer(&fakeServer{shutdownErr: sdErr, closed: make(chan struct{})}, 0)(ctx)
	assert.ErrorIs(t, err, sdErr)

	// 外部直接关闭
	fs := &fakeServer{closed: make(chan struct{})}
	close(fs.closed)
	assert.NoError(t, HTTPServer(fs, 0)(context.Background()))
}

func TestSignalError(t *testing.T) {
	err := &SignalError{Signal: syscall.SIGINT}
	assert.ErrorIs(t, err, ErrSignal)
	assert.Equal(t, ErrSignal, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "interrupt")
	assert.Contains(t, (&SignalError{}).Error(), "<nil>")
	assert.Len(t, DefaultSignals(), 4)
}

func TestRun_StopFlagEndsGroup(t *testing.T) {
	stop := NewStopFlag()
	done := make(chan error, 1)
	go func() {
		done <- RunWithOptions(context.Background(), []Option{quiet(), WithoutSignalHandler(), WithStopFlag(stop)},
			func(ctx context.Context) error {
				<-ctx.Done()
				return nil
			})
	}()
	stop.Stop(nil)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after StopFlag")
	}
}
