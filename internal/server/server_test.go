package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.Listener {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestRun_ServesAndShutsDown(t *testing.T) {
	t.Parallel()

	ln := listen(t)
	ctx, cancel := context.WithCancel(context.Background())

	hookCalled := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		}),
			Listener(ln),
			ShutdownHook(func(context.Context) error {
				close(hookCalled)
				return nil
			}),
		)
	}()

	var body []byte
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ = io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "pong", string(body))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	select {
	case <-hookCalled:
	default:
		t.Fatal("shutdown hook not called")
	}
}

func TestRun_HookErrorsJoined(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errA := errors.New("hook a failed")
	errB := errors.New("hook b failed")

	err := Run(ctx, http.NotFoundHandler(),
		Listener(listen(t)),
		ShutdownHook(func(context.Context) error { return errA }),
		ShutdownHook(func(context.Context) error { return errB }),
	)
	require.ErrorIs(t, err, errA)
	require.ErrorIs(t, err, errB)
}

func TestRun_ListenError(t *testing.T) {
	t.Parallel()

	ln := listen(t)
	t.Cleanup(func() { _ = ln.Close() })

	err := Run(context.Background(), http.NotFoundHandler(), Address(ln.Addr().String()))
	require.Error(t, err)
}

func TestOptions_IgnoreZeroValues(t *testing.T) {
	t.Parallel()

	cfg := &config{address: defaultAddress, shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range []Option{Address(""), ShutdownTimeout(0), Logger(nil), ShutdownHook(nil)} {
		opt(cfg)
	}

	require.Equal(t, defaultAddress, cfg.address)
	require.Equal(t, defaultShutdownTimeout, cfg.shutdownTimeout)
	require.Nil(t, cfg.logger)
	require.Empty(t, cfg.shutdownHooks)
}
