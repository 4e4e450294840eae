package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

var (
	live       *Server
	liveStdout = &syncBuffer{}
)

func TestMain(m *testing.M) {
	live = NewServer(ServerOptions{Host: "127.0.0.1", Port: 0, Stdout: liveStdout})
	if err := live.Listen(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	go live.Serve()

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	live.Stop(ctx)
	cancel()
	os.Exit(code)
}

func liveClient() *resty.Client {
	return resty.New().SetBaseURL("http://" + live.Addr().String())
}

func TestLiveGreeting(t *testing.T) {
	before := liveStdout.Lines()

	resp, err := liveClient().R().Get("/")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, Greeting, resp.String())
	require.Equal(t, "*", resp.Header().Get(echo.HeaderAccessControlAllowOrigin))
	require.Equal(t, before+1, liveStdout.Lines())
}

func TestLiveGreetingIsIdempotent(t *testing.T) {
	client := liveClient()
	before := liveStdout.Lines()

	for i := 1; i <= 3; i++ {
		resp, err := client.R().Get("/")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode())
		require.Equal(t, Greeting, resp.String())
		require.Equal(t, before+i, liveStdout.Lines())
	}
}

func TestLiveUnknownPath(t *testing.T) {
	before := liveStdout.Lines()

	resp, err := liveClient().R().Get("/unknown")
	require.NoError(t, err)
	require.NotEqual(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, before, liveStdout.Lines())
}

func TestLiveOtherMethods(t *testing.T) {
	client := liveClient()
	for _, method := range []string{http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete} {
		resp, err := client.R().Execute(method, "/")
		require.NoError(t, err, method)
		require.NotEqual(t, http.StatusOK, resp.StatusCode(), method)
	}
}

func TestLiveHTTP2Cleartext(t *testing.T) {
	h2 := &http2.Transport{
		AllowHTTP: true,
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	}

	resp, err := liveClient().SetTransport(h2).R().Get("/")
	require.NoError(t, err)
	require.Equal(t, 2, resp.RawResponse.ProtoMajor)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	require.Equal(t, Greeting, resp.String())
}

func TestListenPortInUse(t *testing.T) {
	port := live.Addr().(*net.TCPAddr).Port
	s := NewServer(ServerOptions{Host: "127.0.0.1", Port: port})

	err := s.Listen()
	require.Error(t, err)
	require.Contains(t, err.Error(), fmt.Sprintf("127.0.0.1:%d", port))
}

func TestStartRejectsInvalidOptions(t *testing.T) {
	err := NewServer(ServerOptions{Host: "127.0.0.1", Port: 70000}).Start()
	require.ErrorIs(t, err, ErrInvalidPort)

	err = NewServer(ServerOptions{Host: "127.0.0.1", Debug: true, UseNgrok: true}).Start()
	require.ErrorIs(t, err, ErrTunnelInDebug)
}

func TestStopReleasesListener(t *testing.T) {
	s := NewServer(ServerOptions{Host: "127.0.0.1"})
	require.NoError(t, s.Listen())
	addr := s.Addr().String()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	ln.Close()
}
