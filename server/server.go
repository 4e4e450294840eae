package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.ngrok.com/ngrok"
	"golang.ngrok.com/ngrok/config"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	options    ServerOptions
	echo       *echo.Echo
	httpServer *http.Server
	ln         net.Listener
	tunnel     ngrok.Tunnel
	stdout     *lineWriter
}

func NewServer(options ServerOptions) *Server {
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	s := &Server{
		options: options,
		echo:    echo.New(),
		stdout:  newLineWriter(stdout),
	}

	s.echo.Debug = options.Debug
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(
		requestIDMiddleware(),
		LoggerMiddleware(),
		recoverMiddleware(),
		allowAnyOrigin,
		middleware.CORSWithConfig(corsConfig),
	)
	for _, r := range s.routes() {
		s.echo.Add(r.Method, r.Path, r.Handler)
	}

	s.httpServer = &http.Server{
		// Use h2c so we can serve HTTP/2 without TLS.
		Handler:           h2c.NewHandler(s.echo, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler is the full request chain, usable without a listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the configured address. A bind failure is fatal to startup.
func (s *Server) Listen() error {
	if err := s.options.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.options.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.options.Addr(), err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve blocks serving the bound listener until Stop.
func (s *Server) Serve() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	log.Info().Msgf("Listening on %s", s.ln.Addr())
	if err := s.httpServer.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// Start binds, serves and blocks until SIGINT/SIGTERM or a serve failure.
func (s *Server) Start() error {
	log.Debug().Interface("options", s.options).Msg("Starting server")
	if s.options.Debug {
		dump := s.options
		dump.Stdout = nil
		log.Debug().Msgf("debug mode on, do not expose this server publicly\n%s", spew.Sdump(dump))
	}

	if err := s.Listen(); err != nil {
		return err
	}

	if s.options.UseNgrok {
		if err := s.startTunnel(context.Background()); err != nil {
			s.ln.Close()
			return err
		}
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve()
	}()

	if s.tunnel != nil {
		go func() {
			log.Info().Msgf("ngrok tunnel established at: %s", s.tunnel.URL())
			if err := s.httpServer.Serve(s.tunnel); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ngrok server failed")
			}
		}()
	}

	return s.gracefulShutdown(errc)
}

func (s *Server) startTunnel(ctx context.Context) error {
	if s.options.Debug {
		return ErrTunnelInDebug
	}
	tun, err := ngrok.Listen(ctx,
		config.HTTPEndpoint(config.WithDomain(s.options.NgrokDomain)),
		ngrok.WithAuthtokenFromEnv(),
	)
	if err != nil {
		return fmt.Errorf("failed to start ngrok listener: %w", err)
	}
	s.tunnel = tun
	return nil
}

// Stop shuts the server down, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping server")

	err := s.httpServer.Shutdown(ctx)
	// Shutdown only closes listeners that reached Serve.
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) gracefulShutdown(errc <-chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		log.Info().Msgf("server received signal:%s", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Stop(ctx)
}
