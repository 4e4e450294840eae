package server

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	Greeting = "Hello, This changes everything"
	// HelloLogLine is printed verbatim on every greeting, spelling included.
	HelloLogLine = "Flask,Hellow"
)

// Route binds one method and path to a handler.
type Route struct {
	Method  string
	Path    string
	Handler echo.HandlerFunc
}

func (s *Server) routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/", Handler: s.hello},
	}
}

func (s *Server) hello(c echo.Context) error {
	if err := s.stdout.Println(HelloLogLine); err != nil {
		return fmt.Errorf("write diagnostic line: %w", err)
	}
	return c.String(http.StatusOK, Greeting)
}
