package svcwrap

import (
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/svcwrap/svcwrap/internal/config"
	"github.com/svcwrap/svcwrap/internal/engine"
	"github.com/svcwrap/svcwrap/internal/env"
	"github.com/svcwrap/svcwrap/internal/history"
	"github.com/svcwrap/svcwrap/internal/history/factory"
	"github.com/svcwrap/svcwrap/internal/logging"
	"github.com/svcwrap/svcwrap/internal/metrics"
	"github.com/svcwrap/svcwrap/internal/restart"
	"github.com/svcwrap/svcwrap/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type Priority = cfg.Priority

type EnvVar = env.Var

type LogConfig = logging.Config

type Policy = restart.Policy

type State = engine.State

type ControlCode = engine.ControlCode

type HistorySink = history.Sink

// Restart policy constructors.

func RestartDefault() Policy              { return restart.Default() }
func RestartAlways() Policy               { return restart.Always() }
func RestartNever() Policy                { return restart.Never() }
func RestartIfCodeIn(codes ...int) Policy { return restart.IfCodeIn(codes...) }
func RestartIfCodeNotIn(codes ...int) Policy {
	return restart.IfCodeNotIn(codes...)
}

// Service is a thin facade over the internal engine for embedding the
// wrapper in another program instead of running the svcwrap binary.
type Service struct {
	sink *logging.Sink
	hist history.Sink
	eng  *engine.Engine
}

// hostFunc adapts a plain function to the engine's host interface.
type hostFunc func(engine.Status) error

func (f hostFunc) Report(s engine.Status) error { return f(s) }

// NewService builds a supervised service from a validated config. When
// console is non-nil, wrapper events are mirrored to it.
func NewService(c *Config, console io.Writer) (*Service, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	sink, err := logging.New(c.Name, c.Log, console)
	if err != nil {
		return nil, err
	}
	s := &Service{sink: sink}
	if c.HistoryDSN != "" {
		s.hist, err = factory.NewSink(c.HistoryDSN)
		if err != nil {
			_ = sink.Close()
			return nil, err
		}
	}
	s.eng = engine.New(c, supervisor.New(sink), sink, hostFunc(func(engine.Status) error { return nil }))
	s.eng.SetHistory(s.hist)
	return s, nil
}

// Run supervises the command until it stops and returns the exit code the
// wrapper process would have.
func (s *Service) Run() int {
	code := s.eng.Run()
	if s.hist != nil {
		_ = s.hist.Close()
	}
	_ = s.sink.Close()
	return code
}

// Stop requests a graceful stop; Run returns once it completes.
func (s *Service) Stop() { s.eng.RequestStop() }

// State returns the current lifecycle state.
func (s *Service) State() State { return s.eng.State() }

func LoadConfigFile(path string) (*cfg.FileConfig, error) {
	return cfg.LoadFile(path)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the
// default registry. It blocks in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
