// Package server реализует TCP сервис: аутентификация по соли и SHA-224,
// затем обмен векторами int16 с насыщающей суммой квадратов.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"github.com/udisondev/scale/internal/broker"
	"github.com/udisondev/scale/pkg/config"
	"github.com/udisondev/scale/pkg/credentials"
	"github.com/udisondev/scale/pkg/journal"
	"github.com/udisondev/scale/pkg/protocol"
)

// Server принимает соединения и проводит каждое через аутентификацию
// и обмен векторами.
type Server struct {
	users   credentials.Lookup
	journal journal.Journal
	limits  config.LimitsConfig
	ready   chan struct{}

	// sessions активные сессии, закрываются при остановке.
	sessions sync.Map
}

// New создаёт сервер. users не изменяется во время работы.
func New(cfg *config.Config, users credentials.Lookup, j journal.Journal) *Server {
	if j == nil {
		j = journal.Discard
	}
	return &Server{
		users:   users,
		journal: j,
		limits:  cfg.Limits,
		ready:   cfg.Ready,
	}
}

// Run создаёт TCP listener и запускает сервер.
// Ошибка создания listener фатальна и возвращается как protocol.ErrBind.
func Run(ctx context.Context, cfg *config.Config, j journal.Journal) error {
	if j == nil {
		j = journal.Discard
	}
	addr := cfg.Server.Addr()
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		j.Record("cannot bind socket", true, "addr", addr, "error", err)
		return fmt.Errorf("%w: listen %s: %w", protocol.ErrBind, addr, err)
	}

	return Serve(ctx, cfg, lis, j)
}

// Serve загружает базу пользователей, подключает публикацию событий
// и запускает сервер на переданном listener.
func Serve(ctx context.Context, cfg *config.Config, lis net.Listener, j journal.Journal) error {
	if j == nil {
		j = journal.Discard
	}

	// База пользователей: отсутствие файла не фатально
	users, err := credentials.Load(cfg.Users.File)
	if err != nil {
		j.Record("cannot open user database file", true, "path", cfg.Users.File, "error", err)
	}
	j.Record("user database loaded", false, "users", users.Len())

	// NATS брокер для событий (опционально)
	if cfg.Events.Enabled {
		brk, err := broker.New(broker.Config{
			URLs:          cfg.Events.URLs,
			ReconnectWait: cfg.Events.ReconnectWait,
			MaxReconnects: cfg.Events.MaxReconnects,
		})
		if err != nil {
			_ = lis.Close()
			return fmt.Errorf("create broker: %w", err)
		}
		defer func() {
			if err := brk.Close(); err != nil {
				slog.Error("close broker", "error", err)
			}
		}()
		j = journal.Multi{j, broker.NewPublisher(brk, cfg.Events.Subject)}
	}

	return New(cfg, users, j).Serve(ctx, lis)
}

// Serve принимает соединения на lis до отмены ctx.
//
// Слот берётся до Accept: при limits.max_connections = 1 следующий клиент
// не принимается, пока текущий не закончит, и ждёт в backlog ОС.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	addr := lis.Addr().String()

	// Собственная отмена: при любом выходе из Serve, включая закрытие
	// listener снаружи, активные сессии закрываются до ожидания wg.
	ctx, cancel := context.WithCancel(ctx)

	stop := context.AfterFunc(ctx, func() {
		if err := lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("close listener", "error", err)
		}
		s.closeSessions()
	})
	defer stop()
	defer func() {
		if err := lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("close listener", "error", err)
		}
	}()

	maxConns := max(s.limits.MaxConnections, 1)

	// Семафор-с-буфером: одна операция для лимита соединений И получения auth буфера
	slots := make(chan []byte, maxConns)
	for range maxConns {
		slots <- make([]byte, AuthBufSize)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if s.limits.AcceptRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.limits.AcceptRatePerSec), s.limits.AcceptBurst)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	slog.Info("server started", "addr", addr)
	slog.Info("server: configuration",
		"max_connections", maxConns,
		"max_vector_size", s.limits.MaxVectorSize,
		"auth_timeout", s.limits.AuthTimeout,
		"io_timeout", s.limits.IOTimeout,
		"accept_rate_per_sec", s.limits.AcceptRatePerSec,
	)
	s.journal.Record("server started successfully", false, "addr", addr)

	// Сигнализируем что сервер готов
	if s.ready != nil {
		close(s.ready)
	}

	// Accept loop
	for {
		var buf []byte
		select {
		case buf = <-slots:
		case <-ctx.Done():
			slog.Info("server shutting down")
			return nil
		}

		if err := limiter.Wait(ctx); err != nil {
			slog.Info("server shutting down")
			return nil
		}

		conn, err := lis.Accept()
		if err != nil {
			slots <- buf
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				slog.Info("server shutting down")
				return nil
			}
			slog.Error("accept connection", "error", err)
			s.journal.Record("cannot accept client connection", false, "error", err)
			continue
		}

		wg.Add(1)
		go func(c net.Conn, buf []byte) {
			defer func() {
				slots <- buf
				wg.Done()
			}()
			s.handleConn(ctx, c, buf)
		}(conn, buf)
	}
}

// closeSessions закрывает все активные соединения.
func (s *Server) closeSessions() {
	s.sessions.Range(func(key, _ any) bool {
		key.(*Session).Close()
		return true
	})
}

// handleConn обрабатывает одно соединение: аутентификация, затем векторы.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, authBuf []byte) {
	sess := newSession(conn, s.journal)
	s.sessions.Store(sess, struct{}{})
	// Сессия могла не попасть в closeSessions
	if ctx.Err() != nil {
		sess.Close()
	}
	defer func() {
		s.sessions.Delete(sess)
		sess.Close()
		sess.record("client connection closed", false, "vectors", sess.Vectors())
	}()

	slog.Debug("new connection", "remote", sess.remote)
	sess.record("new client connection established", false)

	// Результат каждого вектора должен уходить сразу
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	// 1. Аутентификация
	if err := authenticate(sess, s.users, s.limits.AuthTimeout, authBuf); err != nil {
		s.recordAuthFailure(sess, err)
		return
	}
	slog.Info("client authenticated", "login", sess.Login(), "remote", sess.remote)
	sess.record("client authenticated successfully", false, "login", sess.Login())

	// 2. Векторы
	err := processVectors(sess, VectorLimits{
		MaxVectorSize: s.limits.MaxVectorSize,
		IOTimeout:     s.limits.IOTimeout,
	})
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			slog.Debug("client disconnected", "remote", sess.remote, "error", err)
		} else {
			slog.Warn("vector processing aborted", "error", err, "remote", sess.remote)
		}
		sess.record("vector processing aborted", false, "login", sess.Login(), "error", err)
		return
	}
	sess.record("all vectors processed", false, "login", sess.Login(), "vectors", sess.Vectors())
}

// recordAuthFailure пишет в журнал причину отказа в аутентификации.
func (s *Server) recordAuthFailure(sess *Session, err error) {
	login := sess.Login()
	switch {
	case errors.Is(err, protocol.ErrNoLoginReceived):
		sess.record("no data received from client for login", false)
	case errors.Is(err, protocol.ErrUnknownLogin):
		sess.record("identification failed", false, "login", login)
	case errors.Is(err, protocol.ErrSaltSendFailed):
		sess.record("failed to send salt to client", false, "login", login)
	case errors.Is(err, protocol.ErrNoResponseReceived):
		sess.record("no hash received from client", false, "login", login)
	case errors.Is(err, protocol.ErrHashMismatch):
		sess.record("authentication failed", false, "login", login)
	default:
		sess.record("authentication aborted", false, "login", login, "error", err)
	}
	slog.Warn("authentication failed", "error", err, "login", login, "remote", sess.remote)
}
