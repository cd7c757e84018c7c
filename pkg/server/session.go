package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/scale/pkg/journal"
)

// State состояние протокола в рамках одного соединения.
type State uint8

const (
	StateAwaitLogin State = iota
	StateIdentify
	StateChallenge
	StateAwaitResponse
	StateVerify
	StateAuthenticated
	StateVectors
	StateClosed
)

var stateNames = [...]string{
	StateAwaitLogin:    "await_login",
	StateIdentify:      "identify",
	StateChallenge:     "challenge",
	StateAwaitResponse: "await_response",
	StateVerify:        "verify",
	StateAuthenticated: "authenticated",
	StateVectors:       "vectors",
	StateClosed:        "closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", s)
}

// Session состояние одного клиентского соединения.
// Живёт от accept до закрытия соединения.
type Session struct {
	conn   net.Conn
	remote string

	journal journal.Journal

	mu            sync.Mutex
	state         State
	login         string
	authenticated bool
	vectors       uint32

	closeOnce sync.Once
}

// newSession создаёт сессию для принятого соединения.
func newSession(conn net.Conn, j journal.Journal) *Session {
	return &Session{
		conn:    conn,
		remote:  conn.RemoteAddr().String(),
		journal: j,
		state:   StateAwaitLogin,
	}
}

// Remote возвращает адрес клиента.
func (s *Session) Remote() string {
	return s.remote
}

// State возвращает текущее состояние.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login возвращает login, заявленный клиентом (пустой до этапа identify).
func (s *Session) Login() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.login
}

// Authenticated сообщает, прошёл ли клиент аутентификацию.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Vectors возвращает количество обработанных векторов.
func (s *Session) Vectors() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vectors
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	slog.Debug("session: state", "remote", s.remote, "state", st)
}

func (s *Session) setLogin(login string) {
	s.mu.Lock()
	s.login = login
	s.mu.Unlock()
}

func (s *Session) markAuthenticated() {
	s.mu.Lock()
	s.authenticated = true
	s.state = StateAuthenticated
	s.mu.Unlock()
}

func (s *Session) vectorDone() {
	s.mu.Lock()
	s.vectors++
	s.mu.Unlock()
}

// record пишет событие в журнал с адресом клиента.
func (s *Session) record(msg string, critical bool, attrs ...any) {
	s.journal.Record(msg, critical, append([]any{"remote", s.remote}, attrs...)...)
}

// setDeadline выставляет дедлайн на соединение. Нулевой timeout снимает его.
func (s *Session) setDeadline(timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	return s.conn.SetDeadline(time.Now().Add(timeout))
}

// Close закрывает соединение.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("close connection", "error", err, "remote", s.remote)
		}
	})
}
