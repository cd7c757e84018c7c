// Package client реализует клиента сервиса суммы квадратов:
// аутентификация по соли и отправка векторов.
package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/udisondev/scale/pkg/protocol"
)

var (
	// ErrNotAuthenticated векторы отправляются до аутентификации.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrStreamDone поток векторов уже отправлен: сервер закрывает соединение после него.
	ErrStreamDone = errors.New("vector stream already sent")
)

// Conn соединение с сервером. Не безопасно для конкурентного использования.
type Conn struct {
	conn net.Conn
	cfg  dialConfig

	authenticated bool
	done          bool
}

// Dial подключается к серверу.
func Dial(addr string, opts ...Option) (*Conn, error) {
	// 1. Дефолтные значения
	cfg := dialConfig{dialTimeout: DefaultDialTimeout}

	// 2. Применяем опции
	for _, opt := range opts {
		opt(&cfg)
	}

	// 3. Подключаемся
	dialer := &net.Dialer{Timeout: cfg.dialTimeout}
	if cfg.localAddr != nil {
		dialer.LocalAddr = cfg.localAddr
	}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	return &Conn{conn: conn, cfg: cfg}, nil
}

// Response вычисляет ответ на соль: верхний hex SHA-224(salt || secret).
func Response(salt protocol.Salt, secret string) string {
	return protocol.Proof(salt, secret)
}

// Authenticate проходит аутентификацию: login → соль → hash → OK/ERR.
// Неизвестный login даёт protocol.ErrUnknownLogin, неверный secret даёт protocol.ErrAuthFailed.
// После ошибки сервер закрывает соединение.
func (c *Conn) Authenticate(login, secret string) error {
	if c.authenticated {
		return nil
	}
	if len(login) == 0 || len(login) > protocol.MaxTokenSize {
		return fmt.Errorf("invalid login length: %d", len(login))
	}

	// 1. login
	if err := c.deadline(); err != nil {
		return err
	}
	if err := protocol.WriteToken(c.conn, login); err != nil {
		return fmt.Errorf("send login: %w", err)
	}

	// 2. Соль
	if err := c.deadline(); err != nil {
		return err
	}
	salt, err := protocol.DecodeChallenge(c.conn)
	if err != nil {
		return fmt.Errorf("receive salt: %w", err)
	}

	// 3. HASH(SALT || PASSWORD)
	if err := c.deadline(); err != nil {
		return err
	}
	if err := protocol.WriteToken(c.conn, Response(salt, secret)); err != nil {
		return fmt.Errorf("send response: %w", err)
	}

	// 4. OK/ERR
	if err := c.deadline(); err != nil {
		return err
	}
	if err := protocol.DecodeAuthResult(c.conn); err != nil {
		return fmt.Errorf("receive auth result: %w", err)
	}

	c.authenticated = true
	return nil
}

// SumOfSquares отправляет поток из одного вектора и возвращает результат.
func (c *Conn) SumOfSquares(vec []int16) (int16, error) {
	results, err := c.Process([][]int16{vec})
	if err != nil {
		return 0, err
	}
	return results[0], nil
}

// Process отправляет поток векторов и возвращает результат для каждого.
// Следующий вектор отправляется только после получения результата текущего.
// При ошибке возвращаются результаты, полученные до неё.
func (c *Conn) Process(vectors [][]int16) ([]int16, error) {
	if !c.authenticated {
		return nil, ErrNotAuthenticated
	}
	if c.done {
		return nil, ErrStreamDone
	}
	if uint64(len(vectors)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("too many vectors: %d", len(vectors))
	}
	c.done = true

	if err := c.deadline(); err != nil {
		return nil, err
	}
	if err := protocol.WriteCount(c.conn, uint32(len(vectors))); err != nil {
		return nil, fmt.Errorf("send vector count: %w", err)
	}

	results := make([]int16, 0, len(vectors))
	for i, vec := range vectors {
		if err := c.deadline(); err != nil {
			return results, err
		}
		if err := protocol.EncodeVector(c.conn, vec); err != nil {
			return results, fmt.Errorf("vector %d: %w", i+1, err)
		}
		res, err := protocol.ReadResult(c.conn)
		if err != nil {
			return results, fmt.Errorf("vector %d: read result: %w", i+1, err)
		}
		results = append(results, res)
	}

	return results, nil
}

// Close закрывает соединение.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) deadline() error {
	if c.cfg.ioTimeout <= 0 {
		return nil
	}
	if err := c.conn.SetDeadline(time.Now().Add(c.cfg.ioTimeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	return nil
}
