package server

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/scale/pkg/credentials"
	"github.com/udisondev/scale/pkg/protocol"
)

// Смещения в буфере аутентификации:
//
//	[0:256]    - чтение login, затем hash клиента
//	[256:272]  - соль (16 hex символов)
//	[272:328]  - ожидаемый hash (56 hex символов)
const (
	offToken    = 0
	offSalt     = offToken + protocol.AuthBufSize
	offExpected = offSalt + protocol.SaltSize
	AuthBufSize = offExpected + protocol.DigestHexSize
)

// authenticate выполняет аутентификацию клиента по схеме
// login → SALT → HASH(SALT || PASSWORD) → OK/ERR.
//
// Любая ошибка завершает соединение. Соль неизвестному login не отправляется.
func authenticate(sess *Session, users credentials.Lookup, timeout time.Duration, buf []byte) error {
	conn := sess.conn
	remote := sess.remote

	if timeout > 0 {
		if err := sess.setDeadline(timeout); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
		defer func() {
			if err := conn.SetDeadline(time.Time{}); err != nil {
				slog.Error("auth: reset deadline failed", "error", err, "remote", remote)
			}
		}()
	}

	// 1. Читаем login
	sess.setState(StateAwaitLogin)
	token, err := protocol.ReadToken(conn, buf[offToken:offToken+protocol.AuthBufSize])
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrNoLoginReceived, err)
	}
	login := string(token)
	sess.setLogin(login)
	slog.Debug("auth: login received", "remote", remote, "login", login)

	// 2. Идентификация
	sess.setState(StateIdentify)
	secret, ok := users.Lookup(login)
	if !ok {
		if err := protocol.WriteToken(conn, protocol.TokenERR); err != nil {
			slog.Debug("auth: send ERR failed", "remote", remote, "error", err)
		}
		return protocol.ErrUnknownLogin
	}

	// 3. Генерируем соль прямо в буфер и отправляем
	sess.setState(StateChallenge)
	salt, err := protocol.NewSalt()
	if err != nil {
		return fmt.Errorf("generate salt: %w", err)
	}
	saltHex := salt.AppendTo(buf[offSalt:offSalt])

	n, err := conn.Write(saltHex)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrSaltSendFailed, err)
	}
	if n != protocol.SaltSize {
		return fmt.Errorf("%w: sent %d of %d bytes", protocol.ErrSaltSendFailed, n, protocol.SaltSize)
	}
	slog.Debug("auth: salt sent", "remote", remote)

	// 4. Читаем HASH(SALT || PASSWORD)
	sess.setState(StateAwaitResponse)
	token, err = protocol.ReadToken(conn, buf[offToken:offToken+protocol.AuthBufSize])
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrNoResponseReceived, err)
	}

	// 5. Сверяем без учёта регистра
	sess.setState(StateVerify)
	expected := protocol.ProofTo(buf[offExpected:], saltHex, secret)
	received := protocol.NormalizeHex(token)

	if subtle.ConstantTimeCompare(received, expected) != 1 {
		if err := protocol.WriteToken(conn, protocol.TokenERR); err != nil {
			slog.Debug("auth: send ERR failed", "remote", remote, "error", err)
		}
		return protocol.ErrHashMismatch
	}

	if err := protocol.WriteToken(conn, protocol.TokenOK); err != nil {
		return fmt.Errorf("%w: send OK: %w", protocol.ErrIO, err)
	}
	sess.markAuthenticated()
	slog.Debug("auth: authenticated", "remote", remote, "login", login)

	return nil
}
