package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ReadToken выполняет одно чтение из r в buf (не более MaxTokenSize байт)
// и возвращает полученный токен.
// Токен обрезается по первому нулевому байту: клиенты на C присылают строки с терминатором.
// Возвращает io.EOF если ничего не прочитано.
func ReadToken(r io.Reader, buf []byte) ([]byte, error) {
	if len(buf) > MaxTokenSize {
		buf = buf[:MaxTokenSize]
	}
	n, err := r.Read(buf)
	if n <= 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, err
	}
	token := buf[:n]
	if i := bytes.IndexByte(token, 0); i >= 0 {
		token = token[:i]
	}
	return token, nil
}

// WriteToken записывает токен целиком.
// Короткая запись возвращает io.ErrShortWrite.
func WriteToken(w io.Writer, token string) error {
	n, err := io.WriteString(w, token)
	if err != nil {
		return err
	}
	if n != len(token) {
		return io.ErrShortWrite
	}
	return nil
}

// DecodeChallenge читает соль, отправленную сервером после login.
// Если сервер ответил ERR и закрыл соединение, возвращает ErrUnknownLogin.
func DecodeChallenge(r io.Reader) (Salt, error) {
	var buf [SaltSize]byte
	n, err := io.ReadFull(r, buf[:])
	if err != nil {
		if n == len(TokenERR) && string(buf[:n]) == TokenERR {
			return 0, ErrUnknownLogin
		}
		return 0, fmt.Errorf("read salt: %w", err)
	}
	return ParseSalt(buf[:])
}

// DecodeAuthResult читает OK или ERR после отправки hash.
// Читает ровно столько байт, сколько занимает токен, чтобы не захватить данные следующей фазы.
func DecodeAuthResult(r io.Reader) error {
	var buf [3]byte
	if _, err := io.ReadFull(r, buf[:2]); err != nil {
		return fmt.Errorf("read auth result: %w", err)
	}
	if string(buf[:2]) == TokenOK {
		return nil
	}
	if _, err := io.ReadFull(r, buf[2:]); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read auth result: %w", err)
	}
	if string(buf[:]) == TokenERR {
		return ErrAuthFailed
	}
	return fmt.Errorf("unexpected auth result: %q", buf[:])
}
