// Package credentials загружает базу пользователей формата "login:secret".
package credentials

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/udisondev/scale/pkg/protocol"
)

// MaxLineSize максимальная длина строки файла: login и secret
// не длиннее буфера аутентификации плюс разделитель.
// Строки длиннее MaxLineSize байт (без учёта \r\n) пропускаются целиком.
const MaxLineSize = 2 * protocol.AuthBufSize

// Separator разделитель login и secret.
const Separator = ':'

// Lookup доступ handshake к базе пользователей.
type Lookup interface {
	Lookup(login string) (secret string, ok bool)
}

// Store неизменяемая таблица login → secret.
// Безопасна для чтения из нескольких горутин.
type Store struct {
	users map[string]string
}

// Load читает базу пользователей из файла.
//
// Если файл не открывается, возвращает пустую базу и ошибку, оборачивающую
// protocol.ErrConfig: сервис продолжает работу без пользователей.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return &Store{users: map[string]string{}}, fmt.Errorf("%w: open user database %s: %w", protocol.ErrConfig, path, err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return s, fmt.Errorf("%w: read user database %s: %w", protocol.ErrConfig, path, err)
	}
	return s, nil
}

// Parse разбирает базу пользователей из r.
// Строка принимается, только если разделитель стоит не первым и не последним символом.
// Разбиение идёт по первому разделителю, остальные относятся к secret.
// При повторе login побеждает последняя строка.
// При ошибке чтения возвращает то, что успело загрузиться.
func Parse(r io.Reader) (*Store, error) {
	s := &Store{users: make(map[string]string)}
	// +2 под \r\n
	br := bufio.NewReaderSize(r, MaxLineSize+2)

	for {
		line, tooLong, err := readLine(br)
		if len(line) > 0 && len(line) <= MaxLineSize && !tooLong {
			s.addLine(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s, nil
			}
			return s, err
		}
	}
}

// readLine читает одну строку без завершающего '\n'.
// Строки длиннее буфера дочитываются и помечаются tooLong.
func readLine(br *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return nil, tooLong, err
		}
		if !isPrefix {
			return chunk, tooLong, nil
		}
		tooLong = true
	}
}

func (s *Store) addLine(line []byte) {
	pos := bytes.IndexByte(line, Separator)
	if pos <= 0 || pos >= len(line)-1 {
		slog.Debug("credentials: line skipped", "reason", "no interior separator")
		return
	}
	s.users[string(line[:pos])] = string(line[pos+1:])
}

// Lookup возвращает secret для login.
func (s *Store) Lookup(login string) (string, bool) {
	secret, ok := s.users[login]
	return secret, ok
}

// Len возвращает количество пользователей.
func (s *Store) Len() int {
	return len(s.users)
}
