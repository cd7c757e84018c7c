package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
)

// Salt 64-битное случайное значение, выдаваемое на каждую попытку входа.
type Salt uint64

// NewSalt генерирует новую соль из crypto/rand.
func NewSalt() (Salt, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return Salt(binary.BigEndian.Uint64(b[:])), nil
}

// String возвращает соль как 16 hex символов в верхнем регистре.
func (s Salt) String() string {
	var buf [SaltSize]byte
	return string(s.AppendTo(buf[:0]))
}

// AppendTo дописывает hex представление соли в dst.
func (s Salt) AppendTo(dst []byte) []byte {
	const digits = "0123456789ABCDEF"
	for shift := 60; shift >= 0; shift -= 4 {
		dst = append(dst, digits[(uint64(s)>>uint(shift))&0xF])
	}
	return dst
}

// ParseSalt разбирает 16 hex символов, присланных сервером.
func ParseSalt(b []byte) (Salt, error) {
	if len(b) != SaltSize {
		return 0, fmt.Errorf("invalid salt length: expected %d, got %d", SaltSize, len(b))
	}
	v, err := strconv.ParseUint(string(b), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse salt: %w", err)
	}
	return Salt(v), nil
}
