package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// Digest возвращает SHA-224 от data в виде 56 hex символов в верхнем регистре.
func Digest(data []byte) string {
	var out [DigestHexSize]byte
	DigestTo(out[:], data)
	return string(out[:])
}

// DigestTo записывает hex SHA-224 от data в dst.
// dst должен иметь размер >= DigestHexSize.
// Возвращает slice с записанными данными.
func DigestTo(dst, data []byte) []byte {
	_ = dst[DigestHexSize-1] // bounds check hint

	sum := sha256.Sum224(data)
	hex.Encode(dst, sum[:])
	upper(dst[:DigestHexSize])
	return dst[:DigestHexSize]
}

// Proof вычисляет ожидаемый ответ клиента: HASH(salt || secret).
func Proof(salt Salt, secret string) string {
	var saltBuf [SaltSize]byte
	var out [DigestHexSize]byte
	return string(ProofTo(out[:], salt.AppendTo(saltBuf[:0]), secret))
}

// ProofTo записывает hex HASH(salt || secret) в dst без промежуточной конкатенации.
// dst должен иметь размер >= DigestHexSize.
func ProofTo(dst, salt []byte, secret string) []byte {
	_ = dst[DigestHexSize-1] // bounds check hint

	h := sha256.New224()
	h.Write(salt)
	io.WriteString(h, secret)

	var sum [DigestSize]byte
	hex.Encode(dst, h.Sum(sum[:0]))
	upper(dst[:DigestHexSize])
	return dst[:DigestHexSize]
}

// NormalizeHex приводит hex строку к верхнему регистру на месте.
func NormalizeHex(b []byte) []byte {
	upper(b)
	return b
}

func upper(b []byte) {
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
}
