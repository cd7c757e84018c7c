// Package protocol определяет wire protocol сервиса scale.
//
// Сессия состоит из двух фаз. Аутентификация идёт сырыми ASCII токенами
// без префиксов длины и терминаторов: login, соль, HASH(SALT || PASSWORD), OK/ERR.
// Затем клиент передаёт векторы int16 с префиксами длины uint32,
// а сервер отвечает одним int16 на каждый вектор.
//
// Все целые числа передаются в порядке байт хоста (binary.NativeEndian),
// канонизации нет. Клиент и сервер с разным порядком байт не совместимы.
package protocol

import "encoding/binary"

// Токены аутентификации
const (
	TokenOK  = "OK"
	TokenERR = "ERR"
)

// Размеры полей
const (
	// AuthBufSize размер буфера чтения на этапах аутентификации.
	AuthBufSize = 256
	// MaxTokenSize максимум байт, принимаемых за одно чтение login или hash.
	MaxTokenSize = AuthBufSize - 1
	// SaltSize длина соли в hex символах.
	SaltSize = 16
	// DigestSize длина SHA-224 в байтах.
	DigestSize = 28
	// DigestHexSize длина SHA-224 в hex символах.
	DigestHexSize = DigestSize * 2

	// CountSize размер поля количества векторов и размера вектора.
	CountSize = 4
	// ElementSize размер элемента вектора.
	ElementSize = 2
	// ResultSize размер ответа на вектор.
	ResultSize = 2
)

// ChunkSize размер блока, которым читается тело вектора.
// Кратен ElementSize, поэтому элемент никогда не разрывается между блоками.
const ChunkSize = 4096

// Диапазон результата
const (
	MaxResult = 32767
	MinResult = -32768
)

// ByteOrder порядок байт всех целых чисел на проводе.
var ByteOrder binary.ByteOrder = binary.NativeEndian
