package client

import (
	"net"
	"time"
)

// DefaultDialTimeout таймаут подключения по умолчанию.
const DefaultDialTimeout = 10 * time.Second

type dialConfig struct {
	localAddr   *net.TCPAddr
	dialTimeout time.Duration
	ioTimeout   time.Duration
}

// Option конфигурирует соединение.
type Option func(*dialConfig)

// WithDialTimeout устанавливает таймаут подключения.
func WithDialTimeout(d time.Duration) Option {
	return func(c *dialConfig) {
		c.dialTimeout = d
	}
}

// WithIOTimeout устанавливает дедлайн на каждый шаг обмена.
// 0 = без дедлайна.
func WithIOTimeout(d time.Duration) Option {
	return func(c *dialConfig) {
		c.ioTimeout = d
	}
}

// WithLocalAddr устанавливает локальный адрес для исходящего соединения.
// По умолчанию адрес выбирает система.
func WithLocalAddr(addr *net.TCPAddr) Option {
	return func(c *dialConfig) {
		c.localAddr = addr
	}
}
