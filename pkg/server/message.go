package server

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/scale/pkg/protocol"
	"github.com/udisondev/scale/pkg/vector"
)

// VectorLimits ограничения фазы обмена векторами.
type VectorLimits struct {
	// MaxVectorSize максимальное количество элементов, 0 = без ограничения.
	MaxVectorSize uint32
	// IOTimeout дедлайн на каждый шаг обмена, 0 = без дедлайна.
	IOTimeout time.Duration
}

// chunkPool буферы для чтения тела вектора.
// Вектор читается блоками, память не зависит от заявленного размера.
var chunkPool = sync.Pool{
	New: func() any {
		buf := make([]byte, protocol.ChunkSize)
		return &buf
	},
}

// processVectors читает N векторов и на каждый сразу отвечает
// насыщающей суммой квадратов. Ответ отправляется до чтения следующего вектора.
func processVectors(sess *Session, limits VectorLimits) error {
	conn := sess.conn
	remote := sess.remote
	sess.setState(StateVectors)

	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	chunk := *bufPtr

	// 1. Количество векторов
	if err := sess.setDeadline(limits.IOTimeout); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	count, err := protocol.ReadCount(conn)
	if err != nil {
		return fmt.Errorf("%w: read vector count: %w", protocol.ErrFraming, err)
	}
	slog.Debug("vectors: count received", "remote", remote, "count", count)

	var acc vector.Accumulator
	for i := range count {
		if err := sess.setDeadline(limits.IOTimeout); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}

		// 2. Размер вектора
		size, err := protocol.ReadCount(conn)
		if err != nil {
			return fmt.Errorf("%w: read vector %d size: %w", protocol.ErrFraming, i+1, err)
		}
		if limits.MaxVectorSize > 0 && size > limits.MaxVectorSize {
			slog.Warn("vectors: too large", "remote", remote, "vector", i+1, "size", size, "max", limits.MaxVectorSize)
			return fmt.Errorf("%w: vector %d size %d exceeds %d", protocol.ErrFraming, i+1, size, limits.MaxVectorSize)
		}

		// 3. Тело вектора, блоками
		acc.Reset()
		remaining := uint64(size) * protocol.ElementSize
		for remaining > 0 {
			n := min(remaining, uint64(len(chunk)))
			if _, err := io.ReadFull(conn, chunk[:n]); err != nil {
				return fmt.Errorf("%w: read vector %d data: %w", protocol.ErrFraming, i+1, err)
			}
			if !acc.Saturated() {
				acc.AddBytes(chunk[:n], protocol.ByteOrder)
			}
			remaining -= n
			if remaining > 0 {
				if err := sess.setDeadline(limits.IOTimeout); err != nil {
					return fmt.Errorf("set deadline: %w", err)
				}
			}
		}

		// 4. Ответ сразу, до чтения следующего вектора
		result := acc.Result()
		if err := protocol.WriteResult(conn, result); err != nil {
			return fmt.Errorf("%w: send result for vector %d: %w", protocol.ErrFraming, i+1, err)
		}
		sess.vectorDone()
		slog.Debug("vectors: result sent", "remote", remote, "vector", i+1, "size", size, "result", result)
	}

	return nil
}
