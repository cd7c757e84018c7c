package protocol

import (
	"fmt"
	"io"
)

// ReadCount читает поле uint32 (количество векторов или размер вектора).
func ReadCount(r io.Reader) (uint32, error) {
	var buf [CountSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return ByteOrder.Uint32(buf[:]), nil
}

// WriteCount записывает поле uint32.
func WriteCount(w io.Writer, n uint32) error {
	var buf [CountSize]byte
	ByteOrder.PutUint32(buf[:], n)
	return writeFull(w, buf[:])
}

// ReadResult читает ответ сервера на один вектор.
func ReadResult(r io.Reader) (int16, error) {
	var buf [ResultSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int16(ByteOrder.Uint16(buf[:])), nil
}

// WriteResult записывает ответ на один вектор.
func WriteResult(w io.Writer, v int16) error {
	var buf [ResultSize]byte
	ByteOrder.PutUint16(buf[:], uint16(v))
	return writeFull(w, buf[:])
}

// EncodeVector записывает размер вектора и его элементы.
func EncodeVector(w io.Writer, elems []int16) error {
	if uint64(len(elems)) > uint64(^uint32(0)) {
		return fmt.Errorf("vector too large: %d elements", len(elems))
	}
	buf := make([]byte, CountSize+len(elems)*ElementSize)
	ByteOrder.PutUint32(buf, uint32(len(elems)))
	off := CountSize
	for _, v := range elems {
		ByteOrder.PutUint16(buf[off:], uint16(v))
		off += ElementSize
	}
	if err := writeFull(w, buf); err != nil {
		return fmt.Errorf("write vector: %w", err)
	}
	return nil
}

func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}
