package server

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/udisondev/scale/pkg/protocol"
)

func runVectors(t *testing.T, limits VectorLimits) (*Session, net.Conn, <-chan error) {
	t.Helper()
	sess, cli, _ := pipeSession(t)

	done := make(chan error, 1)
	go func() {
		err := processVectors(sess, limits)
		sess.Close()
		done <- err
	}()
	return sess, cli, done
}

func TestProcessVectors_ReplyBeforeNextVector(t *testing.T) {
	sess, cli, done := runVectors(t, VectorLimits{})

	if err := protocol.WriteCount(cli, 3); err != nil {
		t.Fatalf("write count: %v", err)
	}

	vectors := []struct {
		elems []int16
		want  int16
	}{
		{[]int16{1, 2, 3, 4}, 30},
		{[]int16{32767, 32767}, 32767},
		{nil, 0},
	}

	// Следующий вектор отправляется только после получения ответа на текущий
	for i, v := range vectors {
		if err := protocol.EncodeVector(cli, v.elems); err != nil {
			t.Fatalf("vector %d: write: %v", i, err)
		}
		got, err := protocol.ReadResult(cli)
		if err != nil {
			t.Fatalf("vector %d: read result: %v", i, err)
		}
		if got != v.want {
			t.Errorf("vector %d: result = %d, want %d", i, got, v.want)
		}
	}

	if err := waitErr(t, done); err != nil {
		t.Fatalf("processVectors: %v", err)
	}
	if sess.Vectors() != 3 {
		t.Errorf("vectors = %d, want 3", sess.Vectors())
	}
}

func TestProcessVectors_ZeroCount(t *testing.T) {
	_, cli, done := runVectors(t, VectorLimits{})

	if err := protocol.WriteCount(cli, 0); err != nil {
		t.Fatalf("write count: %v", err)
	}
	if err := waitErr(t, done); err != nil {
		t.Fatalf("processVectors: %v", err)
	}
}

func TestProcessVectors_SpansChunks(t *testing.T) {
	_, cli, done := runVectors(t, VectorLimits{})

	elems := make([]int16, protocol.ChunkSize+100)
	for i := range elems {
		elems[i] = -1
	}

	if err := protocol.WriteCount(cli, 1); err != nil {
		t.Fatalf("write count: %v", err)
	}
	if err := protocol.EncodeVector(cli, elems); err != nil {
		t.Fatalf("write vector: %v", err)
	}
	got, err := protocol.ReadResult(cli)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if want := int16(len(elems)); got != want {
		t.Errorf("result = %d, want %d", got, want)
	}
	if err := waitErr(t, done); err != nil {
		t.Fatalf("processVectors: %v", err)
	}
}

func TestProcessVectors_TooLarge(t *testing.T) {
	_, cli, done := runVectors(t, VectorLimits{MaxVectorSize: 3})

	if err := protocol.WriteCount(cli, 1); err != nil {
		t.Fatalf("write count: %v", err)
	}
	// Сервер закрывает соединение, не дочитав тело
	_ = protocol.EncodeVector(cli, []int16{1, 2, 3, 4})

	if err := waitErr(t, done); !errors.Is(err, protocol.ErrFraming) {
		t.Fatalf("processVectors error = %v, want ErrFraming", err)
	}
}

func TestProcessVectors_Truncated(t *testing.T) {
	tests := []struct {
		name  string
		write func(c net.Conn)
	}{
		{"partial count", func(c net.Conn) { c.Write([]byte{1, 0}) }},
		{"missing vector", func(c net.Conn) { protocol.WriteCount(c, 2) }},
		{"partial body", func(c net.Conn) {
			protocol.WriteCount(c, 1)
			protocol.WriteCount(c, 3)
			c.Write(make([]byte, 2*protocol.ElementSize))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cli, done := runVectors(t, VectorLimits{})
			tt.write(cli)
			cli.Close()

			err := waitErr(t, done)
			if !errors.Is(err, protocol.ErrFraming) {
				t.Fatalf("processVectors error = %v, want ErrFraming", err)
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("processVectors error = %v, want EOF cause", err)
			}
		})
	}
}

func TestProcessVectors_IOTimeout(t *testing.T) {
	_, cli, done := runVectors(t, VectorLimits{IOTimeout: 50 * time.Millisecond})

	if err := protocol.WriteCount(cli, 1); err != nil {
		t.Fatalf("write count: %v", err)
	}
	// Размер вектора не приходит
	if err := waitErr(t, done); !errors.Is(err, protocol.ErrFraming) {
		t.Fatalf("processVectors error = %v, want ErrFraming", err)
	}
}
