package server

import (
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/udisondev/scale/pkg/credentials"
)

const testUsers = "user1:secret1\nuser2:pa:ss\n"

type memRecord struct {
	msg      string
	critical bool
	attrs    []any
}

// memJournal запоминает записи журнала для проверок.
type memJournal struct {
	mu      sync.Mutex
	records []memRecord
}

func (m *memJournal) Record(msg string, critical bool, attrs ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, memRecord{msg: msg, critical: critical, attrs: attrs})
}

func (m *memJournal) find(msg string) (memRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.msg == msg {
			return r, true
		}
	}
	return memRecord{}, false
}

func (m *memJournal) has(msg string) bool {
	_, ok := m.find(msg)
	return ok
}

func testStore(t *testing.T) *credentials.Store {
	t.Helper()
	store, err := credentials.Parse(strings.NewReader(testUsers))
	if err != nil {
		t.Fatalf("parse users: %v", err)
	}
	return store
}

// pipeSession создаёт сессию поверх net.Pipe и возвращает клиентскую сторону.
func pipeSession(t *testing.T) (*Session, net.Conn, *memJournal) {
	t.Helper()
	srv, cli := net.Pipe()
	j := &memJournal{}
	sess := newSession(srv, j)
	t.Cleanup(func() {
		sess.Close()
		cli.Close()
	})
	return sess, cli, j
}
