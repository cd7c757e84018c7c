// Package journal реализует журнал событий сервиса: сообщение и флаг критичности,
// дописываемые в текстовый файл с отметкой времени.
package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TimeLayout формат отметки времени в строке журнала.
const TimeLayout = "2006-01-02 15:04:05"

// Journal принимает события протокола.
// Реализации не должны заметно блокировать вызывающего.
type Journal interface {
	Record(msg string, critical bool, attrs ...any)
}

// Writer пишет строки вида
//
//	2006-01-02 15:04:05 | NON-CRITICAL | message key=value
//
// в io.Writer. Безопасен для конкурентного использования.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	buf []byte

	// now подменяется в тестах.
	now func() time.Time
}

// New создаёт журнал поверх w.
func New(w io.Writer) *Writer {
	return &Writer{w: w, now: time.Now}
}

// Record дописывает одну строку.
func (j *Writer) Record(msg string, critical bool, attrs ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()

	b := j.buf[:0]
	b = j.now().AppendFormat(b, TimeLayout)
	b = append(b, " | "...)
	b = append(b, Severity(critical)...)
	b = append(b, " | "...)
	b = append(b, msg...)
	b = appendAttrs(b, attrs)
	b = append(b, '\n')
	j.buf = b

	if _, err := j.w.Write(b); err != nil {
		slog.Error("journal: write failed", "error", err)
	}
}

// Severity возвращает метку критичности.
func Severity(critical bool) string {
	if critical {
		return "CRITICAL"
	}
	return "NON-CRITICAL"
}

func appendAttrs(b []byte, attrs []any) []byte {
	for i := 0; i < len(attrs); i += 2 {
		key := fmt.Sprint(attrs[i])
		var val string
		if i+1 < len(attrs) {
			val = fmt.Sprint(attrs[i+1])
		} else {
			key, val = "!BADKEY", key
		}
		b = append(b, ' ')
		b = append(b, key...)
		b = append(b, '=')
		if val == "" || strings.ContainsAny(val, " \t\n\"=") {
			b = strconv.AppendQuote(b, val)
		} else {
			b = append(b, val...)
		}
	}
	return b
}

// Slog дублирует события в slog: критичные на уровне Error, остальные на Info.
type Slog struct {
	Logger *slog.Logger
}

// Record пишет событие в slog.
func (s Slog) Record(msg string, critical bool, attrs ...any) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	if critical {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, msg, append(attrs[:len(attrs):len(attrs)], "critical", critical)...)
}

// Multi рассылает событие нескольким журналам.
type Multi []Journal

// Record передаёт событие каждому журналу по порядку.
func (m Multi) Record(msg string, critical bool, attrs ...any) {
	for _, j := range m {
		j.Record(msg, critical, attrs...)
	}
}

// Discard журнал, который ничего не делает.
var Discard Journal = discard{}

type discard struct{}

func (discard) Record(string, bool, ...any) {}
