package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FallbackPath журнал, используемый если основной путь недоступен для записи.
const FallbackPath = "./server_fallback.log"

// File журнал, дописывающий в файл с ротацией.
type File struct {
	*Writer
	Path string

	out *lumberjack.Logger
}

// Open открывает журнал по path. Если path недоступен для записи,
// пробует FallbackPath. Ошибка возвращается только если недоступны оба.
func Open(path string) (*File, error) {
	resolved := path
	if err := checkWritable(path); err != nil {
		slog.Warn("journal: path not writable, using fallback", "path", path, "fallback", FallbackPath, "error", err)
		if ferr := checkWritable(FallbackPath); ferr != nil {
			return nil, fmt.Errorf("open journal %s: %w; fallback %s: %w", path, err, FallbackPath, ferr)
		}
		resolved = FallbackPath
	}

	out := &lumberjack.Logger{
		Filename:   resolved,
		MaxSize:    100, // MB
		MaxAge:     30,  // days
		MaxBackups: 5,
		LocalTime:  true,
	}

	return &File{
		Writer: New(out),
		Path:   resolved,
		out:    out,
	}, nil
}

// Close закрывает файл журнала.
func (f *File) Close() error {
	return f.out.Close()
}

// checkWritable проверяет, что файл можно открыть на дозапись.
func checkWritable(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}
