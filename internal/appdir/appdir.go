// Package appdir управляет директорией приложения с XDG-совместимыми путями.
package appdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "scale"

// Dir возвращает путь к директории приложения.
// Linux: ~/.config/scale
// macOS: ~/Library/Application Support/scale
// Windows: %AppData%\scale
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// ConfigPath возвращает путь к файлу конфигурации.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// LogsDir возвращает путь к директории логов.
func LogsDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// LogFilePath возвращает путь к файлу диагностических логов.
func LogFilePath() string {
	return filepath.Join(LogsDir(), "scale.log")
}

// Init создаёт директории приложения и дефолтный конфиг, если его нет.
func Init() error {
	for _, dir := range []string{Dir(), LogsDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	if err := ensureDefaultConfig(ConfigPath()); err != nil {
		return fmt.Errorf("ensure default config: %w", err)
	}
	return nil
}

// ensureDefaultConfig создаёт дефолтный конфиг если его нет.
func ensureDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return writeDefaultConfig(path)
}
