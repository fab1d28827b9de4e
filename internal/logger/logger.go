package logger

import (
	"io"
	"os"

	"car-valuation/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger оборачивает logrus.Logger, чтобы сервисы не зависели от его настройки.
type Logger struct {
	*logrus.Logger
	file *os.File
}

// New создает логгер по конфигурации: уровень, формат и опциональный файл.
func New(cfg *config.LoggerConfig) *Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	log.SetOutput(os.Stdout)
	var logFile *os.File
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.WithError(err).WithField("file", cfg.File).Warn("Failed to open log file, using stdout")
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, file))
			logFile = file
		}
	}

	return &Logger{Logger: log, file: logFile}
}

// Close закрывает файл логов, если он был открыт; дальше логи идут только в stdout.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.SetOutput(os.Stdout)
	err := l.file.Close()
	l.file = nil
	return err
}

// NewNop возвращает логгер, который ничего не пишет.
func NewNop() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{Logger: log}
}
