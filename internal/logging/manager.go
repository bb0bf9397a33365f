package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Компоненты карты с собственными файлами логов
const (
	ComponentScanner = "scanner"
	ComponentRender  = "render"
	ComponentWorld   = "world"
	ComponentAPI     = "api"
)

type levelPair struct {
	console LogLevel
	file    LogLevel
}

// LoggerManager хранит логгеры компонентов и их уровни.
// Уровень, заданный до первого обращения к компоненту, применяется при его создании.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[string]*Logger
	overrides map[string]levelPair
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers:   make(map[string]*Logger),
		overrides: make(map[string]levelPair),
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = newLoggerManager()
	})
	return globalManager
}

// GetLogger возвращает логгер компонента, создавая файл лога при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("logger %s: %w", component, err)
	}
	lm.register(component, logger)
	return logger, nil
}

// MustGetLogger как GetLogger, но при ошибке файловой системы пишет только в консоль
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger
	}
	logger = newConsoleLogger(component)
	lm.register(component, logger)
	return logger
}

// register вызывается под mu
func (lm *LoggerManager) register(component string, logger *Logger) {
	if lv, ok := lm.overrides[component]; ok {
		logger.SetLevels(lv.console, lv.file)
	}
	lm.loggers[component] = logger
}

// SetLogLevel задаёт уровни компонента: сразу, если логгер уже создан, иначе при создании
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.overrides[component] = levelPair{console: consoleLevel, file: fileLevel}
	if logger, ok := lm.loggers[component]; ok {
		logger.SetLevels(consoleLevel, fileLevel)
	}
}

// ApplyLevels применяет уровни из конфигурации вида {"scanner": "trace"}.
// Уровень задаётся одинаковым для консоли и файла.
func (lm *LoggerManager) ApplyLevels(levels map[string]string) error {
	for component, name := range levels {
		lvl, err := ParseLevel(name)
		if err != nil {
			return fmt.Errorf("logging.components.%s: %w", component, err)
		}
		lm.SetLogLevel(component, lvl, lvl)
	}
	return nil
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("close logger %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// ListComponents возвращает имена созданных логгеров по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetScannerLogger() *Logger { return GetComponentLogger(ComponentScanner) }
func GetRenderLogger() *Logger  { return GetComponentLogger(ComponentRender) }
func GetWorldLogger() *Logger   { return GetComponentLogger(ComponentWorld) }
func GetAPILogger() *Logger     { return GetComponentLogger(ComponentAPI) }
