package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogInfo 日志实例
type LogInfo struct {
	log       *zap.Logger
	debugMode *atomic.Bool
}

var (
	// Log 日志实例, nop until Initialize / SetNewNop is called
	Log = newNop()
)

func newNop() *LogInfo {
	return &LogInfo{log: zap.NewNop(), debugMode: new(atomic.Bool)}
}

// SetNewNop discard every log, used by tests
func SetNewNop() {
	Log = newNop()
}

// Initialize info and above as JSON to stdout and <logDir>/<service>_<date>.log,
// debug as console lines to stdout. Debug is off until SetDebugMode.
func Initialize(serviceName, logDir string) *LogInfo {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		panic(fmt.Sprintf("Failed to create log directory: %v", err))
	}
	l := &LogInfo{debugMode: new(atomic.Bool)}
	file := &dailyFile{dir: logDir, service: serviceName, now: time.Now}
	if err := file.rotate(); err != nil {
		panic(fmt.Sprintf("Failed to open or create log file: %v", err))
	}

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.NewMultiWriteSyncer(zapcore.AddSync(os.Stdout), file),
			zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return level >= zapcore.InfoLevel
			}),
		),
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			zap.LevelEnablerFunc(func(level zapcore.Level) bool {
				return level == zapcore.DebugLevel && l.debugMode.Load()
			}),
		),
	)
	l.log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return l
}

// dailyFile reopens the log file when the date changes
type dailyFile struct {
	mu      sync.Mutex
	dir     string
	service string
	now     func() time.Time
	date    string
	file    *os.File
}

func (d *dailyFile) path(date string) string {
	return filepath.Join(d.dir, fmt.Sprintf("%s_%s.log", d.service, date))
}

// rotate caller holds mu, or is the constructor
func (d *dailyFile) rotate() error {
	date := d.now().Format("2006-01-02")
	if d.file != nil && date == d.date {
		return nil
	}
	f, err := os.OpenFile(d.path(date), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file, d.date = f, date
	return nil
}

func (d *dailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rotate(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *dailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Sync()
}

// With child logger carrying fields; shares the debug switch with its parent
func (l *LogInfo) With(fields ...zap.Field) *LogInfo {
	return &LogInfo{log: l.log.With(fields...), debugMode: l.debugMode}
}

// EnableDebugMode 启用 DEBUG 模式
func (l *LogInfo) EnableDebugMode() { l.debugMode.Store(true) }

// DisableDebugMode 禁用 DEBUG 模式
func (l *LogInfo) DisableDebugMode() { l.debugMode.Store(false) }

// SetDebugMode set the log debug mode
func (l *LogInfo) SetDebugMode(status bool) { l.debugMode.Store(status) }

// DebugMode current debug switch
func (l *LogInfo) DebugMode() bool { return l.debugMode.Load() }

// Info 输出 INFO 级别日志
func (l *LogInfo) Info(msg string, fields ...zap.Field) {
	l.log.Info(msg, fields...)
}

// Error 输出 ERROR 级别日志
func (l *LogInfo) Error(msg string, fields ...zap.Field) {
	l.log.Error(msg, fields...)
}

// Debug 输出 DEBUG 级别日志
func (l *LogInfo) Debug(msg string, fields ...zap.Field) {
	l.log.Debug(msg, fields...)
}

// Warn 输出 WARN 级别日志
func (l *LogInfo) Warn(msg string, fields ...zap.Field) {
	l.log.Warn(msg, fields...)
}

// Sync flush buffered entries
func (l *LogInfo) Sync() {
	if err := l.log.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
	}
}

// Fatal log then exit(1)
func (l *LogInfo) Fatal(msg string, fields ...zap.Field) {
	l.log.Error(msg, fields...)
	l.Sync()
	os.Exit(1)
}
