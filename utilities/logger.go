package utilities

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	infoLog  = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime)
	warnLog  = log.New(os.Stdout, "WARNING: ", log.Ldate|log.Ltime)
	errorLog = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime)
	debugLog = log.New(io.Discard, "DEBUG: ", log.Ldate|log.Ltime)
	logMutex sync.Mutex
)

// LogOptions controls where SetupLogging writes. An empty Dir keeps the
// console-only loggers.
type LogOptions struct {
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Debug      bool
}

// SetupLogging sends each level to the console and to its own rotating file
// under opts.Dir.
func SetupLogging(opts LogOptions) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	debugWriter := io.Discard
	if opts.Debug {
		debugWriter = os.Stdout
	}

	if opts.Dir == "" {
		infoLog.SetOutput(os.Stdout)
		warnLog.SetOutput(os.Stdout)
		errorLog.SetOutput(os.Stderr)
		debugLog.SetOutput(debugWriter)
		log.SetOutput(os.Stderr)
		return nil
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	infoWriter := io.MultiWriter(os.Stdout, rotatingFile(opts, "info.log"))
	warnWriter := io.MultiWriter(os.Stdout, rotatingFile(opts, "warn.log"))
	errorWriter := io.MultiWriter(os.Stderr, rotatingFile(opts, "error.log"))
	if opts.Debug {
		debugWriter = io.MultiWriter(os.Stdout, rotatingFile(opts, "debug.log"))
	}

	infoLog.SetOutput(infoWriter)
	warnLog.SetOutput(warnWriter)
	errorLog.SetOutput(errorWriter)
	debugLog.SetOutput(debugWriter)

	// Override Go's default log
	log.SetOutput(infoWriter)
	return nil
}

func rotatingFile(opts LogOptions, name string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, name),
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}

func getCallerInfo() string {
	pc, _, _, ok := runtime.Caller(3)
	if !ok {
		return "unknown"
	}
	name := runtime.FuncForPC(pc).Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func Log(level string, format string, v ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()

	message := fmt.Sprintf(format, v...)
	logEntry := fmt.Sprintf("[%s] %s", getCallerInfo(), message)

	switch level {
	case "DEBUG":
		debugLog.Println(logEntry)
	case "WARNING":
		warnLog.Println(logEntry)
	case "ERROR":
		errorLog.Println(logEntry)
	default:
		infoLog.Println(logEntry)
	}
}

func Debug(format string, v ...interface{}) {
	Log("DEBUG", format, v...)
}

func Info(format string, v ...interface{}) {
	Log("INFO", format, v...)
}

func Warn(format string, v ...interface{}) {
	Log("WARNING", format, v...)
}

func Error(format string, v ...interface{}) {
	Log("ERROR", format, v...)
}
