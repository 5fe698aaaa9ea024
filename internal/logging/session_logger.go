package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const sessionLogDir = "commitlens_logs"

// SessionLogger captures one analysis run: the prompt sent to the model, the
// raw streamed response, parse outcomes, and timing. All methods are nil-safe
// so callers can pass a nil logger when session logs are disabled.
type SessionLogger struct {
	sessionID string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
}

// StartSession creates a session log file under commitlens_logs/.
func StartSession(sessionID string) (*SessionLogger, error) {
	timestamp := time.Now().Format("20060102_150405")
	logFileName := fmt.Sprintf("analysis_%s_%s.log", sessionID, timestamp)
	logPath := filepath.Join(sessionLogDir, logFileName)

	if err := os.MkdirAll(sessionLogDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &SessionLogger{
		sessionID: sessionID,
		logFile:   logFile,
		startTime: time.Now(),
	}

	logger.writeHeader()

	return logger, nil
}

// Log writes a timestamped message to the session log.
func (s *SessionLogger) Log(format string, args ...interface{}) {
	if s == nil {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(s.startTime)
	message := fmt.Sprintf("[%s] [+%v] %s\n", timestamp, elapsed.Round(time.Millisecond), fmt.Sprintf(format, args...))
	s.logFile.WriteString(message)
	s.logFile.Sync()
}

// LogSection writes a section header to the log.
func (s *SessionLogger) LogSection(title string) {
	if s == nil {
		return
	}

	separator := strings.Repeat("=", 80)
	s.Log("%s", separator)
	s.Log("= %s", title)
	s.Log("%s", separator)
}

// LogPrompt logs the grouping prompt sent to the model.
func (s *SessionLogger) LogPrompt(model string, prompt string) {
	if s == nil {
		return
	}

	s.LogSection("GROUPING REQUEST")
	s.Log("Model: %s", model)
	s.Log("Prompt length: %d characters", len(prompt))
	s.Log("--- PROMPT START ---")
	s.writeRaw(prompt)
	s.Log("--- PROMPT END ---")
}

// LogResponse logs the fully accumulated model response.
func (s *SessionLogger) LogResponse(response string) {
	if s == nil {
		return
	}

	s.LogSection("GROUPING RESPONSE")
	s.Log("Response length: %d characters", len(response))
	s.Log("--- RESPONSE START ---")
	s.writeRaw(response)
	s.Log("--- RESPONSE END ---")
}

// LogError logs an error with its context.
func (s *SessionLogger) LogError(context string, err error) {
	if s == nil {
		return
	}

	s.Log("ERROR in %s: %v", context, err)
}

// Close finalizes the log file.
func (s *SessionLogger) Close() {
	if s == nil {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.logFile != nil {
		timestamp := time.Now().Format("15:04:05.000")
		finalMessage := fmt.Sprintf("[%s] Analysis logging completed. Total duration: %v\n",
			timestamp, time.Since(s.startTime).Round(time.Millisecond))
		s.logFile.WriteString(finalMessage)
		s.logFile.Sync()
		s.logFile.Close()
		s.logFile = nil
	}
}

func (s *SessionLogger) writeRaw(text string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.logFile.WriteString(text + "\n")
}

func (s *SessionLogger) writeHeader() {
	header := fmt.Sprintf(`COMMITLENS ANALYSIS LOG
Session ID: %s
Start Time: %s
Log Format: [HH:MM:SS.mmm] [+duration] message

`, s.sessionID, s.startTime.Format("2006-01-02 15:04:05"))

	s.logFile.WriteString(header)
	s.logFile.Sync()
}
