package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telenotify/internal/config"
	"telenotify/internal/message"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected invocation
	}{
		{
			name:     "type and message only",
			args:     []string{"backup", "Backup završen"},
			expected: invocation{Type: "backup", Message: "Backup završen"},
		},
		{
			name: "extras keep argument order",
			args: []string{"backup", "done", "--size=2.5MB", "--file=db.sql.gz", "--duration=3m"},
			expected: invocation{
				Type:    "backup",
				Message: "done",
				Extras: message.Extras{
					{Key: "size", Value: "2.5MB"},
					{Key: "file", Value: "db.sql.gz"},
					{Key: "duration", Value: "3m"},
				},
			},
		},
		{
			name: "flags before positionals",
			args: []string{"--user=ana", "new_user", "Registered"},
			expected: invocation{
				Type:    "new_user",
				Message: "Registered",
				Extras:  message.Extras{{Key: "user", Value: "ana"}},
			},
		},
		{
			name: "space separated value",
			args: []string{"error", "boom", "--server", "db1"},
			expected: invocation{
				Type:    "error",
				Message: "boom",
				Extras:  message.Extras{{Key: "server", Value: "db1"}},
			},
		},
		{
			name: "value containing equals sign",
			args: []string{"info", "x", "--url=https://example.com/?a=b"},
			expected: invocation{
				Type:    "info",
				Message: "x",
				Extras:  message.Extras{{Key: "url", Value: "https://example.com/?a=b"}},
			},
		},
		{
			name: "empty value",
			args: []string{"info", "x", "--note="},
			expected: invocation{
				Type:    "info",
				Message: "x",
				Extras:  message.Extras{{Key: "note", Value: ""}},
			},
		},
		{
			name: "repeated extra - last value wins",
			args: []string{"info", "x", "--size=1", "--ip=10.0.0.1", "--size=2"},
			expected: invocation{
				Type:    "info",
				Message: "x",
				Extras: message.Extras{
					{Key: "size", Value: "2"},
					{Key: "ip", Value: "10.0.0.1"},
				},
			},
		},
		{
			name: "reserved flags are not extras",
			args: []string{"info", "x", "--config=/etc/tn.env", "--log-level", "debug", "--dry-run"},
			expected: invocation{
				Type:       "info",
				Message:    "x",
				ConfigPath: "/etc/tn.env",
				LogLevel:   "debug",
				DryRun:     true,
			},
		},
		{
			name:     "dry-run with explicit false",
			args:     []string{"info", "x", "--dry-run=false"},
			expected: invocation{Type: "info", Message: "x"},
		},
		{
			name:     "double dash makes the rest positional",
			args:     []string{"warning", "--", "--not-a-flag"},
			expected: invocation{Type: "warning", Message: "--not-a-flag"},
		},
		{
			name:     "single dash argument is positional",
			args:     []string{"info", "-5 degrees"},
			expected: invocation{Type: "info", Message: "-5 degrees"},
		},
		{
			name:     "help",
			args:     []string{"--help"},
			expected: invocation{Help: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := parseArgs(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, inv)
		})
	}
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
	}{
		{"no arguments", nil, "expected <type> and <message>"},
		{"missing message", []string{"backup"}, "got 1 positional"},
		{"too many positionals", []string{"a", "b", "c"}, "got 3 positional"},
		{"missing flag value", []string{"info", "x", "--size"}, "missing value for --size"},
		{"flag followed by flag", []string{"info", "x", "--size", "--file=a"}, "missing value for --size"},
		{"empty flag name", []string{"info", "x", "--=v"}, "empty flag name"},
		{"bad dry-run value", []string{"info", "x", "--dry-run=maybe"}, "--dry-run expects a boolean"},
		{"blank type", []string{" ", "x"}, "type must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args)
			require.Error(t, err)
			assert.ErrorIs(t, err, errUsage)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

// executeCmd runs the root command with args and returns stdout and stderr.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	t.Setenv(config.KeyBotToken, "")
	t.Setenv(config.KeyChatID, "")
	t.Setenv(config.KeyAPIURL, "")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_DryRun(t *testing.T) {
	stdout, _, err := executeCmd(t, "backup", "Backup završen", "--size=2.5MB", "--dry-run")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	assert.Equal(t, "🗄️ *BACKUP ZAVRŠEN*", lines[0])
	assert.Equal(t, "Backup završen", lines[2])
	assert.Equal(t, "📊 Veličina: 2.5MB", lines[4])
	assert.Regexp(t, `^🕐 Vreme: \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, lines[len(lines)-1])
}

func TestRootCmd_Help(t *testing.T) {
	stdout, _, err := executeCmd(t, "-h")

	require.NoError(t, err)
	assert.Contains(t, stdout, "telenotify <type> <message>")
	assert.Contains(t, stdout, "--dry-run")
}

func TestRootCmd_UsageError(t *testing.T) {
	_, stderr, err := executeCmd(t, "backup")

	require.Error(t, err)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr, "Usage:")
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	_, _, err := executeCmd(t, "info", "x", "--log-level=loud", "--dry-run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}

func TestRootCmd_Send(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		received = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":5}}`))
	}))
	defer server.Close()
	path := writeSettings(t, "TELEGRAM_BOT_TOKEN=tok\nTELEGRAM_CHAT_ID=42\nTELEGRAM_API_URL="+server.URL+"\n")

	_, stderr, err := executeCmd(t, "error", "Disk *full*", "--server=db_1", "--config="+path)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(received, "🚨 *GREŠKA*\n\nDisk \\*full\\*\n\n🖥️ Server: db\\_1\n"))
	assert.Contains(t, stderr, "Notification sent")
}

func TestRootCmd_SendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()
	path := writeSettings(t, "TELEGRAM_BOT_TOKEN=tok\nTELEGRAM_CHAT_ID=42\nTELEGRAM_API_URL="+server.URL+"\n")

	_, stderr, err := executeCmd(t, "info", "hello", "--config", path)

	require.Error(t, err)
	assert.ErrorIs(t, err, errNotDelivered)
	assert.Contains(t, stderr, "upstream exploded")
	assert.Contains(t, stderr, "500")
}

func TestRootCmd_MissingConfiguration(t *testing.T) {
	path := writeSettings(t, "TELEGRAM_BOT_TOKEN=tok\n")

	_, _, err := executeCmd(t, "info", "hello", "--config="+path)

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingKey)
}

func TestRootCmd_ConfigFromEnvironmentPath(t *testing.T) {
	path := writeSettings(t, "TELEGRAM_CHAT_ID=42\n")
	t.Setenv(config.PathEnv, path)

	_, _, err := executeCmd(t, "info", "hello")

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingKey)
	assert.Contains(t, err.Error(), path)
}
