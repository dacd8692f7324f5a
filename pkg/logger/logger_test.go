package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(InfoLevel, &buf).WithFields(map[string]interface{}{"component": "test"})

	log.Info("blog liked", map[string]interface{}{"blog_id": "b1"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v (raw %q)", err, buf.String())
	}
	if entry["message"] != "blog liked" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["component"] != "test" || entry["blog_id"] != "b1" {
		t.Errorf("missing fields in %v", entry)
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(WarnLevel, &buf)

	log.Info("dropped", nil)
	log.Debug("dropped too", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	log.Warn("kept", nil)
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected warn entry, got %q", buf.String())
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(InfoLevel, &buf)
	_ = parent.WithFields(map[string]interface{}{"child": true})

	parent.Info("parent", nil)
	if strings.Contains(buf.String(), "child") {
		t.Fatalf("parent logger picked up child fields: %q", buf.String())
	}
}
