package log

import (
	"bytes"
	"strings"
	"testing"
)

// helper resets output and returns buffer and logger
func newTestLogger(t *testing.T, name string) (*Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	return ForComponent(name), buf
}

func TestPrefixInfo(t *testing.T) {
	SetGlobalDebug(false)

	const name = "prefix_component_test"
	l, buf := newTestLogger(t, name)

	l.Infof("hello world")
	out := buf.String()

	if !strings.Contains(out, "INFO ["+name+"]") {
		t.Fatalf("expected prefix INFO [%s] in output, got: %q", name, out)
	}
	if !strings.Contains(out, "hello world") {
		t.Fatalf("expected message in output, got: %q", out)
	}
}

func TestLevels(t *testing.T) {
	const name = "level_component_test"
	l, buf := newTestLogger(t, name)

	l.Warnf("watch out")
	l.Errorf("it broke")
	out := buf.String()

	if !strings.Contains(out, "WARN ["+name+"] watch out") {
		t.Errorf("missing warn line in output: %q", out)
	}
	if !strings.Contains(out, "ERROR ["+name+"] it broke") {
		t.Errorf("missing error line in output: %q", out)
	}
}

func TestDebugPerComponent(t *testing.T) {
	SetGlobalDebug(false)

	const name = "debug_component_specific"
	l, buf := newTestLogger(t, name)

	l.Debugf("should not appear")
	if strings.Contains(buf.String(), "should not appear") {
		t.Fatalf("debug message appeared while debug disabled")
	}

	EnableDebugFor(name)
	l.Debugf("visible now")
	if !strings.Contains(buf.String(), "visible now") {
		t.Fatalf("expected debug message after enabling per-component debug; got: %q", buf.String())
	}
}

func TestDebugGlobal(t *testing.T) {
	const name = "debug_component_global"
	l, buf := newTestLogger(t, name)

	SetGlobalDebug(true)
	defer SetGlobalDebug(false)

	l.Debugf("globally visible")
	if !strings.Contains(buf.String(), "DEBUG ["+name+"] globally visible") {
		t.Fatalf("expected debug message with global debug on; got: %q", buf.String())
	}
}

func TestForComponentMemoizes(t *testing.T) {
	if ForComponent("memo_test") != ForComponent("memo_test") {
		t.Fatal("same component name must return the same logger")
	}
}
