package middleware

import (
	"strings"
	"testing"
	"time"
)

func TestNewContext_RequestID(t *testing.T) {
	t.Parallel()

	mc := NewContext("echo", "worker")

	if mc.ToolName != "echo" || mc.ComponentName != "worker" {
		t.Errorf("context = %+v", mc)
	}

	// The request id is a uuid joined with epoch millis.
	parts := strings.Split(mc.RequestID, "-")
	if len(parts) != 6 {
		t.Errorf("RequestID = %q, want uuid-millis shape", mc.RequestID)
	}

	other := NewContext("echo", "worker")
	if other.RequestID == mc.RequestID {
		t.Error("request ids must be unique")
	}
}

func TestContext_ToolResult(t *testing.T) {
	t.Parallel()

	mc := NewContext("echo", "worker")

	if mc.IsSuccess() {
		t.Error("IsSuccess() = true before any result")
	}

	size := uint64(128)
	mc.SetToolResult(true, &size)
	if !mc.IsSuccess() {
		t.Error("IsSuccess() = false after success")
	}

	mc.SetError("downstream broke")
	if mc.IsSuccess() {
		t.Error("IsSuccess() = true after error")
	}
	if mc.Err != "downstream broke" {
		t.Errorf("Err = %q", mc.Err)
	}
}

func TestContext_Extensions(t *testing.T) {
	t.Parallel()

	type tenant string

	mc := NewContext("echo", "worker")

	if _, ok := GetExtension[tenant](mc); ok {
		t.Error("GetExtension() found value in empty map")
	}

	SetExtension(mc, tenant("acme"))
	got, ok := GetExtension[tenant](mc)
	if !ok || got != "acme" {
		t.Errorf("GetExtension() = %v, %v", got, ok)
	}

	// Distinct types occupy distinct slots.
	type region string
	SetExtension(mc, region("eu"))
	if got, _ := GetExtension[tenant](mc); got != "acme" {
		t.Errorf("tenant slot clobbered: %v", got)
	}
}

func TestContext_RequestSize(t *testing.T) {
	t.Parallel()

	mc := NewContext("echo", "worker")

	if mc.RequestSize() != nil {
		t.Error("RequestSize() != nil before set")
	}

	mc.SetRequestSize(512)
	got := mc.RequestSize()
	if got == nil || *got != 512 {
		t.Errorf("RequestSize() = %v, want 512", got)
	}
}

func TestTiming_ToolDuration(t *testing.T) {
	t.Parallel()

	var timing Timing
	if timing.ToolDuration() != 0 {
		t.Error("ToolDuration() != 0 for incomplete timing")
	}

	timing.ToolStart = time.Now()
	timing.ToolEnd = timing.ToolStart.Add(250 * time.Millisecond)
	if got := timing.ToolDuration(); got != 250*time.Millisecond {
		t.Errorf("ToolDuration() = %v, want 250ms", got)
	}
}
