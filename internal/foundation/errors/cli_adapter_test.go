package errors

import (
	"bytes"
	stdErrors "errors"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", ValidationError("x").Build(), 2},
		{"auth", AuthError("x").Build(), 5},
		{"config", ConfigError("x").Build(), 7},
		{"remote", RemoteError("x").Build(), 8},
		{"network", NetworkError("x").Build(), 8},
		{"provisioning", ProvisioningError("x").Build(), 11},
		{"internal", InternalError("x").Build(), 10},
		{"plain", stdErrors.New("x"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.want {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, nil)
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ProvisioningError("failed to create pipeline").
		WithContext("job_name", "missing-job").
		Build())

	if code != 11 {
		t.Errorf("expected exit code 11, got %d", code)
	}
	got := out.String()
	if !strings.Contains(got, "provisioning") || !strings.Contains(got, "missing-job") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, nil)

	code := adapter.Report(&out, AuthError("Invalid Credentials").WithContext("job_name", "app").Build())
	if code != 5 {
		t.Fatalf("Report() = %d, want 5", code)
	}
	if got := out.String(); !strings.Contains(got, "Error (auth): Invalid Credentials [job app]") {
		t.Fatalf("unexpected output %q", got)
	}
}
