package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
		{"JobName", KeyJobName, "demo-1", JobName("demo-1")},
		{"Server", KeyServer, "http://ci", Server("http://ci")},
		{"Operation", KeyOperation, "trigger", Operation("trigger")},
		{"Category", KeyCategory, "auth", Category("auth")},
		{"Outcome", KeyOutcome, "succeeded", Outcome("succeeded")},
		{"Provider", KeyProvider, "gemini", Provider("gemini")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"Path", KeyPath, "/api/v1/builds", Path("/api/v1/builds")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := Attempt(2); a.Key != KeyAttempt || a.Value.Int64() != 2 {
		t.Fatalf("unexpected attempt attr %v", a)
	}
	if a := Status(404); a.Key != KeyStatus || a.Value.Int64() != 404 {
		t.Fatalf("unexpected status attr %v", a)
	}
	if a := DurationMS(12.5); a.Value.Float64() != 12.5 {
		t.Fatalf("unexpected duration attr %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
}
