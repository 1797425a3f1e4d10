package mastery

import (
	"encoding/json"
	"testing"
)

func TestNullStatus_Status(t *testing.T) {
	tests := []struct {
		name string
		in   NullStatus
		want Status
	}{
		{"valid mastered", NullStatus{String: "mastered", Valid: true}, StatusMastered},
		{"valid learning", NullStatus{String: "learning", Valid: true}, StatusLearning},
		{"invalid mastered", NullStatus{String: "mastered", Valid: false}, StatusUnattempted},
		{"zero value", NullStatus{}, StatusUnattempted},
		{"unknown string", NullStatus{String: "rusty", Valid: true}, StatusUnattempted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNullStatus_UnmarshalShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Status
	}{
		{"wrapper", `{"status":{"String":"mastered","Valid":true}}`, StatusMastered},
		{"invalid wrapper", `{"status":{"String":"mastered","Valid":false}}`, StatusUnattempted},
		{"null", `{"status":null}`, StatusUnattempted},
		{"absent", `{}`, StatusUnattempted},
		{"bare string", `{"status":"learning"}`, StatusLearning},
		{"empty string", `{"status":""}`, StatusUnattempted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload struct {
				Status NullStatus `json:"status"`
			}
			if err := json.Unmarshal([]byte(tt.body), &payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := payload.Status.Status(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsMastered(t *testing.T) {
	if !IsMastered(StatusMastered) {
		t.Error("mastered should be mastered")
	}
	for _, s := range []Status{StatusLearning, StatusUnattempted, ""} {
		if IsMastered(s) {
			t.Errorf("IsMastered(%q) = true", s)
		}
	}
}

func TestFromStatus(t *testing.T) {
	if got := FromStatus(StatusUnattempted); got.Valid {
		t.Errorf("unattempted should encode as invalid wrapper, got %+v", got)
	}
	got := FromStatus(StatusLearning)
	if !got.Valid || got.String != "learning" {
		t.Errorf("got %+v", got)
	}
	if got.Status() != StatusLearning {
		t.Errorf("round trip lost status: %q", got.Status())
	}
}
