package settings

import (
	"testing"
)

func TestNewCliParams(t *testing.T) {
	tests := []struct {
		name string
		want *Run
	}{
		{
			name: "default CLI params",
			want: &Run{
				MinLogLevel: 0,
				Theme:       "default",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewCliParams()
			if *got != *tt.want {
				t.Errorf("NewCliParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLogsToFile(t *testing.T) {
	r := NewCliParams()
	if r.LogsToFile() {
		t.Error("defaults should log to stderr")
	}
	r.LogFile = "/tmp/cmtui.log"
	if !r.LogsToFile() {
		t.Error("expected the log file to be used")
	}
}
