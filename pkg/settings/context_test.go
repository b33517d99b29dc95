package settings

import (
	"context"
	"testing"
)

func TestFromContext(t *testing.T) {
	tests := []struct {
		name      string
		setupCtx  func() context.Context
		wantOk    bool
		wantTheme string
	}{
		{
			name: "context_with_settings",
			setupCtx: func() context.Context {
				return IntoContext(context.Background(), &Run{Theme: "mono", NoColor: true})
			},
			wantOk:    true,
			wantTheme: "mono",
		},
		{
			name:     "context_without_settings",
			setupCtx: context.Background,
		},
		{
			name: "context_with_wrong_type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), settingsContextKey, "wrong type")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromContext(tt.setupCtx())
			if ok != tt.wantOk {
				t.Fatalf("FromContext() ok = %v; want %v", ok, tt.wantOk)
			}
			if ok && got.Theme != tt.wantTheme {
				t.Errorf("Theme = %q; want %q", got.Theme, tt.wantTheme)
			}
			if !ok && got != nil {
				t.Errorf("FromContext() got = %v; want nil", got)
			}
		})
	}
}

func TestIntoContextKeepsPointer(t *testing.T) {
	s := &Run{LogFile: "x.log"}
	got, ok := FromContext(IntoContext(context.Background(), s))
	if !ok || got != s {
		t.Fatal("FromContext() should return the stored pointer")
	}
}

func TestFromContextOrDefault(t *testing.T) {
	if got := FromContextOrDefault(context.Background()); got.Theme != "default" {
		t.Errorf("Theme = %q; want default", got.Theme)
	}
	s := &Run{Theme: "dark"}
	if got := FromContextOrDefault(IntoContext(context.Background(), s)); got != s {
		t.Error("stored settings should win over defaults")
	}
}
