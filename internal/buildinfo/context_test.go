package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextAccessors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		wantVer   string
		wantDate  string
		wantShown string
	}{
		{"nil context", nil, UnknownValue, UnknownValue, "unknown (built unknown)"},
		{"empty fields", &Context{}, UnknownValue, UnknownValue, "unknown (built unknown)"},
		{"injected", &Context{Version: "v1.2.0", BuildDate: "2026-03-01"}, "v1.2.0", "2026-03-01", "v1.2.0 (built 2026-03-01)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantVer, tt.ctx.GetVersion())
			assert.Equal(t, tt.wantDate, tt.ctx.GetBuildDate())
			assert.Equal(t, tt.wantShown, tt.ctx.String())
		})
	}
}

func TestNewContextKeepsInjectedVersion(t *testing.T) {
	t.Parallel()

	ctx := NewContext("v0.3.1", "2026-01-02")
	assert.Equal(t, "v0.3.1", ctx.GetVersion())
	assert.Equal(t, "2026-01-02", ctx.GetBuildDate())
}
