package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"WARNING", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"nonsense", zerolog.InfoLevel},
		{"  Debug  ", zerolog.DebugLevel},
	}
	for _, c := range cases {
		SetLogLevel(c.in)
		if got := zerolog.GlobalLevel(); got != c.want {
			t.Errorf("SetLogLevel(%q): level = %v, want %v", c.in, got, c.want)
		}
	}
}
