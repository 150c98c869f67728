package mailsignvar

import (
	"runtime/debug"
	"testing"
)

func TestVersion(t *testing.T) {
	test := func(main string, settings map[string]string, exp string) {
		t.Helper()
		bi := &debug.BuildInfo{Main: debug.Module{Version: main}}
		for k, v := range settings {
			bi.Settings = append(bi.Settings, debug.BuildSetting{Key: k, Value: v})
		}
		if v := version(bi); v != exp {
			t.Fatalf("got version %q, expected %q", v, exp)
		}
	}

	test("v0.1.0", nil, "v0.1.0")
	test("(devel)", nil, "(devel)")
	test("(devel)", map[string]string{"vcs.revision": "abc123", "vcs.modified": "false"}, "abc123")
	test("(devel)", map[string]string{"vcs.revision": "abc123", "vcs.modified": "true"}, "abc123+modifications")
	test("", map[string]string{"vcs.revision": "abc123"}, "abc123+unknown")
}
