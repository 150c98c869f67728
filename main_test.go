package main

import (
	"strings"
	"testing"

	"github.com/mjl-/mailsign/mlog"
)

func TestCommandUsage(t *testing.T) {
	// Each command must register its flags and help before parsing.
	for _, c := range cmds {
		c.gather()
		if c.help == "" {
			t.Fatalf("command %q without help", strings.Join(c.words, " "))
		}
		if u := c.makeUsage(); !strings.HasPrefix(u, "usage: mailsign "+strings.Join(c.words, " ")) {
			t.Fatalf("unexpected usage for %q: %q", strings.Join(c.words, " "), u)
		}
	}
}

func TestSetLogLevels(t *testing.T) {
	defer mlog.SetConfig(mlog.Config())

	loglevel = "info,dkim:trace"
	defer func() { loglevel = "" }()
	setLogLevels(map[string]mlog.Level{"": mlog.LevelDebug, "domainkey": mlog.LevelDebug, "dkim": mlog.LevelError})
	c := mlog.Config()
	if c[""] != mlog.LevelInfo || c["dkim"] != mlog.LevelTrace || c["domainkey"] != mlog.LevelDebug {
		t.Fatalf("unexpected log levels %v", c)
	}

	loglevel = ""
	setLogLevels(nil)
	if c := mlog.Config(); len(c) != 1 || c[""] != mlog.LevelError {
		t.Fatalf("unexpected default log levels %v", c)
	}
}

func TestSplitHeaders(t *testing.T) {
	if l := xsplitHeaders(""); l != nil {
		t.Fatalf("got %v, expected nil", l)
	}
	if l := xsplitHeaders("From,To"); len(l) != 2 || l[0] != "From" || l[1] != "To" {
		t.Fatalf("got %v", l)
	}
}
