package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Request
	}{
		{"index with deps", "INDEX|cloog|gmp,isl,pkg-config", Request{CmdIndex, "cloog", []string{"gmp", "isl", "pkg-config"}}},
		{"index without deps", "INDEX|ceylon|", Request{Command: CmdIndex, Name: "ceylon"}},
		{"index duplicate deps kept verbatim", "INDEX|a|b,b", Request{CmdIndex, "a", []string{"b", "b"}}},
		{"remove", "REMOVE|cloog|", Request{Command: CmdRemove, Name: "cloog"}},
		{"query", "QUERY|cloog|", Request{Command: CmdQuery, Name: "cloog"}},
		{"utf8 name", "QUERY|emacs☃elisp|", Request{Command: CmdQuery, Name: "emacs☃elisp"}},
		{"self dependency", "INDEX|a|a", Request{CmdIndex, "a", []string{"a"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.line)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.line, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tc.line, got, tc.want)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"no separators", "HELLO"},
		{"one separator", "INDEX|emacs☃elisp"},
		{"three separators", "INDEX|a|b|c"},
		{"unknown command", "BLINDEX|a|b"},
		{"lowercase command", "index|a|"},
		{"command with suffix", "REMOVES|a|"},
		{"truncated command", "QUER|a|"},
		{"empty name", "INDEX||a"},
		{"space in name", "INDEX|emacs elisp|"},
		{"tab in name", "INDEX|emacs\telisp|"},
		{"space in deps", "INDEX|a|b c"},
		{"trailing comma", "INDEX|a|b,"},
		{"leading comma", "INDEX|a|,b"},
		{"double comma", "INDEX|a|b,,c"},
		{"remove with deps", "REMOVE|a|b"},
		{"query with deps", "QUERY|a|b"},
		{"embedded carriage return", "INDEX|a\r|"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.line)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tc.line)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Parse(%q) error %v does not wrap ErrMalformed", tc.line, err)
			}
		})
	}
}

func TestResponse_Line(t *testing.T) {
	if got := string(RespOK.Line()); got != "OK\n" {
		t.Errorf("OK line = %q", got)
	}
	if got := string(RespFail.Line()); got != "FAIL\n" {
		t.Errorf("FAIL line = %q", got)
	}
	if got := string(RespError.Line()); got != "ERROR\n" {
		t.Errorf("ERROR line = %q", got)
	}
}

func TestFromResult(t *testing.T) {
	if FromResult(true) != RespOK || FromResult(false) != RespFail {
		t.Error("FromResult mapping wrong")
	}
}
