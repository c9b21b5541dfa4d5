package template

import (
	"strings"
	"testing"
)

func testContext() map[string]any {
	return map[string]any{
		"app_name":     "weechat",
		"summary":      "ping",
		"body":         "hello there",
		"urgency":      "normal",
		"unread_count": 2,
		"timestamp":    int64(1700000000),
	}
}

func TestRender(t *testing.T) {
	r, err := Compile("[{{.app_name}}] {{.summary}}: {{.body}}")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	got, err := r.Render(testContext())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "[weechat] ping: hello there"; got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestCompile_SyntaxError(t *testing.T) {
	if _, err := Compile("{{.summary"); err == nil {
		t.Fatal("Compile accepted an unterminated action")
	}
}

func TestRender_MissingKeyFailsClosed(t *testing.T) {
	r, err := Compile("{{.no_such_key}}")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if _, err := r.Render(testContext()); err == nil {
		t.Fatal("Render succeeded on a missing context key, want error")
	}
}

func TestShellQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"plain", "'plain'"},
		{"two words", "'two words'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
	}
	for _, tt := range tests {
		if got := shellQuote(tt.in); got != tt.want {
			t.Errorf("shellQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestRender_ShqFunc(t *testing.T) {
	r, err := Compile(`notify-archive {{shq .summary}}`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	ctx := testContext()
	ctx["summary"] = "don't panic"
	got, err := r.Render(ctx)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, `'don'\''t panic'`) {
		t.Errorf("Render = %q, summary not shell-quoted", got)
	}
}

func TestString(t *testing.T) {
	src := "{{.summary}}"
	r, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if r.String() != src {
		t.Errorf("String() = %q, want %q", r.String(), src)
	}
}
