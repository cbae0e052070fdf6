package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/peviz/pkg/posenc"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"visualize", "encode", "play", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("debug should be filtered at info level")
	}
	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("debug should log after SetLogLevel")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"svg, json", []string{"svg", "json"}},
		{"png,,pdf", []string{"png", "pdf"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"The quick brown fox", "the_quick_brown_fox"},
		{"  hello,   world!  ", "hello_world"},
		{"héllo wörld", "h_llo_w_rld"},
		{"!!!", "peviz"},
		{strings.Repeat("a", 100), strings.Repeat("a", maxSlugLength)},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputBase(t *testing.T) {
	if got := outputBase("out/scene.svg", "ignored"); got != "out/scene" {
		t.Errorf("outputBase = %q", got)
	}
	if got := outputBase("", "hello world"); got != "hello_world" {
		t.Errorf("outputBase = %q", got)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	artifacts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(artifacts, []string{"svg", "json"}, filepath.Join(dir, "nested", "viz"), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || !strings.HasSuffix(paths[0], "viz.svg") || !strings.HasSuffix(paths[1], "viz.json") {
		t.Errorf("paths = %v", paths)
	}
	data, err := os.ReadFile(paths[1])
	if err != nil || string(data) != "{}" {
		t.Errorf("json file = %q, %v", data, err)
	}

	single := filepath.Join(dir, "exact.out")
	paths, err = writeArtifacts(artifacts, []string{"svg"}, "unused", single)
	if err != nil {
		t.Fatal(err)
	}
	if paths[0] != single {
		t.Errorf("single format should use output verbatim, got %v", paths)
	}
}

func TestReadSentence(t *testing.T) {
	got, err := readSentence(nil, "", []string{"hello", "world"})
	if err != nil || got != "hello world" {
		t.Errorf("args: %q, %v", got, err)
	}

	got, err = readSentence(strings.NewReader("from stdin\n"), "-", nil)
	if err != nil || got != "from stdin\n" {
		t.Errorf("stdin: %q, %v", got, err)
	}

	path := filepath.Join(t.TempDir(), "s.txt")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = readSentence(nil, path, nil)
	if err != nil || got != "from file" {
		t.Errorf("file: %q, %v", got, err)
	}

	if _, err := readSentence(nil, path, []string{"extra"}); err == nil {
		t.Error("args plus --input should fail")
	}
}

func TestEncodeTable(t *testing.T) {
	tokens := []string{"a", "b"}
	m := posenc.Encode(2, 8)

	out := encodeTable(tokens, m, 2, 2)
	for _, want := range []string{"pos", "token", "PE[0]", "PE[1]", "…", "0.00", "1.00", "0.84"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "PE[2]") {
		t.Error("table should be limited to 2 columns")
	}

	full := encodeTable(tokens, m, 0, 3)
	if !strings.Contains(full, "PE[7]") || strings.Contains(full, "…") {
		t.Error("columns <= 0 should show every dimension")
	}
}

func TestEncodeCommandJSON(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"encode", "--json", "-d", "5", "one", "two"})
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), `"d_model": 6`) || !strings.Contains(out.String(), `"two"`) {
		t.Errorf("encode json = %s", out.String())
	}
}

func TestEncodeCommandEmpty(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"encode", "   "})
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Errorf("err = %v, want empty-input message", err)
	}
}
