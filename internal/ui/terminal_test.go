package ui

import (
	"bytes"
	"testing"
)

func TestIsTerminal(t *testing.T) {
	// The result depends on the environment; it must simply not panic.
	_ = IsTerminal()
	_ = IsInteractive()
}

func TestShouldUseColor_NO_COLOR(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("ShouldUseColor() should be false when NO_COLOR is set, even with CLICOLOR_FORCE")
	}
}

func TestShouldUseColor_CLICOLOR_0(t *testing.T) {
	t.Setenv("CLICOLOR", "0")
	t.Setenv("CLICOLOR_FORCE", "1")
	if ShouldUseColor() {
		t.Error("ShouldUseColor() should be false when CLICOLOR=0")
	}
}

func TestShouldUseColor_CLICOLOR_FORCE(t *testing.T) {
	t.Setenv("CLICOLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	// NO_COLOR must be absent, not empty
	unsetenv(t, "NO_COLOR")
	if !ShouldUseColor() {
		t.Error("ShouldUseColor() should be true when CLICOLOR_FORCE is set")
	}
}

func TestInitTheme(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		config string
		want   ThemeMode
	}{
		{"env overrides config", "dark", "light", ThemeModeDark},
		{"env is case-insensitive", "LIGHT", "dark", ThemeModeLight},
		{"config when no env", "", "dark", ThemeModeDark},
		{"invalid env falls through", "purple", "light", ThemeModeLight},
		{"defaults to auto", "", "", ThemeModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FQ_THEME", tt.env)
			InitTheme(tt.config)
			if got := GetThemeMode(); got != tt.want {
				t.Errorf("GetThemeMode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHasDarkBackground_ForcedModes(t *testing.T) {
	t.Setenv("FQ_THEME", "dark")
	InitTheme("")
	if !HasDarkBackground() {
		t.Error("HasDarkBackground() should be true in dark mode")
	}

	t.Setenv("FQ_THEME", "light")
	InitTheme("")
	if HasDarkBackground() {
		t.Error("HasDarkBackground() should be false in light mode")
	}
}

func TestPagerCommand(t *testing.T) {
	t.Setenv("FQ_NO_PAGER", "")
	t.Setenv("FQ_PAGER", "most -s")
	if got := pagerCommand(PagerOptions{}); len(got) != 2 || got[0] != "most" {
		t.Errorf("pagerCommand() = %v", got)
	}
	if got := pagerCommand(PagerOptions{NoPager: true}); got != nil {
		t.Errorf("pagerCommand(NoPager) = %v, want nil", got)
	}

	t.Setenv("FQ_PAGER", "")
	t.Setenv("PAGER", "")
	if got := pagerCommand(PagerOptions{}); len(got) != 1 || got[0] != "less" {
		t.Errorf("pagerCommand() default = %v", got)
	}
}

func TestToPager_NonTTYWritesDirectly(t *testing.T) {
	var buf bytes.Buffer
	if err := ToPager(&buf, "line one\nline two\n", PagerOptions{}); err != nil {
		t.Fatalf("ToPager: %v", err)
	}
	// go test runs without a TTY, so the pager is bypassed
	if IsTerminal() {
		t.Skip("stdout is a terminal")
	}
	if buf.String() != "line one\nline two\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFitsScreen(t *testing.T) {
	if !fitsScreen("a\nb\n", 10) {
		t.Error("short content should fit")
	}
	if fitsScreen(string(bytes.Repeat([]byte("x\n"), 30)), 10) {
		t.Error("tall content should not fit")
	}
	if !fitsScreen("anything", 0) {
		t.Error("unknown height counts as fitting")
	}
}
