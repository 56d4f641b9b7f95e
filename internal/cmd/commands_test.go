package cmd

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/forcequit/fq/internal/config"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  []string
	}{
		{"all essential", []string{"Finder", "kernel_task"}, 0, []string{`"Finder"`, `rule "finder"`}},
		{"one quittable", []string{"Finder", "Slack"}, 1, []string{`"Slack"`}},
		{"keyword", []string{"SystemCleaner"}, 0, []string{`keyword "system"`}},
		{"blank quittable", []string{""}, 1, []string{"blank name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTest(t)
			c, out := newTestCmd("")

			err := runCheck(c, tt.args)
			code, _ := IsSilentExit(err)
			if err != nil && code == 0 {
				t.Fatalf("runCheck: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestCheck_Quiet(t *testing.T) {
	setupTest(t)
	checkQuiet = true

	c, out := newTestCmd("")
	err := runCheck(c, []string{"Slack"})
	if code, ok := IsSilentExit(err); !ok || code != 1 {
		t.Errorf("err = %v, want silent exit 1", err)
	}
	if out.Len() != 0 {
		t.Errorf("quiet mode printed %q", out.String())
	}
}

func TestList_JSON(t *testing.T) {
	env := setupTest(t, "Finder", "Slack")
	listJSON = true

	c, out := newTestCmd("")
	if err := runList(c, nil); err != nil {
		t.Fatalf("runList: %v", err)
	}

	var got []verdictJSON
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out.String())
	}
	want := []verdictJSON{
		{Name: "Finder", Essential: true, Reason: "rule", Match: "finder"},
		{Name: "Slack", Essential: false, Reason: "none"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verdicts (-want +got):\n%s", diff)
	}
	if len(env.backend.quits)+len(env.backend.kills) != 0 {
		t.Error("list must not quit anything")
	}
}

func TestList_Table(t *testing.T) {
	setupTest(t, "Finder", "Slack", "Zoom")
	listQuittable = true

	c, out := newTestCmd("")
	if err := runList(c, nil); err != nil {
		t.Fatalf("runList: %v", err)
	}
	s := out.String()
	if strings.Contains(s, "Finder") {
		t.Errorf("--quittable should hide essential apps:\n%s", s)
	}
	if !strings.Contains(s, "2 application(s): 2 to quit, 0 preserved") {
		t.Errorf("footer missing:\n%s", s)
	}
}

func TestConfigInit(t *testing.T) {
	setupTest(t)

	c, out := newTestCmd("")
	if err := runConfigInit(c, nil); err != nil {
		t.Fatalf("runConfigInit: %v", err)
	}
	data, err := os.ReadFile(configFlag)
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if string(data) != string(config.DefaultsTOML()) {
		t.Error("written config should be the defaults")
	}
	if !strings.Contains(out.String(), configFlag) {
		t.Errorf("output should name the file:\n%s", out.String())
	}

	if err := runConfigInit(c, nil); err == nil {
		t.Error("second init without --force should fail")
	}

	configInitForce = true
	if err := runConfigInit(c, nil); err != nil {
		t.Errorf("init --force: %v", err)
	}

	// the written file loads cleanly
	if _, err := config.Load(configFlag); err != nil {
		t.Errorf("Load(written): %v", err)
	}
}

func TestConfigShow(t *testing.T) {
	setupTest(t)
	cfg.Quit.KillPolicy = "on-failure"

	c, out := newTestCmd("")
	if err := runConfigShow(c, nil); err != nil {
		t.Fatalf("runConfigShow: %v", err)
	}
	if !strings.Contains(out.String(), `kill_policy = "on-failure"`) {
		t.Errorf("effective config not shown:\n%s", out.String())
	}
}

func TestConfigRules(t *testing.T) {
	setupTest(t)

	c, out := newTestCmd("")
	if err := runConfigRules(c, nil); err != nil {
		t.Fatalf("runConfigRules: %v", err)
	}
	s := out.String()
	for _, want := range []string{"kernel_task", "spotlight", "keyword", "Blank names:", "quit"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestLog_AfterRun(t *testing.T) {
	setupTest(t, "Finder", "Slack")
	quitYes = true

	c, _ := newTestCmd("")
	if err := runQuit(c, nil); err != nil {
		t.Fatalf("runQuit: %v", err)
	}

	logApp = "slack"
	c, out := newTestCmd("")
	if err := runLog(c, nil); err != nil {
		t.Fatalf("runLog: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "[quit]") || !strings.Contains(s, "Slack") {
		t.Errorf("quit event missing:\n%s", s)
	}
	if strings.Contains(s, "Finder") {
		t.Errorf("app filter not applied:\n%s", s)
	}
}

func TestLog_NoFile(t *testing.T) {
	setupTest(t)

	c, out := newTestCmd("")
	if err := runLog(c, nil); err != nil {
		t.Fatalf("runLog: %v", err)
	}
	if !strings.Contains(out.String(), "No log file yet") {
		t.Errorf("output:\n%s", out.String())
	}
}

func TestLog_BadSince(t *testing.T) {
	setupTest(t, "Slack")
	quitYes = true
	c, _ := newTestCmd("")
	if err := runQuit(c, nil); err != nil {
		t.Fatal(err)
	}

	logSince = "yesterday"
	if err := runLog(c, nil); err == nil {
		t.Error("expected error for bad --since")
	}
}

func TestStatus(t *testing.T) {
	setupTest(t, "Slack")
	quitYes = true
	c, _ := newTestCmd("")
	if err := runQuit(c, nil); err != nil {
		t.Fatal(err)
	}

	c, out := newTestCmd("")
	if err := runStatus(c, nil); err != nil {
		t.Fatalf("runStatus: %v", err)
	}
	s := out.String()
	for _, want := range []string{"fake", "idle", "1 quit, 0 preserved"} {
		if !strings.Contains(s, want) {
			t.Errorf("status missing %q:\n%s", want, s)
		}
	}
}

func TestVersionString(t *testing.T) {
	saved := Commit
	defer func() { Commit = saved }()

	Commit = "0123456789abcdef0123"
	if got := versionString(); !strings.Contains(got, "0123456789ab)") {
		t.Errorf("versionString() = %q, want short commit", got)
	}
	if !strings.HasPrefix(versionString(), "fq version "+Version) {
		t.Errorf("versionString() = %q", versionString())
	}
}
