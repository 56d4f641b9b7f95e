package apps

import "strings"

// listScript asks System Events for every foreground (non-background) process.
const listScript = `tell application "System Events" to get name of every process whose background only is false`

// ParseAppleScriptList parses an AppleScript list as printed by osascript,
// e.g. `{"Finder", "Safari"}` or `Finder, Safari`. Braces, surrounding
// whitespace and quotes are stripped and empty elements are dropped.
func ParseAppleScriptList(out string) []string {
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "{")
	out = strings.TrimSuffix(out, "}")
	if strings.TrimSpace(out) == "" {
		return nil
	}

	parts := strings.Split(out, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.Trim(strings.TrimSpace(p), `"`)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// quoteAppleScript renders s as an AppleScript string literal.
func quoteAppleScript(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// quitScript builds the graceful quit request for one application.
func quitScript(name string) string {
	return "tell application " + quoteAppleScript(name) + " to quit"
}
