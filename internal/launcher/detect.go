package launcher

import (
	"fmt"
	"os/exec"
	"strings"
)

type candidate struct {
	name string
	args []string
}

// candidates in priority order.
var candidates = []candidate{
	{name: "dmenu_run"},
	{name: "rofi", args: []string{"-show", "drun"}},
	{name: "fuzzel"},
	{name: "wofi", args: []string{"--show", "drun"}},
}

// Detect returns the first available launcher found in PATH, in priority
// order: dmenu_run, rofi, fuzzel, wofi.
func Detect() (string, []string, error) {
	return detect(exec.LookPath)
}

func detect(lookPath func(string) (string, error)) (string, []string, error) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, err := lookPath(c.name); err == nil {
			return c.name, append([]string(nil), c.args...), nil
		}
		names = append(names, c.name)
	}
	return "", nil, fmt.Errorf("%w (looked for: %s)", ErrNoLauncher, strings.Join(names, ", "))
}
