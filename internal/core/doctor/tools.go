package doctor

import (
	"context"
	"os/exec"
	"strings"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// Tool is an external command the app shells out to.
type Tool struct {
	Label   string
	Command string // command line; only the first word is looked up
	Purpose string
	// Required tools fail the check when missing; others warn.
	Required bool
}

// ToolsCheck verifies that required external tools are available on $PATH.
type ToolsCheck struct {
	tools []Tool
}

// NewToolsCheck creates a new tools check.
func NewToolsCheck(tools ...Tool) *ToolsCheck {
	return &ToolsCheck{tools: tools}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	for _, tool := range c.tools {
		fields := strings.Fields(tool.Command)
		if len(fields) == 0 {
			result.Items = append(result.Items, CheckItem{
				Label:  tool.Label,
				Status: StatusWarn,
				Detail: "not configured",
			})
			continue
		}

		path, err := lookPathFunc(fields[0])
		if err == nil {
			result.Items = append(result.Items, CheckItem{Label: tool.Label, Status: StatusPass, Detail: path})
			continue
		}

		status := StatusWarn
		if tool.Required {
			status = StatusFail
		}
		detail := fields[0] + " not found on PATH"
		if tool.Purpose != "" {
			detail += " (" + tool.Purpose + ")"
		}
		result.Items = append(result.Items, CheckItem{Label: tool.Label, Status: status, Detail: detail})
	}

	return result
}
