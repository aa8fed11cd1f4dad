package patch

import (
	"bytes"
	"path"
	"regexp"
	"strings"
)

const projectLinePrefix = "Project("

var (
	projectTypePattern = regexp.MustCompile(`Project\("\{[A-Z0-9]{8}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{12}\}"\)`)
	quotedPattern      = regexp.MustCompile(`"([^"]*)"`)
)

// RewriteSolution normalizes a solution file: every project type GUID is
// replaced by the configured one unless it is already used, and project
// display names follow their file names. Line endings and blank lines are
// preserved. changed is false when the output equals the input.
func (p *Patcher) RewriteSolution(data []byte) (out []byte, changed bool) {
	text := string(data)

	marker := `Project("` + p.cfg.Patch.ProjectTypeGUID + `")`
	if p.cfg.Patch.ProjectTypeGUID != "" && !strings.Contains(text, marker) {
		text = projectTypePattern.ReplaceAllLiteralString(text, marker)
	}

	if p.cfg.Patch.RenameSolutionProjects {
		text = renameSolutionProjects(text)
	}

	out = []byte(text)
	return out, !bytes.Equal(out, data)
}

// renameSolutionProjects rewrites the name of each Project(...) line,
//
//	Project("{type}") = "name", "path\File.csproj", "{guid}"
//
// to the project file name without its extension.
func renameSolutionProjects(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	for len(text) > 0 {
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line = text[:i+1]
		}
		text = text[len(line):]
		sb.WriteString(renameProjectLine(line))
	}
	return sb.String()
}

func renameProjectLine(line string) string {
	if !strings.HasPrefix(strings.TrimPrefix(line, "\ufeff"), projectLinePrefix) {
		return line
	}
	quoted := quotedPattern.FindAllStringSubmatchIndex(line, 3)
	if len(quoted) < 3 {
		return line
	}
	nameStart, nameEnd := quoted[1][2], quoted[1][3]
	projectPath := line[quoted[2][2]:quoted[2][3]]

	name := path.Base(strings.ReplaceAll(projectPath, `\`, "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" || name == "." || name == line[nameStart:nameEnd] {
		return line
	}
	return line[:nameStart] + name + line[nameEnd:]
}
