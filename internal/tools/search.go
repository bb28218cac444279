package tools

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Match caps keep tool results useful to the model instead of flooding it.
const (
	maxGlobMatches = 100
	maxGrepMatches = 50
)

// GlobTool lists files matching a glob pattern. Patterns containing "**"
// walk the tree; plain patterns go through filepath.Glob.
type GlobTool struct {
	policy *Policy
}

func NewGlobTool(policy *Policy) *GlobTool {
	return &GlobTool{policy: policy}
}

func (t *GlobTool) Name() string        { return "glob" }
func (t *GlobTool) Description() string { return "Find files matching a glob pattern" }

func (t *GlobTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": `Glob pattern, e.g. "*.go" or "src/**/*.ts"`,
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory to search (defaults to the project root)",
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *GlobTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return ErrorResult("pattern is required")
	}

	root := t.policy.ProjectRoot
	if p, _ := args["path"].(string); p != "" {
		resolved, err := t.policy.ResolvePath(p)
		if err != nil {
			return BlockedResult(err.Error())
		}
		root = resolved
	}

	matches, err := globUnder(root, pattern)
	if err != nil {
		return ErrorResult(fmt.Sprintf("glob failed: %v", err))
	}
	if len(matches) == 0 {
		return SilentResult("No files matched")
	}
	sort.Strings(matches)
	if len(matches) > maxGlobMatches {
		matches = matches[:maxGlobMatches]
	}
	return SilentResult(strings.Join(matches, "\n"))
}

// globUnder returns matches relative to root.
func globUnder(root, pattern string) ([]string, error) {
	if !strings.Contains(pattern, "**") {
		abs, err := filepath.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, err
		}
		rel := make([]string, 0, len(abs))
		for _, m := range abs {
			r, err := filepath.Rel(root, m)
			if err != nil {
				continue
			}
			rel = append(rel, r)
		}
		return rel, nil
	}

	// "**" matches any number of directory levels: walk the tree and test
	// the pattern pieces around it against each relative path.
	i := strings.Index(pattern, "**")
	prefix := strings.TrimSuffix(pattern[:i], "/")
	tail := strings.TrimPrefix(pattern[i+2:], "/")

	var matches []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if prefix != "" && rel != prefix && !strings.HasPrefix(rel, prefix+"/") {
			return nil
		}
		if matchTail(tail, rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	return matches, err
}

// matchTail matches the post-"**" pattern piece against the trailing path
// segments of rel.
func matchTail(tail, rel string) bool {
	if tail == "" {
		return true
	}
	if !strings.Contains(tail, "/") {
		ok, _ := path.Match(tail, path.Base(rel))
		return ok
	}
	want := strings.Count(tail, "/") + 1
	segs := strings.Split(rel, "/")
	if len(segs) < want {
		return false
	}
	ok, _ := path.Match(tail, strings.Join(segs[len(segs)-want:], "/"))
	return ok
}

// GrepTool searches file contents with a regular expression.
type GrepTool struct {
	policy *Policy
}

func NewGrepTool(policy *Policy) *GrepTool {
	return &GrepTool{policy: policy}
}

func (t *GrepTool) Name() string        { return "grep" }
func (t *GrepTool) Description() string { return "Search file contents for a regex pattern" }

func (t *GrepTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"pattern": map[string]interface{}{
				"type":        "string",
				"description": "Regular expression to search for",
			},
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Directory or file to search (defaults to the project root)",
			},
			"include": map[string]interface{}{
				"type":        "string",
				"description": `Filename filter glob, e.g. "*.go"`,
			},
		},
		"required": []string{"pattern"},
	}
}

func (t *GrepTool) Execute(ctx context.Context, args map[string]interface{}) *Result {
	pattern, _ := args["pattern"].(string)
	if pattern == "" {
		return ErrorResult("pattern is required")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return NewResult(fmt.Sprintf("Invalid regex: %v", err))
	}

	root := t.policy.ProjectRoot
	if p, _ := args["path"].(string); p != "" {
		resolved, resolveErr := t.policy.ResolvePath(p)
		if resolveErr != nil {
			return BlockedResult(resolveErr.Error())
		}
		root = resolved
	}
	include, _ := args["include"].(string)

	var matches []string
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped silently
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if include != "" {
			if ok, _ := path.Match(include, d.Name()); !ok {
				return nil
			}
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			rel = p
		}
		grepFile(p, rel, re, &matches)
		if len(matches) >= maxGrepMatches {
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return ErrorResult(fmt.Sprintf("search failed: %v", walkErr))
	}

	if len(matches) == 0 {
		return SilentResult("No matches found")
	}
	if len(matches) > maxGrepMatches {
		matches = matches[:maxGrepMatches]
	}
	return SilentResult(strings.Join(matches, "\n"))
}

// grepFile appends file:lineno:line matches, stopping at the global cap.
func grepFile(abs, rel string, re *regexp.Regexp, matches *[]string) {
	f, err := os.Open(abs)
	if err != nil {
		return // unreadable files are skipped silently
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if re.MatchString(line) {
			*matches = append(*matches, fmt.Sprintf("%s:%d:%s", rel, lineno, line))
			if len(*matches) >= maxGrepMatches {
				return
			}
		}
	}
}
