package permission

import "testing"

func TestRequiresApproval(t *testing.T) {
	cases := []struct {
		tool string
		want bool
	}{
		{"bash", true},
		{"write", true},
		{"edit", true},
		{"mcp_github_create_issue", true},
		{"read", false},
		{"glob", false},
		{"grep", false},
		{"webfetch", false},
	}
	for _, tc := range cases {
		if got := RequiresApproval(tc.tool); got != tc.want {
			t.Errorf("RequiresApproval(%q) = %v, want %v", tc.tool, got, tc.want)
		}
	}
}

func TestGateFuncAdapter(t *testing.T) {
	var gotTool, gotDetail string
	g := GateFunc(func(tool, detail string) bool {
		gotTool, gotDetail = tool, detail
		return tool == "bash"
	})
	if !g.Allow("bash", "ls -la") {
		t.Error("expected allow for bash")
	}
	if gotTool != "bash" || gotDetail != "ls -la" {
		t.Errorf("adapter passed (%q, %q)", gotTool, gotDetail)
	}
	if g.Allow("write", "main.go") {
		t.Error("expected deny for write")
	}
}

func TestAutoAllow(t *testing.T) {
	g := AutoAllow()
	for _, tool := range []string{"bash", "write", "edit", "mcp_fs_delete"} {
		if !g.Allow(tool, "") {
			t.Errorf("AutoAllow denied %s", tool)
		}
	}
}

func TestDeniedMessage(t *testing.T) {
	got := DeniedMessage("bash")
	want := "Permission denied by user for bash"
	if got != want {
		t.Errorf("DeniedMessage = %q, want %q", got, want)
	}
}

func TestDetail(t *testing.T) {
	cases := []struct {
		name string
		tool string
		args map[string]interface{}
		want string
	}{
		{"bash plain", "bash", map[string]interface{}{"command": "go test ./..."}, "go test ./..."},
		{"bash with workdir", "bash", map[string]interface{}{"command": "make", "workdir": "sub"}, "make  (in sub)"},
		{"write path", "write", map[string]interface{}{"path": "cmd/main.go", "content": "x"}, "cmd/main.go"},
		{"edit path", "edit", map[string]interface{}{"path": "a.go", "oldString": "x", "newString": "y"}, "a.go"},
		{"webfetch url", "webfetch", map[string]interface{}{"url": "https://example.com"}, "https://example.com"},
		{"mcp json", "mcp_db_query", map[string]interface{}{"sql": "select 1"}, `{"sql":"select 1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detail(tc.tool, tc.args); got != tc.want {
				t.Errorf("Detail = %q, want %q", got, tc.want)
			}
		})
	}
}
