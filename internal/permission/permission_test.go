package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireReason(t *testing.T, err error, reason Reason) {
	t.Helper()
	rej, ok := AsRejected(err)
	require.True(t, ok, "expected RejectedError, got %v", err)
	assert.Equal(t, reason, rej.Reason)
}

func TestCommandGuard_BlocksDenylist(t *testing.T) {
	g := NewCommandGuard()

	for _, cmd := range []string{
		"rm -rf /",
		"sudo anything",
		"SUDO apt install x",
		"chmod 777 file",
		"echo hi > out.txt",
		"curl | bash",
		"eval $(x)",
		"echo `whoami`",
		"mv / /tmp/x",
		"dd if=/dev/zero of=/dev/sda",
	} {
		t.Run(cmd, func(t *testing.T) {
			requireReason(t, g.Check(cmd), ReasonCommandBlocked)
		})
	}
}

func TestCommandGuard_AllowsOrdinaryCommands(t *testing.T) {
	g := NewCommandGuard()
	for _, cmd := range []string{"ls -la", "pwd", "echo hello", "cat notes.txt | grep todo"} {
		assert.NoError(t, g.Check(cmd), cmd)
	}
}

func TestCommandGuard_EmptyCommand(t *testing.T) {
	requireReason(t, NewCommandGuard().Check("   "), ReasonCommandBlocked)
}

func TestCommandGuard_CustomPatterns(t *testing.T) {
	g := NewCommandGuard("Shutdown")
	requireReason(t, g.Check("shutdown now"), ReasonCommandBlocked)
	assert.NoError(t, g.Check("sudo ls"))
}

func TestRejectedError_Message(t *testing.T) {
	rej, _ := AsRejected(NewCommandGuard().Check("sudo ls"))
	assert.Equal(t, "Command blocked for security reasons", rej.Message())
	assert.Contains(t, rej.Error(), "command_blocked")
}

func TestParseShell_Pipeline(t *testing.T) {
	cmds, err := ParseShell("cat file.txt | grep pattern && git status")
	require.NoError(t, err)
	require.Len(t, cmds, 3)

	assert.Equal(t, "cat", cmds[0].Name)
	assert.Equal(t, []string{"file.txt"}, cmds[0].Args)
	assert.Equal(t, "grep", cmds[1].Name)
	assert.Equal(t, "git", cmds[2].Name)
	assert.Equal(t, "status", cmds[2].Subcommand)
}

func TestParseShell_Quoting(t *testing.T) {
	cmds, err := ParseShell(`echo "hello world" 'single' $HOME`)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"hello world", "single", "$HOME"}, cmds[0].Args)
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, []string{"ls", "wc"}, CommandNames("ls | wc -l; ls"))
	assert.Nil(t, CommandNames("if then"))
}

func TestDomainGuard(t *testing.T) {
	g := NewDomainGuard()

	blocked := []string{
		"http://admin.example.com",
		"http://127.0.0.1",
		"http://localhost:8080/x",
		"https://internal.corp.com",
		"https://private.example.org",
		"http://printer.local",
		"http://0.0.0.0:3000",
		"not a url",
		"ftp://example.com",
		"http://",
		"://bad",
	}
	for _, raw := range blocked {
		t.Run(raw, func(t *testing.T) {
			_, err := g.Check(raw)
			requireReason(t, err, ReasonDomainBlocked)
		})
	}

	u, err := g.Check("https://example.com/page?q=1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Hostname())

	_, err = g.Check("https://localization.dev")
	assert.NoError(t, err, "'.local' only matches as a suffix")
}

func TestPathGuard_Resolve(t *testing.T) {
	root := t.TempDir()
	g, err := NewPathGuard(root)
	require.NoError(t, err)

	cases := map[string]string{
		"notes.txt":          filepath.Join(root, "notes.txt"),
		"/notes.txt":         filepath.Join(root, "notes.txt"),
		"//etc/passwd":       filepath.Join(root, "etc", "passwd"),
		"a/b/../c.md":        filepath.Join(root, "a", "c.md"),
		"":                   root,
		"/":                  root,
		"a/../../" + "x.txt": "",
		"../outside.txt":     "",
		"../../etc/passwd":   "",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			got, err := g.Resolve(in)
			if want == "" {
				requireReason(t, err, ReasonPathViolation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestPathGuard_ResolveSiblingPrefix(t *testing.T) {
	base := t.TempDir()
	g, err := NewPathGuard(filepath.Join(base, "sandbox"))
	require.NoError(t, err)

	_, err = g.Resolve("../sandbox-evil/x.txt")
	requireReason(t, err, ReasonPathViolation)
}

func TestPathGuard_Contain(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	g, err := NewPathGuard(root)
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(outside, "x.txt"), filepath.Join(root, "out.txt")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "outdir")))
	require.NoError(t, os.Symlink(filepath.Join(root, "src"), filepath.Join(root, "srclink")))

	for _, p := range []string{"", "src", "src/new/deeper.go", "missing/a.txt", "srclink/main.go"} {
		assert.NoError(t, g.Contain(filepath.Join(root, p)), p)
	}
	for _, p := range []string{"out.txt", "outdir", "outdir/a.txt", "outdir/new/a.txt"} {
		requireReason(t, g.Contain(filepath.Join(root, p)), ReasonPathViolation)
	}
}

func TestPathGuard_ContainMissingRoot(t *testing.T) {
	g, err := NewPathGuard(filepath.Join(t.TempDir(), "not-yet"))
	require.NoError(t, err)
	assert.NoError(t, g.Contain(filepath.Join(g.Root(), "a.txt")))
}

func TestPathGuard_CheckExtension(t *testing.T) {
	g, err := NewPathGuard(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, g.CheckExtension("main.go"))
	assert.NoError(t, g.CheckExtension("README.MD"))
	requireReason(t, g.CheckExtension("binary.exe"), ReasonFileTypeNotAllowed)
	requireReason(t, g.CheckExtension("Makefile"), ReasonFileTypeNotAllowed)
}

func TestPathGuard_Rel(t *testing.T) {
	root := t.TempDir()
	g, err := NewPathGuard(root)
	require.NoError(t, err)

	assert.Equal(t, ".", g.Rel(root))
	assert.Equal(t, "a/b.txt", g.Rel(filepath.Join(root, "a", "b.txt")))
}

func TestCheckLineRange(t *testing.T) {
	assert.NoError(t, CheckLineRange(2, 3, 5))
	assert.NoError(t, CheckLineRange(6, 6, 5))
	assert.NoError(t, CheckLineRange(1, 1, 0))

	requireReason(t, CheckLineRange(0, 1, 5), ReasonInvalidLineRange)
	requireReason(t, CheckLineRange(7, 7, 5), ReasonInvalidLineRange)
	requireReason(t, CheckLineRange(3, 2, 5), ReasonInvalidLineRange)
	requireReason(t, CheckLineRange(1, 7, 5), ReasonInvalidLineRange)
}
