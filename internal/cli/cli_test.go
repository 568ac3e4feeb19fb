package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-blog-admin/admins"
	"github.com/jrsteele09/go-blog-admin/blogs"
	"github.com/jrsteele09/go-blog-admin/internal/apitest"
	"github.com/jrsteele09/go-blog-admin/internal/cli"
)

const testPassword = "Correct1Horse"

type testFixture struct {
	api        *apitest.Server
	configPath string
	editor     *admins.Admin
	super      *admins.Admin
}

type result struct {
	code   int
	out    string
	errOut string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	api := apitest.NewServer(t)
	dataDir := t.TempDir()
	t.Setenv("BLOGADMIN_API_URL", api.URL)
	t.Setenv("BLOGADMIN_DATA_FOLDER", dataDir)
	t.Setenv("BLOGADMIN_LOG_LEVEL", "disabled")

	return &testFixture{
		api:        api,
		configPath: filepath.Join(dataDir, "config.toml"),
		editor:     api.AddAdmin(t, "editor@example.com", testPassword, "Editor", false, admins.StatusActive),
		super:      api.AddAdmin(t, "root@example.com", testPassword, "Root", true, admins.StatusActive),
	}
}

// run executes one blogadmin invocation, as a separate process would.
func (f *testFixture) run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append([]string{"--config", f.configPath}, args...)
	code := cli.Execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, out: out.String(), errOut: errOut.String()}
}

func (f *testFixture) login(t *testing.T, email string, remember bool) {
	t.Helper()
	args := []string{"login", "--email", email, "--password", testPassword}
	if remember {
		args = append(args, "--remember")
	}
	res := f.run(t, "", args...)
	require.Equal(t, 0, res.code, res.errOut)
}

func TestLoginRememberedSurvivesInvocations(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "login", "-e", f.editor.Email, "-p", testPassword, "--remember")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Logged in as Editor.")
	require.NotContains(t, res.errOut, "not remembered")

	res = f.run(t, "", "whoami")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, f.editor.Email)
	require.Contains(t, res.out, "Durable")
	require.Contains(t, res.out, "Token expires in")
}

func TestLoginWithoutRememberEndsWithCommand(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "login", "-e", f.editor.Email, "-p", testPassword)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.errOut, "not remembered")

	res = f.run(t, "", "whoami")
	require.Equal(t, 3, res.code)
	require.Contains(t, res.errOut, "You are not logged in.")
}

func TestLoginRejections(t *testing.T) {
	f := setupTestFixture(t)
	inactive := f.api.AddAdmin(t, "gone@example.com", testPassword, "Gone", false, admins.StatusInactive)

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{name: "wrong password", email: f.editor.Email, password: "Wrong1Horse", want: "Invalid email or password."},
		{name: "unknown admin", email: "nobody@example.com", password: testPassword, want: "Invalid email or password."},
		{name: "inactive", email: inactive.Email, password: testPassword, want: "Account is inactive."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.run(t, "", "login", "-e", tt.email, "-p", tt.password)
			require.Equal(t, 1, res.code)
			require.Contains(t, res.errOut, tt.want)
		})
	}
}

func TestLoginValidatesBeforeSending(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "login", "-e", "not-an-email", "-p", testPassword)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "email: must be a valid email address")

	res = f.run(t, "", "login", "-e", f.editor.Email, "-p", "short")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "password: must be at least 8 characters")

	require.Zero(t, f.api.Calls(apitest.LoginRoute))
}

func TestLoginJSON(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "--json", "login", "-e", f.super.Email, "-p", testPassword, "-r")
	require.Equal(t, 0, res.code, res.errOut)
	var got struct {
		Email      string `json:"email"`
		SuperAdmin bool   `json:"superAdmin"`
		Remembered bool   `json:"remembered"`
		ExpiresAt  string `json:"tokenExpiresAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.out), &got))
	require.Equal(t, f.super.Email, got.Email)
	require.True(t, got.SuperAdmin)
	require.True(t, got.Remembered)
	require.NotEmpty(t, got.ExpiresAt)
}

func TestAPIURLFlagOverridesEnv(t *testing.T) {
	f := setupTestFixture(t)
	t.Setenv("BLOGADMIN_API_URL", "http://127.0.0.1:1")

	res := f.run(t, "", "--api-url", f.api.URL, "login", "-e", f.editor.Email, "-p", testPassword)
	require.Equal(t, 0, res.code, res.errOut)
	require.Equal(t, 1, f.api.Calls(apitest.LoginRoute))
}

func TestUnreachableAPI(t *testing.T) {
	f := setupTestFixture(t)
	t.Setenv("BLOGADMIN_API_URL", "http://127.0.0.1:1")

	res := f.run(t, "", "login", "-e", f.editor.Email, "-p", testPassword)
	require.Equal(t, 2, res.code)
	require.Contains(t, res.errOut, "Cannot reach the admin API")
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)

	res := f.run(t, "", "logout")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Logged out.")
	require.Equal(t, 1, f.api.Calls(apitest.LogoutRoute))

	res = f.run(t, "", "logout")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "No active session.")

	res = f.run(t, "", "whoami")
	require.Equal(t, 3, res.code)
}

func TestSessionExpiredNoticeShownOnce(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)
	f.api.ExpireAccessTokens()
	f.api.FailRefresh(true)

	res := f.run(t, "", "whoami")
	require.Equal(t, 3, res.code)
	require.Equal(t, 1, strings.Count(res.errOut, "Session expired, please log in again."))

	// The remembered session was discarded.
	res = f.run(t, "", "whoami")
	require.Equal(t, 3, res.code)
	require.Contains(t, res.errOut, "You are not logged in.")
}

func TestRestoredSessionRefreshesSilently(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)
	f.api.ExpireAccessTokens()

	res := f.run(t, "", "whoami")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, f.editor.Email)
	require.Equal(t, 1, f.api.Calls(apitest.RefreshRoute))
	require.NotContains(t, res.errOut, "Session expired")
}

func TestPostsList(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddBlog(blogs.Blog{Title: "Go tips", Content: "...", Category: "tech", Status: blogs.StatusPublished})
	f.api.AddBlog(blogs.Blog{Title: "Cooking", Content: "...", Category: "food", Status: blogs.StatusDraft})
	f.login(t, f.editor.Email, true)

	res := f.run(t, "", "posts", "list")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "TITLE")
	require.Contains(t, res.out, "Go tips")
	require.Contains(t, res.out, "Cooking")
	require.Equal(t, "page=1&limit=10&status=&title=&category=", f.api.LastRequest(apitest.ListBlogsRoute).Query)

	res = f.run(t, "", "--json", "posts", "list", "--status", "draft")
	require.Equal(t, 0, res.code, res.errOut)
	var page blogs.Page
	require.NoError(t, json.Unmarshal([]byte(res.out), &page))
	require.Len(t, page.Blogs, 1)
	require.Equal(t, "Cooking", page.Blogs[0].Title)
}

func TestPostsRequireLogin(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "", "posts", "list")
	require.Equal(t, 3, res.code)
	require.Contains(t, res.errOut, "You are not logged in.")
	require.Zero(t, f.api.Calls(apitest.ListBlogsRoute))
}

func TestPostsCreateEditToggle(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)

	contentFile := filepath.Join(t.TempDir(), "post.md")
	require.NoError(t, os.WriteFile(contentFile, []byte("# Hello\n"), 0o600))

	res := f.run(t, "", "--json", "posts", "create", "--title", "Hello", "--content-file", contentFile, "--category", "news")
	require.Equal(t, 0, res.code, res.errOut)
	var created blogs.Blog
	require.NoError(t, json.Unmarshal([]byte(res.out), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "# Hello\n", created.Content)
	require.Equal(t, blogs.StatusDraft, created.Status)

	res = f.run(t, "", "posts", "edit", created.ID, "--title", "Hello again")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Updated post "+created.ID)

	res = f.run(t, "", "posts", "get", created.ID)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Hello again")
	require.Contains(t, res.out, "news")
	require.Contains(t, res.out, "# Hello")

	res = f.run(t, "", "posts", "toggle", created.ID)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "is now published")
}

func TestPostsCreateValidation(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)

	res := f.run(t, "", "posts", "create", "--content", "no title")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "title: is required")
	require.Zero(t, f.api.Calls(apitest.CreateBlogRoute))
}

func TestPostsGetNotFound(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)

	res := f.run(t, "", "posts", "get", "missing")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "Blog not found")
}

func TestAdminsRequireSuperAdmin(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)

	res := f.run(t, "", "admins", "list")
	require.Equal(t, 3, res.code)
	require.Contains(t, res.errOut, "This action requires a super-admin account.")
	require.Zero(t, f.api.Calls(apitest.ListAdminsRoute))
}

func TestAdminsListCreateToggle(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.super.Email, true)

	res := f.run(t, "", "admins", "create", "--email", "new@example.com", "--username", "Newbie", "--password", "weakpassword")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "uppercase")
	require.Zero(t, f.api.Calls(apitest.CreateAdminRoute))

	res = f.run(t, "", "admins", "create", "--email", "new@example.com", "--username", "Newbie", "--password", "Str0ngPassword")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Created admin new@example.com.")

	res = f.run(t, "", "admins", "list")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "new@example.com")
	require.Contains(t, res.out, "Super admin")

	res = f.run(t, "", "admins", "toggle", f.editor.ID)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "is now inactive")

	editor, err := f.api.Admins.GetByID(f.editor.ID)
	require.NoError(t, err)
	require.Equal(t, admins.StatusInactive, editor.Status)
}

func TestShellKeepsEphemeralSession(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddBlog(blogs.Blog{Title: "Go tips", Content: "...", Status: blogs.StatusPublished})

	script := strings.Join([]string{
		"login -e " + f.editor.Email + " -p " + testPassword,
		"whoami",
		`posts list --title "Go tips"`,
		"shell",
		"exit",
		"whoami",
	}, "\n")
	res := f.run(t, script, "shell")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Logged in as Editor.")
	require.NotContains(t, res.errOut, "not remembered")
	require.Contains(t, res.out, "Ephemeral")
	require.Contains(t, res.out, "Go tips")
	require.Contains(t, res.out, "Already in the shell.")
	require.Equal(t, 1, f.api.Calls(apitest.MeRoute))
	require.Equal(t, "page=1&limit=10&status=&title=Go+tips&category=", f.api.LastRequest(apitest.ListBlogsRoute).Query)

	// The shell's session did not outlive it.
	res = f.run(t, "", "whoami")
	require.Equal(t, 3, res.code)
}

func TestShellReportsErrorsAndContinues(t *testing.T) {
	f := setupTestFixture(t)

	res := f.run(t, "whoami\nlogin -e "+f.editor.Email+" -p "+testPassword+"\nwhoami\n", "shell")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.errOut, "You are not logged in.")
	require.Contains(t, res.out, f.editor.Email)
}

func TestShellKeepsJSONOutput(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddBlog(blogs.Blog{Title: "Go tips", Content: "...", Status: blogs.StatusPublished})

	script := "login -e " + f.editor.Email + " -p " + testPassword + "\nposts list\n"
	res := f.run(t, script, "--json", "shell")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, `"blogs"`)
	require.Contains(t, res.out, `"superAdmin"`)
	require.NotContains(t, res.out, "TITLE")
}

func TestShellJSONForOneLineDoesNotStick(t *testing.T) {
	f := setupTestFixture(t)
	f.api.AddBlog(blogs.Blog{Title: "Go tips", Content: "...", Status: blogs.StatusPublished})

	script := "login -e " + f.editor.Email + " -p " + testPassword + "\n--json posts list\nposts list\n"
	res := f.run(t, script, "shell")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, `"blogs"`)
	require.Contains(t, res.out, "TITLE")
}

func TestLoginWhileSignedInIsRefused(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, f.editor.Email, true)

	res := f.run(t, "", "login", "-e", f.super.Email, "-p", testPassword, "--remember")
	require.Equal(t, 3, res.code)
	require.Contains(t, res.errOut, "You are already logged in. Run 'blogadmin logout' first.")
	require.Equal(t, 1, f.api.Calls(apitest.LoginRoute))

	res = f.run(t, "", "whoami")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, f.editor.Email)
}

func TestShellLoginAgainAfterLogout(t *testing.T) {
	f := setupTestFixture(t)

	script := strings.Join([]string{
		"login -e " + f.editor.Email + " -p " + testPassword,
		"login -e " + f.super.Email + " -p " + testPassword,
		"logout",
		"login -e " + f.super.Email + " -p " + testPassword,
		"whoami",
	}, "\n")
	res := f.run(t, script, "shell")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.errOut, "You are already logged in.")
	require.Equal(t, 2, f.api.Calls(apitest.LoginRoute))
	require.Contains(t, res.out, f.super.Email)
}

func TestSplitArgs(t *testing.T) {
	args, err := cli.SplitArgs(`posts create --title "Hello world" --content 'it''s'`)
	require.NoError(t, err)
	require.Equal(t, []string{"posts", "create", "--title", "Hello world", "--content", "its"}, args)

	_, err = cli.SplitArgs(`posts create --title "oops`)
	require.Error(t, err)
}
