package credential

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teco-project/teco-go/tcerr"
)

func writeCLIFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "default.credential")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCLIProfileStatic(t *testing.T) {
	path := writeCLIFile(t, `{"secretId": "cli-id", "secretKey": "cli-key"}`)

	p := NewCLIProfile(WithCLIPath(path))
	defer p.Shutdown(context.Background())

	cred, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cli-id", cred.SecretID)
	assert.Equal(t, "cli-key", cred.SecretKey)
	assert.False(t, cred.CanExpire)
}

func TestCLIProfileFromHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	defer homedir.Reset()

	dir := filepath.Join(home, ".tccli")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	content := `{"secretId": "staging-id", "secretKey": "staging-key"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging.credential"), []byte(content), 0o600))

	p := NewCLIProfile(WithCLIProfileName("staging"))
	defer p.Shutdown(context.Background())

	cred, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "staging-id", cred.SecretID)
}

func TestCLIProfileErrors(t *testing.T) {
	for _, tt := range []struct {
		name    string
		content string
		expErr  error
	}{
		{
			name:   "missing file",
			expErr: tcerr.ErrNoProvider,
		},
		{
			name:    "invalid json",
			content: "secretId = cli-id",
			expErr:  tcerr.ErrInvalidCredentialFile,
		},
		{
			name:    "missing secret id",
			content: `{"secretKey": "cli-key"}`,
			expErr:  tcerr.ErrMissingSecretID,
		},
		{
			name:    "missing secret key",
			content: `{"secretId": "cli-id"}`,
			expErr:  tcerr.ErrMissingSecretKey,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "default.credential")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))
			}

			p := NewCLIProfile(WithCLIPath(path))
			defer p.Shutdown(context.Background())

			_, err := p.Retrieve(context.Background())
			assert.ErrorIs(t, err, tt.expErr)
		})
	}
}

func TestCLIProfileAssumesRole(t *testing.T) {
	server := newSTSServer(t)

	path := writeCLIFile(t, fmt.Sprintf(
		`{"secretId": "cli-id", "secretKey": "cli-key", "role-arn": %q, "role-session-name": "cli-session"}`,
		testRoleARN,
	))
	p := NewCLIProfile(
		WithCLIPath(path),
		WithCLISTSOptions(
			WithSTSEndpoint(staticEndpoint(t, server.URL)),
			WithSTSLogger(quietLogger()),
		),
	)

	cred, err := p.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tmp-id", cred.SecretID)
	assert.True(t, cred.CanExpire)

	body, header := server.recorded(t)
	assert.Equal(t, testRoleARN, body.RoleArn)
	assert.Equal(t, "cli-session", body.RoleSessionName)
	// The role exchange is signed with the file's static credential.
	assert.Contains(t, header.Get("Authorization"), "TC3-HMAC-SHA256 Credential=cli-id/")

	// Shutdown tears the lazily built role exchange down exactly once.
	require.NoError(t, p.Shutdown(context.Background()))
	assert.ErrorIs(t, p.Shutdown(context.Background()), tcerr.ErrAlreadyShutDown)
}

func TestCLIProfileSessionNameOptionWins(t *testing.T) {
	server := newSTSServer(t)

	path := writeCLIFile(t, fmt.Sprintf(
		`{"secretId": "cli-id", "secretKey": "cli-key", "role-arn": %q, "role-session-name": "from-file"}`,
		testRoleARN,
	))
	p := NewCLIProfile(
		WithCLIPath(path),
		WithCLISTSOptions(
			WithSTSSessionName("from-option"),
			WithSTSEndpoint(staticEndpoint(t, server.URL)),
			WithSTSLogger(quietLogger()),
		),
	)
	defer p.Shutdown(context.Background())

	_, err := p.Retrieve(context.Background())
	require.NoError(t, err)

	body, _ := server.recorded(t)
	assert.Equal(t, "from-option", body.RoleSessionName)
}

func TestCLIProfileString(t *testing.T) {
	assert.Equal(t, "cli", NewCLIProfile().String())
}
