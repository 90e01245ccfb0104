package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

const defaultCLIProfileName = "default"

// CLIProfile reads the credential the platform CLI stores under
// ~/.tccli/<profile>.credential. A plain file carries a static credential;
// a file naming a role-arn makes the provider assume that role through STS,
// signed with the file's static credential.
type CLIProfile struct {
	name      string
	path      string
	stsOptFns []func(*STSOptions)

	mu  sync.Mutex
	sts *STS
}

// WithCLIProfileName selects the CLI profile to read, "default" otherwise.
func WithCLIProfileName(name string) func(*CLIProfile) {
	return func(p *CLIProfile) { p.name = name }
}

// WithCLIPath pins the provider to one credential file instead of the
// profile location under the home directory.
func WithCLIPath(path string) func(*CLIProfile) {
	return func(p *CLIProfile) { p.path = path }
}

// WithCLISTSOptions configures the STS provider backing profiles that name
// a role-arn.
func WithCLISTSOptions(optFns ...func(*STSOptions)) func(*CLIProfile) {
	return func(p *CLIProfile) { p.stsOptFns = append(p.stsOptFns, optFns...) }
}

func NewCLIProfile(optFns ...func(*CLIProfile)) *CLIProfile {
	p := &CLIProfile{name: defaultCLIProfileName}
	for _, fn := range optFns {
		fn(p)
	}
	return p
}

type cliCredential struct {
	SecretID        string `json:"secretId"`
	SecretKey       string `json:"secretKey"`
	RoleArn         string `json:"role-arn"`
	RoleSessionName string `json:"role-session-name"`
}

func (p *CLIProfile) Retrieve(ctx context.Context) (auth.Credential, error) {
	path, err := p.findFile()
	if err != nil {
		return auth.Credential{}, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("no CLI credential file at %s: %w", path, tcerr.ErrNoProvider)
	}

	var cred cliCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return auth.Credential{}, fmt.Errorf("%w %s: %v", tcerr.ErrInvalidCredentialFile, path, err)
	}
	if cred.SecretID == "" {
		return auth.Credential{}, fmt.Errorf("CLI profile %q: %w", p.name, tcerr.ErrMissingSecretID)
	}
	if cred.SecretKey == "" {
		return auth.Credential{}, fmt.Errorf("CLI profile %q: %w", p.name, tcerr.ErrMissingSecretKey)
	}

	static := auth.Credential{SecretID: cred.SecretID, SecretKey: cred.SecretKey}
	if cred.RoleArn == "" {
		return static, nil
	}
	return p.assumeRole(ctx, static, cred)
}

// assumeRole delegates to an STS provider built once from the file's static
// credential. The session name from the file applies unless an explicit STS
// option overrides it.
func (p *CLIProfile) assumeRole(ctx context.Context, static auth.Credential, cred cliCredential) (auth.Credential, error) {
	p.mu.Lock()
	if p.sts == nil {
		optFns := p.stsOptFns
		if cred.RoleSessionName != "" {
			optFns = append([]func(*STSOptions){WithSTSSessionName(cred.RoleSessionName)}, optFns...)
		}
		p.sts = NewSTS(NewStatic(static), cred.RoleArn, optFns...)
	}
	sts := p.sts
	p.mu.Unlock()

	return sts.Retrieve(ctx)
}

func (p *CLIProfile) findFile() (string, error) {
	if p.path != "" {
		return homedir.Expand(p.path)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("no home directory for the CLI credential file: %w", tcerr.ErrNoProvider)
	}
	return filepath.Join(home, ".tccli", p.name+".credential"), nil
}

func (p *CLIProfile) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	sts := p.sts
	p.mu.Unlock()

	if sts == nil {
		return nil
	}
	return sts.Shutdown(ctx)
}

func (p *CLIProfile) String() string { return "cli" }
