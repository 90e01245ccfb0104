package credential

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	ini "gopkg.in/ini.v1"

	"github.com/teco-project/teco-go/auth"
	"github.com/teco-project/teco-go/tcerr"
)

const (
	envCredentialsFile = "TENCENTCLOUD_CREDENTIALS_FILE"

	defaultProfileName = "default"
	etcCredentialsFile = "/etc/tencentcloud/credentials"
)

// Profile reads a credential from the shared INI credential file. The file
// is searched in order: the explicit path given with WithProfilePath, the
// TENCENTCLOUD_CREDENTIALS_FILE environment variable, ~/.tencentcloud/credentials
// and /etc/tencentcloud/credentials. Profiles are INI sections carrying
// secret_id and secret_key keys.
type Profile struct {
	path string
	name string
}

// WithProfilePath pins the provider to one credential file instead of the
// search order.
func WithProfilePath(path string) func(*Profile) {
	return func(p *Profile) { p.path = path }
}

// WithProfileName selects the INI section to read, "default" otherwise.
func WithProfileName(name string) func(*Profile) {
	return func(p *Profile) { p.name = name }
}

func NewProfile(optFns ...func(*Profile)) *Profile {
	p := &Profile{name: defaultProfileName}
	for _, fn := range optFns {
		fn(p)
	}
	return p
}

func (p *Profile) Retrieve(context.Context) (auth.Credential, error) {
	path, err := p.findFile()
	if err != nil {
		return auth.Credential{}, err
	}

	file, err := ini.Load(path)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("%w %s: %v", tcerr.ErrInvalidCredentialFile, path, err)
	}

	section, err := file.GetSection(p.name)
	if err != nil {
		return auth.Credential{}, fmt.Errorf("%w %q in %s", tcerr.ErrMissingProfile, p.name, path)
	}

	id := section.Key("secret_id").String()
	if id == "" {
		return auth.Credential{}, fmt.Errorf("profile %q in %s: %w", p.name, path, tcerr.ErrMissingSecretID)
	}
	key := section.Key("secret_key").String()
	if key == "" {
		return auth.Credential{}, fmt.Errorf("profile %q in %s: %w", p.name, path, tcerr.ErrMissingSecretKey)
	}

	return auth.Credential{SecretID: id, SecretKey: key}, nil
}

// findFile returns the credential file to load. Explicit paths, from the
// option or the environment, are returned as given so that load errors
// surface; the well-known locations are only returned when present.
func (p *Profile) findFile() (string, error) {
	if p.path != "" {
		return homedir.Expand(p.path)
	}
	if path := os.Getenv(envCredentialsFile); path != "" {
		return path, nil
	}

	if home, err := homedir.Dir(); err == nil {
		path := filepath.Join(home, ".tencentcloud", "credentials")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	if _, err := os.Stat(etcCredentialsFile); err == nil {
		return etcCredentialsFile, nil
	}

	return "", fmt.Errorf("no shared credential file found: %w", tcerr.ErrNoProvider)
}

func (p *Profile) Shutdown(context.Context) error { return nil }

func (p *Profile) String() string { return "profile" }
