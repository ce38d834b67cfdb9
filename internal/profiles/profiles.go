package profiles

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/url"
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"gopkg.in/yaml.v3"
)

// DefaultName is the profile used when none is named
const DefaultName = "default"

// Store is a map from profile name to Profile
type Store map[string]*Profile

// Cert holds the certificate material of a backend
type Cert struct {
	// base64 encoded PEM CA certificate
	CA string `yaml:"ca,omitempty"`
}

// Profile names an OpenBACH backend endpoint
type Profile struct {
	ApiRoot string `yaml:"apiRoot"`
	Cert    Cert   `yaml:"cert,omitempty"`
}

func verifyURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func decodePEM(b64cert string) ([]byte, bool) {
	bin, err := base64.StdEncoding.DecodeString(b64cert)
	if err != nil {
		return nil, false
	}
	blk, _ := pem.Decode(bin)
	return bin, blk != nil
}

// Verify rejects a profile whose apiRoot is not an absolute URL or whose
// CA is not PEM
func (p *Profile) Verify() error {
	if !verifyURL(p.ApiRoot) {
		return errors.NotValidf("profile: apiRoot %q is not an absolute URL", p.ApiRoot)
	}
	if p.Cert.CA != "" {
		if _, ok := decodePEM(p.Cert.CA); !ok {
			return errors.NotValidf("profile: cert.ca is not PEM")
		}
	}
	return nil
}

// CertPool returns the pool trusting the profile CA, or nil when the
// profile has none
func (p *Profile) CertPool() (*x509.CertPool, error) {
	if p.Cert.CA == "" {
		return nil, nil
	}
	bin, ok := decodePEM(p.Cert.CA)
	if !ok {
		return nil, errors.NotValidf("profile: cert.ca is not PEM")
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(bin) {
		return nil, errors.NotValidf("profile: cert.ca holds no certificate")
	}
	return pool, nil
}

// DefaultPath is profiles.yaml in the user configuration directory
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "obconsole", "profiles.yaml")
}

// Load reads a profile store. A missing file is a NotFound error.
func Load(path string) (Store, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("profile store at %s", path)
		}
		return nil, errors.Annotatef(err, "cannot read profile store %s", path)
	}
	return Unmarshal(buf)
}

// Unmarshal decodes a profile store from YAML
func Unmarshal(buf []byte) (Store, error) {
	store := Store{}
	if err := yaml.Unmarshal(buf, &store); err != nil {
		return nil, errors.NotValidf("profile store (%v)", err)
	}
	return store, nil
}

// Get returns a verified profile
func (s Store) Get(name string) (*Profile, error) {
	p, ok := s[name]
	if !ok || p == nil {
		return nil, errors.NotFoundf("profile %q", name)
	}
	if err := p.Verify(); err != nil {
		return nil, errors.Annotatef(err, "profile %q", name)
	}
	return p, nil
}

// Save writes the store with owner-only permissions. The previous content is
// replaced atomically.
func (s Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.FileMode(0700)); err != nil {
		return errors.Annotatef(err, "cannot create %s", filepath.Dir(path))
	}

	buf, err := yaml.Marshal(s)
	if err != nil {
		return errors.Trace(err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".profiles-*.yaml")
	if err != nil {
		return errors.Annotate(err, "cannot create profile store")
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Trace(err)
	}
	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return errors.Annotate(err, "cannot write profile store")
	}
	if err := tmp.Close(); err != nil {
		return errors.Trace(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Annotatef(err, "cannot update profile store %s", path)
	}
	return nil
}

// Resolve picks the profile to talk to. A non-empty apiRoot wins over the
// store, and a missing store is tolerated in that case.
func Resolve(path, name, apiRoot string) (*Profile, error) {
	if name == "" {
		name = DefaultName
	}

	store, err := Load(path)
	switch {
	case err == nil:
	case errors.Is(err, errors.NotFound) && apiRoot != "":
		store = Store{}
	default:
		return nil, errors.Trace(err)
	}

	if apiRoot == "" {
		return store.Get(name)
	}

	p := &Profile{ApiRoot: apiRoot}
	if stored, ok := store[name]; ok && stored != nil {
		p.Cert = stored.Cert
	}
	if err := p.Verify(); err != nil {
		return nil, errors.Trace(err)
	}
	return p, nil
}
