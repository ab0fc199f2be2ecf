package notify

import (
	"fmt"
	"os"
)

// SecretResolver fetches the value a signing.secret_ref names. Spec §6:
// "Secrets referenced by webhook.signing.secret_ref are fetched from a
// host-provided secret store" — out of scope for this spec to define further,
// so the default implementation resolves refs against the process
// environment, the simplest host-provided store available to a single
// binary deployment.
type SecretResolver interface {
	Resolve(ref string) (string, error)
}

// EnvSecretResolver resolves a secret_ref as an environment variable name.
type EnvSecretResolver struct{}

func (EnvSecretResolver) Resolve(ref string) (string, error) {
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("secret ref %q not found", ref)
	}
	return v, nil
}
