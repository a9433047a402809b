package config

import "github.com/zalando/go-keyring"

const keyringService = "medoryx"

// SecretSource resolves named credentials that are not present in the
// environment.
type SecretSource interface {
	Get(name string) (string, error)
	Set(name, value string) error
}

// keyringSource stores credentials in the OS keychain.
type keyringSource struct{}

func (keyringSource) Get(name string) (string, error) {
	return keyring.Get(keyringService, name)
}

func (keyringSource) Set(name, value string) error {
	return keyring.Set(keyringService, name, value)
}

func secretName(provider string) string {
	if provider == "openai" {
		return "openai_api_key"
	}
	return "anthropic_api_key"
}

// StoreCredential saves an API key to the OS keyring so later runs can
// start without the environment variable set.
func StoreCredential(provider, value string) error {
	return keyringSource{}.Set(secretName(provider), value)
}

// MaskKey returns a masked version of an API key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
