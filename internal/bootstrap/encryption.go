package bootstrap

import (
	"log/slog"

	"github.com/danxi/authgate/internal/data/cryptoutil"
)

// CreateEncryptor builds the AES-GCM encryptor for stored user secrets. An empty or unusable
// key falls back to the noop encryptor with a warning.
//
//nolint:ireturn // callers depend on the Encryptor abstraction
func CreateEncryptor(key string, logger *slog.Logger) cryptoutil.Encryptor {
	if logger == nil {
		logger = slog.Default()
	}
	if key == "" {
		logger.Warn("SECRETS_ENCRYPTION_KEY is empty; user secrets are stored unsealed")
		return cryptoutil.NoopEncryptor{}
	}
	material, err := cryptoutil.DeriveKey(key)
	if err != nil {
		logger.Warn("invalid encryption key; user secrets are stored unsealed", "error", err)
		return cryptoutil.NoopEncryptor{}
	}
	enc, err := cryptoutil.NewAESGCMEncryptor(material)
	if err != nil {
		logger.Warn("failed to create encryptor; user secrets are stored unsealed", "error", err)
		return cryptoutil.NoopEncryptor{}
	}
	return enc
}
