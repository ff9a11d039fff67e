package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"log"
	"os"

	"github.com/spf13/afero"
)

// Initialize populates dir with everything a fresh installation needs: the
// default configuration, the log directory, an empty disk with the system
// and bin directories, and a console host key. Existing files are left
// alone so it is safe to re-run.
func Initialize(dir string, logger *log.Logger) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	fs := afero.NewBasePathFs(afero.NewOsFs(), dir)

	if err := initConfigFile(fs, logger); err != nil {
		return err
	}

	cfg, err := loadFs(fs)
	if err != nil {
		return err
	}

	for _, sub := range []string{
		LogsDirName,
		DiskDirName,
		DiskDirName + cfg.Disk.MosletDir,
		DiskDirName + cfg.Disk.BinDir,
	} {
		logger.Printf("Creating directory: %s", sub)
		if err := fs.MkdirAll(sub, 0700); err != nil {
			return err
		}
	}

	return initHostKey(fs, logger)
}

func initConfigFile(fs afero.Fs, logger *log.Logger) error {
	if exists, _ := afero.Exists(fs, ConfigurationName); exists {
		logger.Printf("Found existing: %s", ConfigurationName)
		return nil
	}
	logger.Printf("Creating default: %s", ConfigurationName)
	return afero.WriteFile(fs, ConfigurationName, defaultConfigData, 0600)
}

func initHostKey(fs afero.Fs, logger *log.Logger) error {
	if exists, _ := afero.Exists(fs, PrivateKeyName); exists {
		logger.Printf("Found existing: %s", PrivateKeyName)
		return nil
	}
	logger.Printf("Generating host key: %s", PrivateKeyName)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return err
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return afero.WriteFile(fs, PrivateKeyName, pemBytes, 0600)
}
