package tools

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	keystoreName  = "apkpatcherkeystore"
	keystoreAlias = "apkpatcheralias1"
	keystorePass  = "password"
)

// SignAndAlign signs the APK with a freshly generated throwaway key and
// runs zipalign over it, mutating the file in place. The keystore never
// outlives the call.
func SignAndAlign(apkPath string, logger *log.Logger) error {
	logger.Info("Generating a random signing key")
	_, err := run(logger, "keytool",
		"-genkey", "-keyalg", "RSA", "-keysize", "2048", "-validity", "700",
		"-noprompt",
		"-alias", keystoreAlias,
		"-dname", "CN=apk.patcher.com, OU=ID, O=APK, L=Patcher, S=Patch, C=BR",
		"-keystore", keystoreName,
		"-storepass", keystorePass,
		"-keypass", keystorePass,
	)
	if err != nil {
		return fmt.Errorf("generating keystore: %w", err)
	}
	defer os.Remove(keystoreName)

	logger.Info("Signing the patched apk", "apk", apkPath)
	_, err = run(logger, "jarsigner",
		"-sigalg", "SHA1withRSA", "-digestalg", "SHA1",
		"-keystore", keystoreName,
		"-storepass", keystorePass,
		apkPath, keystoreAlias,
	)
	if err != nil {
		return fmt.Errorf("signing apk: %w", err)
	}

	logger.Info("Optimizing with zipalign")
	tmpPath := strings.TrimSuffix(apkPath, ".apk") + "_tmp.apk"
	if err := os.Rename(apkPath, tmpPath); err != nil {
		return fmt.Errorf("staging apk for zipalign: %w", err)
	}

	if _, err := run(logger, "zipalign", "4", tmpPath, apkPath); err != nil {
		return fmt.Errorf("aligning apk: %w", err)
	}

	if err := os.Remove(tmpPath); err != nil {
		return fmt.Errorf("removing zipalign staging file: %w", err)
	}

	logger.Debug("The apk was signed and aligned")
	return nil
}
