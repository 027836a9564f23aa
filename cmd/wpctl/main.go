// wpctl is the operator tool for offline identity and credential work:
// generating keypairs into password-protected keystore files, inspecting
// them, and signing credentials without a running server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"worldpass/internal/keystore"
	"worldpass/internal/vc/credential"
	"worldpass/internal/vc/keys"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "wpctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}
	switch args[0] {
	case "keygen":
		return runKeygen(args[1:])
	case "show":
		return runShow(args[1:])
	case "issue":
		return runIssue(args[1:])
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: wpctl <command> [flags]

commands:
  keygen  generate an Ed25519 identity and write an encrypted keystore file
  show    decrypt a keystore file and print the public identity
  issue   sign a credential offline with a keystore identity

run "wpctl <command> --help" for command flags
`)
}

func runKeygen(args []string) error {
	flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	outDir := flags.String("out-dir", "data/keystore", "directory for the keystore file")
	kdf := flags.String("kdf", keystore.KDFPBKDF2, "key derivation function (argon2id or pbkdf2-sha256)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	password, err := readPassword("Keystore password: ")
	if err != nil {
		return err
	}

	kp, err := keys.Generate()
	if err != nil {
		return err
	}
	identity := keystore.NewIdentity(kp)

	blob, err := keystore.Encrypt(password, identity, *kdf)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o700); err != nil {
		return err
	}
	path := filepath.Join(*outDir, strings.ReplaceAll(identity.DID, ":", "_")+".wpkeystore")
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		return err
	}

	fmt.Println("DID:", identity.DID)
	fmt.Println("PublicKey (b64u):", identity.PKb64u)
	fmt.Println("Saved:", path)
	return nil
}

func runShow(args []string) error {
	flags := pflag.NewFlagSet("show", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: wpctl show <keystore_path>")
	}

	identity, err := openKeystore(flags.Arg(0))
	if err != nil {
		return err
	}

	fmt.Println("DID:", identity.DID)
	fmt.Println("PublicKey (b64u):", identity.PKb64u)
	return nil
}

func runIssue(args []string) error {
	flags := pflag.NewFlagSet("issue", pflag.ContinueOnError)
	out := flags.String("out", "vc.json", "output file for the signed credential")
	name := flags.String("name", "", "subject display name")
	subjectDID := flags.String("subject", "", "subject DID")
	credType := flags.String("type", "StudentCard", "credential type appended to VerifiableCredential")
	expires := flags.Duration("expires", 0, "credential lifetime (0 for no expiry)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("usage: wpctl issue <keystore_path> --subject <did> [flags]")
	}
	if *subjectDID == "" {
		return fmt.Errorf("--subject is required")
	}

	identity, err := openKeystore(flags.Arg(0))
	if err != nil {
		return err
	}
	kp, err := identity.Keypair()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	subject := map[string]any{"id": *subjectDID}
	if *name != "" {
		subject["name"] = *name
	}
	body := credential.Credential{
		"@context":          []any{"https://www.w3.org/2018/credentials/v1"},
		"type":              []any{"VerifiableCredential", *credType},
		"issuer":            identity.DID,
		"issuanceDate":      now.Format("2006-01-02T15:04:05Z"),
		"jti":               "vc-" + uuid.NewString(),
		"expirationDate":    nil,
		"credentialSubject": subject,
	}
	if *expires > 0 {
		body["expirationDate"] = now.Add(*expires).Format("2006-01-02T15:04:05Z")
	}

	signed, err := credential.Sign(body, kp, identity.DID+"#key-1", now)
	if err != nil {
		return err
	}

	raw, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		return err
	}
	raw = append(raw, '\n')
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		return err
	}

	fmt.Println("Wrote VC:", *out)
	return nil
}

func openKeystore(path string) (keystore.Identity, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return keystore.Identity{}, err
	}
	password, err := readPassword("Keystore password: ")
	if err != nil {
		return keystore.Identity{}, err
	}
	return keystore.Decrypt(password, blob)
}

// readPassword prompts on the terminal, falling back to the
// WORLDPASS_KEYSTORE_PASSWORD variable for scripted use.
func readPassword(prompt string) (string, error) {
	if env := os.Getenv("WORLDPASS_KEYSTORE_PASSWORD"); env != "" {
		return env, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty password")
	}
	return string(raw), nil
}
