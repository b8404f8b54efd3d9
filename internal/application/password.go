package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Stored credentials are argon2id hashes in the PHC string form
// $argon2id$v=19$m=<KiB>,t=<passes>,p=<threads>$<salt>$<key>.

// ErrMalformedHash is returned for stored hashes that cannot be decoded or
// were produced by another argon2 version.
var ErrMalformedHash = errors.New("application: malformed password hash")

// HashParams sets the argon2id cost of newly stored credentials. Verification
// always uses the cost recorded in the stored hash.
type HashParams struct {
	MemoryKiB uint32
	Passes    uint32
	Threads   uint8
	SaltBytes int
	KeyBytes  uint32
}

// DefaultHashParams is used for consultant accounts created from the CLI.
var DefaultHashParams = HashParams{
	MemoryKiB: 64 * 1024,
	Passes:    3,
	Threads:   2,
	SaltBytes: 16,
	KeyBytes:  32,
}

var hashEncoding = base64.RawStdEncoding

type passwordHash struct {
	params HashParams
	salt   []byte
	key    []byte
}

func derive(password string, salt []byte, p HashParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Passes, p.MemoryKiB, p.Threads, p.KeyBytes)
}

func (h passwordHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.MemoryKiB, h.params.Passes, h.params.Threads,
		hashEncoding.EncodeToString(h.salt), hashEncoding.EncodeToString(h.key))
}

func parsePasswordHash(encoded string) (passwordHash, error) {
	var (
		h       passwordHash
		version int
		err     error
	)
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return h, ErrMalformedHash
	}
	if _, err = fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return h, fmt.Errorf("%w: version: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return h, fmt.Errorf("%w: argon2 version %d", ErrMalformedHash, version)
	}
	if _, err = fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.MemoryKiB, &h.params.Passes, &h.params.Threads); err != nil {
		return h, fmt.Errorf("%w: cost: %v", ErrMalformedHash, err)
	}
	if h.salt, err = hashEncoding.DecodeString(fields[4]); err != nil {
		return h, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	if h.key, err = hashEncoding.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return h, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	h.params.SaltBytes = len(h.salt)
	h.params.KeyBytes = uint32(len(h.key))
	return h, nil
}

// HashPassword returns the encoded hash stored for a new credential.
func HashPassword(password string, params HashParams) (string, error) {
	salt := make([]byte, params.SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	return passwordHash{params: params, salt: salt, key: derive(password, salt, params)}.String(), nil
}

// VerifyPassword returns nil when password matches encoded and
// ErrInvalidCredentials when it does not.
func VerifyPassword(encoded, password string) error {
	h, err := parsePasswordHash(encoded)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(h.key, derive(password, h.salt, h.params)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// decoyHash returns a hash of a random password, computed on first use.
// Logins for unknown usernames are verified against it.
func decoyHash(params HashParams) func() string {
	return sync.OnceValue(func() string {
		secret := make([]byte, 16)
		if _, err := rand.Read(secret); err != nil {
			return ""
		}
		encoded, err := HashPassword(hashEncoding.EncodeToString(secret), params)
		if err != nil {
			return ""
		}
		return encoded
	})
}
