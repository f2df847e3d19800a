package service

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/datingapp/dating-api/internal/core/domain"
)

// argon2id parameters. Changing them invalidates every stored credential.
const (
	saltLen      = 16
	keyLen       = 64
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// HashPassword derives a credential from password using a fresh random salt.
func HashPassword(password string) (domain.Credential, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return domain.Credential{}, fmt.Errorf("generate salt: %w", err)
	}
	return domain.Credential{Hash: derive(password, salt), Salt: salt}, nil
}

// VerifyPassword recomputes the hash with the stored salt and compares it in
// constant time.
func VerifyPassword(password string, cred domain.Credential) bool {
	if len(cred.Hash) == 0 || len(cred.Salt) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(derive(password, cred.Salt), cred.Hash) == 1
}

func derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, keyLen)
}

// dummySalt is fixed so building the dummy credential cannot fail.
var dummySalt = []byte("dating-api-dummy")

// dummyCredential matches no password but costs a full derivation to check.
func dummyCredential() domain.Credential {
	return domain.Credential{Hash: derive("not-a-real-password", dummySalt), Salt: dummySalt}
}
