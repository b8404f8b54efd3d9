package application

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type credentialStoreStub struct {
	credentials map[string]UserCredentials
	err         error
	lookups     []string
}

func (s *credentialStoreStub) GetUserCredentials(_ context.Context, username string) (UserCredentials, error) {
	s.lookups = append(s.lookups, username)
	if s.err != nil {
		return UserCredentials{}, s.err
	}
	creds, ok := s.credentials[username]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return creds, nil
}

// plainVerifier treats the stored hash as the password itself.
func plainVerifier(calls *int) PasswordVerifier {
	return func(hashed, password string) error {
		*calls++
		if hashed == password {
			return nil
		}
		return ErrInvalidCredentials
	}
}

func TestCredentialChecker_Check(t *testing.T) {
	t.Parallel()

	t.Run("accepts matching credential", func(t *testing.T) {
		t.Parallel()

		store := &credentialStoreStub{credentials: map[string]UserCredentials{
			"alice": {User: User{ID: "u-1", Username: "alice"}, PasswordHash: "secret"},
		}}
		var calls int
		checker := NewCredentialCheckerWithLogger(store, plainVerifier(&calls), discardLogger())

		user, ok, err := checker.Check(context.Background(), "  alice ", "secret")
		if err != nil || !ok || user.ID != "u-1" {
			t.Fatalf("expected success, got user=%#v ok=%v err=%v", user, ok, err)
		}
		if store.lookups[0] != "alice" {
			t.Fatalf("expected trimmed username lookup, got %q", store.lookups[0])
		}
	})

	t.Run("wrong password and unknown user both verify once", func(t *testing.T) {
		t.Parallel()

		store := &credentialStoreStub{credentials: map[string]UserCredentials{
			"alice": {User: User{ID: "u-1"}, PasswordHash: "secret"},
		}}
		var calls int
		checker := NewCredentialCheckerWithLogger(store, plainVerifier(&calls), discardLogger())
		checker.decoy = func() string { return "decoy" }

		if _, ok, err := checker.Check(context.Background(), "alice", "nope"); ok || err != nil {
			t.Fatalf("expected rejection, got ok=%v err=%v", ok, err)
		}
		if _, ok, err := checker.Check(context.Background(), "mallory", "secret"); ok || err != nil {
			t.Fatalf("expected rejection, got ok=%v err=%v", ok, err)
		}
		if calls != 2 {
			t.Fatalf("expected a verification per attempt, got %d", calls)
		}
	})

	t.Run("blank input skips the store", func(t *testing.T) {
		t.Parallel()

		store := &credentialStoreStub{}
		checker := NewCredentialChecker(store)
		if _, ok, err := checker.Check(context.Background(), " ", "x"); ok || err != nil {
			t.Fatalf("expected rejection, got ok=%v err=%v", ok, err)
		}
		if _, ok, err := checker.Check(context.Background(), "alice", ""); ok || err != nil {
			t.Fatalf("expected rejection, got ok=%v err=%v", ok, err)
		}
		if len(store.lookups) != 0 {
			t.Fatalf("expected no lookups, got %v", store.lookups)
		}
	})

	t.Run("store failures propagate", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("database is locked")
		checker := NewCredentialChecker(&credentialStoreStub{err: boom})
		if _, _, err := checker.Check(context.Background(), "alice", "secret"); !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
	})

	t.Run("unconfigured checker fails", func(t *testing.T) {
		t.Parallel()

		var checker *CredentialChecker
		if _, _, err := checker.Check(context.Background(), "alice", "secret"); err == nil {
			t.Fatalf("expected error for nil checker")
		}
	})
}

var fastHashParams = HashParams{MemoryKiB: 1024, Passes: 1, Threads: 1, SaltBytes: 8, KeyBytes: 16}

func TestPasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse", fastHashParams)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hash)
	}

	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	other, err := HashPassword("correct horse", fastHashParams)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if other == hash {
		t.Fatalf("expected random salt to produce distinct hashes")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	valid, err := HashPassword("pw", fastHashParams)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	fields := strings.Split(valid, "$")

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "plain text", encoded: "pw"},
		{name: "other algorithm", encoded: strings.Replace(valid, "argon2id", "argon2i", 1)},
		{name: "old version", encoded: strings.Replace(valid, "v=19", "v=16", 1)},
		{name: "missing cost", encoded: strings.Join([]string{"", fields[1], fields[2], "m=1024", fields[4], fields[5]}, "$")},
		{name: "bad salt", encoded: strings.Join([]string{"", fields[1], fields[2], fields[3], "!!", fields[5]}, "$")},
		{name: "empty key", encoded: strings.Join([]string{"", fields[1], fields[2], fields[3], fields[4], ""}, "$")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := VerifyPassword(tt.encoded, "pw"); !errors.Is(err, ErrMalformedHash) {
				t.Fatalf("expected ErrMalformedHash, got %v", err)
			}
		})
	}
}

func TestDecoyHash(t *testing.T) {
	t.Parallel()

	decoy := decoyHash(fastHashParams)
	first := decoy()
	if first == "" || decoy() != first {
		t.Fatalf("expected one stable decoy hash, got %q", first)
	}
	if err := VerifyPassword(first, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected decoy to reject guesses, got %v", err)
	}
}
