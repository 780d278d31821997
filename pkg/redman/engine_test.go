package redman_test

import (
	"encoding/base64"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/idelchi/redman/pkg/redman"
)

// seeded returns a deterministic random stream.
func seeded(seed byte) io.Reader {
	return rand.NewChaCha8([32]byte{seed})
}

// newEngine returns an initialized engine for the named algorithm.
func newEngine(t *testing.T, name string, opts ...redman.Option) *redman.Cipher {
	t.Helper()

	engine, err := redman.New(name, opts...)
	if err != nil {
		t.Fatalf("New(%q) error: %v", name, err)
	}

	key, err := engine.CreateKey()
	if err != nil {
		t.Fatalf("CreateKey() error: %v", err)
	}

	if err := engine.InitializeEncryption(key); err != nil {
		t.Fatalf("InitializeEncryption() error: %v", err)
	}

	return engine
}

// forEachAlgorithm runs fn as a parallel subtest for every registered algorithm.
func forEachAlgorithm(t *testing.T, fn func(t *testing.T, name string)) {
	t.Helper()

	for _, name := range redman.Algorithms() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fn(t, name)
		})
	}
}

func TestAlgorithms(t *testing.T) {
	t.Parallel()

	want := []string{
		"RES-AES256-CTR-HMAC-SHA256",
		"RES-AES256-SIV",
		"RES-XCHACHA20-POLY1305",
	}

	if got := redman.Algorithms(); !slices.Equal(got, want) {
		t.Fatalf("Algorithms() = %v, want %v", got, want)
	}

	for _, name := range want {
		engine, err := redman.New(name)
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}

		if engine.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, engine.Name())
		}
	}

	if _, err := redman.New("RES-ROT13"); !errors.Is(err, redman.ErrUnknownAlgorithm) {
		t.Errorf("New(unknown) = %v, want %v", err, redman.ErrUnknownAlgorithm)
	}

	constructors := map[string]func(...redman.Option) *redman.Cipher{
		"RES-AES256-CTR-HMAC-SHA256": redman.NewCTRHMAC,
		"RES-AES256-SIV":             redman.NewSIV,
		"RES-XCHACHA20-POLY1305":     redman.NewXChaCha,
	}

	for name, constructor := range constructors {
		if got := constructor().Name(); got != name {
			t.Errorf("constructor for %q returned engine named %q", name, got)
		}
	}

	if redman.DefaultAlgorithm != "RES-AES256-CTR-HMAC-SHA256" {
		t.Errorf("DefaultAlgorithm = %q", redman.DefaultAlgorithm)
	}
}

func TestHello(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		ciphertext, err := engine.Encrypt("hello")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		if ciphertext == "hello" || len(ciphertext) < len("hello") {
			t.Fatalf("Encrypt(%q) = %q", "hello", ciphertext)
		}

		plaintext, err := engine.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt() error: %v", err)
		}

		if plaintext != "hello" {
			t.Fatalf("Decrypt() = %q, want %q", plaintext, "hello")
		}
	})
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	messages := []string{
		"",
		"a",
		"hello",
		"exactly sixteen!",
		"ünïcödé ✓ 日本語",
		"\x00\xff\xfe invalid utf-8",
		strings.Repeat("redman", 4096),
	}

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		for _, message := range messages {
			ciphertext, err := engine.Encrypt(message)
			if err != nil {
				t.Fatalf("Encrypt() error: %v", err)
			}

			plaintext, err := engine.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt() error: %v", err)
			}

			if plaintext != message {
				t.Errorf("round trip of %d-byte message returned %d bytes", len(message), len(plaintext))
			}
		}
	})
}

func TestCreateKeyLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine, err := redman.New(name)
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		first, err := engine.CreateKey()
		if err != nil {
			t.Fatalf("CreateKey() error: %v", err)
		}

		if engine.Initialized() {
			t.Fatal("CreateKey() initialized the engine")
		}

		second, err := engine.CreateKey()
		if err != nil {
			t.Fatalf("CreateKey() error: %v", err)
		}

		if first == second {
			t.Fatal("CreateKey() returned the same key twice")
		}
	})
}

func TestTamperDetection(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		ciphertext, err := engine.Encrypt("attack at dawn")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
		if err != nil {
			t.Fatalf("decoding ciphertext: %v", err)
		}

		for i := range raw {
			tampered := slices.Clone(raw)
			tampered[i] ^= 0x01

			plaintext, err := engine.Decrypt(base64.RawURLEncoding.EncodeToString(tampered))
			if !errors.Is(err, redman.ErrIntegrity) {
				t.Fatalf("Decrypt() with byte %d flipped = %v, want %v", i, err, redman.ErrIntegrity)
			}

			if plaintext != "" {
				t.Fatalf("Decrypt() with byte %d flipped returned plaintext %q", i, plaintext)
			}
		}
	})
}

// base64URLAlphabet is the alphabet of messages and transport strings.
const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// replaceLast returns every variant of s with its final character swapped.
func replaceLast(s string) []string {
	last := s[len(s)-1]
	variants := make([]string, 0, len(base64URLAlphabet)-1)

	for i := range len(base64URLAlphabet) {
		if base64URLAlphabet[i] != last {
			variants = append(variants, s[:len(s)-1]+string(base64URLAlphabet[i]))
		}
	}

	return variants
}

func TestEncodedTamperDetection(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		// lengths cover every remainder of the decoded size modulo 3
		for _, plaintext := range []string{"hello", "hello!", "hello!!"} {
			ciphertext, err := engine.Encrypt(plaintext)
			if err != nil {
				t.Fatalf("Encrypt() error: %v", err)
			}

			for _, altered := range replaceLast(ciphertext) {
				if got, err := engine.Decrypt(altered); err == nil {
					t.Fatalf("Decrypt(%q) with last character altered = %q, want error", altered, got)
				}
			}
		}
	})
}

func TestKeyStringLastCharacter(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		key, err := engine.CreateKey()
		if err != nil {
			t.Fatalf("CreateKey() error: %v", err)
		}

		if err := engine.InitializeEncryption(key); err != nil {
			t.Fatalf("InitializeEncryption() error: %v", err)
		}

		want, err := engine.ToKey()
		if err != nil {
			t.Fatalf("ToKey() error: %v", err)
		}

		for _, altered := range replaceLast(key) {
			other, err := redman.FromKeyString(altered)
			if err != nil {
				continue
			}

			got, err := other.ToKey()
			if err != nil {
				t.Fatalf("ToKey() error: %v", err)
			}

			if got[redman.ComponentIV] == want[redman.ComponentIV] {
				t.Fatalf("FromKeyString(%q) accepted an altered key as the original", altered)
			}
		}
	})
}

func TestMalformedCiphertext(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		ciphertext, err := engine.Encrypt("hello")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
		if err != nil {
			t.Fatalf("decoding ciphertext: %v", err)
		}

		cases := map[string]string{
			"empty":      "",
			"not base64": "***",
			"padded":     ciphertext + "==",
			"truncated":  base64.RawURLEncoding.EncodeToString(raw[:10]),
		}

		for desc, input := range cases {
			if _, err := engine.Decrypt(input); !errors.Is(err, redman.ErrMalformedCiphertext) {
				t.Errorf("Decrypt(%s) = %v, want %v", desc, err, redman.ErrMalformedCiphertext)
			}
		}
	})
}

func TestKeyIsolation(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		sender := newEngine(t, name)
		receiver := newEngine(t, name)

		ciphertext, err := sender.Encrypt("for your eyes only")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		plaintext, err := receiver.Decrypt(ciphertext)
		if !errors.Is(err, redman.ErrIntegrity) {
			t.Fatalf("Decrypt() under another key = %v, want %v", err, redman.ErrIntegrity)
		}

		if plaintext == "for your eyes only" {
			t.Fatal("Decrypt() under another key returned the original plaintext")
		}
	})
}

func TestCrossAlgorithm(t *testing.T) {
	t.Parallel()

	ctr := newEngine(t, "RES-AES256-CTR-HMAC-SHA256")
	xchacha := newEngine(t, "RES-XCHACHA20-POLY1305")

	ciphertext, err := ctr.Encrypt("hello")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	if _, err := xchacha.Decrypt(ciphertext); !errors.Is(err, redman.ErrIntegrity) {
		t.Fatalf("Decrypt() of another algorithm's message = %v, want %v", err, redman.ErrIntegrity)
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	t.Parallel()

	for _, file := range []string{"key.res", "key.json"} {
		t.Run(file, func(t *testing.T) {
			t.Parallel()

			forEachAlgorithm(t, func(t *testing.T, name string) {
				t.Helper()

				generator, err := redman.New(name)
				if err != nil {
					t.Fatalf("New() error: %v", err)
				}

				key, err := generator.CreateKey()
				if err != nil {
					t.Fatalf("CreateKey() error: %v", err)
				}

				original, err := redman.New(name, redman.WithRandom(seeded(7)))
				if err != nil {
					t.Fatalf("New() error: %v", err)
				}

				if err := original.InitializeEncryption(key); err != nil {
					t.Fatalf("InitializeEncryption() error: %v", err)
				}

				components, err := original.ToKey()
				if err != nil {
					t.Fatalf("ToKey() error: %v", err)
				}

				fromMapping, err := redman.New(name, redman.WithRandom(seeded(7)))
				if err != nil {
					t.Fatalf("New() error: %v", err)
				}

				if err := fromMapping.SetKey(components); err != nil {
					t.Fatalf("SetKey() error: %v", err)
				}

				path := filepath.Join(t.TempDir(), file)
				if err := fromMapping.SaveKey(path); err != nil {
					t.Fatalf("SaveKey() error: %v", err)
				}

				fromFile, err := redman.New(name, redman.WithRandom(seeded(7)))
				if err != nil {
					t.Fatalf("New() error: %v", err)
				}

				if err := fromFile.LoadKey(path); err != nil {
					t.Fatalf("LoadKey() error: %v", err)
				}

				var ciphertexts []string

				for _, engine := range []*redman.Cipher{original, fromMapping, fromFile} {
					ciphertext, err := engine.Encrypt("same plaintext, same nonce")
					if err != nil {
						t.Fatalf("Encrypt() error: %v", err)
					}

					ciphertexts = append(ciphertexts, ciphertext)
				}

				if ciphertexts[0] != ciphertexts[1] || ciphertexts[0] != ciphertexts[2] {
					t.Fatalf("ciphertexts differ after serialization:\n%s", strings.Join(ciphertexts, "\n"))
				}
			})
		})
	}
}

func TestKeyFileContents(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, "RES-AES256-CTR-HMAC-SHA256")
	path := filepath.Join(t.TempDir(), "key.res")

	if err := engine.SaveKey(path); err != nil {
		t.Fatalf("SaveKey() error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat key file: %v", err)
	}

	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("key file permissions = %o, want 600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading key file: %v", err)
	}

	components, err := engine.ToKey()
	if err != nil {
		t.Fatalf("ToKey() error: %v", err)
	}

	want := "# redman key file\n" +
		"algorithm=RES-AES256-CTR-HMAC-SHA256\n" +
		"cipherKey=" + components["cipherKey"] + "\n" +
		"iv=" + components["iv"] + "\n"

	if string(data) != want {
		t.Errorf("key file contents =\n%s\nwant\n%s", data, want)
	}
}

func TestToKey(t *testing.T) {
	t.Parallel()

	sizes := map[string]int{
		"RES-AES256-CTR-HMAC-SHA256": 32,
		"RES-AES256-SIV":             64,
		"RES-XCHACHA20-POLY1305":     32,
	}

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		components, err := newEngine(t, name).ToKey()
		if err != nil {
			t.Fatalf("ToKey() error: %v", err)
		}

		if len(components) != 2 {
			t.Fatalf("ToKey() returned %d components, want 2", len(components))
		}

		wantSizes := map[string]int{redman.ComponentCipherKey: sizes[name], redman.ComponentIV: redman.IVSize}

		for comp, size := range wantSizes {
			value, ok := components[comp]
			if !ok {
				t.Fatalf("ToKey() missing component %q", comp)
			}

			decoded, err := base64.StdEncoding.DecodeString(value)
			if err != nil {
				t.Fatalf("component %q is not base64: %v", comp, err)
			}

			if len(decoded) != size {
				t.Errorf("component %q is %d bytes, want %d", comp, len(decoded), size)
			}
		}
	})
}

func TestSetKeyMalformed(t *testing.T) {
	t.Parallel()

	components, err := newEngine(t, "RES-AES256-CTR-HMAC-SHA256").ToKey()
	if err != nil {
		t.Fatalf("ToKey() error: %v", err)
	}

	cases := map[string]map[string]string{
		"empty":       {},
		"missing iv":  {"cipherKey": components["cipherKey"]},
		"extra":       {"cipherKey": components["cipherKey"], "iv": components["iv"], "salt": components["iv"]},
		"bad base64":  {"cipherKey": "***", "iv": components["iv"]},
		"swapped":     {"cipherKey": components["iv"], "iv": components["cipherKey"]},
		"url base64":  {"cipherKey": strings.TrimRight(components["cipherKey"], "="), "iv": components["iv"]},
		"nil mapping": nil,
	}

	for desc, mapping := range cases {
		engine := redman.NewCTRHMAC()

		if err := engine.SetKey(mapping); !errors.Is(err, redman.ErrMalformedKey) {
			t.Errorf("SetKey(%s) = %v, want %v", desc, err, redman.ErrMalformedKey)
		}

		if engine.Initialized() {
			t.Errorf("SetKey(%s) initialized the engine", desc)
		}
	}
}

func TestUninitialized(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine, err := redman.New(name)
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		if _, err := engine.Encrypt("hello"); !errors.Is(err, redman.ErrUninitialized) {
			t.Errorf("Encrypt() = %v, want %v", err, redman.ErrUninitialized)
		}

		if _, err := engine.Decrypt("UkRNTgEB"); !errors.Is(err, redman.ErrUninitialized) {
			t.Errorf("Decrypt() = %v, want %v", err, redman.ErrUninitialized)
		}

		if _, err := engine.ToKey(); !errors.Is(err, redman.ErrUninitialized) {
			t.Errorf("ToKey() = %v, want %v", err, redman.ErrUninitialized)
		}

		if err := engine.SaveKey(filepath.Join(t.TempDir(), "key.res")); !errors.Is(err, redman.ErrUninitialized) {
			t.Errorf("SaveKey() = %v, want %v", err, redman.ErrUninitialized)
		}
	})
}

func TestReinitialize(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		before, err := engine.Encrypt("hello")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		key, err := engine.CreateKey()
		if err != nil {
			t.Fatalf("CreateKey() error: %v", err)
		}

		if err := engine.InitializeEncryption(key); err != nil {
			t.Fatalf("InitializeEncryption() error: %v", err)
		}

		if _, err := engine.Decrypt(before); !errors.Is(err, redman.ErrIntegrity) {
			t.Fatalf("Decrypt() under replaced key = %v, want %v", err, redman.ErrIntegrity)
		}

		if err := engine.InitializeEncryption("garbage"); !errors.Is(err, redman.ErrMalformedKey) {
			t.Fatalf("InitializeEncryption(garbage) = %v, want %v", err, redman.ErrMalformedKey)
		}

		after, err := engine.Encrypt("still works")
		if err != nil {
			t.Fatalf("Encrypt() after failed re-initialization error: %v", err)
		}

		if got, err := engine.Decrypt(after); err != nil || got != "still works" {
			t.Fatalf("Decrypt() = %q, %v", got, err)
		}
	})
}

func TestInitializeWrongAlgorithm(t *testing.T) {
	t.Parallel()

	key, err := redman.NewSIV().CreateKey()
	if err != nil {
		t.Fatalf("CreateKey() error: %v", err)
	}

	if err := redman.NewXChaCha().InitializeEncryption(key); !errors.Is(err, redman.ErrMalformedKey) {
		t.Fatalf("InitializeEncryption() with SIV key = %v, want %v", err, redman.ErrMalformedKey)
	}
}

func TestNonceHandling(t *testing.T) {
	t.Parallel()

	deterministic := map[string]bool{
		"RES-AES256-CTR-HMAC-SHA256": false,
		"RES-AES256-SIV":             true,
		"RES-XCHACHA20-POLY1305":     false,
	}

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		first, err := engine.Encrypt("repeat")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		second, err := engine.Encrypt("repeat")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		if got := first == second; got != deterministic[name] {
			t.Fatalf("identical ciphertexts = %v, want %v", got, deterministic[name])
		}
	})
}

func TestRandomSourceFailure(t *testing.T) {
	t.Parallel()

	broken := redman.WithRandom(iotest.ErrReader(errors.New("entropy exhausted")))

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine, err := redman.New(name, broken)
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		if _, err := engine.CreateKey(); !errors.Is(err, redman.ErrRandomSource) {
			t.Fatalf("CreateKey() = %v, want %v", err, redman.ErrRandomSource)
		}

		components, err := newEngine(t, name).ToKey()
		if err != nil {
			t.Fatalf("ToKey() error: %v", err)
		}

		if err := engine.SetKey(components); err != nil {
			t.Fatalf("SetKey() error: %v", err)
		}

		_, err = engine.Encrypt("hello")

		if name == "RES-AES256-SIV" {
			if err != nil {
				t.Fatalf("Encrypt() without nonce = %v, want success", err)
			}

			return
		}

		if !errors.Is(err, redman.ErrRandomSource) {
			t.Fatalf("Encrypt() = %v, want %v", err, redman.ErrRandomSource)
		}
	})
}

func TestFromKey(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)

		key, err := engine.CreateKey()
		if err != nil {
			t.Fatalf("CreateKey() error: %v", err)
		}

		fromString, err := redman.FromKeyString(key)
		if err != nil {
			t.Fatalf("FromKeyString() error: %v", err)
		}

		if fromString.Name() != name {
			t.Fatalf("FromKeyString().Name() = %q, want %q", fromString.Name(), name)
		}

		path := filepath.Join(t.TempDir(), "key.res")
		if err := fromString.SaveKey(path); err != nil {
			t.Fatalf("SaveKey() error: %v", err)
		}

		fromFile, err := redman.FromKeyFile(path)
		if err != nil {
			t.Fatalf("FromKeyFile() error: %v", err)
		}

		ciphertext, err := fromString.Encrypt("hello")
		if err != nil {
			t.Fatalf("Encrypt() error: %v", err)
		}

		if got, err := fromFile.Decrypt(ciphertext); err != nil || got != "hello" {
			t.Fatalf("Decrypt() = %q, %v", got, err)
		}
	})

	if _, err := redman.FromKeyString("garbage"); !errors.Is(err, redman.ErrMalformedKey) {
		t.Errorf("FromKeyString(garbage) = %v, want %v", err, redman.ErrMalformedKey)
	}

	unknown := "UkRNSwEJUkVTLVJPVDEzAgljaXBoZXJLZXkAIAABAgMEBQYHCAkKCwwNDg8QERITFBUWFxgZGhscHR4fAml2ABBkZWZnaGlqa2xtbm9wcXJz"

	_, err := redman.FromKeyString(unknown)
	if !errors.Is(err, redman.ErrMalformedKey) || !errors.Is(err, redman.ErrUnknownAlgorithm) {
		t.Errorf("FromKeyString(unknown algorithm) = %v, want %v and %v", err, redman.ErrMalformedKey, redman.ErrUnknownAlgorithm)
	}
}

func TestLoadKeyFileErrors(t *testing.T) {
	t.Parallel()

	engine := redman.NewCTRHMAC()

	missing := filepath.Join(t.TempDir(), "missing.res")
	if err := engine.LoadKey(missing); !errors.Is(err, redman.ErrKeyFileNotFound) {
		t.Errorf("LoadKey(missing) = %v, want %v", err, redman.ErrKeyFileNotFound)
	}

	if _, err := redman.FromKeyFile(missing); !errors.Is(err, redman.ErrKeyFileNotFound) {
		t.Errorf("FromKeyFile(missing) = %v, want %v", err, redman.ErrKeyFileNotFound)
	}

	if err := engine.LoadKey(t.TempDir()); !errors.Is(err, redman.ErrMalformedKeyFile) {
		t.Errorf("LoadKey(directory) = %v, want %v", err, redman.ErrMalformedKeyFile)
	}

	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	source := newEngine(t, "RES-AES256-CTR-HMAC-SHA256")
	locked := filepath.Join(t.TempDir(), "locked.res")

	if err := source.SaveKey(locked); err != nil {
		t.Fatalf("SaveKey() error: %v", err)
	}

	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if err := engine.LoadKey(locked); !errors.Is(err, redman.ErrKeyFilePermission) {
		t.Errorf("LoadKey(unreadable) = %v, want %v", err, redman.ErrKeyFilePermission)
	}

	readOnly := t.TempDir()
	if err := os.Chmod(readOnly, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	t.Cleanup(func() { _ = os.Chmod(readOnly, 0o700) })

	if err := source.SaveKey(filepath.Join(readOnly, "key.res")); !errors.Is(err, redman.ErrKeyFilePermission) {
		t.Errorf("SaveKey(read-only dir) = %v, want %v", err, redman.ErrKeyFilePermission)
	}
}

func TestStringRedactsKey(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, "RES-AES256-CTR-HMAC-SHA256")

	components, err := engine.ToKey()
	if err != nil {
		t.Fatalf("ToKey() error: %v", err)
	}

	for _, format := range []string{engine.String(), engine.GoString()} {
		if !strings.Contains(format, "REDACTED") {
			t.Errorf("String() = %q, want REDACTED marker", format)
		}

		for _, value := range components {
			if strings.Contains(format, value) {
				t.Errorf("String() leaks key material: %q", format)
			}
		}
	}

	var nilCipher *redman.Cipher
	if nilCipher.String() != "<nil>" {
		t.Errorf("nil String() = %q", nilCipher.String())
	}
}

func TestConcurrentUse(t *testing.T) {
	t.Parallel()

	forEachAlgorithm(t, func(t *testing.T, name string) {
		t.Helper()

		engine := newEngine(t, name)
		errs := make(chan error, 16)

		for range cap(errs) {
			go func() {
				ciphertext, err := engine.Encrypt("shared engine")
				if err == nil {
					_, err = engine.Decrypt(ciphertext)
				}

				errs <- err
			}()
		}

		for range cap(errs) {
			if err := <-errs; err != nil {
				t.Errorf("concurrent use error: %v", err)
			}
		}
	})
}

func TestCreateKeyFrom(t *testing.T) {
	t.Parallel()

	engine := redman.NewCTRHMAC()
	cipherKey := make([]byte, 32)

	for i := range cipherKey {
		cipherKey[i] = byte(i)
	}

	key, err := engine.CreateKeyFrom(cipherKey)
	if err != nil {
		t.Fatalf("CreateKeyFrom() error: %v", err)
	}

	if err := engine.InitializeEncryption(key); err != nil {
		t.Fatalf("InitializeEncryption() error: %v", err)
	}

	components, err := engine.ToKey()
	if err != nil {
		t.Fatalf("ToKey() error: %v", err)
	}

	if got := components[redman.ComponentCipherKey]; got != base64.StdEncoding.EncodeToString(cipherKey) {
		t.Errorf("cipherKey = %q, want the wrapped key", got)
	}

	if _, err := redman.NewSIV().CreateKeyFrom(cipherKey); !errors.Is(err, redman.ErrMalformedKey) {
		t.Errorf("CreateKeyFrom() with 32-byte key for SIV = %v, want %v", err, redman.ErrMalformedKey)
	}
}
