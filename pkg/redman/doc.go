// Package redman implements the Redman Encryption Standard (RES), a symmetric
// encryption core exposed through the Engine interface.
//
// An engine starts uninitialized. Key material is installed with
// InitializeEncryption (from a string produced by CreateKey), SetKey (from a
// ToKey mapping) or LoadKey (from a key file). Once initialized, Encrypt and
// Decrypt may be called any number of times.
//
// Every algorithm is authenticated:
//   - RES-AES256-CTR-HMAC-SHA256: AES-256-CTR with encrypt-then-MAC, random 16-byte IV per message
//   - RES-AES256-SIV: deterministic AES-SIV through Tink
//   - RES-XCHACHA20-POLY1305: XChaCha20-Poly1305, random 24-byte nonce per message
//
// Key material always consists of a cipherKey and a 16-byte iv that
// diversifies the derived subkeys.
//
// Key files are either line-delimited "name=value" pairs or, for the .json
// and .jsonc extensions, a JSON object:
//
//	# redman key file
//	algorithm=RES-AES256-CTR-HMAC-SHA256
//	cipherKey=<base64>
//	iv=<base64>
package redman
