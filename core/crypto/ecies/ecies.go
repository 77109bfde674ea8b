// Package ecies implements the Elliptic Curve Integrated Encryption Scheme
// over any curve built by package curve.
//
// This implementation uses:
//   - ephemeral-static Diffie-Hellman on the caller's curve
//   - the x coordinate of the shared point, decimal digits packed two per byte
//   - HKDF-SHA256 with a 32-byte zero salt and info "ECIES-AES-256-GCM"
//   - AES-256-GCM with a 96-bit nonce and no associated data
//
// The curve arithmetic is not constant time and toy curves are accepted, so
// this is a teaching tool rather than a production library.
//
// Example usage:
//
//	c := curve.Secp256k1()
//	engine := ecies.NewEngine()
//
//	bob, err := engine.GenerateKey(c)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer bob.Destroy()
//
//	env, err := engine.EncryptMessage(c, bob.Public().Point(), "hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	wire := env.Compact() // x|y|iv|ciphertext
//
//	parsed, err := ecies.ParseCompact(wire)
//	msg, err := engine.DecryptMessage(c, bob.Scalar(), parsed)
//
// For key persistence:
//
//	key, err := engine.GenerateKeyFiles(c, ecies.WithDirpath("./keys"))
//	priv, err := ecies.LoadPrivateKey("./keys/private.pem")
//	pub, err := ecies.LoadPublicKey("./keys/public.pem")
package ecies
