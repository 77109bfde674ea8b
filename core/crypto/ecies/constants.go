package ecies

// Symmetric layer
const (
	// AESKeySize is the derived AES-256 key size
	AESKeySize = 32

	// AESGCMNonceSize is the 96-bit GCM nonce carried in the envelope as iv
	AESGCMNonceSize = 12

	// AESGCMTagSize is the tag GCM appends to the ciphertext
	AESGCMTagSize = 16

	// KDFInfo is the HKDF context label
	KDFInfo = "ECIES-AES-256-GCM"

	// KDFSaltSize is the length of the all-zero HKDF salt
	KDFSaltSize = 32
)

// ScalarEntropyBytes is how many random bytes feed one private scalar.
const ScalarEntropyBytes = 32

// Envelope encodings
const (
	// CompactSeparator joins the four compact envelope fields
	CompactSeparator = "|"

	// FileEnvelopeVersion tags the JSON file container
	FileEnvelopeVersion = "ecies-file-v1"

	// DefaultMimeType is used when a file carries no type
	DefaultMimeType = "application/octet-stream"

	// EncryptedFileSuffix is appended to the original file name
	EncryptedFileSuffix = ".enc.json"

	// DefaultDecryptedFilename names recovered files that carried no name
	DefaultDecryptedFilename = "decrypted.bin"
)

// PEM block types of the key files
const (
	PEMPrivateKeyType = "ECIES PRIVATE KEY"
	PEMPublicKeyType  = "ECIES PUBLIC KEY"
)
