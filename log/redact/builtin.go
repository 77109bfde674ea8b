package redact

// 内置规则：私钥标量、共享密钥、明文等字段，以及 64 位以上的十六进制串
var (
	PrivateKeyRule   = MustFieldRule("private_key", "private_key", Mask)
	ScalarRule       = MustFieldRule("scalar", "scalar", Mask)
	SharedSecretRule = MustFieldRule("shared_secret", "shared_secret", Mask)
	PlaintextRule    = MustFieldRule("plaintext", "plaintext", Mask)
	PasswordRule     = MustFieldRule("password", "password", "******")

	// HexKeyRule 32 字节及以上的裸十六进制串，例如 Hex() 输出的私钥
	HexKeyRule = MustPatternRule("hex_key", `\b(?:0[xX])?[0-9a-fA-F]{64,}\b`, Mask)
)

// BuiltinRules 返回所有内置规则
func BuiltinRules() []Rule {
	return []Rule{
		PrivateKeyRule,
		ScalarRule,
		SharedSecretRule,
		PlaintextRule,
		PasswordRule,
		HexKeyRule,
	}
}
