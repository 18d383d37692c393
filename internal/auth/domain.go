package auth

// AccountAuthorities is the shape consumed by the external
// credential-verification layer. Authorities is the flattened effective
// authority set: role names plus the permission names owned by those roles,
// deduplicated.
type AccountAuthorities struct {
	Username     string
	PasswordHash string
	Enabled      bool
	Authorities  []string
}
