package domain

// WalletCredential is a pre-provisioned simulation wallet. Credentials are
// handed out from a shared read-only pool and may be given to several users.
type WalletCredential struct {
	Address string
	Secret  string
}

// Valid reports whether both halves of the credential are present.
func (w WalletCredential) Valid() bool {
	return w.Address != "" && w.Secret != ""
}
