package domain

import (
	"context"
	"log/slog"
)

// Account is one configured remote account plus the transport-layer
// fingerprint that maps callers onto it.
type Account struct {
	Fingerprint string
	PDS         string
	Identifier  string
	Password    string
}

// Registry holds one session per configured account, keyed by the
// caller fingerprint supplied by the transport layer. After startup it
// is read-only: sessions are never removed or replaced while the
// process runs.
type Registry struct {
	sessions map[string]*Session
}

// NewRegistry authenticates every configured account sequentially. An
// account whose login is rejected is logged with its fingerprint and
// skipped; the other accounts still initialize — each session is
// independent.
func NewRegistry(ctx context.Context, accounts []Account, newClient func(pds string) Client, handles HandleStore, pageSize int, logger *slog.Logger) *Registry {
	sessions := make(map[string]*Session, len(accounts))

	for _, account := range accounts {
		session, err := Authenticate(ctx, newClient(account.PDS), account.Identifier, account.Password, handles, pageSize, logger)
		if err != nil {
			logger.Error("account login failed",
				"fingerprint", account.Fingerprint,
				"identifier", account.Identifier,
				"error", err,
			)
			continue
		}

		sessions[account.Fingerprint] = session
		logger.Info("account session ready", "fingerprint", account.Fingerprint, "identifier", account.Identifier)
	}

	return &Registry{sessions: sessions}
}

// Resolve returns the session for a caller fingerprint. A miss is a
// valid state, not an error: the caller is anonymous and gets the
// read-only, unauthenticated treatment.
func (r *Registry) Resolve(fingerprint string) (*Session, bool) {
	session, ok := r.sessions[fingerprint]
	return session, ok
}

// Len reports how many accounts authenticated successfully.
func (r *Registry) Len() int {
	return len(r.sessions)
}
