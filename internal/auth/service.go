package auth

import (
	"context"
	"errors"
	"strings"
	"time"
)

// DefaultRefreshTTL is how long a refresh token stays exchangeable. Role or
// permission changes only surface on the next rotation, so this also bounds
// how stale a baked-in role claim can get.
const DefaultRefreshTTL = 14 * 24 * time.Hour

// Service orchestrates login, refresh and logout, combining the credential
// store, the token signer and the refresh token registry.
type Service struct {
	users    UserStore
	roles    RoleStore
	signer   *Signer
	registry Registry

	refreshTTL time.Duration
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
		return nil
	}
}

// WithRoleStore enables permission resolution for authenticated principals.
func WithRoleStore(roles RoleStore) ServiceOption {
	return func(s *Service) error {
		s.roles = roles
		return nil
	}
}

// WithClock overrides the time source for the service and its signer.
// Useful for expiry tests.
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
			s.signer.withClock(fn)
		}
		return nil
	}
}

// NewService wires the session-issuance protocol together.
func NewService(users UserStore, signer *Signer, registry Registry, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, errors.New("auth: user store is required")
	}
	if signer == nil {
		return nil, errors.New("auth: signer is required")
	}
	if registry == nil {
		return nil, errors.New("auth: refresh token registry is required")
	}
	svc := &Service{
		users:      users,
		signer:     signer,
		registry:   registry,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// EnsureBuiltins seeds the permission catalog.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	if s.roles == nil {
		return nil
	}
	return s.roles.EnsurePermissions(ctx, BuiltinPermissions)
}

// NormalizeUsername lowercases and trims a username; all lookups go through
// the normalized form so matching is case-insensitive.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Login validates credentials and issues a fresh token pair. Unknown
// usernames, wrong passwords and disabled accounts all collapse into
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, Profile, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return TokenPair{}, Profile{}, ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Profile{}, ErrInvalidCredentials
		}
		return TokenPair{}, Profile{}, err
	}
	if user.Status != UserStatusActive {
		return TokenPair{}, Profile{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return TokenPair{}, Profile{}, ErrInvalidCredentials
	}
	pair, err := s.mintTokens(ctx, user)
	if err != nil {
		return TokenPair{}, Profile{}, err
	}
	return pair, user.Profile(), nil
}

// Refresh rotates a refresh token: the presented token is atomically
// consumed and a brand-new pair minted. The same string never comes back;
// a replay of it fails. A token found past expiry is gone afterwards too.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, Profile, error) {
	rec, err := s.registry.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return TokenPair{}, Profile{}, ErrInvalidToken
		}
		return TokenPair{}, Profile{}, err
	}
	if s.now().After(rec.ExpiresAt) {
		return TokenPair{}, Profile{}, ErrInvalidToken
	}
	user, err := s.users.Find(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Profile{}, ErrUserNotFound
		}
		return TokenPair{}, Profile{}, err
	}
	if user.Status != UserStatusActive {
		return TokenPair{}, Profile{}, ErrInvalidToken
	}
	pair, err := s.mintTokens(ctx, user)
	if err != nil {
		return TokenPair{}, Profile{}, err
	}
	return pair, user.Profile(), nil
}

// Logout revokes the refresh token if it exists. It always succeeds:
// revoking an unknown or garbage token is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	_ = s.registry.Revoke(ctx, refreshToken)
}

func (s *Service) mintTokens(ctx context.Context, user *User) (TokenPair, error) {
	accessToken, accessExp, err := s.signer.Sign(user)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, rec, err := s.registry.Issue(ctx, user.ID, s.now().Add(s.refreshTTL))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rec.ExpiresAt,
	}, nil
}

// AuthenticateToken validates an access token and resolves the principal
// its claims describe, including the role's current permission set.
func (s *Service) AuthenticateToken(ctx context.Context, token string) (Principal, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}
	principal := Principal{
		UserID:         claims.Subject,
		Username:       claims.Username,
		Role:           claims.Role,
		OrganizationID: claims.OrganizationID,
		Permissions:    map[string]struct{}{},
	}
	if s.roles != nil {
		keys, err := s.roles.PermissionsForRole(ctx, claims.Role)
		if err != nil {
			return Principal{}, err
		}
		for _, key := range keys {
			principal.Permissions[key] = struct{}{}
		}
	}
	return principal, nil
}
