package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"facilitydesk/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
	clientKeyUnknown      = "unknown"
	devCallerName         = "dev"
)

var (
	errMissingCredentials = errors.New("missing api key headers")
	errInvalidAPIKey      = errors.New("invalid api key")
	errInvalidExtra       = errors.New("invalid extra header")
)

// Caller is the resolved identity of a request. Anonymous callers may read
// calendars but never create or manage bookings.
type Caller struct {
	Name          string
	Authenticated bool
	CanWrite      bool
}

type callerKey struct{}

func withCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext returns the caller stored by the HTTP or gRPC auth layer.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}

// keyring resolves API key credentials against the configured clients.
type keyring struct {
	enabled     bool
	keyHeader   string
	extraHeader string
	clients     map[string]config.APIClientKey
}

func newKeyring(cfg *config.APIConfig) *keyring {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}

	keyHeader := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderAPIKey))
	if keyHeader == "" {
		keyHeader = apiKeyHeaderDefault
	}
	extraHeader := strings.ToLower(strings.TrimSpace(cfg.Auth.HeaderExtra))
	if extraHeader == "" {
		extraHeader = apiExtraHeaderDefault
	}

	return &keyring{
		enabled:     cfg.Auth.Enabled,
		keyHeader:   keyHeader,
		extraHeader: extraHeader,
		clients:     m,
	}
}

// authenticate maps a credential pair to a Caller. With auth disabled every
// caller is write-capable. With auth enabled, no credentials at all yields an
// anonymous reader and a partial or unknown pair is rejected.
func (k *keyring) authenticate(apiKey, extra string) (Caller, error) {
	if !k.enabled {
		return Caller{Name: devCallerName, CanWrite: true}, nil
	}
	if apiKey == "" && extra == "" {
		return Caller{}, nil
	}
	if apiKey == "" || extra == "" {
		return Caller{}, errMissingCredentials
	}

	client, ok := k.clients[apiKey]
	if !ok {
		return Caller{}, errInvalidAPIKey
	}
	if subtle.ConstantTimeCompare([]byte(client.Extra), []byte(extra)) != 1 {
		return Caller{}, errInvalidExtra
	}

	return Caller{
		Name:          client.Name,
		Authenticated: true,
		CanWrite:      client.Can(config.PermWriteBookings),
	}, nil
}

// AuthInterceptor resolves gRPC callers and applies the per-key rate limit.
type AuthInterceptor struct {
	keys    *keyring
	limiter *rateLimiter
}

func NewAuthInterceptor(cfg *config.APIConfig) *AuthInterceptor {
	return &AuthInterceptor{
		keys:    newKeyring(cfg),
		limiter: newRateLimiter(cfg),
	}
}

func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)

		caller, err := a.keys.authenticate(first(md.Get(a.keys.keyHeader)), first(md.Get(a.keys.extraHeader)))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		if !a.limiter.allow(a.clientKey(ctx, md)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}

		return handler(withCaller(ctx, caller), req)
	}
}

func (a *AuthInterceptor) clientKey(ctx context.Context, md metadata.MD) string {
	if apiKey := first(md.Get(a.keys.keyHeader)); apiKey != "" {
		return apiKey
	}
	return peerAddr(ctx)
}

func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return clientKeyUnknown
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
