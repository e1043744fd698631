package ports

import "context"

type accessTokenKey struct{}

// WithAccessToken attaches the operator's bearer token to ctx so record stores
// that enforce row-level access can forward it to the hosted service.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken, if any.
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}
