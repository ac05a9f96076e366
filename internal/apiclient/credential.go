package apiclient

import "context"

type credentialKey struct{}

// WithCredential attaches a bearer credential to outgoing calls made with ctx.
func WithCredential(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFrom returns the bearer credential attached to ctx.
func CredentialFrom(ctx context.Context) string {
	token, _ := ctx.Value(credentialKey{}).(string)
	return token
}
