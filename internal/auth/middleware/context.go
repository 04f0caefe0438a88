package auth

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated user id for the handlers below.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFromContext returns the user id set by JWTMiddleware, or "" when the
// request is unauthenticated.
func SubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}
