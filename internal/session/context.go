// Package session carries the current participant id and demographics on the request context.
package session

import (
	"context"

	"xaistudy/models"
)

type contextKey int

const (
	userIDKey contextKey = iota
	demographicsKey
)

// WithUserID returns a copy of ctx carrying the participant id
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the participant id on ctx, or "" when none is set
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// WithDemographics returns a copy of ctx carrying the participant's demographics
func WithDemographics(ctx context.Context, d models.Demographics) context.Context {
	return context.WithValue(ctx, demographicsKey, d)
}

// Demographics returns the demographics on ctx; ok is false when none were set
func Demographics(ctx context.Context) (models.Demographics, bool) {
	d, ok := ctx.Value(demographicsKey).(models.Demographics)
	return d, ok
}
