// Package profile stores and resolves voice preset preferences.
//
// A preference maps a Discord user or guild to a voice profile ID from the
// configuration. Resolution precedence is user, then guild, then the
// configured fallback.
package profile

import "context"

// Repository persists voice preset preferences.
//
// Implementations must be safe for concurrent use. Absence of a preference
// is a normal outcome, reported through the found flag, not an error.
type Repository interface {
	// FindByUser returns the profile ID stored for userID.
	FindByUser(ctx context.Context, userID string) (profileID string, found bool, err error)

	// FindByGuild returns the profile ID stored for guildID.
	FindByGuild(ctx context.Context, guildID string) (profileID string, found bool, err error)

	// SaveUser stores or replaces the preference for userID.
	SaveUser(ctx context.Context, userID, profileID string) error

	// SaveGuild stores or replaces the preference for guildID.
	SaveGuild(ctx context.Context, guildID, profileID string) error

	// DeleteUser removes the preference for userID. Deleting an absent
	// preference is a no-op.
	DeleteUser(ctx context.Context, userID string) error

	// DeleteGuild removes the preference for guildID.
	DeleteGuild(ctx context.Context, guildID string) error
}
