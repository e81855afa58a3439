package profile

import "context"

// Resolver picks the voice profile for a speaker: the user's stored
// preference wins, then the guild's, then the configured fallback.
type Resolver struct {
	repo     Repository
	fallback string
}

// NewResolver creates a Resolver over repo. fallback must be a profile ID
// that exists in the configuration; config validation guarantees this.
func NewResolver(repo Repository, fallback string) *Resolver {
	return &Resolver{repo: repo, fallback: fallback}
}

// Resolve returns the profile ID for userID speaking in guildID.
// A repository failure is returned as an error; callers typically fall back
// to [Resolver.Fallback] and log it.
func (r *Resolver) Resolve(ctx context.Context, userID, guildID string) (string, error) {
	if id, ok, err := r.repo.FindByUser(ctx, userID); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}
	return r.ResolveGuild(ctx, guildID)
}

// ResolveGuild returns the guild-level profile ID, or the fallback when the
// guild has no stored preference.
func (r *Resolver) ResolveGuild(ctx context.Context, guildID string) (string, error) {
	if id, ok, err := r.repo.FindByGuild(ctx, guildID); err != nil {
		return "", err
	} else if ok {
		return id, nil
	}
	return r.fallback, nil
}

// Fallback returns the configured fallback profile ID.
func (r *Resolver) Fallback() string {
	return r.fallback
}
