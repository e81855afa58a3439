package session_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/yomubot/yomu/internal/session"
)

func TestRegistry_RegisterAndLookups(t *testing.T) {
	t.Parallel()

	r := session.NewRegistry()
	r.Register("g1", "t1", "v1", session.Handle{})

	if _, ok := r.Get("g1"); !ok {
		t.Error("Get(g1) returned no session")
	}
	info, ok := r.GetByTextChannel("t1")
	if !ok {
		t.Fatal("GetByTextChannel(t1) returned no session")
	}
	if info.TextChannel != "t1" || info.VoiceChannel != "v1" {
		t.Errorf("info = %+v, want text=t1 voice=v1", info)
	}
	if _, ok := r.GetByVoiceChannel("v1"); !ok {
		t.Error("GetByVoiceChannel(v1) returned no session")
	}

	// Absence is a normal, non-error outcome.
	if _, ok := r.Get("unknown"); ok {
		t.Error("Get(unknown) should return nothing")
	}
	if _, ok := r.GetByTextChannel("unknown"); ok {
		t.Error("GetByTextChannel(unknown) should return nothing")
	}
}

func TestRegistry_RemoveClearsAllIndices(t *testing.T) {
	t.Parallel()

	r := session.NewRegistry()
	r.Register("g1", "t1", "v1", session.Handle{})
	if !r.Remove("g1") {
		t.Error("Remove(g1) = false, want true for a live session")
	}

	if _, ok := r.Get("g1"); ok {
		t.Error("Get(g1) after Remove should return nothing")
	}
	if _, ok := r.GetByTextChannel("t1"); ok {
		t.Error("GetByTextChannel(t1) after Remove should return nothing")
	}
	if _, ok := r.GetByVoiceChannel("v1"); ok {
		t.Error("GetByVoiceChannel(v1) after Remove should return nothing")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}

	// Removing an absent guild is a no-op.
	if r.Remove("g1") {
		t.Error("Remove(g1) = true for an absent guild, want false")
	}
}

func TestRegistry_UpdateVoiceChannel(t *testing.T) {
	t.Parallel()

	r := session.NewRegistry()
	r.Register("g1", "t1", "v1", session.Handle{})

	if err := r.UpdateVoiceChannel("v1", "v2"); err != nil {
		t.Fatalf("UpdateVoiceChannel() error: %v", err)
	}

	if _, ok := r.GetByVoiceChannel("v2"); !ok {
		t.Error("GetByVoiceChannel(v2) returned no session after move")
	}
	if _, ok := r.GetByVoiceChannel("v1"); ok {
		t.Error("GetByVoiceChannel(v1) should return nothing after move")
	}
	info, _ := r.Get("g1")
	if info.VoiceChannel != "v2" {
		t.Errorf("VoiceChannel = %q, want %q", info.VoiceChannel, "v2")
	}

	// After the move, Remove must still clear the repointed index.
	r.Remove("g1")
	if _, ok := r.GetByVoiceChannel("v2"); ok {
		t.Error("GetByVoiceChannel(v2) after Remove should return nothing")
	}
}

func TestRegistry_UpdateVoiceChannelNotFound(t *testing.T) {
	t.Parallel()

	r := session.NewRegistry()
	err := r.UpdateVoiceChannel("missing", "v2")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("UpdateVoiceChannel() error = %v, want ErrNotFound", err)
	}
}

func TestRegistry_OverwriteClearsOldChannelIndices(t *testing.T) {
	t.Parallel()

	r := session.NewRegistry()
	r.Register("g1", "t1", "v1", session.Handle{})
	r.Register("g1", "t2", "v2", session.Handle{})

	if _, ok := r.GetByTextChannel("t1"); ok {
		t.Error("old text channel index should be cleared on overwrite")
	}
	if _, ok := r.GetByVoiceChannel("v1"); ok {
		t.Error("old voice channel index should be cleared on overwrite")
	}
	if _, ok := r.GetByTextChannel("t2"); !ok {
		t.Error("new text channel index missing after overwrite")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := session.NewRegistry()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guild := fmt.Sprintf("g%d", i)
			r.Register(guild, "t"+guild, "v"+guild, session.Handle{})
			r.Get(guild)
			r.GetByTextChannel("t" + guild)
			if err := r.UpdateVoiceChannel("v"+guild, "w"+guild); err != nil {
				t.Errorf("UpdateVoiceChannel(%s): %v", guild, err)
			}
			r.Remove(guild)
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after all removals", r.Len())
	}
}
