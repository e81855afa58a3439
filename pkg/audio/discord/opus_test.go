package discord

import "testing"

func TestFrames_ChunksAndPads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		inputLen  int
		wantCount int
	}{
		{name: "empty", inputLen: 0, wantCount: 0},
		{name: "exactly one frame", inputLen: pcmFrameBytes, wantCount: 1},
		{name: "one and a half frames", inputLen: pcmFrameBytes + pcmFrameBytes/2, wantCount: 2},
		{name: "short tail", inputLen: 10, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pcm := make([]byte, tt.inputLen)
			for i := range pcm {
				pcm[i] = 0xAB
			}

			got := frames(pcm)
			if len(got) != tt.wantCount {
				t.Fatalf("frames() count = %d, want %d", len(got), tt.wantCount)
			}
			for i, f := range got {
				if len(f) != pcmFrameBytes {
					t.Errorf("frame %d length = %d, want %d", i, len(f), pcmFrameBytes)
				}
			}

			// The padded tail must be silence beyond the original data.
			if tt.inputLen%pcmFrameBytes != 0 && tt.wantCount > 0 {
				tail := got[len(got)-1]
				for i := tt.inputLen % pcmFrameBytes; i < pcmFrameBytes; i++ {
					if tail[i] != 0 {
						t.Fatalf("padding byte %d = %#x, want 0", i, tail[i])
					}
				}
			}
		})
	}
}

func TestBytesToInt16s(t *testing.T) {
	t.Parallel()

	got := bytesToInt16s([]byte{0x01, 0x00, 0xFF, 0xFF})
	if len(got) != 2 || got[0] != 1 || got[1] != -1 {
		t.Errorf("bytesToInt16s() = %v, want [1 -1]", got)
	}
}
