package engine

import (
	"testing"

	"chainboy/cartridge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStatus(t *testing.T) {
	img, err := cartridge.Select(cartridge.Bytes("zelda.gba", []byte{1}))
	require.NoError(t, err)

	tests := []struct {
		name string
		st   Status
		want StatusView
	}{
		{
			name: "empty",
			st:   Status{},
			want: StatusView{SaveLabel: SaveLabel},
		},
		{
			name: "selected",
			st: Status{
				Session: SessionState{Kind: CartridgeSelected, Cartridge: img},
				Message: "Failed to start game. Please select a valid ROM file.",
			},
			want: StatusView{
				Message:   "Failed to start game. Please select a valid ROM file.",
				Tone:      ToneInfo,
				Selected:  "zelda.gba",
				CanStart:  true,
				SaveLabel: SaveLabel,
			},
		},
		{
			name: "uploading",
			st: Status{
				Session: SessionState{Kind: Playing, Cartridge: img},
				Upload:  InFlight(),
				Message: "Uploading save file...",
			},
			want: StatusView{
				Message:   "Uploading save file...",
				Tone:      ToneInfo,
				Selected:  "zelda.gba",
				Playing:   true,
				SaveLabel: UploadingLabel,
			},
		},
		{
			name: "starting",
			st: Status{
				Session:  SessionState{Kind: CartridgeSelected, Cartridge: img},
				Starting: true,
			},
			want: StatusView{
				Selected:  "zelda.gba",
				SaveLabel: SaveLabel,
			},
		},
		{
			name: "previous upload still running",
			st: Status{
				Session:   SessionState{Kind: Playing, Cartridge: img},
				Upload:    Idle(),
				Message:   "Game started successfully!",
				Uploading: true,
			},
			want: StatusView{
				Message:   "Game started successfully!",
				Tone:      ToneInfo,
				Selected:  "zelda.gba",
				Playing:   true,
				SaveLabel: UploadingLabel,
			},
		},
		{
			name: "succeeded",
			st: Status{
				Session: SessionState{Kind: Playing, Cartridge: img},
				Upload:  Succeeded("tx-1"),
				Message: "✅ Save file successfully uploaded! Transaction ID: tx-1",
			},
			want: StatusView{
				Message:   "✅ Save file successfully uploaded! Transaction ID: tx-1",
				Tone:      ToneSuccess,
				Selected:  "zelda.gba",
				Playing:   true,
				CanSave:   true,
				SaveLabel: SaveLabel,
			},
		},
		{
			name: "failed",
			st: Status{
				Session: SessionState{Kind: Playing, Cartridge: img},
				Upload:  Failed("network error"),
				Message: "❌ Error uploading save file: network error",
			},
			want: StatusView{
				Message:   "❌ Error uploading save file: network error",
				Tone:      ToneError,
				Selected:  "zelda.gba",
				Playing:   true,
				CanSave:   true,
				SaveLabel: SaveLabel,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderStatus(tt.st))
		})
	}
}
