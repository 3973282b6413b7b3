package risk

import (
	"testing"

	"fxsim/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileByName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantErr  bool
	}{
		{name: "guardian", input: "GUARDIAN", wantName: "Guardian"},
		{name: "copilot", input: "COPILOT", wantName: "Copilot"},
		{name: "maverick", input: "MAVERICK", wantName: "Maverick"},
		{name: "empty selects default", input: "", wantName: "Copilot"},
		{name: "unknown rejected", input: "YOLO", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ProfileByName(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ports.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name)
		})
	}
}

func TestProfile_ValidateOrder(t *testing.T) {
	guardian, err := ProfileByName("GUARDIAN")
	require.NoError(t, err)
	maverick, err := ProfileByName("MAVERICK")
	require.NoError(t, err)

	assert.NoError(t, guardian.ValidateOrder(0.2))
	assert.ErrorIs(t, guardian.ValidateOrder(0.21), ports.ErrInvalidRequest)

	// The same size passes under a looser profile.
	assert.NoError(t, maverick.ValidateOrder(0.21))
	assert.NoError(t, maverick.ValidateOrder(10))
	assert.ErrorIs(t, maverick.ValidateOrder(10.5), ports.ErrInvalidRequest)
}
