package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedText  string
		expectedLat   float64
		expectedLon   float64
		expectCoords  bool
		expectedError string
	}{
		{
			name:         "free_text_location",
			input:        `{"query":"jazz","location":"Brooklyn, NY"}`,
			expectedText: "Brooklyn, NY",
		},
		{
			name:         "coordinate_location",
			input:        `{"query":"jazz","location":{"lat":40.7,"lon":-74.0}}`,
			expectCoords: true,
			expectedLat:  40.7,
			expectedLon:  -74.0,
		},
		{
			name:          "numeric_location_rejected",
			input:         `{"query":"jazz","location":42}`,
			expectedError: "location must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req SearchRequest
			err := json.Unmarshal([]byte(tt.input), &req)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			if tt.expectCoords {
				require.NotNil(t, req.Location.Coords)
				assert.Equal(t, tt.expectedLat, req.Location.Coords.Lat)
				assert.Equal(t, tt.expectedLon, req.Location.Coords.Lon)
			} else {
				assert.Nil(t, req.Location.Coords)
				assert.Equal(t, tt.expectedText, req.Location.Text)
			}
		})
	}
}

func TestLocation_MarshalJSON(t *testing.T) {
	t.Run("text location encodes as string", func(t *testing.T) {
		data, err := json.Marshal(TextLocation("Paris"))
		require.NoError(t, err)
		assert.JSONEq(t, `"Paris"`, string(data))
	})

	t.Run("point location encodes as object", func(t *testing.T) {
		data, err := json.Marshal(PointLocation(48.85, 2.35))
		require.NoError(t, err)
		assert.JSONEq(t, `{"lat":48.85,"lon":2.35}`, string(data))
	})
}

func TestLocation_String(t *testing.T) {
	assert.Equal(t, "40.7,-74", PointLocation(40.7, -74.0).String())
	assert.Equal(t, "Austin", TextLocation("Austin").String())
	assert.True(t, TextLocation("  ").IsZero())
	assert.False(t, PointLocation(0, 0).IsZero())
}
