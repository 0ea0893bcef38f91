package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaValidator_InteractionEvent(t *testing.T) {
	sv, err := NewSchemaValidator()
	require.NoError(t, err)

	const userID = `"user_id": "0b6f8a1e-2c3d-4e5f-8a9b-0c1d2e3f4a5b"`
	const hotelID = `"hotel_id": "7f1c2a8e-0d55-4c43-9a53-1b7d3f6f2a01"`

	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{
			name:  "hotel view",
			doc:   `{` + userID + `, "type": "hotel_view", "hotel_view": {` + hotelID + `, "duration_seconds": 42}}`,
			valid: true,
		},
		{
			name: "booking",
			doc: `{` + userID + `, "type": "booking", "booking": {` + hotelID + `, "city": "Goa", "state": "Goa",
				"check_in": "2026-12-01T14:00:00Z", "check_out": "2026-12-04T11:00:00Z", "room_type": "suite"}}`,
			valid: true,
		},
		{
			name:  "preferences",
			doc:   `{` + userID + `, "type": "preferences", "preferences": {"discovery_score": 70, "preferred_amenities": {"pool": 1.5}}}`,
			valid: true,
		},
		{
			name:  "missing payload for type",
			doc:   `{` + userID + `, "type": "search"}`,
			valid: false,
		},
		{
			name:  "unknown feedback category",
			doc:   `{` + userID + `, "type": "recommendation_feedback", "feedback": {` + hotelID + `, "feedback": "meh"}}`,
			valid: false,
		},
		{
			name:  "malformed user id",
			doc:   `{"user_id": "user-42", "type": "search", "search": {}}`,
			valid: false,
		},
		{
			name:  "unknown type",
			doc:   `{` + userID + `, "type": "checkout"}`,
			valid: false,
		},
		{
			name:  "discovery score out of range",
			doc:   `{` + userID + `, "type": "preferences", "preferences": {"discovery_score": 140}}`,
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sv.ValidateInteractionEvent([]byte(tt.doc))
			assert.Equal(t, tt.valid, result.Valid, result.Errors)
			if tt.valid {
				assert.NoError(t, result.Err())
				assert.Nil(t, result.ToAPIError())
			} else {
				assert.Error(t, result.Err())
				assert.NotNil(t, result.ToAPIError()["error"])
			}
		})
	}
}

func TestSchemaValidator_MalformedDocument(t *testing.T) {
	sv, err := NewSchemaValidator()
	require.NoError(t, err)

	result := sv.ValidateInteractionEvent("{not json")
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "MALFORMED_DOCUMENT", result.Errors[0].Code)
}

func TestSchemaValidator_UnknownSchema(t *testing.T) {
	sv := &SchemaValidator{}
	result := sv.validate("missing", map[string]string{})
	assert.False(t, result.Valid)
	assert.Equal(t, "SCHEMA_NOT_FOUND", result.Errors[0].Code)
}
