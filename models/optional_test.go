package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type patch struct {
	Phone Optional[string] `json:"phone"`
	Name  Optional[string] `json:"name"`
}

func TestOptional_AbsentNullValue(t *testing.T) {
	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"phone": null, "name": "Ada"}`), &p))

	assert.True(t, p.Phone.Set)
	assert.True(t, p.Phone.Null)
	assert.Nil(t, p.Phone.Ptr())

	assert.True(t, p.Name.HasValue())
	assert.Equal(t, "Ada", *p.Name.Ptr())

	var empty patch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.False(t, empty.Phone.Set)
	assert.False(t, empty.Name.Set)
}

func TestOptional_TypeMismatch(t *testing.T) {
	var p patch
	assert.Error(t, json.Unmarshal([]byte(`{"name": 12}`), &p))
}

func TestAttendeeStatus(t *testing.T) {
	var none *Attendee
	assert.Equal(t, StatusNotRegistered, none.Status())
	assert.Equal(t, StatusPending, (&Attendee{}).Status())
	assert.Equal(t, StatusConfirmed, (&Attendee{Confirmed: true}).Status())
}
