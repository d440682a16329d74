package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstantFromRFC3339(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T10:30:00Z"`), &i))
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), i.Time)
}

func TestInstantFromWrappedObject(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`{"seconds":1709288100,"nanos":500000000}`), &i))
	assert.Equal(t, int64(1709288100), i.Time.Unix())
	assert.Equal(t, 500000000, i.Time.Nanosecond())
}

func TestInstantFromEpochSeconds(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`1709288100`), &i))
	assert.Equal(t, int64(1709288100), i.Time.Unix())
}

func TestInstantFromEpochMillis(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`1709288100000`), &i))
	assert.Equal(t, int64(1709288100), i.Time.Unix())
}

func TestInstantNullAndEmpty(t *testing.T) {
	var i Instant
	require.NoError(t, json.Unmarshal([]byte(`null`), &i))
	assert.True(t, i.Time.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`""`), &i))
	assert.True(t, i.Time.IsZero())
}

func TestInstantMarshal(t *testing.T) {
	i := NewInstant(time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC))
	data, err := json.Marshal(i)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T10:30:00Z"`, string(data))

	data, err = json.Marshal(Instant{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}
