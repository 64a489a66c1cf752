package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageUnmarshalAcceptsFromAlias(t *testing.T) {
	raw := `{"from":"alice@example.com","to":"x@tmp.test","subject":"hi","body":"b",
		"htmlContent":"<p>b</p>","code":"123456","timestamp":"2024-05-01T10:00:00Z"}`

	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, "alice@example.com", m.Sender)
	assert.Equal(t, "x@tmp.test", m.To)
	assert.Equal(t, "123456", m.Code)
	assert.Equal(t, "<p>b</p>", m.DisplayBody())
	assert.True(t, m.Timestamp.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestMessageUnmarshalPrefersSender(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"sender":"a@x","from":"b@x"}`), &m))
	assert.Equal(t, "a@x", m.Sender)
	assert.Equal(t, "", m.DisplayBody())
}

func TestMessageUnmarshalBadTimestamp(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"sender":"a@x","timestamp":"yesterday"}`), &m))
	assert.True(t, m.Timestamp.IsZero())
}

func TestSortNewestFirstIsStable(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	msgs := []Message{
		{Subject: "old", Timestamp: base},
		{Subject: "tie-a", Timestamp: base.Add(time.Hour)},
		{Subject: "new", Timestamp: base.Add(2 * time.Hour)},
		{Subject: "tie-b", Timestamp: base.Add(time.Hour)},
	}

	SortNewestFirst(msgs)

	var subjects []string
	for _, m := range msgs {
		subjects = append(subjects, m.Subject)
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old"}, subjects)
	assert.Equal(t, 1, msgs[1].Arrival)
	assert.Equal(t, 3, msgs[2].Arrival)

	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.After(msgs[i-1].Timestamp))
	}
}

func TestLocalPart(t *testing.T) {
	assert.Equal(t, "abc", LocalPart("abc@tmp.test"))
	assert.Equal(t, "abc", LocalPart("abc"))
}
