package middleware

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactJSONMasksCredentials(t *testing.T) {
	raw := []byte(`{"name":"Acme","databasePassword":"hunter2","databaseUrl":"postgres://app:hunter2@db:5432/sales_acme","nested":[{"adminPassword":"x"}]}`)

	var body map[string]any
	require.NoError(t, json.Unmarshal(redactJSON(raw), &body))

	assert.Equal(t, "Acme", body["name"])
	assert.Equal(t, "****", body["databasePassword"])
	assert.Equal(t, "postgres://app:****@db:5432/sales_acme", body["databaseUrl"])
	assert.Equal(t, "****", body["nested"].([]any)[0].(map[string]any)["adminPassword"])
	assert.NotContains(t, string(redactJSON(raw)), "hunter2")
}

func TestRedactJSONKeepsInvalidBody(t *testing.T) {
	assert.Equal(t, []byte("not json"), redactJSON([]byte("not json")))
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer ")
	assert.False(t, ok)
}
