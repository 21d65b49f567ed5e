package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/danxi/authgate/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptedTransport_RepliesInOrder(t *testing.T) {
	boom := errors.New("boom")
	tr := NewScriptedTransport(
		Reply{Response: ports.Response{StatusCode: 200, Body: []byte("first")}},
		Reply{Err: boom},
	)
	ctx := context.Background()

	resp, err := tr.Do(ctx, ports.Request{Method: "GET", URL: "https://a"})
	require.NoError(t, err)
	assert.Equal(t, "first", string(resp.Body))

	_, err = tr.Do(ctx, ports.Request{Method: "POST", URL: "https://b"})
	assert.ErrorIs(t, err, boom)

	_, err = tr.Do(ctx, ports.Request{Method: "GET", URL: "https://c"})
	assert.Error(t, err)

	reqs := tr.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "https://b", reqs[1].URL)
}

func TestFlakyStore_FailsSelectedKeys(t *testing.T) {
	store := NewFlakyStore("token")
	ctx := context.Background()

	require.NoError(t, store.SetString(ctx, "other", "v"))
	assert.ErrorIs(t, store.SetString(ctx, "token", "v"), ErrInjected)
	assert.Equal(t, []string{"other", "token"}, store.Writes)

	_, found, err := store.GetString(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStaticNameResolver(t *testing.T) {
	name, err := StaticNameResolver{Name: "Alice"}.Resolve(context.Background(), "id", nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
}
