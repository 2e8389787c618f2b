package canvas

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dou/internal/apperr"
)

func TestDecodeNodes(t *testing.T) {
	t.Run("valid list", func(t *testing.T) {
		nodes, err := DecodeNodes([]byte(`[{"title":"A","text":"a","pos":[1,2],"width":250,"height":300}]`))
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "A", nodes[0].Title)
		assert.Equal(t, [2]float64{1, 2}, nodes[0].Pos)
	})

	t.Run("empty title and text are allowed", func(t *testing.T) {
		nodes, err := DecodeNodes([]byte(`[{"title":"","text":"","pos":[0,0],"width":100,"height":100}]`))
		require.NoError(t, err)
		assert.Len(t, nodes, 1)
	})

	bad := map[string]string{
		"not json":      `hello`,
		"object":        `{"title":"A"}`,
		"null":          `null`,
		"missing pos":   `[{"title":"A","text":"a","width":1,"height":1}]`,
		"short pos":     `[{"title":"A","text":"a","pos":[1],"width":1,"height":1}]`,
		"missing width": `[{"title":"A","text":"a","pos":[1,2],"height":1}]`,
		"wrong type":    `[{"title":5,"text":"a","pos":[1,2],"width":1,"height":1}]`,
	}
	for name, payload := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeNodes([]byte(payload))
			assert.ErrorIs(t, err, apperr.ErrClipboardFormat)
		})
	}
}

func TestEncodeNodesShape(t *testing.T) {
	data, err := EncodeNodes([]NodeDescriptor{{Title: "T", Text: "x", Pos: [2]float64{3, 4}, Width: 250, Height: 300}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"T","text":"x","pos":[3,4],"width":250,"height":300}]`, string(data))

	empty, err := EncodeNodes(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestMemoryClipboard(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClipboard()

	data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, c.Write(ctx, []byte("[]")))
	data, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRedisClipboard(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c, err := NewRedisClipboard(RedisClipboardOptions{
		URL: fmt.Sprintf("redis://%s", mr.Addr()),
		Key: "test:clip",
		TTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	data, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data, "missing key reads as empty")

	require.NoError(t, c.Write(ctx, []byte(`[{"title":"A"}]`)))
	got, err := mr.Get("test:clip")
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"A"}]`, got)
	assert.Equal(t, time.Minute, mr.TTL("test:clip"))

	data, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `[{"title":"A"}]`, string(data))

	mr.FastForward(2 * time.Minute)
	data, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestRedisClipboardConnectFailure(t *testing.T) {
	_, err := NewRedisClipboard(RedisClipboardOptions{URL: "invalid://url"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}
