package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	in := []byte("value")
	require.NoError(t, m.Set(ctx, "k", in))
	in[0] = 'X'

	v, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "value", string(v), "stored value must not alias the caller's slice")

	require.NoError(t, m.SetMany(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))
	a, _ := m.Get(ctx, "a")
	assert.Equal(t, "1", string(a))

	require.NoError(t, m.Delete(ctx, "k"))
	v, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.NoError(t, m.Close())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	m, err := Open(ctx, DriverMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, m)

	dir := t.TempDir() + "/nested/data"
	m, err = Open(ctx, DriverSQLite, dir)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, m)
	require.NoError(t, m.Close())
	assert.FileExists(t, FilePath(dir))

	_, err = Open(ctx, "bolt", dir)
	require.EqualError(t, err, `unknown mirror driver "bolt"`)
}
