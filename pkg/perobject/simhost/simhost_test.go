package simhost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/per-object-storage/pkg/perobject"
	"github.com/tendant/per-object-storage/pkg/perobject/simhost"
)

func setupHost(t *testing.T) (*simhost.Host, perobject.Service) {
	t.Helper()
	svc, err := perobject.New()
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return simhost.New(svc, nil), svc
}

func TestHost_Spawn(t *testing.T) {
	host, _ := setupHost(t)

	a := host.Spawn(simhost.TypeCreature, "orc")
	b := host.Spawn(simhost.TypeItem, "sword")
	assert.NotEqual(t, a, b)

	obj, ok := host.Lookup(a)
	require.True(t, ok)
	assert.Equal(t, simhost.TypeCreature, obj.Type)
	assert.Equal(t, "orc", obj.Tag)
	assert.Len(t, host.Objects(), 2)
}

func TestHost_DestroyDropsStorage(t *testing.T) {
	host, svc := setupHost(t)

	var cleanups int
	creature := host.Spawn(simhost.TypeCreature, "orc")
	area := host.Spawn(simhost.TypeArea, "cave")
	svc.SetPointer(creature, "p", 1, func(any) { cleanups++ })
	svc.SetInt(area, "visits", 3, true)

	host.Destroy(creature)
	host.Destroy(area)
	host.Destroy(creature)

	assert.Equal(t, 1, cleanups)
	assert.Empty(t, svc.Objects())
	assert.Empty(t, host.Objects())
}

func TestHost_DisconnectReconnect(t *testing.T) {
	host, svc := setupHost(t)

	player := host.Spawn(simhost.TypePlayer, "alice")
	svc.SetInt(player, "k", 7, true)
	svc.SetString(player, "session", "abc", false)

	turd, err := host.Disconnect(player)
	require.NoError(t, err)
	assert.True(t, turd.Valid())

	_, ok := host.Lookup(player)
	assert.False(t, ok)
	held, ok := host.TURDFor("alice")
	require.True(t, ok)
	assert.Equal(t, turd, held)
	assert.Equal(t, []perobject.ObjectID{turd}, svc.Objects())

	again := host.Reconnect("alice")
	assert.NotEqual(t, player, again)

	k, ok := svc.GetInt(again, "k")
	require.True(t, ok)
	assert.Equal(t, int32(7), k)
	_, ok = svc.GetString(again, "session")
	assert.False(t, ok)

	_, ok = host.TURDFor("alice")
	assert.False(t, ok)
	_, ok = host.Lookup(turd)
	assert.False(t, ok)
	assert.Equal(t, []perobject.ObjectID{again}, svc.Objects())
}

func TestHost_DisconnectReplacesOldTURD(t *testing.T) {
	host, svc := setupHost(t)

	first := host.Spawn(simhost.TypePlayer, "bob")
	svc.SetInt(first, "k", 1, true)
	oldTURD, err := host.Disconnect(first)
	require.NoError(t, err)

	second := host.Spawn(simhost.TypePlayer, "bob")
	svc.SetInt(second, "k", 2, true)
	newTURD, err := host.Disconnect(second)
	require.NoError(t, err)

	assert.NotEqual(t, oldTURD, newTURD)
	assert.Equal(t, []perobject.ObjectID{newTURD}, svc.Objects())

	player := host.Reconnect("bob")
	k, _ := svc.GetInt(player, "k")
	assert.Equal(t, int32(2), k)
}

func TestHost_ReconnectWithoutTURD(t *testing.T) {
	host, svc := setupHost(t)
	player := host.Reconnect("carol")

	obj, ok := host.Lookup(player)
	require.True(t, ok)
	assert.Equal(t, simhost.TypePlayer, obj.Type)
	assert.Empty(t, svc.Objects())
}

func TestHost_DisconnectRequiresPlayer(t *testing.T) {
	host, _ := setupHost(t)
	creature := host.Spawn(simhost.TypeCreature, "orc")

	_, err := host.Disconnect(creature)
	assert.Error(t, err)
	_, err = host.Disconnect(999)
	assert.Error(t, err)
}

func TestHost_SaveLoad(t *testing.T) {
	host, svc := setupHost(t)

	player := host.Spawn(simhost.TypePlayer, "alice")
	svc.SetInt(player, "hp", 42, true)
	svc.SetString(player, "name", "Bob", false)

	fields, err := host.Save(player)
	require.NoError(t, err)
	assert.Equal(t, "player", fields[simhost.FieldType])
	assert.Equal(t, "alice", fields[simhost.FieldTag])
	assert.Equal(t, "false", fields["ExportingChar"])
	assert.Equal(t, "I2:hp2:42", fields[perobject.FieldName])

	loaded, err := host.Load(fields)
	require.NoError(t, err)
	assert.NotEqual(t, player, loaded)

	obj, ok := host.Lookup(loaded)
	require.True(t, ok)
	assert.Equal(t, "alice", obj.Tag)

	hp, ok := svc.GetInt(loaded, "hp")
	require.True(t, ok)
	assert.Equal(t, int32(42), hp)
	_, ok = svc.GetString(loaded, "name")
	assert.False(t, ok)
}

func TestHost_SaveLoadItem(t *testing.T) {
	host, svc := setupHost(t)

	item := host.Spawn(simhost.TypeItem, "sword")
	svc.SetFloat(item, "sharpness", 0.75, true)

	fields, err := host.Save(item)
	require.NoError(t, err)
	_, ok := fields.ReadField("ExportingChar")
	assert.False(t, ok)

	loaded, err := host.Load(fields)
	require.NoError(t, err)
	v, ok := svc.GetFloat(loaded, "sharpness")
	require.True(t, ok)
	assert.Equal(t, float32(0.75), v)
}

func TestHost_SaveLoadErrors(t *testing.T) {
	host, _ := setupHost(t)

	_, err := host.Save(12345)
	assert.Error(t, err)

	_, err = host.Load(perobject.FieldMap{})
	assert.Error(t, err)

	_, err = host.Load(perobject.FieldMap{simhost.FieldType: "dragon"})
	assert.Error(t, err)
}

func TestParseObjectType(t *testing.T) {
	for _, name := range []string{"creature", "item", "placeable", "area", "player", "turd"} {
		typ, err := simhost.ParseObjectType(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(typ))
	}
	_, err := simhost.ParseObjectType("Creature")
	assert.Error(t, err)
}
