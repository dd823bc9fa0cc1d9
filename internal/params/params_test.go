package params

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedsharma/momentscli/internal/catalog"
	"github.com/vedsharma/momentscli/internal/model"
)

func endpoint(t *testing.T, id string) catalog.Endpoint {
	t.Helper()
	ep, err := catalog.Default().Get(id)
	require.NoError(t, err)
	return ep
}

func TestDynamicLists(t *testing.T) {
	o := New()

	a := o.Add(Query, "debug", "true")
	b := o.Add(Query, "trace", "1")
	o.Add(Headers, "X-Test", "yes")

	assert.Len(t, a.ID, 8)
	assert.NotEqual(t, a.ID, b.ID)

	entries := o.Entries(Query)
	require.Len(t, entries, 2)
	assert.Equal(t, "debug", entries[0].Key)
	assert.Equal(t, "trace", entries[1].Key)
	assert.Len(t, o.Entries(Headers), 1)
	assert.Empty(t, o.Entries(Body))

	t.Run("update", func(t *testing.T) {
		require.NoError(t, o.Update(Query, a.ID, "debug", "false"))
		assert.Equal(t, "false", o.Entries(Query)[0].Value)
		assert.Error(t, o.Update(Query, "missing", "k", "v"))
	})

	t.Run("remove keeps order", func(t *testing.T) {
		c := o.Add(Query, "third", "3")
		assert.True(t, o.Remove(Query, b.ID))
		assert.False(t, o.Remove(Query, b.ID))

		entries := o.Entries(Query)
		require.Len(t, entries, 2)
		assert.Equal(t, a.ID, entries[0].ID)
		assert.Equal(t, c.ID, entries[1].ID)
	})
}

func TestActive(t *testing.T) {
	assert.True(t, KeyValue{Key: "k", Value: "v"}.Active())
	assert.False(t, KeyValue{Key: "", Value: "v"}.Active())
	assert.False(t, KeyValue{Key: "k", Value: ""}.Active())
}

func TestEnabledDefaultsOn(t *testing.T) {
	o := New()
	assert.True(t, o.Enabled("country"))

	o.SetEnabled("country", false)
	assert.False(t, o.Enabled("country"))

	o.SetEnabled("country", true)
	assert.True(t, o.Enabled("country"))
}

func TestResetAndClone(t *testing.T) {
	o := New()
	o.SetField("country", "CA")
	o.SetEnabled("ip", false)
	o.Add(Body, "extra", "1")

	c := o.Clone()
	c.SetField("country", "MX")
	c.Add(Body, "more", "2")

	v, _ := o.Field("country")
	assert.Equal(t, "CA", v)
	assert.Len(t, o.Entries(Body), 1)

	o.Reset()
	_, ok := o.Field("country")
	assert.False(t, ok)
	assert.True(t, o.Enabled("ip"))
	assert.Empty(t, o.Entries(Body))
}

func TestSetFieldFor(t *testing.T) {
	moments := endpoint(t, "moments")
	cat := endpoint(t, "catalog")

	o := New()
	require.NoError(t, o.SetFieldFor(moments, "country", "CA"))
	require.NoError(t, o.SetFieldFor(moments, "zip", ""))

	err := o.SetFieldFor(moments, "nope", "x")
	assert.True(t, errors.Is(err, ErrUnknownField))

	require.NoError(t, o.SetFieldFor(cat, "limit", "10"))
	require.NoError(t, o.SetFieldFor(cat, "filters", `{"brand":"acme"}`))

	err = o.SetFieldFor(cat, "filters", "acme")
	assert.True(t, errors.Is(err, ErrInvalidJSON))
}

func TestBodyValue(t *testing.T) {
	cat := endpoint(t, "catalog")
	filters, _ := cat.BodyField("filters")

	o := New()
	v, ok := o.BodyValue(filters)
	require.True(t, ok)
	device, _ := v.(*model.Object).Get("device_type")
	assert.Equal(t, "web", device)

	o.SetField("filters", `{"brand":"acme"}`)
	v, ok = o.BodyValue(filters)
	require.True(t, ok)
	assert.Equal(t, []string{"brand"}, v.(*model.Object).Keys())

	moments := endpoint(t, "moments")
	zip, _ := moments.BodyField("zip")
	o.SetField("zip", "")
	v, ok = o.BodyValue(zip)
	require.True(t, ok)
	assert.Equal(t, "", v)
}

func TestPayload(t *testing.T) {
	t.Run("query values and body", func(t *testing.T) {
		cat := endpoint(t, "catalog")
		o := New()
		o.SetField("category", "travel")

		out, err := o.Payload(cat)
		require.NoError(t, err)
		assert.Contains(t, out, `"category": "travel"`)
		assert.Contains(t, out, `"limit": "50"`)
		assert.Contains(t, out, `"body": {`)
		assert.Contains(t, out, `"device_type": "web"`)
	})

	t.Run("no body for reporting", func(t *testing.T) {
		out, err := New().Payload(endpoint(t, "reporting"))
		require.NoError(t, err)
		assert.NotContains(t, out, "body")
		assert.Contains(t, out, `"group_by": "date"`)
	})
}

func TestApplyPayload(t *testing.T) {
	cat := endpoint(t, "catalog")

	t.Run("merges query and body fields", func(t *testing.T) {
		o := New()
		err := o.ApplyPayload(cat, `{"limit": 10, "category": "", "body": {"filters": {"brand": "acme"}, "unknown": "x"}}`)
		require.NoError(t, err)

		v, ok := o.Field("limit")
		require.True(t, ok)
		assert.Equal(t, "10", v)

		_, ok = o.Field("category")
		assert.False(t, ok)

		v, _ = o.Field("filters")
		assert.JSONEq(t, `{"brand":"acme"}`, v)

		_, ok = o.Field("unknown")
		assert.False(t, ok)
	})

	t.Run("nested objects keep their key order", func(t *testing.T) {
		o := New()
		require.NoError(t, o.ApplyPayload(cat, `{"body": {"filters": {"max_payout": "9", "brand": "acme", "n": 1.50}}}`))

		v, _ := o.Field("filters")
		assert.Equal(t, `{"max_payout":"9","brand":"acme","n":1.50}`, v)
	})

	t.Run("malformed json keeps prior state", func(t *testing.T) {
		o := New()
		o.SetField("limit", "5")

		err := o.ApplyPayload(cat, `{"limit": 10,`)
		assert.True(t, errors.Is(err, ErrInvalidJSON))

		v, _ := o.Field("limit")
		assert.Equal(t, "5", v)
	})

	t.Run("non-object payload is rejected", func(t *testing.T) {
		o := New()
		assert.Error(t, o.ApplyPayload(cat, `null`))
		assert.Error(t, o.ApplyPayload(cat, `[1,2]`))
	})
}
