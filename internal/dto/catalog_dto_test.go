package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawCatalogRecord_Unmarshal(t *testing.T) {
	t.Run("extra keys become attributes", func(t *testing.T) {
		var r RawCatalogRecord
		err := json.Unmarshal([]byte(`{"url":"u","title":"Red Rose","price":"100k","content":"fresh","sku":"R-1","tags":["a"]}`), &r)

		require.NoError(t, err)
		assert.Equal(t, "u", r.Url)
		assert.Equal(t, "Red Rose", r.Title)
		require.NotNil(t, r.Price)
		assert.Equal(t, "100k", *r.Price)
		assert.Equal(t, "R-1", r.Attributes["sku"])
		assert.Equal(t, []interface{}{"a"}, r.Attributes["tags"])
	})

	t.Run("missing and null price are absent", func(t *testing.T) {
		var missing, null RawCatalogRecord
		require.NoError(t, json.Unmarshal([]byte(`{"url":"u"}`), &missing))
		require.NoError(t, json.Unmarshal([]byte(`{"url":"u","price":null}`), &null))

		assert.Nil(t, missing.Price)
		assert.Nil(t, null.Price)
		assert.Nil(t, missing.Attributes)
	})

	t.Run("empty price stays present", func(t *testing.T) {
		var r RawCatalogRecord
		require.NoError(t, json.Unmarshal([]byte(`{"url":"u","price":""}`), &r))

		require.NotNil(t, r.Price)
		assert.Equal(t, "", *r.Price)
	})

	t.Run("numeric price keeps its text", func(t *testing.T) {
		var r RawCatalogRecord
		require.NoError(t, json.Unmarshal([]byte(`{"url":"u","price":350000}`), &r))

		require.NotNil(t, r.Price)
		assert.Equal(t, "350000", *r.Price)
	})

	t.Run("rejects non-object", func(t *testing.T) {
		var r RawCatalogRecord
		assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &r))
	})
}

func TestRawCatalogRecord_MarshalFlattensAttributes(t *testing.T) {
	price := "100k"
	in := RawCatalogRecord{Url: "u", Title: "t", Price: &price, Attributes: map[string]interface{}{"sku": "R-1"}}

	data, err := json.Marshal(PublishIngestRecordMessage{Record: in})
	require.NoError(t, err)

	var out PublishIngestRecordMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out.Record)
}
