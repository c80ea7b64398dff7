package implementation

import (
	"testing"

	"flowershop-chat-be/internal/repository/specification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadFilter(t *testing.T) {
	t.Run("no catalog filters", func(t *testing.T) {
		assert.Nil(t, payloadFilter([]specification.Specification{
			specification.Indexed{},
			specification.TitleContains{},
			specification.OrderBy{Field: "created_at"},
			specification.Pagination{Limit: 5},
		}))
	})

	t.Run("catalog filters become conditions", func(t *testing.T) {
		filter := payloadFilter([]specification.Specification{
			specification.ByUrl{Url: "https://shop/red-rose"},
			specification.TitleContains{Term: "Rose"},
			specification.Priced{},
		})

		require.NotNil(t, filter)
		require.Len(t, filter.Must, 2)
		assert.Equal(t, "url", filter.Must[0].GetField().GetKey())
		assert.Equal(t, "https://shop/red-rose", filter.Must[0].GetField().GetMatch().GetKeyword())
		assert.Equal(t, "title", filter.Must[1].GetField().GetKey())
		assert.Equal(t, "Rose", filter.Must[1].GetField().GetMatch().GetText())

		require.Len(t, filter.MustNot, 1)
		assert.Equal(t, "price", filter.MustNot[0].GetIsEmpty().GetKey())
	})
}

func TestPagination(t *testing.T) {
	limit, offset := pagination(nil)
	assert.Equal(t, 100, limit)
	assert.Zero(t, offset)

	limit, offset = pagination([]specification.Specification{specification.Pagination{Limit: 7, Offset: 14}})
	assert.Equal(t, 7, limit)
	assert.Equal(t, 14, offset)
}
