package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/flowspec/packages/core/model"
)

func TestExtractScalars(t *testing.T) {
	body := []byte(`{"id":"abc-123","user":{"name":"alice","age":30},"active":true}`)

	values, missed := Extract(body, []model.ExtractRule{
		{Name: "sessionId", Field: "id"},
		{Name: "userName", Field: "user.name"},
		{Name: "userAge", Field: "user.age"},
		{Name: "isActive", Field: "active"},
	})
	require.Empty(t, missed)
	assert.Equal(t, map[string]string{
		"sessionId": "abc-123",
		"userName":  "alice",
		"userAge":   "30",
		"isActive":  "true",
	}, values)
}

func TestExtractArrayElement(t *testing.T) {
	body := []byte(`{"items":[{"id":7},{"id":8}]}`)

	values, missed := Extract(body, []model.ExtractRule{
		{Name: "firstId", Field: "items.0.id"},
		{Name: "allIds", Field: "items.#.id"},
	})
	require.Empty(t, missed)
	assert.Equal(t, "7", values["firstId"])
	assert.Equal(t, "[7,8]", values["allIds"])
}

func TestExtractReportsMisses(t *testing.T) {
	body := []byte(`{"id":1}`)

	values, missed := Extract(body, []model.ExtractRule{
		{Name: "present", Field: "id"},
		{Name: "absent", Field: "user.token"},
	})
	assert.Equal(t, []string{"absent"}, missed)
	assert.Equal(t, "1", values["present"])
}
