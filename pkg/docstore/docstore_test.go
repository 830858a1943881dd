package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTableFromDocuments(t *testing.T) {
	docs := []bson.D{
		{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "Gender", Value: "Male"},
			{Key: "Age", Value: int32(44)},
			{Key: "Annual_Premium", Value: 2630.5},
		},
		{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "Gender", Value: "na"},
			{Key: "Age", Value: int64(31)},
			{Key: "Annual_Premium", Value: 28619.0},
			{Key: "Vintage", Value: int32(80)},
		},
	}

	table := tableFromDocuments(docs)

	// first-seen ordering, _id dropped, late fields appended
	assert.Equal(t, []string{"Gender", "Age", "Annual_Premium", "Vintage"}, table.Columns)
	assert.Equal(t, 2, table.NumRows())

	assert.Equal(t, []string{"Male", "44", "2630.5", ""}, table.Rows[0])
	// "na" becomes an empty cell
	assert.Equal(t, []string{"", "31", "28619", "80"}, table.Rows[1])
}

func TestTableFromDocumentsEmpty(t *testing.T) {
	table := tableFromDocuments(nil)
	assert.Equal(t, 0, table.NumRows())
	assert.Empty(t, table.Columns)
}

func TestCellValue(t *testing.T) {
	oid := primitive.NewObjectID()
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"Yes", "Yes"},
		{"na", ""},
		{int32(7), "7"},
		{int64(-3), "-3"},
		{1.25, "1.25"},
		{true, "true"},
		{oid, oid.Hex()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cellValue(tt.in))
	}
}
