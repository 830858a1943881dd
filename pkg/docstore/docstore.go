// Package docstore reads the raw insurance records out of MongoDB and
// flattens them into a table the ingestion stage can snapshot.
package docstore

import (
	"context"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/versich-treue/vtml-go/pkg/dataset"
)

// Client wraps a MongoDB connection. Callers own the handle and close it;
// nothing here is a process-wide singleton.
type Client struct {
	client *mongo.Client
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &Client{client: client}, nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// ExportCollection loads every document of a collection into a table.
// Columns appear in first-seen field order, the synthetic "_id" field is
// dropped, and the literal string "na" becomes an empty cell. Documents
// missing a field get an empty cell for it.
func (c *Client) ExportCollection(ctx context.Context, database, collection string) (*dataset.Table, error) {
	coll := c.client.Database(database).Collection(collection)

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("querying %s.%s: %w", database, collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.D
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s.%s: %w", database, collection, err)
	}

	return tableFromDocuments(docs), nil
}

// tableFromDocuments flattens BSON documents into a table.
func tableFromDocuments(docs []bson.D) *dataset.Table {
	var columns []string
	colIndex := make(map[string]int)
	rows := make([]map[string]string, 0, len(docs))

	for _, doc := range docs {
		row := make(map[string]string, len(doc))
		for _, elem := range doc {
			if elem.Key == "_id" {
				continue
			}
			if _, ok := colIndex[elem.Key]; !ok {
				colIndex[elem.Key] = len(columns)
				columns = append(columns, elem.Key)
			}
			row[elem.Key] = cellValue(elem.Value)
		}
		rows = append(rows, row)
	}

	t := dataset.NewTable(columns)
	t.Rows = make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(columns))
		for name, idx := range colIndex {
			cells[idx] = row[name]
		}
		t.Rows[i] = cells
	}
	return t
}

// cellValue renders a BSON value as a table cell.
func cellValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		if val == "na" {
			return ""
		}
		return val
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case primitive.ObjectID:
		return val.Hex()
	default:
		return fmt.Sprintf("%v", val)
	}
}
