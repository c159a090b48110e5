package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"sales-analytics/internal/dataset"
)

const (
	// tablesCollection keeps the column order of every stored table.
	tablesCollection = "_tables"
	defaultMongoDB   = "sales"
)

// MongoDriver stores each table as a collection with one document per row.
// Replacing a table needs a replica set, since it runs in a transaction.
type MongoDriver struct {
	// Database overrides the database named in the connection string.
	Database string
	client   *mongo.Client
}

func (md *MongoDriver) Connect(dsn string) error {
	if md.Database == "" {
		if cs, err := connstring.ParseAndValidate(dsn); err == nil && cs.Database != "" {
			md.Database = cs.Database
		} else {
			md.Database = defaultMongoDB
		}
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(dsn))
	if err != nil {
		return err
	}
	md.client = client
	return nil
}

func (md *MongoDriver) Close() error {
	return md.client.Disconnect(context.Background())
}

func (md *MongoDriver) ExecuteTx(ctx context.Context, txFunc func(interface{}) error) error {
	session, err := md.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if err := txFunc(sessCtx); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}

func (md *MongoDriver) db() *mongo.Database {
	return md.client.Database(md.Database)
}

func (md *MongoDriver) ReplaceTable(ctx context.Context, tbl *dataset.Table) error {
	docs := make([]interface{}, len(tbl.Rows))
	for r, row := range tbl.Rows {
		doc := bson.D{{Key: "_id", Value: uuid.NewString()}, {Key: rowKey, Value: r}}
		for i, c := range tbl.Columns {
			doc = append(doc, bson.E{Key: c, Value: row[i]})
		}
		docs[r] = doc
	}
	meta := bson.D{
		{Key: "_id", Value: tbl.Name},
		{Key: "columns", Value: tbl.Columns},
		{Key: "rows", Value: len(tbl.Rows)},
		{Key: "replaced_at", Value: time.Now().UTC()},
	}

	return md.ExecuteTx(ctx, func(t interface{}) error {
		sessCtx, ok := t.(mongo.SessionContext)
		if !ok {
			return fmt.Errorf("unexpected transaction type %T", t)
		}
		coll := md.db().Collection(tbl.Name)
		if _, err := coll.DeleteMany(sessCtx, bson.D{}); err != nil {
			return err
		}
		if len(docs) > 0 {
			if _, err := coll.InsertMany(sessCtx, docs); err != nil {
				return err
			}
		}
		_, err := md.db().Collection(tablesCollection).ReplaceOne(sessCtx,
			bson.D{{Key: "_id", Value: tbl.Name}}, meta, options.Replace().SetUpsert(true))
		return err
	})
}

func (md *MongoDriver) ReadTable(ctx context.Context, name string) (*dataset.Table, error) {
	var meta struct {
		Columns []string `bson:"columns"`
	}
	err := md.db().Collection(tablesCollection).FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&meta)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, tableNotFound(name)
	}
	if err != nil {
		return nil, err
	}

	cursor, err := md.db().Collection(name).Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: rowKey, Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tbl := dataset.New(name, meta.Columns...)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		values := make([]any, len(meta.Columns))
		for i, c := range meta.Columns {
			values[i] = mongoValue(doc[c])
		}
		if err := tbl.Append(values...); err != nil {
			return nil, err
		}
	}
	return tbl, cursor.Err()
}

func mongoValue(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
