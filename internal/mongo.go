package internal

import (
	"context"
	"evstation/internal/config"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionLog      = "sys_log"
	collectionProfiles = "charging_profiles"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	err := connection.Disconnect(m.ctx)
	if err != nil {
		log.Println("mongodb disconnect error;", err)
	}
}

func (m *MongoDB) WriteLogMessage(data Data) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionLog)
	_, err = collection.InsertOne(m.ctx, data)
	if err != nil {
		return err
	}
	return nil
}

func (m *MongoDB) ReadLog() (interface{}, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	var logMessages []FeatureLogMessage
	collection := connection.Database(m.database).Collection(collectionLog)
	filter := bson.D{}
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: -1}}).SetLimit(1000)
	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &logMessages); err != nil {
		return nil, err
	}
	return logMessages, nil
}

// UpsertChargingProfile replaces the stored record carrying the same
// profile id, or inserts a new one.
func (m *MongoDB) UpsertChargingProfile(record *ChargingProfileRecord) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "profile_id", Value: record.ProfileId}}
	opts := options.Replace().SetUpsert(true)
	collection := connection.Database(m.database).Collection(collectionProfiles)
	_, err = collection.ReplaceOne(m.ctx, filter, record, opts)
	return err
}

// GetChargingProfiles returns every stored record, ascending by profile id.
func (m *MongoDB) GetChargingProfiles() ([]ChargingProfileRecord, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	var records []ChargingProfileRecord
	collection := connection.Database(m.database).Collection(collectionProfiles)
	opts := options.Find().SetSort(bson.D{{Key: "profile_id", Value: 1}})
	cursor, err := collection.Find(m.ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	if err = cursor.All(m.ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (m *MongoDB) DeleteChargingProfile(profileId int) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	filter := bson.D{{Key: "profile_id", Value: profileId}}
	collection := connection.Database(m.database).Collection(collectionProfiles)
	_, err = collection.DeleteOne(m.ctx, filter)
	return err
}

func (m *MongoDB) CountChargingProfiles() (int, error) {
	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionProfiles)
	count, err := collection.CountDocuments(m.ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
