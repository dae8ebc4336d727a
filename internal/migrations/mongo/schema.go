package mongo

import "go.mongodb.org/mongo-driver/bson"

// ScheduledEventValidator mirrors the stored event document. The day field
// is the wall-clock date the calendar groups by.
var ScheduledEventValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"vendor_id",
			"title",
			"service_name",
			"client_name",
			"occurs_at",
			"utc_offset",
			"day",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"vendor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 120,
			},

			"service_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"client_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"occurs_at": bson.M{
				"bsonType": "date",
			},

			"utc_offset": bson.M{
				"bsonType": bson.A{"int", "long"},
				"minimum":  -14 * 60 * 60,
				"maximum":  14 * 60 * 60,
			},

			"day": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 1000,
			},

			"source": bson.M{
				"enum": []string{"manual", "ics", "booking"},
			},

			"external_ref": bson.M{
				"bsonType":  "string",
				"maxLength": 255,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
