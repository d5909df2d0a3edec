package validators

import "go.mongodb.org/mongo-driver/bson"

var windowSchema = bson.M{
	"bsonType": "object",
	"required": []string{"date", "start", "end"},
	"properties": bson.M{
		"date":  bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"start": bson.M{"bsonType": "string", "pattern": `^\d{2}:\d{2}$`},
		"end":   bson.M{"bsonType": "string", "pattern": `^\d{2}:\d{2}$`},
	},
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"resource",
			"window",
			"status",
			"version",
			"created_by",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"resource": bson.M{
				"bsonType": "object",
				"required": []string{"id"},
				"properties": bson.M{
					"id": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
				},
			},

			"crew": bson.M{
				"bsonType": "array",
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id"},
				},
			},

			"window": windowSchema,

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled",
				},
			},

			"guests": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  1000,
			},

			"version": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
