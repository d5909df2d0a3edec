package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "kind", "capacity"},
		"properties": bson.M{
			"name": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"kind": bson.M{
				"bsonType": "string",
				"enum":     []string{"boat", "helicopter", "buggy"},
			},
			"capacity": bson.M{"bsonType": []string{"int", "long"}, "minimum": 1, "maximum": 1000},
		},
	},
}

var CrewMemberValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name"},
		"properties": bson.M{
			"name": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"qualifications": bson.M{
				"bsonType": "array",
				"maxItems": 20,
				"items":    bson.M{"bsonType": "string"},
			},
		},
	},
}
