package validators

import "go.mongodb.org/mongo-driver/bson"

var ParkingSpaceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"owner_id",
			"title",
			"latitude",
			"longitude",
			"availability",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"description": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"address": bson.M{
				"bsonType":  "string",
				"maxLength": 300,
			},

			"latitude": bson.M{
				"bsonType": "double",
				"minimum":  -90,
				"maximum":  90,
			},

			"longitude": bson.M{
				"bsonType": "double",
				"minimum":  -180,
				"maximum":  180,
			},

			"price_per_hour": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"price_per_day": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"availability": bson.M{
				"bsonType": "bool",
			},

			"has_roof": bson.M{
				"bsonType": "bool",
			},

			"can_accomodate_large_vehicles": bson.M{
				"bsonType": "bool",
			},

			"surface_type": bson.M{
				"bsonType":  "string",
				"maxLength": 50,
			},

			"dimensions": bson.M{
				"bsonType": "object",
				"additionalProperties": bson.M{
					"bsonType": "double",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
