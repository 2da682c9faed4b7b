package validators

import "go.mongodb.org/mongo-driver/bson"

var BranchServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"branch_id",
			"service",
			"unit_price",
			"current_stock",
			"status",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"branch_id": objectIDString,

			"service": bson.M{
				"bsonType": "object",
				"required": []string{"name", "stock_type"},
				"properties": bson.M{
					"name": bson.M{
						"bsonType":  "string",
						"minLength": 1,
						"maxLength": 100,
					},
					"stock_type": bson.M{
						"bsonType": "string",
						"enum":     []string{"Physical", "Unlimited"},
					},
				},
			},

			"unit_price": bson.M{
				"bsonType": "decimal",
			},

			// Conditional decrements never take this below zero.
			"current_stock": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"min_stock_threshold": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"Active", "Inactive"},
			},
		},
	},
}

var ServiceBookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"court_booking_id",
			"branch_id",
			"items",
			"total",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"court_booking_id": objectIDString,
			"branch_id":        objectIDString,

			"items": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"branch_service_id", "quantity", "unit_price", "line_total"},
					"properties": bson.M{
						"quantity": bson.M{
							"bsonType": []string{"int", "long"},
							"minimum":  1,
						},
					},
				},
			},

			"total": bson.M{
				"bsonType": "decimal",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
