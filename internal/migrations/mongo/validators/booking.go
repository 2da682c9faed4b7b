package validators

import "go.mongodb.org/mongo-driver/bson"

var objectIDString = bson.M{
	"bsonType":  "string",
	"minLength": 24,
	"maxLength": 24,
}

var CourtBookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"court_id",
			"branch_id",
			"customer_id",
			"booking_date",
			"start_time",
			"end_time",
			"type",
			"status",
			"slots",
			"price",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"court_id":  objectIDString,
			"branch_id": objectIDString,

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"series_id": bson.M{
				"bsonType": "string",
			},

			"booking_date": bson.M{
				"bsonType": "date",
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"type": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 40,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"Pending",
					"Confirmed",
					"Cancelled",
					"Completed",
					"NoShow",
				},
			},

			"slots": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"start", "end"},
					"properties": bson.M{
						"start": bson.M{"bsonType": "date"},
						"end":   bson.M{"bsonType": "date"},
					},
				},
			},

			"price": bson.M{
				"bsonType": "object",
				"required": []string{"grand_total"},
				"properties": bson.M{
					"grand_total": bson.M{"bsonType": "decimal"},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var InvoiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"branch_id",
			"type",
			"lines",
			"total",
			"method",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"branch_id": objectIDString,

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"CourtCancel",
					"CourtCompletion",
					"CourtNoShow",
				},
			},

			"lines": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"kind", "amount"},
				},
			},

			"total": bson.M{
				"bsonType": "decimal",
			},

			"method": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 50,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var SlotLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "token", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"token":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
		},
	},
}
