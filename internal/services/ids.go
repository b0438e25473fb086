package services

import "go.mongodb.org/mongo-driver/bson/primitive"

// objectIDHex renders a Mongo InsertedID as its hex form. Insert results
// are typed `any`; anything that is not an ObjectID falls back to empty.
func objectIDHex(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}
