package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shopping intents a query can classify to.
const (
	IntentCompare  = "compare"
	IntentGift     = "gift"
	IntentBudget   = "budget"
	IntentCategory = "category"
	IntentAge      = "age"
	IntentOccasion = "occasion"
	IntentSpecs    = "specs"
	IntentSearch   = "search"
)

// Intents lists every recognized intent.
var Intents = []string{
	IntentCompare,
	IntentGift,
	IntentBudget,
	IntentCategory,
	IntentAge,
	IntentOccasion,
	IntentSpecs,
	IntentSearch,
}

// Chatbot response types.
const (
	ResponseProductList = "product_list"
	ResponseComparison  = "comparison"
	ResponseSpecs       = "specs"
	ResponseText        = "text"
)

// Occasion vocabulary for gift resolution.
const (
	OccasionBirthday    = "birthday"
	OccasionWedding     = "wedding"
	OccasionAnniversary = "anniversary"
	OccasionChristmas   = "christmas"
	OccasionHoliday     = "holiday"
	OccasionGraduation  = "graduation"
	OccasionValentine   = "valentine"
)

// Occasions lists every recognized occasion keyword.
var Occasions = []string{
	OccasionBirthday,
	OccasionWedding,
	OccasionAnniversary,
	OccasionChristmas,
	OccasionGraduation,
	OccasionValentine,
	OccasionHoliday,
}

// ChatQuery is the append-only audit record written once per chatbot
// invocation. It is never mutated afterward; analytics reads aggregate
// over it.
type ChatQuery struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	User            *primitive.ObjectID  `bson:"user,omitempty" json:"user,omitempty"`
	Query           string               `bson:"query" json:"query"`
	Intent          string               `bson:"intent" json:"intent"`
	MatchedProducts []primitive.ObjectID `bson:"matchedProducts,omitempty" json:"matchedProducts,omitempty"`
	ResponseType    string               `bson:"responseType" json:"responseType"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
}
