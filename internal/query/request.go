package query

import "go.mongodb.org/mongo-driver/bson"

// RequestKind discriminates the Request sum type the top-level translator
// produces. Exactly one of these is ever driven into the execution client
// or the expression evaluator for a given Query.
type RequestKind int

const (
	ReqFind RequestKind = iota
	ReqCount
	ReqDistinct
	ReqAggregate
	ReqEval
	ReqInsertOne
	ReqInsertMany
	ReqUpdateMany
	ReqDeleteMany
	ReqShowCollections
	ReqShowDatabases
	ReqUseDatabase
)

func (k RequestKind) String() string {
	switch k {
	case ReqFind:
		return "find"
	case ReqCount:
		return "count"
	case ReqDistinct:
		return "distinct"
	case ReqAggregate:
		return "aggregate"
	case ReqEval:
		return "eval"
	case ReqInsertOne:
		return "insert_one"
	case ReqInsertMany:
		return "insert_many"
	case ReqUpdateMany:
		return "update_many"
	case ReqDeleteMany:
		return "delete_many"
	case ReqShowCollections:
		return "list_collections"
	case ReqShowDatabases:
		return "list_databases"
	case ReqUseDatabase:
		return "use_database"
	default:
		return "unknown_request"
	}
}

// Request is the translator's sole output type: one variant is populated
// per Kind, matching the data model's Request sum type one-for-one.
type Request struct {
	Kind RequestKind

	Collection string

	// ReqFind
	Filter              bson.M
	Projection          bson.M
	Sort                bson.D
	Skip                *int64
	FindLimit           *int64
	PreserveColumnOrder []string

	// ReqCount
	CountFilter bson.M

	// ReqDistinct
	DistinctField  string
	DistinctFilter bson.M

	// ReqAggregate
	Pipeline mongoPipeline

	// ReqEval
	EvalProjection map[string]interface{}

	// ReqInsertOne / ReqInsertMany
	InsertDocs []bson.M

	// ReqUpdateMany
	UpdateFilter bson.M
	UpdateDoc    bson.M

	// ReqDeleteMany
	DeleteFilter bson.M

	// ReqUseDatabase
	Database string
}

// mongoPipeline is an ordered list of aggregation stages. It is declared
// locally (rather than importing mongo.Pipeline) so this package does not
// need to import the driver's top-level mongo package, only bson — the
// execution client converts it to mongo.Pipeline at the call boundary.
type mongoPipeline = []bson.D
