// Package mongoexec is the execution client contract of spec §4.X: it
// wraps go.mongodb.org/mongo-driver/mongo, owns a single process-wide
// connection (spec §5), and maps driver errors to MySQL-style numbered
// codes (spec §7). The eval.Row path never touches this package: a
// query.ReqEval request is interpreted entirely client-side.
package mongoexec

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/mongosql-go/mongosql/internal/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTimeout is the per-request server-operation bound spec §5 calls
// "implementation-defined"; the CLI may override it via Config.Timeout.
const DefaultTimeout = 30 * time.Second

// Client holds the process-wide *mongo.Client/*mongo.Database handle,
// created once via Connect and reused for the process lifetime. It is
// assumed safe for concurrent use by contract (spec §5), since the
// driver's own Client is.
type Client struct {
	conn    *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// Config carries the connection parameters spec §6 documents (CLI flags >
// environment > .env, resolved upstream by internal/config).
type Config struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Timeout  time.Duration
}

// BuildURI constructs the connection string per spec §6: an SRV-form
// mongodb+srv:// URI for Atlas-style hosts containing "mongodb.net",
// otherwise a standard mongodb:// URI with an explicit port.
func BuildURI(cfg Config) string {
	var userinfo string
	if cfg.Username != "" {
		userinfo = cfg.Username
		if cfg.Password != "" {
			userinfo += ":" + cfg.Password
		}
		userinfo += "@"
	}
	if strings.Contains(cfg.Host, "mongodb.net") {
		return "mongodb+srv://" + userinfo + cfg.Host + "/?retryWrites=true&w=majority&appName=mongosql"
	}
	port := cfg.Port
	if port == "" {
		port = "27017"
	}
	return "mongodb://" + userinfo + cfg.Host + ":" + port
}

// Connect establishes the process-wide connection, scoped with Config's
// timeout (or DefaultTimeout), and verifies it with a Ping.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().ApplyURI(BuildURI(cfg))
	conn, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, classifyError(err)
	}
	if err := conn.Ping(connectCtx, nil); err != nil {
		return nil, classifyError(err)
	}
	log.Printf("mongoexec: connected to %s database=%s", cfg.Host, cfg.Database)
	return &Client{conn: conn, db: conn.Database(cfg.Database), timeout: timeout}, nil
}

// Close releases the connection on every exit path, per spec §5's scoped
// cleanup requirement.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Disconnect(ctx)
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// Execute dispatches req to the matching driver call, satisfying the
// `operation` contract spec §6 documents. ReqEval is not expected here;
// callers route it to internal/eval instead. ReqUseDatabase has no driver
// call here and, like any other unmapped kind, returns an ExecutionError
// (1064).
func (c *Client) Execute(ctx context.Context, req *query.Request) ([]bson.M, error) {
	switch req.Kind {
	case query.ReqFind:
		return c.Find(ctx, req.Collection, req.Filter, req.Projection, req.Sort, req.Skip, req.FindLimit)
	case query.ReqCount:
		n, err := c.Count(ctx, req.Collection, req.CountFilter)
		if err != nil {
			return nil, err
		}
		return []bson.M{{"count": n}}, nil
	case query.ReqDistinct:
		vals, err := c.Distinct(ctx, req.Collection, req.DistinctField, req.DistinctFilter)
		if err != nil {
			return nil, err
		}
		rows := make([]bson.M, 0, len(vals))
		for _, v := range vals {
			rows = append(rows, bson.M{req.DistinctField: v})
		}
		return rows, nil
	case query.ReqAggregate:
		return c.Aggregate(ctx, req.Collection, req.Pipeline)
	case query.ReqInsertOne, query.ReqInsertMany:
		return nil, c.insert(ctx, req)
	case query.ReqUpdateMany:
		return nil, c.update(ctx, req)
	case query.ReqDeleteMany:
		return nil, c.delete(ctx, req)
	case query.ReqShowCollections:
		names, err := c.ListCollections(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]bson.M, 0, len(names))
		for _, n := range names {
			rows = append(rows, bson.M{"collection": n})
		}
		return rows, nil
	case query.ReqShowDatabases:
		names, err := c.ListDatabases(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]bson.M, 0, len(names))
		for _, n := range names {
			rows = append(rows, bson.M{"database": n})
		}
		return rows, nil
	default:
		return nil, &ExecutionError{Code: 1064, SQLState: "42000", Detail: "request kind has no execution mapping: " + req.Kind.String()}
	}
}

// Find runs the driver's Find, honoring an optional projection, sort,
// skip, and limit.
func (c *Client) Find(ctx context.Context, collection string, filter, projection bson.M, sort bson.D, skip, limit *int64) ([]bson.M, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if sort != nil {
		opts.SetSort(sort)
	}
	if skip != nil {
		opts.SetSkip(*skip)
	}
	if limit != nil {
		opts.SetLimit(*limit)
	}
	cursor, err := c.db.Collection(collection).Find(ctx, orEmpty(filter), opts)
	if err != nil {
		return nil, classifyError(err)
	}
	defer cursor.Close(ctx)
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classifyError(err)
	}
	return docs, nil
}

// Count runs CountDocuments.
func (c *Client) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	n, err := c.db.Collection(collection).CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return 0, classifyError(err)
	}
	return n, nil
}

// Distinct runs the driver's Distinct.
func (c *Client) Distinct(ctx context.Context, collection, field string, filter bson.M) ([]interface{}, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := c.db.Collection(collection).Distinct(ctx, field, orEmpty(filter))
	if err != nil {
		return nil, classifyError(err)
	}
	return res, nil
}

// Aggregate runs the driver's Aggregate over a pipeline built by
// internal/translator (JOINs, GROUP BY, subqueries, DISTINCT-as-group).
func (c *Client) Aggregate(ctx context.Context, collection string, pipeline []bson.D) ([]bson.M, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	mp := make(mongo.Pipeline, len(pipeline))
	copy(mp, pipeline)
	cursor, err := c.db.Collection(collection).Aggregate(ctx, mp)
	if err != nil {
		return nil, classifyError(err)
	}
	defer cursor.Close(ctx)
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classifyError(err)
	}
	log.Printf("mongoexec: aggregate collection=%s stages=%d rows=%d", collection, len(pipeline), len(docs))
	return docs, nil
}

func (c *Client) insert(ctx context.Context, req *query.Request) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	coll := c.db.Collection(req.Collection)
	docs := make([]interface{}, len(req.InsertDocs))
	for i, d := range req.InsertDocs {
		docs[i] = d
	}
	if len(docs) == 1 {
		_, err := coll.InsertOne(ctx, docs[0])
		return classifyError(err)
	}
	_, err := coll.InsertMany(ctx, docs)
	return classifyError(err)
}

func (c *Client) update(ctx context.Context, req *query.Request) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.db.Collection(req.Collection).UpdateMany(ctx, orEmpty(req.UpdateFilter), req.UpdateDoc)
	return classifyError(err)
}

func (c *Client) delete(ctx context.Context, req *query.Request) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	_, err := c.db.Collection(req.Collection).DeleteMany(ctx, orEmpty(req.DeleteFilter))
	return classifyError(err)
}

// ListCollections returns every collection name in the current database.
func (c *Client) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	names, err := c.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, classifyError(err)
	}
	return names, nil
}

// ListDatabases returns every database name the connection can see.
func (c *Client) ListDatabases(ctx context.Context) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	result, err := c.conn.ListDatabaseNames(ctx, bson.M{})
	if err != nil {
		return nil, classifyError(err)
	}
	return result, nil
}

func orEmpty(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}

// ExecutionError is spec §7's ExecutionError{code, detail}, rendered the
// way a mysql client prints a numbered server error.
type ExecutionError struct {
	Code     int
	SQLState string
	Detail   string
}

func (e *ExecutionError) Error() string {
	return "ERROR " + itoa(e.Code) + " (" + e.SQLState + "): " + e.Detail
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// classifyError maps a driver error into the numbered ExecutionError codes
// spec §7 documents, by error category rather than string-matching the
// message text.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ExecutionError{Code: 2006, SQLState: "HY000", Detail: "server operation timed out"}
	}
	if errors.Is(err, context.Canceled) {
		return &OperationCancelledError{Detail: "operation cancelled"}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return &ExecutionError{Code: 2003, SQLState: "HY000", Detail: err.Error()}
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		switch {
		case cmdErr.Code == 13 || cmdErr.Code == 18:
			return &ExecutionError{Code: 1045, SQLState: "28000", Detail: cmdErr.Message}
		case cmdErr.Code == 26:
			return &ExecutionError{Code: 1146, SQLState: "42S02", Detail: cmdErr.Message}
		default:
			return &ExecutionError{Code: 1064, SQLState: "42000", Detail: cmdErr.Message}
		}
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		return &ExecutionError{Code: 1064, SQLState: "42000", Detail: writeErr.Error()}
	}
	return &ExecutionError{Code: 2003, SQLState: "HY000", Detail: err.Error()}
}

// OperationCancelledError surfaces a caller-initiated cancellation
// propagated into an in-flight driver call, per spec §5's cooperative
// cancellation model.
type OperationCancelledError struct{ Detail string }

func (e *OperationCancelledError) Error() string { return "operation cancelled: " + e.Detail }
