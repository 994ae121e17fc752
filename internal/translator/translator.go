// Package translator applies spec §4.T's decision rules to turn a parsed
// Query into the single Request the execution client or expression
// evaluator consumes, composing the JOIN/WHERE/GROUP BY/subquery
// translators in the documented precedence order.
package translator

import (
	"log"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/mongosql-go/mongosql/internal/functions"
	"github.com/mongosql-go/mongosql/internal/groupby"
	"github.com/mongosql-go/mongosql/internal/join"
	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/subquery"
	"github.com/mongosql-go/mongosql/internal/where"
	"go.mongodb.org/mongo-driver/bson"
)

// SchemaError reports an unresolved alias or a missing FROM on an
// aggregate query, per spec §7.
type SchemaError struct{ Detail string }

func (e *SchemaError) Error() string { return "schema error: " + e.Detail }

// UnsupportedFeatureError reports a construct the translator recognises
// but does not implement, per spec §7 (a window function column in a
// projection built outside $setWindowFields).
type UnsupportedFeatureError struct{ Detail string }

func (e *UnsupportedFeatureError) Error() string { return "unsupported feature: " + e.Detail }

// Translate runs q through the decision rules in spec §4.T, in order, and
// returns the single Request they produce.
func Translate(q *query.Query) (*query.Request, error) {
	switch q.Kind {
	case query.StmtInsert:
		return translateInsert(q), nil
	case query.StmtUpdate:
		return translateUpdate(q), nil
	case query.StmtDelete:
		return translateDelete(q), nil
	case query.StmtShow:
		return translateShow(q), nil
	case query.StmtUse:
		return &query.Request{Kind: query.ReqUseDatabase, Database: q.UseDatabase}, nil
	}

	// Rule 0: FROM (SELECT ...) AS alias -> Aggregate (DERIVED subquery,
	// spec §4.S). Checked before the ordinary FROM-table rules since there
	// is no q.FromTable to resolve a collection from.
	if q.FromSubquery != nil {
		log.Printf("translator: derived-table FROM (alias=%s) -> aggregate", q.FromAlias)
		return translateDerivedQuery(q)
	}

	collection := collectionName(q.FromTable)

	// Rule 1: any JOIN -> Aggregate.
	if q.HasJoins() {
		log.Printf("translator: query has %d join(s), collection=%s -> aggregate", len(q.Joins), collection)
		return translateJoinQuery(q, collection)
	}

	// Rule 2/3: DISTINCT.
	if q.Distinct {
		if len(q.Columns) == 1 && q.Limit == nil {
			return translateDistinct(q, collection)
		}
		log.Printf("translator: multi-column or LIMITed DISTINCT, collection=%s -> aggregate $group", collection)
		return translateDistinctAggregate(q, collection)
	}

	// Rule 4: no FROM -> Eval.
	if q.FromTable == "" {
		log.Printf("translator: no FROM clause -> eval")
		return translateEval(q)
	}

	// Rule 5: aggregate functions or GROUP BY -> Aggregate.
	if q.NeedsGroupStage() {
		log.Printf("translator: aggregate/GROUP BY query, collection=%s -> aggregate $group", collection)
		return translateGroupQuery(q, collection, where.AliasMap{})
	}

	// Window functions (spec §4.F) -> Aggregate with $setWindowFields,
	// evaluated ahead of the plain Find rule since ROW_NUMBER()/RANK()/etc
	// need a pipeline, not a single $project.
	if q.HasWindowColumn() {
		log.Printf("translator: window function(s), collection=%s -> aggregate $setWindowFields", collection)
		return translateWindowQuery(q, collection)
	}

	// Rule 6: subqueries present -> Aggregate.
	if len(q.Subqueries) > 0 {
		log.Printf("translator: %d subquery(ies), collection=%s -> aggregate", len(q.Subqueries), collection)
		return translateSubqueryQuery(q, collection)
	}

	// Rule 7: otherwise -> Find.
	log.Printf("translator: collection=%s -> find", collection)
	return translateFind(q, collection)
}

// collectionResolver consults a project's mongosql.yaml collection_overrides
// ahead of the inflection.Plural fallback; set once at startup via
// SetCollectionResolver. Nil means no overrides were loaded.
var collectionResolver func(string) (string, bool)

// SetCollectionResolver installs a table-name override lookup (typically
// config.ProjectConfig.ResolveCollection) that collectionName consults
// before falling back to pluralisation. Called once by cmd/mongosql at
// startup; nil (the zero value) disables overrides entirely.
func SetCollectionResolver(f func(string) (string, bool)) {
	collectionResolver = f
}

// collectionName resolves a bare table name to its MongoDB collection name:
// an explicit mongosql.yaml override wins, otherwise it is pluralised the
// way MongoDB collections are conventionally named, mirroring the teacher's
// getMongoDBCollectionName: an already-plural or otherwise-cased name is
// left alone (inflection.Plural is idempotent on already-plural words).
func collectionName(table string) string {
	if table == "" {
		return ""
	}
	if collectionResolver != nil {
		if name, ok := collectionResolver(table); ok && name != "" {
			return name
		}
	}
	return inflection.Plural(table)
}

func translateFind(q *query.Query, collection string) (*query.Request, error) {
	filter := bson.M{}
	if q.Where != nil {
		f, err := where.Translate(q.Where, nil)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	proj, order, err := buildProjection(q.Columns)
	if err != nil {
		return nil, err
	}

	req := &query.Request{
		Kind:                query.ReqFind,
		Collection:          collection,
		Filter:              filter,
		Projection:          proj,
		PreserveColumnOrder: order,
	}
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range q.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		req.Sort = sort
	}
	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			off := q.Limit.Offset
			req.Skip = &off
		}
		lim := q.Limit.Count
		req.FindLimit = &lim
	}
	return req, nil
}

func translateDistinct(q *query.Query, collection string) (*query.Request, error) {
	filter := bson.M{}
	if q.Where != nil {
		f, err := where.Translate(q.Where, nil)
		if err != nil {
			return nil, err
		}
		filter = f
	}
	return &query.Request{
		Kind:           query.ReqDistinct,
		Collection:     collection,
		DistinctField:  q.Columns[0].QualifiedName(),
		DistinctFilter: filter,
	}, nil
}

func translateDistinctAggregate(q *query.Query, collection string) (*query.Request, error) {
	var pipeline []bson.D
	if q.Where != nil {
		matchDoc, err := where.Translate(q.Where, nil)
		if err != nil {
			return nil, err
		}
		if len(matchDoc) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
		}
	}

	id := bson.M{}
	for _, c := range q.Columns {
		id[c.OutputName()] = "$" + c.QualifiedName()
	}
	pipeline = append(pipeline, bson.D{{Key: "$group", Value: bson.M{"_id": id}}})
	pipeline = append(pipeline, bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$_id"}}})

	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Limit.Offset}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit.Count}})
	}

	return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
}

func translateGroupQuery(q *query.Query, collection string, aliases where.AliasMap) (*query.Request, error) {
	pipeline, err := groupby.Build(q, aliases)
	if err != nil {
		return nil, err
	}
	return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
}

func translateJoinQuery(q *query.Query, collection string) (*query.Request, error) {
	result, err := join.Build(q.FromTable, q.FromAlias, q.Joins)
	if err != nil {
		return nil, err
	}
	pipeline := append([]bson.D{}, result.Pipeline...)

	if q.NeedsGroupStage() {
		groupStages, err := groupby.Build(q, result.Aliases)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, groupStages...)
		pipeline = join.Optimize(pipeline)
		return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
	}

	if q.Where != nil {
		matchDoc, err := where.Translate(q.Where, result.Aliases)
		if err != nil {
			return nil, err
		}
		if len(matchDoc) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
		}
	}

	proj := bson.M{"_id": 0}
	for _, c := range q.Columns {
		if c.Kind == query.ColStar {
			proj = bson.M{}
			break
		}
		key := c.OutputName()
		proj[key] = "$" + result.Aliases.FieldPath(c.QualifiedName())
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})

	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range q.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Limit.Offset}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit.Count}})
	}

	pipeline = join.Optimize(pipeline)
	return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
}

func translateSubqueryQuery(q *query.Query, collection string) (*query.Request, error) {
	var pipeline []bson.D
	outputFields := map[string]string{}

	for i, sub := range q.Subqueries {
		selectPosition := sub.Kind == query.SubScalar && !referencedInWhere(q.Where, sub)
		res, err := subquery.Build(sub, i, where.AliasMap{}, selectPosition)
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, res.Stages...)
		if res.OutputName != "" {
			outputFields[sub.OuterField] = res.OutputName
		}
	}

	if q.Where != nil {
		matchDoc, err := where.Translate(q.Where, nil)
		if err != nil {
			return nil, err
		}
		if len(matchDoc) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
		}
	}

	proj := bson.M{"_id": 0}
	for _, c := range q.Columns {
		if c.Kind == query.ColStar {
			proj = bson.M{}
			break
		}
		key := c.OutputName()
		if bound, ok := outputFields[c.QualifiedName()]; ok {
			proj[key] = "$" + bound
		} else {
			proj[key] = "$" + c.QualifiedName()
		}
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})

	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range q.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Limit.Offset}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit.Count}})
	}

	return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
}

// translateDerivedQuery handles FROM (SELECT ...) AS alias, spec §4.S's
// DERIVED subquery used as the query's own data source. It self-$lookups
// the subquery's own collection (via subquery.Build's SubDerived case),
// flattens the unwound document back to the top level with $replaceRoot,
// and then strips the now-meaningless alias qualifier from every outer
// column/predicate/ORDER BY/GROUP BY reference so the rest of the
// translator treats it like an ordinary single-table query.
func translateDerivedQuery(q *query.Query) (*query.Request, error) {
	sub := *q.FromSubquery

	innerTable, err := subquery.InnerFromTable(sub)
	if err != nil {
		return nil, err
	}
	res, err := subquery.Build(sub, 0, where.AliasMap{}, false)
	if err != nil {
		return nil, err
	}

	// $lookup only adds fields to documents that already exist, so a
	// single synthetic driving document is produced via $limit 1 before
	// the subquery's own $lookup/$unwind stages (res.Stages), then
	// $replaceRoot promotes the unwound subdocument back to the top level.
	pipeline := []bson.D{{{Key: "$limit", Value: 1}}}
	pipeline = append(pipeline, res.Stages...)
	pipeline = append(pipeline, bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$" + res.OutputName}}})

	stripAlias(q, q.FromAlias)
	collection := collectionName(innerTable)

	if q.NeedsGroupStage() {
		groupStages, err := groupby.Build(q, where.AliasMap{})
		if err != nil {
			return nil, err
		}
		pipeline = append(pipeline, groupStages...)
		return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
	}

	if q.Where != nil {
		matchDoc, err := where.Translate(q.Where, nil)
		if err != nil {
			return nil, err
		}
		if len(matchDoc) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
		}
	}

	proj, _, err := buildProjection(q.Columns)
	if err != nil {
		return nil, err
	}
	if proj != nil {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})
	}

	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range q.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Limit.Offset}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit.Count}})
	}

	return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
}

// stripAlias removes a matching table qualifier from every column,
// predicate, ORDER BY, and GROUP BY reference in q: once $replaceRoot has
// flattened the derived table's rows to the top level, "alias.col" and
// "col" name the same field.
func stripAlias(q *query.Query, alias string) {
	if alias == "" {
		return
	}
	for i := range q.Columns {
		if q.Columns[i].TableQualifier == alias {
			q.Columns[i].TableQualifier = ""
		}
	}
	stripPredAlias(q.Where, alias)
	for i := range q.OrderBy {
		q.OrderBy[i].Field = unqualify(q.OrderBy[i].Field, alias)
	}
	for i := range q.GroupBy {
		q.GroupBy[i] = unqualify(q.GroupBy[i], alias)
	}
}

func stripPredAlias(pred *query.Predicate, alias string) {
	if pred == nil {
		return
	}
	switch pred.Kind {
	case query.PredSimple:
		pred.Field = unqualify(pred.Field, alias)
	case query.PredCompound:
		for i := range pred.Children {
			stripPredAlias(&pred.Children[i], alias)
		}
	}
}

// unqualify strips a "alias." prefix matching alias from field, leaving
// any other qualifier (or an already-bare field) untouched.
func unqualify(field, alias string) string {
	prefix := alias + "."
	if strings.HasPrefix(field, prefix) {
		return strings.TrimPrefix(field, prefix)
	}
	return field
}

// referencedInWhere reports whether sub appears inside the predicate tree
// (as opposed to only the SELECT list), used to decide whether a SCALAR
// subquery needs its $match/$project cleanup or is purely projected. The
// parser copies Subquery values by value into both the predicate leaf and
// q.Subqueries, so identity is compared by the (Kind, InnerSQL, OuterField)
// triple rather than pointer equality.
func referencedInWhere(pred *query.Predicate, sub query.Subquery) bool {
	if pred == nil {
		return false
	}
	switch pred.Kind {
	case query.PredSimple:
		return pred.Subquery != nil && pred.Subquery.Kind == sub.Kind &&
			pred.Subquery.InnerSQL == sub.InnerSQL && pred.Subquery.OuterField == sub.OuterField
	case query.PredCompound:
		for _, c := range pred.Children {
			if referencedInWhere(&c, sub) {
				return true
			}
		}
	}
	return false
}

// translateWindowQuery builds the $setWindowFields stage spec §4.F
// documents: one "output" entry per window column, sharing the sortBy
// built from that column's own OVER (ORDER BY ...) clause. PARTITION BY
// is recognised by the parser but never emitted here, matching the
// documented limitation in spec §9.
func translateWindowQuery(q *query.Query, collection string) (*query.Request, error) {
	var pipeline []bson.D
	if q.Where != nil {
		matchDoc, err := where.Translate(q.Where, nil)
		if err != nil {
			return nil, err
		}
		if len(matchDoc) > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$match", Value: matchDoc}})
		}
	}

	output := bson.M{}
	var sortBy bson.D
	for _, c := range q.Columns {
		if c.Kind != query.ColFunction || !c.IsWindow {
			continue
		}
		args := functions.SplitArgs(c.ArgsText)
		expr, err := functions.Build(c.FuncName, args)
		if err != nil {
			return nil, err
		}
		output[c.OutputName()] = expr
		if c.WindowSpec != nil && len(sortBy) == 0 {
			for _, ob := range c.WindowSpec.OrderBy {
				dir := 1
				if ob.Desc {
					dir = -1
				}
				sortBy = append(sortBy, bson.E{Key: ob.Field, Value: dir})
			}
		}
	}
	stage := bson.M{"output": output}
	if len(sortBy) > 0 {
		stage["sortBy"] = sortBy
	}
	pipeline = append(pipeline, bson.D{{Key: "$setWindowFields", Value: stage}})

	proj := bson.M{"_id": 0}
	for _, c := range q.Columns {
		if c.Kind == query.ColStar {
			proj = bson.M{}
			break
		}
		key := c.OutputName()
		if c.Kind == query.ColFunction && c.IsWindow {
			proj[key] = "$" + key
		} else {
			proj[key] = "$" + c.QualifiedName()
		}
	}
	pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})

	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, ob := range q.OrderBy {
			dir := 1
			if ob.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: ob.Field, Value: dir})
		}
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if q.Limit != nil {
		if q.Limit.Offset > 0 {
			pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Limit.Offset}})
		}
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: q.Limit.Count}})
	}

	return &query.Request{Kind: query.ReqAggregate, Collection: collection, Pipeline: pipeline}, nil
}

func translateEval(q *query.Query) (*query.Request, error) {
	proj := map[string]interface{}{}
	order := make([]string, 0, len(q.Columns))
	for _, c := range q.Columns {
		expr, err := columnExpr(c)
		if err != nil {
			return nil, err
		}
		key := c.OutputName()
		proj[key] = expr
		order = append(order, key)
	}
	return &query.Request{Kind: query.ReqEval, EvalProjection: proj, PreserveColumnOrder: order}, nil
}

// buildProjection builds a Find request's $project document, returning
// the key order the SELECT list gave (invariant I4 in spec §8), or a nil
// projection for SELECT *.
func buildProjection(cols []query.Column) (bson.M, []string, error) {
	for _, c := range cols {
		if c.Kind == query.ColStar {
			return nil, nil, nil
		}
	}
	proj := bson.M{"_id": 0}
	order := make([]string, 0, len(cols))
	for _, c := range cols {
		expr, err := columnExpr(c)
		if err != nil {
			return nil, nil, err
		}
		key := c.OutputName()
		proj[key] = expr
		order = append(order, key)
	}
	return proj, order, nil
}

func columnExpr(c query.Column) (interface{}, error) {
	switch c.Kind {
	case query.ColPlain:
		return "$" + c.QualifiedName(), nil
	case query.ColFunction:
		args := functions.SplitArgs(c.ArgsText)
		if c.IsWindow {
			return nil, &UnsupportedFeatureError{Detail: "window function outside $setWindowFields context: " + c.OriginalText}
		}
		return functions.Build(c.FuncName, args)
	case query.ColCase:
		return functions.BuildCase(c.WhenClauses, c.Else), nil
	case query.ColRegexpInfix:
		return functions.RegexpSelectExpr(c.Left, c.Right, strings.HasPrefix(c.Operator, "NOT")), nil
	case query.ColRaw:
		return bson.M{"$literal": c.Raw}, nil
	default:
		panic("translator: unhandled column kind")
	}
}

func translateInsert(q *query.Query) *query.Request {
	docs := make([]bson.M, 0, len(q.InsertRows))
	for _, row := range q.InsertRows {
		doc := bson.M{}
		for i, v := range row {
			if i >= len(q.InsertColumns) {
				break
			}
			doc[q.InsertColumns[i]] = valueOf(v)
		}
		docs = append(docs, doc)
	}
	kind := query.ReqInsertOne
	if len(docs) > 1 {
		kind = query.ReqInsertMany
	}
	return &query.Request{Kind: kind, Collection: collectionName(q.InsertTable), InsertDocs: docs}
}

func translateUpdate(q *query.Query) *query.Request {
	filter := bson.M{}
	if q.Where != nil {
		if f, err := where.Translate(q.Where, nil); err == nil {
			filter = f
		}
	}
	set := bson.M{}
	for k, v := range q.UpdateSet {
		set[k] = valueOf(v)
	}
	return &query.Request{
		Kind:         query.ReqUpdateMany,
		Collection:   collectionName(q.UpdateTable),
		UpdateFilter: filter,
		UpdateDoc:    bson.M{"$set": set},
	}
}

func translateDelete(q *query.Query) *query.Request {
	filter := bson.M{}
	if q.Where != nil {
		if f, err := where.Translate(q.Where, nil); err == nil {
			filter = f
		}
	}
	return &query.Request{Kind: query.ReqDeleteMany, Collection: collectionName(q.DeleteTable), DeleteFilter: filter}
}

func translateShow(q *query.Query) *query.Request {
	switch strings.ToUpper(q.ShowWhat) {
	case "DATABASES":
		return &query.Request{Kind: query.ReqShowDatabases}
	default:
		return &query.Request{Kind: query.ReqShowCollections}
	}
}

func valueOf(v query.Value) interface{} {
	switch v.Kind {
	case query.ValNull:
		return nil
	case query.ValBool:
		return v.Bool
	case query.ValInt:
		return v.Int
	case query.ValFloat:
		return v.Float
	case query.ValStr:
		return v.Str
	case query.ValFieldRef:
		return v.Field
	case query.ValExpr:
		return v.Expr
	default:
		panic("translator: unhandled value kind")
	}
}
