// Command mongosql is the CLI surface spec §6 documents: a mysql-style
// client that accepts MariaDB/MySQL SELECT (and shallow INSERT/UPDATE/
// DELETE/SHOW/USE) statements, translates them to MongoDB operations, and
// prints the result rows. The interactive line editor, welcome banner, and
// bordered-table/tab-separated rendering are external collaborators per
// spec §1; this command only implements the REPL loop, flag/env wiring,
// and a minimal stand-in renderer sufficient to exercise the engine.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mongosql-go/mongosql/internal/config"
	"github.com/mongosql-go/mongosql/internal/eval"
	"github.com/mongosql-go/mongosql/internal/mongoexec"
	"github.com/mongosql-go/mongosql/internal/parser"
	"github.com/mongosql-go/mongosql/internal/plancache"
	"github.com/mongosql-go/mongosql/internal/query"
	"github.com/mongosql-go/mongosql/internal/render"
	"github.com/mongosql-go/mongosql/internal/sqlvalidate"
	"github.com/mongosql-go/mongosql/internal/translator"
	"github.com/redis/go-redis/v9"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("mongosql", flag.ContinueOnError)
	fs.SetOutput(stderr)
	host := fs.String("host", "", "MongoDB host")
	fs.StringVar(host, "h", "", "MongoDB host (shorthand)")
	port := fs.String("port", "", "MongoDB port")
	fs.StringVar(port, "P", "", "MongoDB port (shorthand)")
	username := fs.String("username", "", "MongoDB username")
	fs.StringVar(username, "u", "", "MongoDB username (shorthand)")
	passwordFlag := fs.String("password", "", "MongoDB password (falls back to the environment if omitted)")
	fs.StringVar(passwordFlag, "p", "", "MongoDB password (shorthand)")
	execute := fs.String("execute", "", "run a single statement and exit")
	fs.StringVar(execute, "e", "", "run a single statement and exit (shorthand)")
	batch := fs.Bool("batch", false, "treat stdin as one statement per line")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Load()
	if *host != "" {
		cfg.Host = *host
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *username != "" {
		cfg.Username = *username
	}
	if *passwordFlag != "" {
		cfg.Password = *passwordFlag
	}
	if rest := fs.Args(); len(rest) > 0 {
		cfg.Database = rest[0]
	}
	if cfg.Database == "" {
		fmt.Fprintln(stderr, "ERROR 1046 (3D000): No database selected")
		return 1
	}

	pc, err := config.LoadProjectConfig("mongosql.yaml")
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	translator.SetCollectionResolver(pc.ResolveCollection)

	ctx := context.Background()
	client, err := mongoexec.Connect(ctx, mongoexec.Config{
		Host: cfg.Host, Port: cfg.Port, Database: cfg.Database,
		Username: cfg.Username, Password: cfg.Password,
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer client.Close(ctx)

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
	}
	cache := plancache.New(rdb, cfg.Database)

	if *execute != "" {
		if err := runStatement(ctx, client, cache, *execute, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	if *batch || isPiped(stdin) {
		return runBatch(ctx, client, cache, stdin, stdout, stderr)
	}
	return runInteractive(ctx, client, cache, cfg.Database, stdin, stdout, stderr)
}

func isPiped(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) == 0
}

// runBatch treats stdin as one statement per line; lines starting with
// '#' are comments, per spec §6.
func runBatch(ctx context.Context, client *mongoexec.Client, cache *plancache.Cache, stdin *os.File, stdout, stderr *os.File) int {
	scanner := bufio.NewScanner(stdin)
	exitCode := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := runStatement(ctx, client, cache, line, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			exitCode = 1
		}
	}
	return exitCode
}

// runInteractive implements the `mongosql [<db>]> ` prompt loop: \g and ;
// execute the buffered statement, \G executes with vertical output, \c
// clears the buffer, quit|exit|\q exits, per spec §6.
func runInteractive(ctx context.Context, client *mongoexec.Client, cache *plancache.Cache, db string, stdin *os.File, stdout, stderr *os.File) int {
	scanner := bufio.NewScanner(stdin)
	var buf strings.Builder
	prompt := func() { fmt.Fprintf(stdout, "mongosql [%s]> ", db) }
	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch trimmed {
		case "quit", "exit", "\\q":
			return 0
		case "\\c":
			buf.Reset()
			prompt()
			continue
		}
		vertical := false
		stmt := ""
		switch {
		case strings.HasSuffix(trimmed, "\\G"):
			vertical = true
			stmt = buf.String() + strings.TrimSuffix(trimmed, "\\G")
			buf.Reset()
		case strings.HasSuffix(trimmed, "\\g"), strings.HasSuffix(trimmed, ";"):
			stmt = buf.String() + strings.TrimRight(strings.TrimSuffix(strings.TrimSuffix(trimmed, "\\g"), ";"), " ")
			buf.Reset()
		default:
			buf.WriteString(line)
			buf.WriteByte(' ')
			prompt()
			continue
		}
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			if err := runStatementVertical(ctx, client, cache, stmt, stdout, vertical); err != nil {
				fmt.Fprintln(stderr, err)
			}
		}
		prompt()
	}
	fmt.Fprintln(stdout)
	return 0
}

func runStatement(ctx context.Context, client *mongoexec.Client, cache *plancache.Cache, sql string, stdout *os.File) error {
	return runStatementVertical(ctx, client, cache, sql, stdout, false)
}

// runStatementVertical validates, parses, and translates sql into a Request
// — consulting cache first so a repeated statement skips re-translation —
// then executes it and prints the result.
func runStatementVertical(ctx context.Context, client *mongoexec.Client, cache *plancache.Cache, sql string, stdout *os.File, vertical bool) error {
	start := time.Now()

	req, ok := cache.Get(ctx, sql)
	if !ok {
		if v := sqlvalidate.Validate(sql); !v.Valid {
			return fmt.Errorf("ERROR 1064 (42000): %s", v.Err)
		}

		q, err := parser.Parse(sql)
		if err != nil {
			return fmt.Errorf("ERROR 1064 (42000): %v", err)
		}

		req, err = translator.Translate(q)
		if err != nil {
			return fmt.Errorf("ERROR 1064 (42000): %v", err)
		}
		cache.Put(ctx, sql, req)
	}

	var rows []map[string]interface{}
	var order []string
	if req.Kind == query.ReqEval {
		row := eval.Row(req.EvalProjection, req.PreserveColumnOrder)
		rows = []map[string]interface{}{row}
		order = req.PreserveColumnOrder
	} else {
		docs, err := client.Execute(ctx, req)
		if err != nil {
			return err
		}
		order = columnOrder(req, docs)
		for _, d := range docs {
			rows = append(rows, map[string]interface{}(d))
		}
	}

	if vertical {
		for i, row := range rows {
			fmt.Fprintf(stdout, "*************************** %d. row ***************************\n", i+1)
			for _, col := range order {
				fmt.Fprintf(stdout, "%s: %s\n", col, formatCell(row[col], col))
			}
		}
	} else {
		printRows(stdout, order, rows)
	}
	elapsed := time.Since(start).Seconds()
	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	fmt.Fprintf(stdout, "%d %s in set (%.2f sec)\n", len(rows), noun, elapsed)
	return nil
}

// columnOrder prefers the translator's recorded SELECT-list order (spec
// invariant I4 / §8 property 3); when none was recorded (aggregate/join
// pipelines build their own $project, or the result has no such hint) it
// falls back to the first row's keys, sorted for determinism.
func columnOrder(req *query.Request, docs []map[string]interface{}) []string {
	if len(req.PreserveColumnOrder) > 0 {
		return req.PreserveColumnOrder
	}
	if len(docs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(docs[0]))
	for k := range docs[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// printRows is a minimal stand-in renderer: the bordered ASCII table /
// tab-separated formats spec §6 documents are an out-of-scope external
// collaborator, but a script or CI smoke test still needs to see rows.
func printRows(stdout *os.File, order []string, rows []map[string]interface{}) {
	piped := (func() bool {
		info, err := stdout.Stat()
		if err != nil {
			return false
		}
		return (info.Mode() & os.ModeCharDevice) == 0
	})()
	sep := "\t"
	if !piped {
		sep = " | "
	}
	if len(order) > 0 {
		fmt.Fprintln(stdout, strings.Join(order, sep))
	}
	for _, row := range rows {
		cells := make([]string, len(order))
		for i, col := range order {
			cells[i] = formatCell(row[col], col)
		}
		fmt.Fprintln(stdout, strings.Join(cells, sep))
	}
}

func formatCell(v interface{}, column string) string {
	if v == nil {
		return "NULL"
	}
	if f, ok := v.(float64); ok && render.IsCurrencyColumn(column) {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprintf("%v", v)
}
