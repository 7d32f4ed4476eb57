package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/sirupsen/logrus"

	"MTreeDB/database"
	"MTreeDB/mtree"
)

func usage(w io.Writer) {
	io.WriteString(w, `
Available commands:
	insert <v1> <v2> ...
	range <radius> <v1> <v2> ...
	knn <k> <v1> <v2> ...
	dump
	height
	stats
	check
	set-log-level <log-level>
	exit
`[1:])
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("insert"),
	readline.PcItem("range"),
	readline.PcItem("knn"),
	readline.PcItem("dump"),
	readline.PcItem("height"),
	readline.PcItem("stats"),
	readline.PcItem("check"),
	readline.PcItem("help"),
	readline.PcItem("set-log-level",
		readline.PcItem("debug"),
		readline.PcItem("info"),
		readline.PcItem("warn"),
	),
	readline.PcItem("exit"),
)

func main() {
	dir := flag.String("dir", "", "database directory (empty: in memory)")
	dim := flag.Int("dim", 2, "vector dimension of a new database")
	metric := flag.String("metric", "euclidean", "euclidean, manhattan or chebyshev")
	backend := flag.String("backend", "file", "page storage: file or kv")
	split := flag.String("split", "mlbdist", "split strategy: mlbdist or mmrad")
	checks := flag.Bool("checks", false, "verify the whole tree after every insert")
	flag.Parse()

	log.SetLevel(log.WarnLevel)
	log.SetOutput(os.Stderr)

	l, err := readline.NewEx(&readline.Config{
		Prompt:       "mtree> ",
		HistoryFile:  os.TempDir() + "/mtreedb-readline.tmp",
		AutoComplete: completer,
	})
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(*dir, database.Options{
		Backend: database.Backend(*backend),
		Dim:     *dim,
		Metric:  *metric,
		Split:   *split,
		Index:   mtree.Config{ExtraIntegrityChecks: *checks},
		Logger:  log.StandardLogger(),
	})
	if err != nil {
		l.Close()
		log.Fatal(err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error(err)
		}
		l.Close()
	}()

	log.SetOutput(l.Stderr())
	// REPL
	for {
		line, err := l.Readline()
		if err != nil { // Ctrl+D pressed
			break
		}
		line = strings.TrimSpace(line)
		cmd, args, _ := strings.Cut(line, " ")
		switch cmd {
		case "insert":
			insert(db, args)
		case "range":
			rangeQuery(db, args)
		case "knn":
			knn(db, args)
		case "dump":
			fmt.Println(db.Tree())
		case "height":
			if h, err := db.Tree().Height(); err != nil {
				log.Error(err)
			} else {
				fmt.Println(h)
			}
		case "stats":
			db.Tree().LogStatistics()
			s := db.Tree().Statistics()
			fmt.Printf("distance computations: %d, range queries: %d, knn queries: %d\n",
				s.DistanceCalcs(), s.RangeQueries(), s.KNNQueries())
		case "check":
			if err := db.Tree().IntegrityCheck(); err != nil {
				log.Error(err)
			} else {
				fmt.Println("ok")
			}
		case "set-log-level":
			setLogLevel(args)
		case "help":
			usage(l.Stderr())
		case "exit":
			return
		case "":
		default:
			log.Error("Unknown command: ", strconv.Quote(line))
		}
	}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		fmt.Println("Invalid log level:", level)
	}
}

func parseVector(fields []string) ([]float64, error) {
	v := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		v[i] = x
	}
	return v, nil
}

func insert(db *database.DB, args string) {
	v, err := parseVector(strings.Fields(args))
	if err != nil {
		log.Error(err)
		return
	}
	id, err := db.Insert(v)
	if err != nil {
		log.Error(err)
		return
	}
	fmt.Printf("inserted %d\n", id)
}

func rangeQuery(db *database.DB, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		fmt.Println("usage: range <radius> <v1> <v2> ...")
		return
	}
	radius, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		log.Error(err)
		return
	}
	q, err := parseVector(fields[1:])
	if err != nil {
		log.Error(err)
		return
	}
	results, err := db.Range(q, radius)
	if err != nil {
		log.Error(err)
		return
	}
	printResults(results)
}

func knn(db *database.DB, args string) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		fmt.Println("usage: knn <k> <v1> <v2> ...")
		return
	}
	k, err := strconv.Atoi(fields[0])
	if err != nil {
		log.Error(err)
		return
	}
	q, err := parseVector(fields[1:])
	if err != nil {
		log.Error(err)
		return
	}
	results, err := db.KNN(q, k)
	if err != nil {
		log.Error(err)
		return
	}
	printResults(results)
}

func printResults(results []database.Result) {
	for _, r := range results {
		fmt.Printf("%d\t%.6g\t%v\n", r.ID, r.Distance, r.Vector)
	}
	fmt.Printf("(%d results)\n", len(results))
}
