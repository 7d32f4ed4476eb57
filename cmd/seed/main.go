// Seed program: creates database "sample" with random vectors and indexes them.
// Run: go run ./cmd/seed [-n 1000] [-dim 2]
// Then inspect: go run ./cmd/inspect databases/sample/index.mtree
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	log "github.com/sirupsen/logrus"

	"MTreeDB/database"
	"MTreeDB/mtree"
)

func main() {
	dir := flag.String("dir", "databases/sample", "database directory")
	n := flag.Int("n", 1000, "number of vectors")
	dim := flag.Int("dim", 2, "vector dimension")
	metric := flag.String("metric", "euclidean", "euclidean, manhattan or chebyshev")
	backend := flag.String("backend", "file", "page storage: file or kv")
	seed := flag.Int64("seed", 1, "random seed")
	fresh := flag.Bool("fresh", true, "remove an existing database first")
	flag.Parse()

	if *fresh {
		if err := os.RemoveAll(*dir); err != nil {
			log.Fatalf("remove %s: %v", *dir, err)
		}
	}

	db, err := database.Open(*dir, database.Options{
		Backend: database.Backend(*backend),
		Dim:     *dim,
		Metric:  *metric,
		Index:   mtree.Config{},
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("close database: %v", err)
		}
	}()

	rng := rand.New(rand.NewSource(*seed))
	fmt.Printf("Inserting %d vectors of dimension %d...\n", *n, *dim)
	for i := 0; i < *n; i++ {
		v := make([]float64, *dim)
		for j := range v {
			v[j] = rng.Float64() * 100
		}
		if _, err := db.Insert(v); err != nil {
			log.Fatalf("insert vector %d: %v", i, err)
		}
	}

	if err := db.Tree().IntegrityCheck(); err != nil {
		log.Fatalf("integrity check: %v", err)
	}

	q := make([]float64, *dim)
	for j := range q {
		q[j] = 50
	}
	fmt.Println("\n--- 5 nearest neighbors of the center ---")
	results, err := db.KNN(q, 5)
	if err != nil {
		log.Fatalf("knn: %v", err)
	}
	for _, r := range results {
		fmt.Printf("  %d\t%.4f\t%v\n", r.ID, r.Distance, r.Vector)
	}

	fmt.Println()
	fmt.Println(db.Tree())
	db.Tree().LogStatistics()

	fmt.Println("\nDone. Inspect:")
	fmt.Println("  - Index pages:  ", *dir+"/index.mtree")
	fmt.Println("  - Vectors (kv): ", *dir+"/kv")
}
