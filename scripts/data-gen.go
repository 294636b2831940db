/*
	Churn-heavy load generator. Run it against a kvs-server to produce lots of
	stale bytes and exercise compaction under concurrent clients.
*/

package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/XDXX/PNA/core"
	"github.com/XDXX/PNA/internal"
	"github.com/XDXX/PNA/kvs"
)

const (
	// Fixed universe
	totalKeys   = 100
	totalValues = 100

	// Per-cycle behavior
	keysPerCycleWrite  = 20
	keysPerCycleDelete = 10

	progressEvery = 500
)

func main() {
	host := flag.String("host", internal.DEFAULT_HOST, "kvs server host")
	port := flag.Int("port", internal.DEFAULT_PORT, "kvs server port")
	concurrency := flag.Int("workers", 6, "Number of concurrent clients")
	cycles := flag.Int("cycles", 5000, "Cycles per client")
	pause := flag.Duration("pause", 10*time.Millisecond, "Sleep between cycles")
	flag.Parse()

	start := time.Now()
	fmt.Println("Starting kvs churn-heavy load generator")

	keys := makeKeys(totalKeys)
	values := makeValues(totalValues)

	var wg sync.WaitGroup

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			client, err := kvs.Connect(kvs.WithHost(*host), kvs.WithPort(*port))
			if err != nil {
				fmt.Printf("[worker %d] connect error: %v\n", id, err)
				return
			}
			defer client.Close()

			runWorker(id, client, keys, values, *cycles, *pause)
		}(i)
	}

	wg.Wait()
	fmt.Printf("Load finished in %v\n", time.Since(start))
}

func runWorker(id int, client *kvs.Client, keys []string, values []string, cycles int, pause time.Duration) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	for cycle := 1; cycle <= cycles; cycle++ {

		// ---- WRITE / OVERWRITE PHASE ----
		for i := 0; i < keysPerCycleWrite; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := client.Set(key, val); err != nil {
				fmt.Printf("[worker %d] SET error: %v\n", id, err)
				return
			}
		}

		// ---- REMOVE PHASE ----
		for i := 0; i < keysPerCycleDelete; i++ {
			key := keys[rng.Intn(len(keys))]

			// Another worker may have removed it first.
			if err := client.Remove(key); err != nil && !errors.Is(err, core.ErrKeyNotFound) {
				fmt.Printf("[worker %d] REMOVE error: %v\n", id, err)
				return
			}
		}

		// ---- REWRITE PHASE (forces overwrite garbage) ----
		for i := 0; i < keysPerCycleWrite/2; i++ {
			key := keys[rng.Intn(len(keys))]
			val := values[rng.Intn(len(values))]

			if err := client.Set(key, val); err != nil {
				fmt.Printf("[worker %d] REWRITE error: %v\n", id, err)
				return
			}
		}

		if cycle%progressEvery == 0 {
			fmt.Printf("[worker %d] completed %d cycles\n", id, cycle)
		}

		if pause > 0 {
			time.Sleep(pause)
		}
	}
}

func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("key-%03d", i)
	}
	return keys
}

func makeValues(n int) []string {
	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = fmt.Sprintf("value-%03d-xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i)
	}
	return values
}
