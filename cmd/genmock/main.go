// Command genmock reads a recorded NeoWs feed response and generates the
// table fixtures the fetch and risk steps would produce from it. It uses the
// real domain and table packages so the fixtures match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -feed data/mock/neows_feed_250530.json \
//	  -fetch-out data/mock/neo_250530.csv \
//	  -risk-out data/mock/neo_250530_risk.csv
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/couchcryptid/neo-risk-etl/internal/adapter/table"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	feedPath := flag.String("feed", "", "recorded NeoWs /feed JSON response")
	fetchOut := flag.String("fetch-out", "", "output path for the fetch-step table fixture")
	riskOut := flag.String("risk-out", "", "output path for the risk-step table fixture")
	flag.Parse()

	if *feedPath == "" || *fetchOut == "" || *riskOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -feed, -fetch-out, -risk-out")
	}

	fetched, tagged, err := generate(*feedPath)
	if err != nil {
		return err
	}
	log.Printf("flattened %d records", len(fetched))

	if err := writeTable(*fetchOut, fetched); err != nil {
		return fmt.Errorf("writing fetch fixture: %w", err)
	}
	log.Printf("wrote fetch fixture: %s", *fetchOut)

	if err := writeTable(*riskOut, tagged); err != nil {
		return fmt.Errorf("writing risk fixture: %w", err)
	}
	log.Printf("wrote risk fixture: %s", *riskOut)

	printStats(tagged)
	return nil
}

// generate runs both steps on the recorded feed without any I/O beyond
// reading it.
func generate(feedPath string) (fetched, tagged []domain.ObjectApproachRecord, err error) {
	data, err := os.ReadFile(feedPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read feed: %w", err)
	}
	feed, err := domain.ParseFeed(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse feed: %w", err)
	}
	fetched, err = domain.Flatten(feed)
	if err != nil {
		return nil, nil, fmt.Errorf("flatten feed: %w", err)
	}
	tagged, _, err = domain.EnrichAll(fetched)
	if err != nil {
		return nil, nil, fmt.Errorf("enrich: %w", err)
	}
	return fetched, tagged, nil
}

func writeTable(path string, records []domain.ObjectApproachRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := table.WriteCSV(w, records); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func printStats(records []domain.ObjectApproachRecord) {
	summary := domain.Summarize(records)
	fmt.Println("\n=== Risk Categories ===")
	for _, c := range domain.RiskCategories {
		fmt.Printf("  %-8s %d\n", c, summary[c])
	}

	byEnergy := make([]domain.ObjectApproachRecord, len(records))
	copy(byEnergy, records)
	sort.Slice(byEnergy, func(i, j int) bool {
		return byEnergy[i].KineticEnergyKT > byEnergy[j].KineticEnergyKT
	})

	fmt.Println("\n=== Most Energetic ===")
	for _, r := range byEnergy[:min(5, len(byEnergy))] {
		fmt.Printf("  %-10s %-24s %s  %12.4g kt  %12.0f km\n",
			r.ID, r.Name, r.ApproachDate.Format(domain.DateLayout), r.KineticEnergyKT, r.MissDistanceKM)
	}
}
