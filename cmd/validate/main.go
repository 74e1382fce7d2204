// Command validate performs data integrity checks on a NEO table: header and
// value parsing, the physics identities every fetched row must satisfy, the
// risk rules for tagged rows and, optionally, parity with the feed it came
// from.
//
// Usage, against tables generated from the recorded feed:
//
//	go run ./cmd/genmock \
//	  -feed data/mock/neows_feed_250530.json \
//	  -fetch-out /tmp/neo_250530.csv \
//	  -risk-out /tmp/neo_250530_risk.csv
//	go run ./cmd/validate \
//	  -table /tmp/neo_250530_risk.csv \
//	  -feed data/mock/neows_feed_250530.json
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/couchcryptid/neo-risk-etl/internal/adapter/table"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
)

// relTolerance bounds the relative error allowed when recomputing derived columns.
const relTolerance = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	tablePath := flag.String("table", "", "CSV table written by neo fetch or neo risk")
	feedPath := flag.String("feed", "", "optional NeoWs /feed JSON the table was built from")
	flag.Parse()

	if *tablePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *tablePath, *feedPath); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, tablePath, feedPath string) int {
	fmt.Fprintln(w, "=== NEO Table Integrity Validation ===")
	fmt.Fprintln(w)

	records, err := loadTable(tablePath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validatePhysics(records),
		validateRisk(records),
	}
	if feedPath != "" {
		feedRecords, err := loadFeed(feedPath)
		if err != nil {
			fmt.Fprintf(w, "FATAL: load feed: %v\n", err)
			return 1
		}
		phases = append(phases, validateFeedParity(records, feedRecords))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	summary := domain.Summarize(records)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d (%d tagged: %d High, %d Medium, %d Low)\n",
		len(records), summary.Total(), summary[domain.RiskHigh], summary[domain.RiskMedium], summary[domain.RiskLow])

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i >= 20 {
				fmt.Fprintf(w, "  ... and %d more\n", len(p.errors)-20)
				break
			}
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	return 0
}

func loadTable(path string) ([]domain.ObjectApproachRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.ReadCSV(f)
}

func loadFeed(path string) ([]domain.ObjectApproachRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	feed, err := domain.ParseFeed(data)
	if err != nil {
		return nil, err
	}
	return domain.Flatten(feed)
}

func validatePhysics(records []domain.ObjectApproachRecord) *phase {
	p := &phase{name: "Physics identities"}
	seen := make(map[string]int, len(records))
	for i, r := range records {
		row := i + 1
		if prev, dup := seen[r.Key()]; dup {
			p.errorf("row %d: duplicate %s (first at row %d)", row, r.Key(), prev)
		}
		seen[r.Key()] = row

		if r.DiameterM <= 0 || r.RelativeVelocityKMS <= 0 || r.MissDistanceKM < 0 {
			p.errorf("row %d (%s): out-of-range input d=%g v=%g miss=%g", row, r.ID, r.DiameterM, r.RelativeVelocityKMS, r.MissDistanceKM)
			continue
		}
		if want := domain.SphereMass(r.DiameterM, domain.DensityKGM3); !floatEq(r.MassKG, want) {
			p.errorf("row %d (%s): mass_kg %g, want %g", row, r.ID, r.MassKG, want)
		}
		if want := domain.KineticEnergyKT(r.MassKG, r.RelativeVelocityKMS); !floatEq(r.KineticEnergyKT, want) {
			p.errorf("row %d (%s): kinetic_energy_kt_TNT %g, want %g", row, r.ID, r.KineticEnergyKT, want)
		}
	}
	return p
}

func validateRisk(records []domain.ObjectApproachRecord) *phase {
	p := &phase{name: "Risk consistency"}
	for i, r := range records {
		row := i + 1
		switch {
		case r.PalermoProxy == nil && r.RiskCategory == nil:
			continue
		case r.PalermoProxy == nil || r.RiskCategory == nil:
			p.errorf("row %d (%s): only one of palermo_proxy and risk_cluster is set", row, r.ID)
			continue
		}

		if want := domain.Categorize(r.MissDistanceKM, r.KineticEnergyKT); *r.RiskCategory != want {
			p.errorf("row %d (%s): risk_cluster %s, want %s", row, r.ID, *r.RiskCategory, want)
		}
		want, err := domain.PalermoProxy(r.KineticEnergyKT, r.MissDistanceKM)
		if err != nil {
			p.errorf("row %d (%s): %v", row, r.ID, err)
			continue
		}
		if !floatEq(*r.PalermoProxy, want) {
			p.errorf("row %d (%s): palermo_proxy %g, want %g", row, r.ID, *r.PalermoProxy, want)
		}
	}
	return p
}

func validateFeedParity(records, feedRecords []domain.ObjectApproachRecord) *phase {
	p := &phase{name: "Feed parity"}
	if len(records) != len(feedRecords) {
		p.errorf("table has %d rows, feed flattens to %d", len(records), len(feedRecords))
	}
	for i := range min(len(records), len(feedRecords)) {
		got, want := records[i], feedRecords[i]
		if got.Key() != want.Key() {
			p.errorf("row %d: %s, feed order has %s", i+1, got.Key(), want.Key())
			continue
		}
		if got.Name != want.Name || !floatEq(got.MissDistanceKM, want.MissDistanceKM) ||
			!floatEq(got.RelativeVelocityKMS, want.RelativeVelocityKMS) || !floatEq(got.DiameterM, want.DiameterM) {
			p.errorf("row %d (%s): source columns differ from the feed", i+1, got.ID)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= relTolerance*math.Max(math.Abs(a), math.Abs(b))
}
