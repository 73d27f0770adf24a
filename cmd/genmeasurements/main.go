// Command genmeasurements writes a synthetic measurements file for exercising
// the aggregation engine: one "station;value" record per line, values uniform
// in [-99.9, 99.9] with exactly one fractional digit.
//
// Station names carry diacritics on purpose (the aggregate sort is byte-wise,
// so multi-byte names are worth covering) and are NFC-normalized so a given
// station is always the same byte sequence.
package main

import (
	"bufio"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"
)

var (
	stationCount = flag.Int("stations", 100, "number of distinct stations")
	rowCount     = flag.Int64("rows", 1e6, "number of records to generate")
	seed         = flag.Uint64("seed", 42, "PRNG seed, for reproducible files")
	outputPath   = flag.String("output", "var/measurements.txt", "output file path")
)

var baseNames = []string{
	"Zürich", "São Paulo", "Reykjavík", "Kraków", "Bogotá",
	"Hamburg", "Bilbao", "Oslo", "Łódź", "Città di Castello",
	"Ulaanbaatar", "Yaoundé", "Tromsø", "Đà Nẵng", "Asunción",
	"Nuuk", "Ouagadougou", "Petrópolis", "İzmir", "Chișinău",
}

// stationNames expands the base list to n names, suffixing duplicates.
func stationNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		name := baseNames[i%len(baseNames)]
		if i >= len(baseNames) {
			name += "-" + strconv.Itoa(i/len(baseNames))
		}
		names[i] = norm.NFC.String(name)
	}
	return names
}

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("genmeasurements: ")

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		log.Fatalf("create dir: %v", err)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()

	names := stationNames(*stationCount)
	rng := rand.New(rand.NewPCG(*seed, *seed))

	w := bufio.NewWriterSize(f, 4<<20)
	for i := int64(0); i < *rowCount; i++ {
		v := rng.Int64N(1999) - 999 // value*10 in [-999, 999]
		w.WriteString(names[rng.IntN(len(names))])
		w.WriteByte(';')
		if v < 0 {
			w.WriteByte('-')
			v = -v
		}
		w.WriteString(strconv.FormatInt(v/10, 10))
		w.WriteByte('.')
		w.WriteString(strconv.FormatInt(v%10, 10))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flush output: %v", err)
	}

	st, err := f.Stat()
	if err != nil {
		log.Fatalf("stat output: %v", err)
	}
	log.Printf("wrote %d rows (%s) to %s", *rowCount, humanize.Bytes(uint64(st.Size())), *outputPath)
}
