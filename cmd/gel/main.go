// Command gel is the driver: ingest an SVG trace into a shape store,
// run a declarative query pipeline against it, and export the result
// group back out as SVG.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/monksc/gel-go/internal/ingestcache"
	"github.com/monksc/gel-go/internal/pipeline"
	"github.com/monksc/gel-go/internal/shapestore"
	"github.com/monksc/gel-go/internal/svgio"
)

func main() {
	inputFile := flag.String("in", "input.svg", "Input SVG trace")
	outputFile := flag.String("out", "output.svg", "Output SVG file")
	queriesFile := flag.String("queries", "queries.json", "JSON query pipeline file")
	outGroup := flag.String("out-group", shapestore.MainGroup, "Group to export")
	tolerance := flag.Float64("tolerance", 0.01, "Douglas-Peucker simplification tolerance")
	cacheFile := flag.String("cache", "ingest.cache", "Ingest memoization cache path")
	exportGeoJSON := flag.String("export-geojson", "", "Optional: also write the output group as a GeoJSON FeatureCollection debug dump")
	flag.Parse()

	runID := uuid.New().String()
	log.Printf("run %s: ingesting %s", runID, *inputFile)

	svgBytes, err := os.ReadFile(*inputFile)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	cache, err := ingestcache.Open(*cacheFile)
	if err != nil {
		log.Fatalf("open ingest cache: %v", err)
	}
	defer cache.Close()

	key := ingestcache.Key(svgBytes, *tolerance)
	polygons, hit, err := cache.Lookup(key)
	if err != nil {
		log.Fatalf("lookup ingest cache: %v", err)
	}
	if hit {
		log.Printf("run %s: ingest cache hit (%d shapes)", runID, len(polygons))
	} else {
		f, err := os.Open(*inputFile)
		if err != nil {
			log.Fatalf("open input: %v", err)
		}
		polygons, err = svgio.Import(f, *tolerance)
		f.Close()
		if err != nil {
			log.Fatalf("import svg: %v", err)
		}
		if err := cache.Store(key, polygons); err != nil {
			log.Printf("run %s: failed to cache ingest result: %v", runID, err)
		}
		log.Printf("run %s: ingested %d shapes", runID, len(polygons))
	}

	store := shapestore.New(polygons)

	queryBytes, err := os.ReadFile(*queriesFile)
	if err != nil {
		log.Fatalf("read queries: %v", err)
	}
	queries, err := pipeline.Decode(queryBytes)
	if err != nil {
		log.Fatalf("decode queries: %v", err)
	}

	for i, q := range queries {
		if err := q.Execute(store); err != nil {
			log.Fatalf("run %s: query %d failed: %v", runID, i, err)
		}
	}

	groups, ok := store.Group(*outGroup)
	if !ok {
		log.Fatalf("run %s: output group %q not found", runID, *outGroup)
	}

	var flat []int
	for _, sub := range groups {
		flat = append(flat, sub...)
	}

	out, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer out.Close()

	if err := svgio.Export(out, store.Polygons(flat)); err != nil {
		log.Fatalf("export svg: %v", err)
	}

	if *exportGeoJSON != "" {
		if err := writeGeoJSONDump(*exportGeoJSON, store.Polygons(flat)); err != nil {
			log.Printf("run %s: geojson debug dump failed: %v", runID, err)
		}
	}

	summary, _ := json.Marshal(map[string]any{"run": runID, "shapes_out": len(flat)})
	fmt.Println(string(summary))
}

// writeGeoJSONDump writes polygons as a GeoJSON FeatureCollection, a
// debug aid for inspecting pipeline output in tools that don't read
// SVG; it carries no properties, one feature per polygon.
func writeGeoJSONDump(path string, polygons []geom.Polygon) error {
	features := make([]geom.GeoJSONFeature, len(polygons))
	for i, p := range polygons {
		features[i] = geom.GeoJSONFeature{Geometry: p.AsGeometry()}
	}
	fc := geom.GeoJSONFeatureCollection{Features: features}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal geojson: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
