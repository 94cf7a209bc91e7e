// Script to compare a remote catalog with the local fixture, query by query
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
	"github.com/robert-malhotra/scene-browser/internal/config"
	"github.com/robert-malhotra/scene-browser/internal/remote"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/compare_catalogs.go <remote-url> [fixture-path]")
		os.Exit(2)
	}
	fixturePath := "data/catalog.json"
	if len(os.Args) > 2 {
		fixturePath = os.Args[2]
	}

	local, err := config.LoadMemoryCatalog(fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load fixture: %v\n", err)
		os.Exit(1)
	}
	upstream := remote.NewClient(os.Args[1], 30*time.Second)

	roi := catalog.NewBBox(126.5, 36.0, 127.5, 37.0)
	queries := map[string]catalog.Query{
		"all":            {},
		"ndvi":           {ProductID: "ndvi"},
		"default roi":    {ROI: &roi},
		"january window": {DateStart: "2024-01-10", DateEnd: "2024-01-18"},
		"second page":    {Page: 2, Limit: 3},
	}

	fmt.Printf("=== Catalog Comparison: %s vs %s ===\n\n", fixturePath, os.Args[1])

	ctx := context.Background()
	mismatches := 0
	for name, q := range queries {
		want, _ := local.Search(ctx, q.Normalize())
		got, err := upstream.Search(ctx, q)
		if err != nil {
			fmt.Printf("✗ %-16s remote error: %v\n", name, err)
			mismatches++
			continue
		}

		if diff := compare(want, got); diff != "" {
			fmt.Printf("✗ %-16s %s\n", name, diff)
			mismatches++
			continue
		}
		fmt.Printf("✓ %-16s total=%d page=%d\n", name, got.Total, got.Page)
	}

	if mismatches > 0 {
		fmt.Printf("\n%d of %d queries differ\n", mismatches, len(queries))
		os.Exit(1)
	}
	fmt.Println("\nAll queries match!")
}

func compare(want, got *catalog.SearchResult) string {
	if want.Total != got.Total {
		return fmt.Sprintf("total: fixture=%d remote=%d", want.Total, got.Total)
	}
	if len(want.Items) != len(got.Items) {
		return fmt.Sprintf("page size: fixture=%d remote=%d", len(want.Items), len(got.Items))
	}
	for i := range want.Items {
		if want.Items[i].SceneUID != got.Items[i].SceneUID {
			return fmt.Sprintf("item %d: fixture=%s remote=%s", i, want.Items[i].SceneUID, got.Items[i].SceneUID)
		}
	}
	return ""
}
