// catalog-check confirms that every model in the bundled catalog is still
// listed by each provider its routing rule sends it to. Provider model lists
// are fetched from <base URL>/models. The process exits with code 1 when a
// model is missing or a listing cannot be fetched, so CI can open an issue.
//
// Usage:
//
// go run ./scripts/catalog-check
// go run ./scripts/catalog-check -catalog /path/to/catalog.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/blueember/storefront-chat/internal/strategies"
	"github.com/blueember/storefront-chat/models"
	"github.com/blueember/storefront-chat/providers"
)

type listing struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func main() {
	catalogPath := flag.String("catalog", "", "path to a catalog JSON file (default: bundled catalog)")
	timeout := flag.Duration("timeout", 10*time.Second, "per-provider request timeout")
	flag.Parse()

	catalog := models.Bundled()
	if *catalogPath != "" {
		data, err := os.ReadFile(*catalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot read catalog: %v\n", err)
			os.Exit(2)
		}
		if err := json.Unmarshal(data, &catalog); err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot parse catalog: %v\n", err)
			os.Exit(2)
		}
	}

	client := &http.Client{Timeout: *timeout}

	type result struct {
		kind providers.Kind
		ids  map[string]bool
		err  error
	}
	results := make(chan result, len(providers.DefaultSpecs))
	var wg sync.WaitGroup
	for _, spec := range providers.DefaultSpecs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := fetchModels(client, spec.BaseURL+"/models")
			results <- result{kind: spec.Kind, ids: ids, err: err}
		}()
	}
	wg.Wait()
	close(results)

	listed := map[providers.Kind]map[string]bool{}
	var failures []string
	for r := range results {
		if r.err != nil {
			failures = append(failures, fmt.Sprintf("  FETCH ERR  %s: %v", r.kind, r.err))
			continue
		}
		listed[r.kind] = r.ids
	}

	router := strategies.DefaultConditional()
	ok := 0
	for _, m := range catalog.Models {
		rule, _ := router.Match(m.ID)
		missing := false
		for _, kind := range rule.Providers {
			ids, fetched := listed[kind]
			if fetched && !ids[m.ID] {
				failures = append(failures, fmt.Sprintf("  MISSING    %-42s not listed by %s (rule %s)", m.ID, kind, rule.Name))
				missing = true
			}
		}
		if !missing {
			ok++
		}
	}

	sort.Strings(failures)
	fmt.Fprintf(os.Stderr, "%d of %d models OK, %d problems\n\n", ok, len(catalog.Models), len(failures))
	if len(failures) > 0 {
		for _, f := range failures {
			fmt.Fprintln(os.Stderr, f)
		}
		os.Exit(1)
	}
}

func fetchModels(client *http.Client, url string) (map[string]bool, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "chatgw-catalog-check/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("decoding listing: %w", err)
	}
	ids := make(map[string]bool, len(l.Data))
	for _, d := range l.Data {
		ids[d.ID] = true
	}
	return ids, nil
}
