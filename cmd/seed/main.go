// Command seed drives demo traffic against a running comicboard
// instance: it requests comics for a set of place keys (twice, so the
// second round exercises cache hits) and prints the per-region
// leaderboards that result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

const requestTimeout = 5 * time.Minute

var places = map[string]string{
	"pier-66-chowder":      "US-WA-Seattle",
	"fremont-troll-tacos":  "US-WA-Seattle",
	"mission-burrito-co":   "US-CA-SanFrancisco",
	"lombard-noodle-house": "US-CA-SanFrancisco",
	"bowery-bagel-works":   "US-NY-NewYork",
}

type comicResponse struct {
	Key             string  `json:"key"`
	Score           float64 `json:"score"`
	Region          string  `json:"region"`
	ServedFromCache bool    `json:"served_from_cache"`
}

func main() {
	addr := flag.String("addr", "http://localhost:9090", "comicboard base URL")
	rounds := flag.Int("rounds", 2, "request rounds per key")
	topN := flag.Int("top", 10, "leaderboard entries to print per region")
	flag.Parse()

	ctx := context.Background()
	client := &http.Client{Timeout: requestTimeout}

	for round := 1; round <= *rounds; round++ {
		fmt.Printf("--- round %d ---\n", round)
		g, gCtx := errgroup.WithContext(ctx)
		for key := range places {
			g.Go(func() error {
				return fetchComic(gCtx, client, *addr, key)
			})
		}
		if err := g.Wait(); err != nil {
			fmt.Fprintln(os.Stderr, "round failed:", err)
			os.Exit(1)
		}
	}

	regions := map[string]struct{}{}
	for _, region := range places {
		regions[region] = struct{}{}
	}
	for region := range regions {
		if err := printLeaderboard(ctx, client, *addr, region, *topN); err != nil {
			fmt.Fprintln(os.Stderr, "leaderboard failed:", err)
			os.Exit(1)
		}
	}
}

func fetchComic(ctx context.Context, client *http.Client, addr, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/comic/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /comic/%s: %s", key, resp.Status)
	}
	var comic comicResponse
	if err := json.NewDecoder(resp.Body).Decode(&comic); err != nil {
		return err
	}
	fmt.Printf("%-22s region=%-20s score=%6.2f cached=%v\n", comic.Key, comic.Region, comic.Score, comic.ServedFromCache)
	return nil
}

func printLeaderboard(ctx context.Context, client *http.Client, addr, region string, n int) error {
	u := fmt.Sprintf("%s/leaderboard?region=%s&limit=%d", addr, url.QueryEscape(region), n)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /leaderboard (%s): %s", region, resp.Status)
	}
	var entries []struct {
		Rank        int     `json:"rank"`
		Key         string  `json:"key"`
		DisplayName string  `json:"display_name"`
		Score       float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return err
	}
	fmt.Printf("--- leaderboard %s ---\n", region)
	for _, e := range entries {
		fmt.Printf("#%d %-22s %-24s %6.2f\n", e.Rank, e.Key, e.DisplayName, e.Score)
	}
	return nil
}
