// Package main is a diagnostics CLI for pressbridge installations. It
// checks the environment, the sites file, the image-generation credential,
// and live connectivity to every configured site, then prints the most
// recent publish attempts when history is enabled.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pressbridge/internal/config"
	"pressbridge/internal/history"
	"pressbridge/internal/publisher"
	"pressbridge/internal/sites"
	"pressbridge/internal/wp"
)

func main() {
	fmt.Println("pressbridge diagnostics")
	fmt.Println("=======================")

	if err := godotenv.Load(); err != nil {
		fmt.Println("[env] no .env file found; using the process environment")
	} else {
		fmt.Println("[env] .env loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("[config] FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[config] ok (env=%s, sites file=%s)\n", cfg.Env, cfg.SitesFile)

	if cfg.OpenAIKey != "" {
		fmt.Printf("[imagegen] API key present (model=%s)\n", cfg.OpenAIModel)
	} else {
		fmt.Println("[imagegen] OPENAI_API_KEY not set — featured images disabled")
	}

	registry, err := sites.Load(cfg.SitesFile)
	if err != nil {
		fmt.Printf("[sites] FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[sites] %d site(s) configured\n", registry.Len())

	client := wp.NewClient(cfg.RequestTimeout, cfg.UploadTimeout, cfg.TermsPerPage)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	failures := 0
	for _, site := range registry.List() {
		user, err := client.TestConnection(ctx, site)
		if err != nil {
			failures++
			fmt.Printf("[%s] connection FAILED: %v\n", site.ID, err)

			result := publisher.Result{Message: err.Error()}
			if apiErr, ok := wp.AsAPIError(err); ok {
				result.StatusCode = apiErr.StatusCode
			}
			diag := publisher.Diagnose(result)
			fmt.Printf("[%s]   likely cause: %s\n", site.ID, diag.Problem)
			fmt.Printf("[%s]   suggested fix: %s\n", site.ID, diag.Solution)
			continue
		}
		fmt.Printf("[%s] connected as %s (user ID %d)\n", site.ID, user.Name, user.ID)
	}

	printHistory(ctx, cfg.HistoryDB)

	if failures > 0 {
		fmt.Printf("\n%d site(s) unreachable\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nall checks passed")
}

func printHistory(ctx context.Context, path string) {
	if path == "" {
		fmt.Println("[history] not configured (HISTORY_DB unset)")
		return
	}

	log, err := history.Open(path)
	if err != nil {
		fmt.Printf("[history] FAILED: %v\n", err)
		return
	}
	defer log.Close()

	entries, err := log.Recent(ctx, 10)
	if err != nil {
		fmt.Printf("[history] read FAILED: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("[history] no publish attempts recorded yet")
		return
	}

	fmt.Printf("[history] last %d publish attempt(s):\n", len(entries))
	for _, e := range entries {
		status := "ok"
		if !e.Success {
			status = "FAILED"
		}
		fmt.Printf("  %s  %-6s  %s → %s (%s)\n",
			e.CreatedAt.Format("2006-01-02 15:04"), status, e.Title, e.SiteName, e.Message)
	}
}
