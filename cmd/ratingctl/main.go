// ratingctl drives the rating engine from a terminal: list a target's
// ratings, submit or edit your own, or delete it.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ezoooooooooo/rental-rating-engine/internal/config"
	"github.com/ezoooooooooo/rental-rating-engine/internal/domain"
	"github.com/ezoooooooooo/rental-rating-engine/internal/engine"
	"github.com/ezoooooooooo/rental-rating-engine/internal/identity"
	"github.com/ezoooooooooo/rental-rating-engine/internal/logging"
	"github.com/ezoooooooooo/rental-rating-engine/internal/ratingapi"
	"github.com/ezoooooooooo/rental-rating-engine/internal/target"
)

func main() {
	// Flag defaults come from the environment (and .env), so an explicit flag
	// always wins over RATING_API_URL / RATING_API_TOKEN / RATING_API_TIMEOUT_SECS.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var (
		api        = flag.String("api", cfg.RatingAPIURL, "rating service base URL")
		token      = flag.String("token", cfg.RatingAPIToken, "bearer token for authenticated commands")
		listingID  = flag.String("listing", "", "listing id for the item tab")
		ownerID    = flag.String("owner", "", "owner id for the owner tab")
		renterID   = flag.String("renter", "", "renter id for the renter tab")
		query      = flag.String("query", "", "page query string to derive targets from, e.g. \"listingId=l1&ownerId=o1\"")
		tab        = flag.String("tab", "item", "rating tab: item, owner or renter")
		score      = flag.Int("score", 0, "overall star score (rate)")
		comment    = flag.String("comment", "", "comment text (rate)")
		categories = flag.String("categories", "", "comma separated name=score pairs (rate)")
		ratingID   = flag.String("id", "", "rating id (delete)")
		timeout    = flag.Duration("timeout", time.Duration(cfg.RatingTimeoutSecs)*time.Second, "request timeout")
		logLevel   = flag.String("log", "warn", "log level")
	)
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		log.Fatalf("usage: ratingctl [flags] list|rate|delete")
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	var tokens identity.TokenSource
	if *token != "" {
		tokens = identity.StaticToken(*token)
	}

	client, err := ratingapi.NewHTTPClient(*api, tokens, *timeout, logger)
	if err != nil {
		log.Fatalf("init rating client: %v", err)
	}

	targets := map[domain.TargetType]domain.TargetRef{}
	if *listingID != "" {
		targets[domain.TargetItem] = domain.TargetRef{Type: domain.TargetItem, ID: *listingID}
	}
	if *ownerID != "" {
		targets[domain.TargetOwner] = domain.TargetRef{Type: domain.TargetOwner, ID: *ownerID}
	}
	if *renterID != "" {
		targets[domain.TargetRenter] = domain.TargetRef{Type: domain.TargetRenter, ID: *renterID}
	}
	if *query != "" {
		values, err := url.ParseQuery(*query)
		if err != nil {
			log.Fatalf("parse -query: %v", err)
		}
		resolver := target.Resolver{Query: values}
		for _, kind := range []domain.TargetType{domain.TargetItem, domain.TargetOwner, domain.TargetRenter} {
			if _, exists := targets[kind]; exists {
				continue
			}
			if ref, err := resolver.ResolveType(kind); err == nil {
				targets[kind] = ref
			}
		}
	}
	if len(targets) == 0 {
		log.Fatalf("no rating target: pass -listing, -owner, -renter or -query")
	}

	eng, err := engine.New(engine.Config{
		API:      client,
		Identity: identity.NewExtractor(tokens),
		View:     consoleView{},
		Confirm:  engine.ConfirmerFunc(confirmOnTerminal),
		Targets:  targets,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}

	activeTab := domain.TargetType(strings.TrimSpace(*tab))
	ctx := context.Background()

	switch command {
	case "list":
		if err := eng.Load(ctx, activeTab); err != nil {
			log.Fatalf("list ratings: %v", err)
		}
	case "rate":
		mode, err := eng.OpenDialog(ctx, activeTab)
		if err != nil {
			log.Fatalf("open rating dialog: %v", err)
		}
		if mode == engine.ModeEditing {
			fmt.Println("editing your existing rating")
		} else {
			fmt.Println("creating a new rating")
		}
		if err := stageForm(eng, *score, *comment, *categories); err != nil {
			log.Fatalf("stage rating: %v", err)
		}
		rating, err := eng.Submit(ctx)
		if err != nil {
			log.Fatalf("submit rating: %v", err)
		}
		fmt.Printf("saved rating %s\n", rating.ID)
	case "delete":
		if *ratingID == "" {
			log.Fatalf("delete requires -id")
		}
		if err := eng.RequestDelete(ctx, activeTab, *ratingID); err != nil {
			log.Fatalf("delete rating: %v", err)
		}
		fmt.Println("rating deleted")
	default:
		log.Fatalf("unknown command %q", command)
	}
}

func stageForm(eng *engine.Engine, score int, comment, categories string) error {
	if err := eng.SetScore(score); err != nil {
		return err
	}
	if err := eng.SetComment(comment); err != nil {
		return err
	}
	if categories == "" {
		return nil
	}
	for _, pair := range strings.Split(categories, ",") {
		name, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return fmt.Errorf("invalid category pair %q", pair)
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid category score %q", raw)
		}
		if err := eng.SetCategory(name, value); err != nil {
			return err
		}
	}
	return nil
}

func confirmOnTerminal(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// consoleView renders engine updates as plain text.
type consoleView struct{}

func (consoleView) RenderList(target domain.TargetRef, ratings []domain.Rating) {
	fmt.Printf("%s %s: %d rating(s)\n", target.Type, target.ID, len(ratings))
	for _, rating := range ratings {
		fmt.Printf("  [%s] %d/5 by %s: %s\n", rating.ID, rating.Score, rating.RaterID, rating.Comment)
		for name, value := range rating.CategoryScores {
			fmt.Printf("      %s: %d/5\n", name, value)
		}
	}
}

func (consoleView) Prepend(_ domain.TargetRef, rating domain.Rating) {
	fmt.Printf("+ [%s] %d/5: %s\n", rating.ID, rating.Score, rating.Comment)
}

func (consoleView) Patch(_ domain.TargetRef, rating domain.Rating) {
	fmt.Printf("~ [%s] %d/5: %s\n", rating.ID, rating.Score, rating.Comment)
}

func (consoleView) Remove(_ domain.TargetRef, ratingID string) {
	fmt.Printf("- [%s]\n", ratingID)
}

func (consoleView) SetBusy(_ domain.TargetRef, ratingID string, busy bool) {
	if busy {
		fmt.Printf("  [%s] ...\n", ratingID)
	}
}

func (consoleView) ShowSummary(_ domain.TargetRef, summary domain.RatingSummary) {
	fmt.Printf("average %.1f from %d rating(s)\n", domain.RoundScore(summary.AverageOverall), summary.Count)
	for name, value := range summary.CategoryAverages {
		fmt.Printf("  %s: %.1f\n", name, domain.RoundScore(value))
	}
}
