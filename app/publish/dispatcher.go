package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/slavikmr/feedpub/app/config"
)

// Dispatcher fans one finished document out to every destination in a
// set. Destinations run concurrently and never short-circuit each
// other: a failure (or panic) in one becomes that destination's
// result while the rest complete normally.
type Dispatcher struct {
	newPublisher func(dest *config.Destination) Publisher
}

func NewDispatcher(httpClient *http.Client) *Dispatcher {
	return &Dispatcher{
		newPublisher: func(dest *config.Destination) Publisher {
			switch dest.Platform {
			case config.PlatformWordPress:
				return NewWordPressPublisher(httpClient, dest)
			default:
				return NewShopifyPublisher(httpClient, dest)
			}
		},
	}
}

// Run publishes doc to every destination in the set and returns one
// result per destination, in the set's order.
func (d *Dispatcher) Run(ctx context.Context, doc string, meta ArticleMeta, set *config.Set) *Report {
	destinations := set.All()
	results := make([]PublishResult, len(destinations))

	var wg sync.WaitGroup
	for i, dest := range destinations {
		wg.Add(1)
		go func(i int, dest *config.Destination) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Publisher panicked", "destination", dest.Name, "panic", r)
					results[i] = PublishResult{
						Platform:        dest.Platform,
						DestinationName: dest.Name,
						Error:           fmt.Sprintf("publisher panicked: %v", r),
						PublishedAt:     time.Now(),
					}
				}
			}()
			results[i] = d.newPublisher(dest).Publish(ctx, doc, meta)
		}(i, dest)
	}
	wg.Wait()

	report := &Report{Results: results}
	slog.Info("Publish dispatch finished",
		"destinations", report.TotalAttempts(), "succeeded", report.TotalSuccess())

	return report
}

// TestDestination runs the connection check for a single destination.
func (d *Dispatcher) TestDestination(ctx context.Context, dest *config.Destination) error {
	return d.newPublisher(dest).TestConnection(ctx)
}
