package bookmarks

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Loader is satisfied by *loader.Loader.
type Loader interface {
	Load(ctx context.Context, rawURL string) (string, bool)
}

type WarmResult struct {
	Bookmarks int
	Unique    int
	Found     int
	Missing   []string
}

// Warm loads the icon of every distinct bookmark URL under nodes, running
// at most concurrency loads at once.
func Warm(ctx context.Context, nodes []*Node, ld Loader, concurrency int) (WarmResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	var res WarmResult
	seen := make(map[string]bool)
	var urls []string
	Walk(nodes, func(n *Node) {
		res.Bookmarks++
		if seen[n.URL] {
			return
		}
		seen[n.URL] = true
		urls = append(urls, n.URL)
	})
	res.Unique = len(urls)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, u := range urls {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, ok := ld.Load(gctx, u)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				res.Found++
			} else {
				res.Missing = append(res.Missing, u)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	sort.Strings(res.Missing)
	return res, err
}
