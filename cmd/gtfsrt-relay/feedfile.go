package main

import (
	"context"
	"fmt"
	"os"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfsrt"
)

// fileFeed serves a FeedMessage saved on disk, for offline runs.
type fileFeed struct {
	path string
}

func (f fileFeed) FetchFeed(ctx context.Context) (*gtfsrt.Feed, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("reading feed file: %w", err)
	}
	feed, err := gtfsrt.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.path, err)
	}
	return feed, nil
}
