package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"
)

func TestFileFeed(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pb")
	garbage := filepath.Join(dir, "garbage.pb")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(garbage, []byte{0xff, 0xff, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}

	tripID := "T9"
	headerless, err := proto.MarshalOptions{AllowPartial: true}.Marshal(&gtfsrtpb.FeedMessage{
		Entity: []*gtfsrtpb.FeedEntity{{
			TripUpdate: &gtfsrtpb.TripUpdate{Trip: &gtfsrtpb.TripDescriptor{TripId: &tripID}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}
	sparse := filepath.Join(dir, "sparse.pb")
	if err := os.WriteFile(sparse, headerless, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("empty file is an empty feed", func(t *testing.T) {
		feed, err := fileFeed{path: empty}.FetchFeed(context.Background())
		if err != nil {
			t.Fatalf("FetchFeed failed: %v", err)
		}
		if feed.EntityCount != 0 || len(feed.Trains) != 0 {
			t.Errorf("expected no entities, got %+v", feed)
		}
		t.Logf("✓ Empty feed decoded")
	})

	t.Run("feed without header", func(t *testing.T) {
		feed, err := fileFeed{path: sparse}.FetchFeed(context.Background())
		if err != nil {
			t.Fatalf("FetchFeed failed: %v", err)
		}
		if len(feed.Trains) != 1 || feed.Trains[0].Trip() != "T9" {
			t.Errorf("expected train T9, got %+v", feed.Trains)
		}
		if feed.Header.Timestamp != nil {
			t.Errorf("expected null header timestamp, got %v", feed.Header.Timestamp)
		}
		t.Logf("✓ Headerless feed decoded")
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := (fileFeed{path: filepath.Join(dir, "nope.pb")}).FetchFeed(context.Background()); err == nil {
			t.Fatal("expected an error")
		}
		t.Logf("✓ Missing file reported")
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := (fileFeed{path: garbage}).FetchFeed(context.Background()); err == nil {
			t.Fatal("expected a decode error")
		}
		t.Logf("✓ Garbage rejected")
	})
}
