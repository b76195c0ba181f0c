package db

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestNotFoundMapsNoDocuments(t *testing.T) {
	err := notFound(mongo.ErrNoDocuments, "failed to find user")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	other := fmt.Errorf("socket closed")
	err = notFound(other, "failed to find user")
	if errors.Is(err, ErrNotFound) {
		t.Fatal("unexpected ErrNotFound for transport error")
	}
	if !errors.Is(err, other) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestDuplicateMapsDuplicateKeyError(t *testing.T) {
	dupErr := mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}},
	}
	err := duplicate(dupErr, "failed to insert playlist")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	other := mongo.WriteException{
		WriteErrors: []mongo.WriteError{{Index: 0, Code: 121, Message: "document failed validation"}},
	}
	err = duplicate(other, "failed to insert playlist")
	if errors.Is(err, ErrDuplicate) {
		t.Fatal("unexpected ErrDuplicate for validation error")
	}
}

func TestAssignIDKeepsExisting(t *testing.T) {
	id := "fixed"
	if err := assignID(&id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "fixed" {
		t.Fatalf("expected id to stay, got %s", id)
	}

	var fresh string
	if err := assignID(&fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fresh) != 36 {
		t.Fatalf("expected uuid string, got %q", fresh)
	}
}

func TestVideoCompletionUpdate(t *testing.T) {
	at := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

	complete := videoCompletionUpdate(true, at)
	set, ok := complete["$set"].(bson.M)
	if !ok || set["videos.$.completed"] != true || set["videos.$.completed_at"] != at {
		t.Fatalf("unexpected completion update %v", complete)
	}
	if _, ok := complete["$unset"]; ok {
		t.Fatal("completion must not unset completed_at")
	}

	incomplete := videoCompletionUpdate(false, at)
	unset, ok := incomplete["$unset"].(bson.M)
	if !ok {
		t.Fatalf("expected $unset, got %v", incomplete)
	}
	if _, ok := unset["videos.$.completed_at"]; !ok {
		t.Fatal("expected completed_at to be cleared")
	}
	if incomplete["$set"].(bson.M)["videos.$.completed"] != false {
		t.Fatalf("unexpected incomplete update %v", incomplete)
	}
}

func TestActivityUpdateNeverWritesNullLedger(t *testing.T) {
	update := activityUpdate(&models.User{ID: "u1", Streak: models.Streak{Current: 2, Longest: 3}})

	set := update["$set"].(bson.M)
	activity, ok := set["learning_activity"].([]models.DailyActivity)
	if !ok || activity == nil {
		t.Fatalf("expected empty ledger slice, got %#v", set["learning_activity"])
	}
	if set["streak"].(models.Streak).Longest != 3 {
		t.Fatalf("unexpected streak %v", set["streak"])
	}
}

func TestOwnedPlaylistFilter(t *testing.T) {
	filter := ownedPlaylistFilter("p1", "u1")
	if filter["_id"] != "p1" || filter["owner_user_id"] != "u1" {
		t.Fatalf("unexpected filter %v", filter)
	}
}
