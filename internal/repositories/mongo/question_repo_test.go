package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRepoGetSet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns sampled question texts", func(mt *mtest.T) {
		repo := &Repo{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "text", Value: "What is a goroutine?"}, {Key: "role", Value: "backend"}},
			bson.D{{Key: "text", Value: "Explain context cancellation."}, {Key: "role", Value: "backend"}},
		))

		got, err := repo.GetSet(context.Background(), "Backend", "", 2)
		if err != nil {
			mt.Fatalf("GetSet returned error: %v", err)
		}
		if len(got) != 2 || got[0] != "What is a goroutine?" {
			mt.Fatalf("unexpected questions: %v", got)
		}
	})

	mt.Run("empty bank", func(mt *mtest.T) {
		repo := &Repo{col: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		if _, err := repo.GetSet(context.Background(), "designer", "junior", 5); !errors.Is(err, ErrNoQuestions) {
			mt.Fatalf("expected ErrNoQuestions, got %v", err)
		}
	})

	mt.Run("command error", func(mt *mtest.T) {
		repo := &Repo{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad pipeline"}))

		if _, err := repo.GetSet(context.Background(), "backend", "", 5); err == nil {
			mt.Fatalf("expected error from aggregate")
		}
	})
}

func TestRepoInsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("inserts questions", func(mt *mtest.T) {
		repo := &Repo{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Insert(context.Background(), []Question{{Text: "Why Go?", Role: " Backend "}})
		if err != nil {
			mt.Fatalf("Insert returned error: %v", err)
		}
	})

	mt.Run("rejects blank text", func(mt *mtest.T) {
		repo := &Repo{col: mt.Coll}
		if err := repo.Insert(context.Background(), []Question{{Text: "  "}}); err == nil {
			mt.Fatalf("expected error for blank question")
		}
	})

	mt.Run("no questions is a no-op", func(mt *mtest.T) {
		repo := &Repo{col: mt.Coll}
		if err := repo.Insert(context.Background(), nil); err != nil {
			mt.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestNewClientRequiresURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	if _, err := NewClient(context.Background(), ""); err == nil {
		t.Fatalf("expected error when MONGO_URI is empty")
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if _, err := c.DB(); err == nil {
		t.Fatalf("expected error from nil client")
	}
	if err := c.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect on nil client should be a no-op, got %v", err)
	}
}
