package mongo

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxSetSize = 20

var ErrNoQuestions = errors.New("no questions found for role")

// Question is one interview prompt in the question bank
type Question struct {
	Text      string    `bson:"text" json:"text"`
	Role      string    `bson:"role" json:"role"`
	Level     string    `bson:"level,omitempty" json:"level,omitempty"`
	Type      string    `bson:"type,omitempty" json:"type,omitempty"`
	Techstack []string  `bson:"techstack,omitempty" json:"techstack,omitempty"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Repo wraps the question bank collection
type Repo struct{ col *mongo.Collection }

// NewQuestionRepo opens the collection and ensures the role lookup index
func NewQuestionRepo(c *Client) (*Repo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}

	colName := os.Getenv("QUESTIONS_COLLECTION")
	if colName == "" {
		colName = "questions"
	}

	r := &Repo{col: db.Collection(colName)}

	_, _ = r.col.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "role", Value: 1}, {Key: "level", Value: 1}},
		Options: options.Index().SetName("role_level"),
	})

	return r, nil
}

// Insert adds active questions to the bank
func (r *Repo) Insert(ctx context.Context, questions []Question) error {
	if len(questions) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(questions))
	for _, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return errors.New("question text required")
		}
		q.Role = strings.ToLower(strings.TrimSpace(q.Role))
		q.Level = strings.ToLower(strings.TrimSpace(q.Level))
		if q.Status == "" {
			q.Status = "active"
		}
		q.CreatedAt = now
		docs = append(docs, q)
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

// GetSet samples up to amount active questions for a role, optionally narrowed by level
func (r *Repo) GetSet(ctx context.Context, role, level string, amount int) ([]string, error) {
	if amount <= 0 || amount > maxSetSize {
		amount = maxSetSize
	}
	match := bson.D{
		{Key: "status", Value: "active"},
		{Key: "role", Value: strings.ToLower(strings.TrimSpace(role))},
	}
	if level != "" {
		match = append(match, bson.E{Key: "level", Value: strings.ToLower(strings.TrimSpace(level))})
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: amount}}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []Question
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoQuestions
	}
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Text)
	}
	return out, nil
}
