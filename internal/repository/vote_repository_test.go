package repository

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/debatearena/arena/internal/models"
)

// setupVoteTestDB creates an in-memory SQLite database for testing.
func setupVoteTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		// The ledger relies on portable duplicate-key detection.
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	testDB := &DB{db}
	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}
	return testDB
}

// createTestTopic creates a topic in the database.
func createTestTopic(t *testing.T, db *DB, publicID, title, status string) *models.Topic {
	t.Helper()

	topic := &models.Topic{
		PublicID: publicID,
		Title:    title,
		Status:   status,
	}
	if err := db.Create(topic).Error; err != nil {
		t.Fatalf("Failed to create test topic: %v", err)
	}
	return topic
}

func TestCastTopicVote_IncrementsCounter(t *testing.T) {
	db := setupVoteTestDB(t)
	repo := NewVoteRepository(db)
	topic := createTestTopic(t, db, "t-1", "Should tabs beat spaces?", models.TopicStatusPending)

	applied, err := repo.CastTopicVote(topic.ID, "aaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("CastTopicVote failed: %v", err)
	}
	if !applied {
		t.Error("first cast should be applied")
	}

	applied, err = repo.CastTopicVote(topic.ID, "bbbbbbbbbbbbbbbb")
	if err != nil {
		t.Fatalf("CastTopicVote failed: %v", err)
	}
	if !applied {
		t.Error("second voter's cast should be applied")
	}

	var got models.Topic
	if err := db.First(&got, topic.ID).Error; err != nil {
		t.Fatalf("Failed to reload topic: %v", err)
	}
	if got.VoteCount != 2 {
		t.Errorf("vote_count = %d, want 2", got.VoteCount)
	}
}

func TestCastTopicVote_DuplicateIsIdempotent(t *testing.T) {
	db := setupVoteTestDB(t)
	repo := NewVoteRepository(db)
	topic := createTestTopic(t, db, "t-1", "Is cereal a soup?", models.TopicStatusPending)

	if _, err := repo.CastTopicVote(topic.ID, "aaaaaaaaaaaaaaaa"); err != nil {
		t.Fatalf("CastTopicVote failed: %v", err)
	}

	applied, err := repo.CastTopicVote(topic.ID, "aaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("duplicate cast must not error: %v", err)
	}
	if applied {
		t.Error("duplicate cast must report applied=false")
	}

	var got models.Topic
	if err := db.First(&got, topic.ID).Error; err != nil {
		t.Fatalf("Failed to reload topic: %v", err)
	}
	if got.VoteCount != 1 {
		t.Errorf("vote_count = %d after duplicate, want 1", got.VoteCount)
	}

	var rows int64
	db.Model(&models.TopicVote{}).Where("topic_id = ?", topic.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("ledger rows = %d, want 1", rows)
	}
}

func TestCastDebateVote_OneVotePerVoter(t *testing.T) {
	db := setupVoteTestDB(t)
	repo := NewVoteRepository(db)

	applied, err := repo.CastDebateVote(42, models.VoteSidePro, "aaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("CastDebateVote failed: %v", err)
	}
	if !applied {
		t.Error("first cast should be applied")
	}

	// Same voter, same side.
	applied, err = repo.CastDebateVote(42, models.VoteSidePro, "aaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("duplicate cast must not error: %v", err)
	}
	if applied {
		t.Error("repeat cast must report applied=false")
	}

	// Same voter, other side: still one vote per debate.
	applied, err = repo.CastDebateVote(42, models.VoteSideCon, "aaaaaaaaaaaaaaaa")
	if err != nil {
		t.Fatalf("side-switch cast must not error: %v", err)
	}
	if applied {
		t.Error("side switch must report applied=false")
	}

	pro, con, err := repo.DebateVoteCounts(42)
	if err != nil {
		t.Fatalf("DebateVoteCounts failed: %v", err)
	}
	if pro != 1 || con != 0 {
		t.Errorf("counts = (%d, %d), want (1, 0)", pro, con)
	}
}

func TestDebateVoteCounts(t *testing.T) {
	db := setupVoteTestDB(t)
	repo := NewVoteRepository(db)

	voters := []struct {
		hash string
		side string
	}{
		{"aaaaaaaaaaaaaaaa", models.VoteSidePro},
		{"bbbbbbbbbbbbbbbb", models.VoteSidePro},
		{"cccccccccccccccc", models.VoteSidePro},
		{"dddddddddddddddd", models.VoteSideCon},
	}
	for _, v := range voters {
		if _, err := repo.CastDebateVote(7, v.side, v.hash); err != nil {
			t.Fatalf("CastDebateVote failed: %v", err)
		}
	}

	pro, con, err := repo.DebateVoteCounts(7)
	if err != nil {
		t.Fatalf("DebateVoteCounts failed: %v", err)
	}
	if pro != 3 || con != 1 {
		t.Errorf("counts = (%d, %d), want (3, 1)", pro, con)
	}

	// A debate with no votes counts to zero, not an error.
	pro, con, err = repo.DebateVoteCounts(999)
	if err != nil {
		t.Fatalf("DebateVoteCounts failed: %v", err)
	}
	if pro != 0 || con != 0 {
		t.Errorf("counts = (%d, %d) for unvoted debate, want (0, 0)", pro, con)
	}
}
