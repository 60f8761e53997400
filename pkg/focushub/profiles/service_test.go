package profiles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vjfocus/focushub/pkg/focushub/apperr"
	"github.com/vjfocus/focushub/pkg/focushub/friends"
	"github.com/vjfocus/focushub/pkg/focushub/logging"
	"github.com/vjfocus/focushub/pkg/focushub/models"
	"github.com/vjfocus/focushub/pkg/focushub/visibility"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	models.AutoMigrate(db)
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	user := models.User{Username: username, PasswordHash: "hash"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func newTestService(db *gorm.DB) (*Service, *friends.Ledger) {
	ledger := friends.NewLedger(db, logging.Discard())
	return NewService(db, visibility.NewPolicy(ledger), logging.Discard()), ledger
}

func befriend(t *testing.T, ledger *friends.Ledger, a, b models.User) {
	ctx := context.Background()
	f, err := ledger.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = ledger.Respond(ctx, b.ID, f.ID, models.FriendshipAccepted)
	require.NoError(t, err)
}

func TestPrivateProfileVisibleToFriendsOnly(t *testing.T) {
	db := setupTestDB(t)
	service, ledger := newTestService(db)
	ctx := context.Background()
	u1 := createTestUser(t, db, "u1")
	u2 := createTestUser(t, db, "u2")
	u3 := createTestUser(t, db, "u3")

	_, err := service.Update(ctx, u1.ID, UpdateParams{DisplayName: "Una", IsPublic: false})
	require.NoError(t, err)
	befriend(t, ledger, u1, u2)

	own, err := service.Get(ctx, u1.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Una", own.DisplayName)

	seen, err := service.Get(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", seen.Username)

	_, err = service.Get(ctx, u3.ID, u1.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestPublicProfileVisibleToEveryone(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(db)
	ctx := context.Background()
	u1 := createTestUser(t, db, "u1")
	u2 := createTestUser(t, db, "u2")

	_, err := service.Update(ctx, u1.ID, UpdateParams{Bio: "hello", IsPublic: true})
	require.NoError(t, err)

	seen, err := service.Get(ctx, u2.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", seen.Bio)
	assert.True(t, seen.IsPublic)
}

func TestGetWithoutProfileRow(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(db)
	ctx := context.Background()
	u1 := createTestUser(t, db, "u1")
	u2 := createTestUser(t, db, "u2")

	own, err := service.Get(ctx, u1.ID, u1.ID)
	require.NoError(t, err)
	assert.False(t, own.IsPublic)
	assert.Nil(t, own.CreatedAt)

	_, err = service.Get(ctx, u2.ID, u1.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = service.Get(ctx, u1.ID, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateUpserts(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(db)
	ctx := context.Background()
	u1 := createTestUser(t, db, "u1")

	_, err := service.Update(ctx, u1.ID, UpdateParams{
		DisplayName:    "First",
		StudyInterests: []string{"math"},
		Timezone:       "Europe/Berlin",
		IsPublic:       true,
	})
	require.NoError(t, err)

	updated, err := service.Update(ctx, u1.ID, UpdateParams{
		DisplayName:         "Second",
		StudyInterests:      []string{"physics", "chemistry"},
		PreferredStudyTimes: []string{"morning"},
		IsPublic:            false,
	})
	require.NoError(t, err)

	assert.Equal(t, "Second", updated.DisplayName)
	assert.Equal(t, []string{"physics", "chemistry"}, updated.StudyInterests)
	assert.Equal(t, []string{"morning"}, updated.PreferredStudyTimes)
	assert.Empty(t, updated.Timezone)
	assert.False(t, updated.IsPublic)

	var count int64
	db.Model(&models.UserProfile{}).Where("user_id = ?", u1.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpdateValidation(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(db)
	u1 := createTestUser(t, db, "u1")

	_, err := service.Update(context.Background(), u1.ID, UpdateParams{Timezone: "Mars/Olympus"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	service, _ := newTestService(db)
	ctx := context.Background()
	caller := createTestUser(t, db, "studier")
	public := createTestUser(t, db, "study_buddy")
	hidden := createTestUser(t, db, "study_hermit")
	noProfile := createTestUser(t, db, "student")
	byName := createTestUser(t, db, "xyz")
	createTestUser(t, db, "unrelated")

	_, err := service.Update(ctx, public.ID, UpdateParams{IsPublic: true, StudyInterests: []string{"art"}})
	require.NoError(t, err)
	_, err = service.Update(ctx, hidden.ID, UpdateParams{IsPublic: false})
	require.NoError(t, err)
	_, err = service.Update(ctx, byName.ID, UpdateParams{DisplayName: "Stuart", IsPublic: true})
	require.NoError(t, err)

	results, err := service.Search(ctx, caller.ID, "STU")
	require.NoError(t, err)

	var names []string
	for _, r := range results {
		names = append(names, r.Username)
	}
	assert.ElementsMatch(t, []string{public.Username, noProfile.Username, byName.Username}, names)

	for _, r := range results {
		if r.ID == public.ID {
			assert.Equal(t, []string{"art"}, r.StudyInterests)
		}
	}

	_, err = service.Search(ctx, caller.ID, " s ")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
