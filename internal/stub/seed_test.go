package stub

import (
	"path/filepath"
	"testing"

	"giafashion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedPopulatesDemoData(t *testing.T) {
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)

	opts := DefaultSeedOptions()
	require.NoError(t, Seed(db, opts))

	var admin models.User
	require.NoError(t, db.Where("email = ?", opts.AdminEmail).First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(opts.AdminPassword)))

	var users, posts, comments int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.BlogPost{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(opts.Users+1), users)
	assert.Equal(t, int64(opts.Posts), posts)
	assert.Equal(t, int64(opts.Posts*opts.CommentsPerPost), comments)

	// both moderation states are represented
	var drafts, published int64
	require.NoError(t, db.Model(&models.BlogPost{}).Where("status = ?", models.StatusDraft).Count(&drafts).Error)
	require.NoError(t, db.Model(&models.BlogPost{}).Where("status = ?", models.StatusPublished).Count(&published).Error)
	assert.Equal(t, int64(opts.Posts), drafts+published)

	for _, section := range []string{"hero", "about", "faq", "footer"} {
		var cs models.ContentSection
		require.NoError(t, db.Where("section = ?", section).First(&cs).Error, section)
		assert.NotEmpty(t, cs.Payload)
	}
}
