package stub

import (
	"fmt"
	"math/rand"
	"time"

	"giafashion/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedOptions controls demo-data generation.
type SeedOptions struct {
	Users          int
	Posts          int
	CommentsPerPost int
	DraftRatio     float64 // fraction of posts left unapproved
	AdminEmail     string
	AdminPassword  string
}

// DefaultSeedOptions matches a small but lively local feed.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Users:           8,
		Posts:           12,
		CommentsPerPost: 3,
		DraftRatio:      0.4,
		AdminEmail:      "admin@gia.fashion",
		AdminPassword:   "gia-admin-password",
	}
}

// Seed populates the stub database with demo users, posts, comments, likes
// and marketing content. Intended for development and testing only.
func Seed(db *gorm.DB, opts SeedOptions) error {
	gofakeit.Seed(time.Now().UnixNano())
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	admin, err := seedUser(db, opts.AdminEmail, opts.AdminPassword, "gia_admin", models.RoleAdmin)
	if err != nil {
		return err
	}

	users := []*models.User{admin}
	for i := 0; i < opts.Users; i++ {
		u, userErr := seedUser(db, gofakeit.Email(), "demo-password-123", gofakeit.Username(), models.RoleUser)
		if userErr != nil {
			return userErr
		}
		users = append(users, u)
	}

	trends := []string{
		"Neon Streetwear Revival",
		"Sustainable Luxury Materials",
		"Y2K Comeback - Metallics & Mini",
		"Oversized Blazer Power Dressing",
		"Dopamine Dressing - Bold Color Blocking",
	}

	for i := 0; i < opts.Posts; i++ {
		status := models.StatusPublished
		if r.Float64() < opts.DraftRatio {
			status = models.StatusDraft
		}

		post := models.BlogPost{
			Title:       trends[i%len(trends)] + " " + gofakeit.AdjectiveDescriptive(),
			Description: gofakeit.Paragraph(1, 3, 8, " "),
			AIInsight:   fmt.Sprintf("%s is up %d%% this week across platforms.", trends[i%len(trends)], 10+r.Intn(50)),
			Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
			Link:        gofakeit.URL(),
			Status:      status,
			AuthorID:    admin.ID,
			CreatedAt:   time.Now().Add(-time.Duration(r.Intn(90*24)) * time.Hour),
		}
		if err := db.Create(&post).Error; err != nil {
			return fmt.Errorf("seed post: %w", err)
		}

		for j := 0; j < opts.CommentsPerPost; j++ {
			author := users[r.Intn(len(users))]
			comment := models.Comment{
				BlogPostID: post.ID,
				AuthorID:   author.ID,
				AuthorName: author.Username,
				Text:       gofakeit.Sentence(8),
			}
			if err := db.Create(&comment).Error; err != nil {
				return fmt.Errorf("seed comment: %w", err)
			}
		}

		for _, u := range users {
			if r.Intn(3) == 0 {
				like := models.Like{UserID: u.ID, BlogPostID: post.ID}
				if err := db.Create(&like).Error; err != nil {
					return fmt.Errorf("seed like: %w", err)
				}
			}
		}
	}

	sections := map[string]string{
		"hero":   `{"headline":"The Future of Fashion Intelligence","tagline":"AI-curated trends, before they trend"}`,
		"about":  `{"headline":"About GIA","body":"GIA watches the world's feeds so you don't have to."}`,
		"faq":    `{"items":[{"q":"What is GIA?","a":"An AI fashion trend scout."}]}`,
		"footer": `{"copyright":"GIA Fashion","links":["privacy","policy"]}`,
	}
	for section, payload := range sections {
		entry := models.ContentSection{Section: section, Payload: payload}
		if err := db.Create(&entry).Error; err != nil {
			return fmt.Errorf("seed content: %w", err)
		}
	}

	return nil
}

func seedUser(db *gorm.DB, email, password, username, role string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	user := models.User{
		Email:    email,
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	return &user, nil
}
