package stub

import (
	"errors"
	"strings"

	"giafashion/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// applyBlogDetails adds subqueries computing counts and liked status in a
// single query.
func (s *Server) applyBlogDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "blog_posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.blog_post_id = blog_posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.blog_post_id = blog_posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.blog_post_id = blog_posts.id AND likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", 0 AS liked")
}

// ListBlogs handles GET /api/v1/blogs. Drafts are included only when an admin
// asks for them with includeUnapproved=true.
func (s *Server) ListBlogs(c *fiber.Ctx) error {
	viewerID := currentUserID(c)
	includeUnapproved := c.QueryBool("includeUnapproved") && currentRole(c) == models.RoleAdmin

	query := s.applyBlogDetails(s.db.Model(&models.BlogPost{}), viewerID)
	if !includeUnapproved {
		query = query.Where("status = ?", models.StatusPublished)
	}

	var posts []models.BlogPost
	if err := query.Order("created_at DESC").Find(&posts).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, fiber.Map{"blogs": posts})
}

// ApproveBlog handles PATCH /api/v1/blogs/:id/approve (admin).
func (s *Server) ApproveBlog(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	result := s.db.Model(&models.BlogPost{}).Where("id = ?", id).
		Update("status", models.StatusPublished)
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}

	return respond(c, fiber.StatusOK, fiber.Map{})
}

// DeleteBlog handles DELETE /api/v1/blogs/:id (admin). Comments and likes go
// with the post.
func (s *Server) DeleteBlog(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var post models.BlogPost
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if err := tx.Where("blog_post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("blog_post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BlogPost{}, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, fiber.Map{})
}

// LikeBlog handles POST /api/v1/blogs/:id/like. A duplicate like from a
// racing client gets a 409 so it can resynchronize.
func (s *Server) LikeBlog(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	userID := currentUserID(c)

	var post models.BlogPost
	if err := s.db.First(&post, id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}

	var existing int64
	if err := s.db.Model(&models.Like{}).
		Where("user_id = ? AND blog_post_id = ?", userID, id).
		Count(&existing).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if existing > 0 {
		return fail(c, fiber.StatusConflict, "Already liked")
	}

	if err := s.db.Create(&models.Like{UserID: userID, BlogPostID: id}).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return s.respondLikesCount(c, id)
}

// UnlikeBlog handles DELETE /api/v1/blogs/:id/like.
func (s *Server) UnlikeBlog(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	userID := currentUserID(c)

	var post models.BlogPost
	if err := s.db.First(&post, id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}

	result := s.db.Where("user_id = ? AND blog_post_id = ?", userID, id).Delete(&models.Like{})
	if result.Error != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	if result.RowsAffected == 0 {
		return fail(c, fiber.StatusConflict, "Not liked")
	}

	return s.respondLikesCount(c, id)
}

func (s *Server) respondLikesCount(c *fiber.Ctx, postID uint) error {
	var likes int64
	if err := s.db.Model(&models.Like{}).Where("blog_post_id = ?", postID).Count(&likes).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
	return respond(c, fiber.StatusOK, fiber.Map{"likesCount": likes})
}

// GetComments handles GET /api/v1/blogs/:id/comments (public).
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}

	var post models.BlogPost
	if err := s.db.First(&post, id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}

	var comments []models.Comment
	if err := s.db.Where("blog_post_id = ?", id).Order("created_at ASC").Find(&comments).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, fiber.Map{"comments": comments})
}

// CreateComment handles POST /api/v1/blogs/:id/comments (protected).
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	userID := currentUserID(c)

	var req struct {
		Comment string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	text := strings.TrimSpace(req.Comment)
	if text == "" {
		return fail(c, fiber.StatusBadRequest, "Comment text is required")
	}

	var post models.BlogPost
	if err := s.db.First(&post, id).Error; err != nil {
		return fail(c, fiber.StatusNotFound, "Post not found")
	}

	var author models.User
	if err := s.db.First(&author, userID).Error; err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unknown user")
	}
	authorName := author.Username
	if authorName == "" {
		authorName = author.Email
	}

	comment := models.Comment{
		BlogPostID: id,
		AuthorID:   userID,
		AuthorName: authorName,
		Text:       text,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusCreated, comment)
}

// DeleteComment handles DELETE /api/v1/blogs/:blogId/comments/:commentId
// (owner or admin).
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	blogID, ok := parseID(c, "blogId")
	if !ok {
		return nil
	}
	commentID, ok := parseID(c, "commentId")
	if !ok {
		return nil
	}

	var comment models.Comment
	err := s.db.Where("id = ? AND blog_post_id = ?", commentID, blogID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, fiber.StatusNotFound, "Comment not found")
	}
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	if comment.AuthorID != currentUserID(c) && currentRole(c) != models.RoleAdmin {
		return fail(c, fiber.StatusForbidden, "Not allowed to delete this comment")
	}

	if err := s.db.Delete(&models.Comment{}, commentID).Error; err != nil {
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return respond(c, fiber.StatusOK, fiber.Map{})
}
