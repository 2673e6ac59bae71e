package db

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openbook/hub/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside a database transaction. The repository handed to
// fn is bound to the transaction; fn must not use any other handle.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// forUpdate adds a row lock where the dialect has one. SQLite already
// serializes writers for the whole database.
func (r *Repository) forUpdate(tx *gorm.DB) *gorm.DB {
	switch r.db.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	default:
		return tx
	}
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Delete removes the user row only; callers clear references first
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// CommunityRepository provides community-related database operations
type CommunityRepository struct {
	*Repository
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(repo *Repository) *CommunityRepository {
	return &CommunityRepository{Repository: repo}
}

// GetByName retrieves a community by name
func (r *CommunityRepository) GetByName(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&community).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &community, nil
}

// GetByNameForUpdate retrieves a community by name and locks its row until
// the surrounding transaction ends. Every mutation of the community's
// memberships, bans and log takes this lock first, so they serialize even
// when the membership row they check does not exist yet.
func (r *CommunityRepository) GetByNameForUpdate(ctx context.Context, name string) (*models.Community, error) {
	var community models.Community
	if err := r.forUpdate(r.db.WithContext(ctx)).Where("name = ?", name).First(&community).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &community, nil
}

// Create creates a new community
func (r *CommunityRepository) Create(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

// ClearCreator nulls creator_id on every community founded by userID
func (r *CommunityRepository) ClearCreator(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Community{}).
		Where("creator_id = ?", userID).
		Update("creator_id", nil).Error
}

// MembershipRepository provides membership and role operations
type MembershipRepository struct {
	*Repository
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(repo *Repository) *MembershipRepository {
	return &MembershipRepository{Repository: repo}
}

// Get retrieves the membership of userID in communityID
func (r *MembershipRepository) Get(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	var m models.Membership
	if err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &m, nil
}

// GetForUpdate retrieves the membership and locks the row until the
// surrounding transaction ends
func (r *MembershipRepository) GetForUpdate(ctx context.Context, communityID, userID int64) (*models.Membership, error) {
	var m models.Membership
	if err := r.forUpdate(r.db.WithContext(ctx)).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&m).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &m, nil
}

// Create creates a new membership
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// SetRole changes the role of an existing membership
func (r *MembershipRepository) SetRole(ctx context.Context, communityID, userID int64, role models.Role) error {
	res := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a membership
func (r *MembershipRepository) Delete(ctx context.Context, communityID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.Membership{}).Error
}

// DeleteByUser removes every membership of a user
func (r *MembershipRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Membership{}).Error
}

// ListUsersByRole lists the users holding role in communityID, ordered by username
func (r *MembershipRepository) ListUsersByRole(ctx context.Context, communityID int64, role models.Role) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN community_memberships ON community_memberships.user_id = users.id").
		Where("community_memberships.community_id = ? AND community_memberships.role = ?", communityID, role).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole counts the memberships holding role in communityID
func (r *MembershipRepository) CountByRole(ctx context.Context, communityID int64, role models.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("community_id = ? AND role = ?", communityID, role).
		Count(&count).Error
	return count, err
}

// CountAll counts the members of communityID
func (r *MembershipRepository) CountAll(ctx context.Context, communityID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("community_id = ?", communityID).
		Count(&count).Error
	return count, err
}

// CommunityIDsByUser lists the communities userID belongs to
func (r *MembershipRepository) CommunityIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Membership{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}

// BanRepository provides community ban operations
type BanRepository struct {
	*Repository
}

// NewBanRepository creates a new ban repository
func NewBanRepository(repo *Repository) *BanRepository {
	return &BanRepository{Repository: repo}
}

// IsBanned reports whether userID is banned from communityID
func (r *BanRepository) IsBanned(ctx context.Context, communityID, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CommunityBan{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

// Create bans a user
func (r *BanRepository) Create(ctx context.Context, ban *models.CommunityBan) error {
	return r.db.WithContext(ctx).Create(ban).Error
}

// Delete lifts a ban
func (r *BanRepository) Delete(ctx context.Context, communityID, userID int64) error {
	return r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Delete(&models.CommunityBan{}).Error
}

// DeleteByUser removes every ban of a user
func (r *BanRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CommunityBan{}).Error
}

// CommunityIDsByUser lists the communities userID is banned from
func (r *BanRepository) CommunityIDsByUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.CommunityBan{}).
		Where("user_id = ?", userID).
		Pluck("community_id", &ids).Error
	return ids, err
}

// ListUsers lists banned users of a community ordered by username
func (r *BanRepository) ListUsers(ctx context.Context, communityID int64) ([]*models.User, error) {
	var users []*models.User
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN community_bans ON community_bans.user_id = users.id").
		Where("community_bans.community_id = ?", communityID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// AuditLogRepository provides append-only access to the community audit log
type AuditLogRepository struct {
	*Repository
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(repo *Repository) *AuditLogRepository {
	return &AuditLogRepository{Repository: repo}
}

// Append inserts a new entry. There is deliberately no update or delete.
func (r *AuditLogRepository) Append(ctx context.Context, entry *models.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByCommunity returns entries newest first. maxID > 0 returns only
// entries with a smaller id.
func (r *AuditLogRepository) ListByCommunity(ctx context.Context, communityID, maxID int64, count int) ([]*models.AuditLogEntry, error) {
	query := r.db.WithContext(ctx).Where("community_id = ?", communityID)
	if maxID > 0 {
		query = query.Where("id < ?", maxID)
	}

	var entries []*models.AuditLogEntry
	if err := query.Order("id DESC").Limit(count).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CategoryRepository provides category operations
type CategoryRepository struct {
	*Repository
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(repo *Repository) *CategoryRepository {
	return &CategoryRepository{Repository: repo}
}

// GetByName retrieves a category by name
func (r *CategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &category, nil
}

// List returns all categories ordered by name
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// AddCommunity links a community to a category
func (r *CategoryRepository) AddCommunity(ctx context.Context, category *models.Category, community *models.Community) error {
	return r.db.WithContext(ctx).Model(category).Association("Communities").Append(community)
}

// ListCommunities returns the communities of a category ordered by name
func (r *CategoryRepository) ListCommunities(ctx context.Context, category *models.Category) ([]*models.Community, error) {
	var communities []*models.Community
	if err := r.db.WithContext(ctx).Model(category).Order("communities.name ASC").Association("Communities").Find(&communities); err != nil {
		return nil, err
	}
	return communities, nil
}

// ClearCreator nulls creator_id on every category created by userID
func (r *CategoryRepository) ClearCreator(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("creator_id = ?", userID).
		Update("creator_id", nil).Error
}

// BlockRepository provides user block operations
type BlockRepository struct {
	*Repository
}

// NewBlockRepository creates a new block repository
func NewBlockRepository(repo *Repository) *BlockRepository {
	return &BlockRepository{Repository: repo}
}

// Create records a block; blocking twice is a no-op
func (r *BlockRepository) Create(ctx context.Context, block *models.UserBlock) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(block).Error
}

// Delete removes a block
func (r *BlockRepository) Delete(ctx context.Context, blockerID, blockedID int64) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.UserBlock{}).Error
}

// DeleteByUser removes every block made by or against userID
func (r *BlockRepository) DeleteByUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("blocker_id = ? OR blocked_id = ?", userID, userID).
		Delete(&models.UserBlock{}).Error
}

// PostRepository provides read access to posts and their reports
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &post, nil
}

// Find returns posts matching every scope, newest first. maxID > 0 returns
// only posts with a smaller id.
func (r *PostRepository) Find(ctx context.Context, scope func(*gorm.DB) *gorm.DB, maxID int64, count int) ([]*models.Post, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope)
	if maxID > 0 {
		query = query.Where("posts.id < ?", maxID)
	}

	var posts []*models.Post
	if err := query.Preload("Creator").Order("posts.id DESC").Limit(count).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Report records viewer's report against a post; reporting twice is a no-op
func (r *PostRepository) Report(ctx context.Context, report *models.PostReport) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(report).Error
}

// DeleteByCreator removes the posts of a user together with their hashtag
// links, reports and moderation records, and every report the user filed
func (r *PostRepository) DeleteByCreator(ctx context.Context, userID int64) error {
	tx := r.db.WithContext(ctx)
	owned := tx.Model(&models.Post{}).Select("id").Where("creator_id = ?", userID)

	if err := tx.Where("post_id IN (?)", owned).Delete(&models.PostHashtag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN (?) OR reporter_id = ?", owned, userID).Delete(&models.PostReport{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN (?)", owned).Delete(&models.PostModeration{}).Error; err != nil {
		return err
	}
	return tx.Where("creator_id = ?", userID).Delete(&models.Post{}).Error
}

// HashtagRepository provides hashtag lookups
type HashtagRepository struct {
	*Repository
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(repo *Repository) *HashtagRepository {
	return &HashtagRepository{Repository: repo}
}

// GetByName retrieves a hashtag by name
func (r *HashtagRepository) GetByName(ctx context.Context, name string) (*models.Hashtag, error) {
	var hashtag models.Hashtag
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&hashtag).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &hashtag, nil
}
