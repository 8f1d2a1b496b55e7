package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/educonnect-africa/auth-service/internal/domain"
)

// UserFilter is the explicit filter struct for listing users. Zero values
// mean "no constraint"; Page is 1-based.
type UserFilter struct {
	Role   domain.Role
	Search string
	Page   int
	Limit  int
}

func (f UserFilter) offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.limit()
}

func (f UserFilter) limit() int {
	if f.Limit < 1 {
		return 20
	}
	return f.Limit
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error)
}

type AuthIdentityRepository interface {
	FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.AuthIdentity, error)
	Create(ctx context.Context, identity *domain.AuthIdentity) error
}

type userRepo struct{ db *gorm.DB }

type authIdentityRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func NewAuthIdentityRepository(db *gorm.DB) AuthIdentityRepository {
	return &authIdentityRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) List(ctx context.Context, filter UserFilter) ([]domain.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", like, like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []domain.User
	if err := q.Order("created_at DESC").Offset(filter.offset()).Limit(filter.limit()).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *authIdentityRepo) FindByProvider(ctx context.Context, provider, providerUserID string) (*domain.AuthIdentity, error) {
	var identity domain.AuthIdentity
	if err := r.db.WithContext(ctx).Where("provider = ? AND provider_user_id = ?", provider, providerUserID).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *authIdentityRepo) Create(ctx context.Context, identity *domain.AuthIdentity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}
