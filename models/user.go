package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is inactive")
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	FullName  string    `gorm:"size:100;not null" json:"fullName"`
	Role      UserRole  `gorm:"type:enum('ADMIN','SHIFT_LEAD','CASHIER');not null;default:CASHIER" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"isActive"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewUser struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	ConfirmPassword string   `json:"confirmPassword"`
	FullName        string   `json:"fullName"`
	Role            UserRole `json:"role"`
}

type UpdateUserInput struct {
	FullName        *string   `json:"fullName"`
	Role            *UserRole `json:"role"`
	IsActive        *bool     `json:"isActive"`
	Password        *string   `json:"password"`
	ConfirmPassword *string   `json:"confirmPassword"`
}

type UserSummary struct {
	ID       int      `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"fullName"`
	Role     UserRole `json:"role"`
}

type LoginInfo struct {
	AccessToken string      `json:"access_token"`
	User        UserSummary `json:"user"`
}

/*
caches:
	User:$id
	Token:$jti       -> user id
	Tokens:$userId   -> set of jti
*/

func tokenKey(jti string) string {
	return "Token:" + jti
}

func userTokensKey(userId int) string {
	return "Tokens:" + strconv.Itoa(userId)
}

func (user User) Summary() UserSummary {
	return UserSummary{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
	}
}

func (user User) Active() bool {
	return user.IsActive != nil && *user.IsActive
}

func (user User) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[User](user.ID)
}

func (input *NewUser) validate(ctx context.Context) error {
	input.Email = utils.NormalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)

	if !utils.IsValidEmail(input.Email) {
		return utils.NewValidationError("invalid email")
	}
	if err := utils.ValidatePasswordPair(input.Password, input.ConfirmPassword); err != nil {
		return err
	}
	if input.FullName == "" {
		return utils.NewValidationError("fullName is required")
	}
	if input.Role == "" {
		input.Role = UserRoleCashier
	}
	if !input.Role.IsValid() {
		return utils.NewValidationError("invalid role")
	}
	if err := utils.ValidateUnique[User](ctx, "email", input.Email, 0); err != nil {
		if errors.Is(err, utils.ErrDuplicate) {
			return utils.NewValidationError("email already registered")
		}
		return err
	}
	return nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:    input.Email,
		Password: string(hashed),
		FullName: input.FullName,
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("email already registered")
		}
		return nil, err
	}
	return &user, nil
}

// RegisterUser is public sign-up; the role is always CASHIER.
func RegisterUser(ctx context.Context, input *NewUser) (*User, error) {
	input.Role = UserRoleCashier
	return CreateUser(ctx, input)
}

func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("email = ?", utils.NormalizeEmail(email)).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrUserInactive
	}

	lifespan := config.TokenLifespan()
	token, jti, err := utils.JwtGenerate(user.ID, string(user.Role), user.Email, user.FullName, lifespan)
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisValue(tokenKey(jti), strconv.Itoa(user.ID), lifespan); err != nil {
		return nil, err
	}
	if err := config.AddRedisSet(userTokensKey(user.ID), jti, lifespan); err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[User](&user, user.ID); err != nil {
		config.LogError(config.GetLogger(), "user.go", "Login", "caching user", user.ID, err)
	}

	return &LoginInfo{
		AccessToken: token,
		User:        user.Summary(),
	}, nil
}

// IsTokenActive reports whether jti is still registered for userId.
func IsTokenActive(jti string, userId int) (bool, error) {
	value, exists, err := config.GetRedisValue(tokenKey(jti))
	if err != nil || !exists {
		return false, err
	}
	return value == strconv.Itoa(userId), nil
}

func Logout(ctx context.Context) error {
	jti, ok := utils.GetTokenIdFromContext(ctx)
	if !ok || jti == "" {
		return utils.ErrUnauthorized
	}
	if err := config.RemoveRedisKey(tokenKey(jti)); err != nil {
		return err
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		return config.RemoveRedisSetMember(userTokensKey(userId), jti)
	}
	return nil
}

// DestroyAllSessions revokes every token of the user and evicts the cached user.
func DestroyAllSessions(userId int) error {
	jtis, err := config.GetRedisSetMembers(userTokensKey(userId))
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, tokenKey(jti))
	}
	keys = append(keys, userTokensKey(userId))
	if err := config.RemoveRedisKey(keys...); err != nil {
		return err
	}
	return utils.RemoveRedisItem[User](userId)
}

// GetUser reads through the User:$id cache.
func GetUser(ctx context.Context, id int) (*User, error) {
	user, err := utils.RetrieveRedis[User](id)
	if err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUser", "reading user cache", id, err)
	}
	if user != nil {
		return user, nil
	}

	user, err = utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[User](user, id); err != nil {
		config.LogError(config.GetLogger(), "user.go", "GetUser", "caching user", id, err)
	}
	return user, nil
}

func ListUsers(ctx context.Context) ([]*User, error) {
	return utils.FetchAllModels[User](ctx, "id")
}

func UpdateUser(ctx context.Context, id int, input *UpdateUserInput) (*User, error) {
	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	revokeSessions := false

	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, utils.NewValidationError("fullName is required")
		}
		updates["FullName"] = name
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, utils.NewValidationError("invalid role")
		}
		updates["Role"] = *input.Role
	}
	if input.IsActive != nil {
		updates["IsActive"] = *input.IsActive
		if !*input.IsActive {
			revokeSessions = true
		}
	}
	if input.Password != nil && *input.Password != "" {
		if err := utils.ValidatePasswordPair(*input.Password, utils.DereferencePtr(input.ConfirmPassword)); err != nil {
			return nil, err
		}
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updates["Password"] = string(hashed)
		revokeSessions = true
	}

	if len(updates) > 0 {
		db := config.GetDB()
		if err := db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
		if user, err = utils.FetchModel[User](ctx, id); err != nil {
			return nil, err
		}
	}

	if revokeSessions {
		if err := DestroyAllSessions(user.ID); err != nil {
			return nil, err
		}
	} else if err := user.RemoveInstanceRedis(); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user. Users that already took orders are deactivated instead.
func DeleteUser(ctx context.Context, id int) (*User, bool, error) {
	if actorId, ok := utils.GetUserIdFromContext(ctx); ok && actorId == id {
		return nil, false, utils.NewValidationError("cannot delete your own user")
	}

	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, false, err
	}

	orderCount, err := utils.ResourceCountWhere[Order](ctx, "user_id = ?", id)
	if err != nil {
		return nil, false, err
	}

	db := config.GetDB()
	deleted := false
	if orderCount == 0 {
		err = db.WithContext(ctx).Delete(user).Error
		if err == nil {
			deleted = true
		} else if !utils.IsForeignKeyError(err) {
			return nil, false, err
		}
	}
	if !deleted {
		if err := db.WithContext(ctx).Model(user).Update("IsActive", false).Error; err != nil {
			return nil, false, err
		}
		user.IsActive = utils.NewFalse()
	}

	if err := DestroyAllSessions(id); err != nil {
		return nil, false, err
	}
	return user, deleted, nil
}

// EnsureAdmin creates the bootstrap administrator when no user has that email yet.
func EnsureAdmin(ctx context.Context, email string, password string, fullName string) (*User, bool, error) {
	email = utils.NormalizeEmail(email)
	db := config.GetDB()

	var existing User
	err := db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	user, err := CreateUser(ctx, &NewUser{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		FullName:        fullName,
		Role:            UserRoleAdmin,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create admin %s: %w", email, err)
	}
	return user, true, nil
}
