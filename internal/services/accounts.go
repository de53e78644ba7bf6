package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/pulse/backend/internal/models"
	"github.com/anonto42/pulse/backend/internal/repositories"
	"github.com/anonto42/pulse/backend/internal/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// IDTokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AccountService covers registration, login and profile management.
type AccountService struct {
	users      repositories.UserRepository
	follows    repositories.FollowRepository
	posts      repositories.PostRepository
	tokens     *TokenService
	reassigner OwnerReassigner
	tx         repositories.Transactor
	images     storage.ImageStore
	firebase   IDTokenVerifier
	bcryptCost int
	log        logrus.FieldLogger
}

type AccountDeps struct {
	Users      repositories.UserRepository
	Follows    repositories.FollowRepository
	Posts      repositories.PostRepository
	Tokens     *TokenService
	Reassigner OwnerReassigner
	Tx         repositories.Transactor
	Images     storage.ImageStore
	Firebase   IDTokenVerifier // nil when Firebase is not configured
	BcryptCost int
	Log        logrus.FieldLogger
}

func NewAccountService(d AccountDeps) *AccountService {
	cost := d.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AccountService{
		users:      d.Users,
		follows:    d.Follows,
		posts:      d.Posts,
		tokens:     d.Tokens,
		reassigner: d.Reassigner,
		tx:         d.Tx,
		images:     d.Images,
		firebase:   d.Firebase,
		bcryptCost: cost,
		log:        d.Log,
	}
}

// FirebaseEnabled reports whether Firebase login is available.
func (s *AccountService) FirebaseEnabled() bool {
	return s.firebase != nil
}

func (s *AccountService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Register creates an active account. The username defaults to the local
// part of the email.
func (s *AccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, validationError("Email and password are required.")
	}
	if len(req.Password) < 8 {
		return nil, validationError("Password must be at least 8 characters long.")
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = email[:strings.IndexByte(email+"@", '@')]
	}

	if err := s.ensureUnique(ctx, 0, email, username); err != nil {
		return nil, err
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:     email,
		Username:  username,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		IsActive:  true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, "create user", "User with this email or username")
	}
	s.log.WithField("user_id", user.ID).Info("User registered.")
	return user, nil
}

// ensureUnique checks email and username against every user other than
// selfID.
func (s *AccountService) ensureUnique(ctx context.Context, selfID uint, email, username string) error {
	if email != "" {
		existing, err := s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != selfID:
			return duplicate("User with this email")
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("lookup email: %w", err)
		}
	}
	if username != "" {
		existing, err := s.users.GetUserByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != selfID:
			return duplicate("User with this username")
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return fmt.Errorf("lookup username: %w", err)
		}
	}
	return nil
}

// Login checks the credentials and returns a signed access token.
func (s *AccountService) Login(ctx context.Context, req models.LoginRequest) (string, *models.User, error) {
	if req.Email == "" || req.Password == "" {
		return "", nil, validationError("Email and password are required.")
	}
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		return "", nil, ErrBadCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return "", nil, ErrBadCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Logout revokes the presented token.
func (s *AccountService) Logout(ctx context.Context, claims *models.JwtCustomClaims) error {
	if claims == nil {
		return ErrUnauthenticated
	}
	return s.tokens.Revoke(ctx, claims)
}

// FirebaseLogin exchanges a Firebase ID token for a local access token. The
// account is found by Firebase UID, then by email (linking it), and is
// created otherwise.
func (s *AccountService) FirebaseLogin(ctx context.Context, idToken string) (string, *models.User, error) {
	if s.firebase == nil {
		return "", nil, &Error{Kind: KindNotFound, Detail: "Firebase login is not enabled."}
	}
	if idToken == "" {
		return "", nil, validationError("id_token is required.")
	}
	verified, err := s.firebase.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.log.WithError(err).Debug("Firebase token rejected.")
		return "", nil, &Error{Kind: KindAuthentication, Detail: "Invalid Firebase ID token."}
	}

	user, err := s.users.GetUserByFirebaseUID(ctx, verified.UID)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = s.linkFirebaseUser(ctx, verified)
	}
	if err != nil {
		return "", nil, storeError(err, "firebase login", "User")
	}
	if !user.IsActive {
		return "", nil, ErrBadCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AccountService) linkFirebaseUser(ctx context.Context, verified *auth.Token) (*models.User, error) {
	email, _ := verified.Claims["email"].(string)
	if email == "" {
		return nil, validationError("Firebase account has no email address.")
	}
	uid := verified.UID

	user, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		user.FirebaseUID = &uid
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
		s.log.WithField("user_id", user.ID).Info("Linked Firebase account.")
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	username := email[:strings.IndexByte(email+"@", '@')]
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		username = fmt.Sprintf("%s-%.8s", username, uid)
	}
	picture, _ := verified.Claims["picture"].(string)
	name, _ := verified.Claims["name"].(string)
	first, last, _ := strings.Cut(name, " ")

	user = &models.User{
		Email:       email,
		Username:    username,
		FirstName:   first,
		LastName:    last,
		Image:       picture,
		IsActive:    true,
		FirebaseUID: &uid,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Info("User created from Firebase login.")
	return user, nil
}

// Profile returns the actor's own account.
func (s *AccountService) Profile(ctx context.Context, actor Actor) (*models.User, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "get profile", "User")
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req to the actor's account.
func (s *AccountService) UpdateProfile(ctx context.Context, actor Actor, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}

	var email, username string
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		email = strings.TrimSpace(*req.Email)
	}
	if req.Username != nil && *req.Username != user.Username {
		username = strings.TrimSpace(*req.Username)
	}
	if err := s.ensureUnique(ctx, user.ID, email, username); err != nil {
		return nil, err
	}

	if email != "" {
		user.Email = email
	}
	if username != "" {
		user.Username = username
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, validationError("Password must be at least 8 characters long.")
		}
		if user.Password, err = s.hash(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, "update profile", "User with this email or username")
	}
	return user, nil
}

// DeleteAccount removes the actor. Their posts and comments stay, owned by
// the sentinel account; their follow edges and likes go. The token the
// request was made with is revoked.
func (s *AccountService) DeleteAccount(ctx context.Context, actor Actor, claims *models.JwtCustomClaims) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.reassigner.ReassignOwned(ctx, actor.UserID); err != nil {
			return err
		}
		if err := s.follows.DeleteAllForUser(ctx, actor.UserID); err != nil {
			return fmt.Errorf("delete follows: %w", err)
		}
		if err := s.posts.RemoveLikesBy(ctx, actor.UserID); err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if err := s.users.DeleteUser(ctx, actor.UserID); err != nil {
			return storeError(err, "delete user", "User")
		}
		return nil
	})
	if err != nil {
		return err
	}

	log := s.log.WithField("user_id", actor.UserID)
	if claims != nil && claims.ID != "" {
		// Parse also rejects tokens whose user is gone.
		if err := s.tokens.Revoke(ctx, claims); err != nil {
			log.WithError(err).Warn("Failed to revoke token of deleted user.")
		}
	}
	log.Info("User deleted.")
	return nil
}

// UploadProfileImage stores the image and records its reference on the
// actor's account.
func (s *AccountService) UploadProfileImage(ctx context.Context, actor Actor, filename string, r io.Reader) (*models.User, error) {
	user, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	ref, err := s.images.Save(ctx, storage.ProfilePictures, user.ID, filename, r)
	if errors.Is(err, storage.ErrNotImage) {
		return nil, validationError("Upload a valid image.")
	}
	if err != nil {
		return nil, fmt.Errorf("save profile image: %w", err)
	}
	user.Image = ref
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, "update profile image", "User")
	}
	return user, nil
}

// SearchUsers lists users matching every given name filter.
func (s *AccountService) SearchUsers(ctx context.Context, filter models.UserSearchRequest, page models.PageRequest) (models.Page[models.User], error) {
	users, total, err := s.users.SearchUsers(ctx, filter, page)
	if err != nil {
		return models.Page[models.User]{}, fmt.Errorf("search users: %w", err)
	}
	return models.Page[models.User]{Items: users, Total: total, PageRequest: page}, nil
}

// PublicProfile returns a user with the display strings of their followers
// and of the users they follow.
func (s *AccountService) PublicProfile(ctx context.Context, userID uint) (*models.UserProfile, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "get user", "User")
	}
	followers, err := s.follows.GetFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get followers: %w", err)
	}
	following, err := s.follows.GetFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get following: %w", err)
	}

	return &models.UserProfile{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Bio:       user.Bio,
		Image:     user.Image,
		Followers: displayNames(followers),
		Following: displayNames(following),
	}, nil
}

func displayNames(users []models.User) []string {
	names := make([]string, 0, len(users))
	for i := range users {
		names = append(names, users[i].String())
	}
	return names
}
