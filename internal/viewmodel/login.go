package viewmodel

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"vozhatapp/internal/models"
	"vozhatapp/internal/service"
)

type loginSource struct {
	Notice
	Email string
	Busy  bool
	User  *models.User
}

type LoginState struct {
	Email    string
	Busy     bool
	LoggedIn bool
	User     *models.User
	Message  string
}

func mergeLogin(s loginSource) LoginState {
	return LoginState{
		Email:    s.Email,
		Busy:     s.Busy,
		LoggedIn: s.User != nil,
		User:     s.User,
		Message:  s.Message,
	}
}

// Login signs counselors in and registers new accounts
type Login struct {
	*Store[loginSource, LoginState]
	users *service.UserService
	log   *zap.Logger
}

// NewLogin starts signed out
func NewLogin(ctx context.Context, users *service.UserService, log *zap.Logger) *Login {
	return &Login{
		Store: NewStore(ctx, loginSource{}, mergeLogin),
		users: users,
		log:   orNop(log),
	}
}

// begin signs out any previous user while the request runs
func (v *Login) begin(email string) {
	v.Update(func(s *loginSource) {
		s.Email = strings.TrimSpace(email)
		s.Busy = true
		s.User = nil
		s.clear()
	})
}

func (v *Login) finish(user *models.User, err error) error {
	v.Update(func(s *loginSource) {
		s.Busy = false
		if err != nil {
			s.report(v.log, err)
			return
		}
		s.User = user
	})
	return err
}

// SignIn checks the credentials; a failure leaves the user signed out
func (v *Login) SignIn(ctx context.Context, email, password string) error {
	v.begin(email)
	user, err := v.users.Authenticate(ctx, email, password)
	return v.finish(user, err)
}

// Register creates an account and signs it in
func (v *Login) Register(ctx context.Context, name, email, password string) error {
	v.begin(email)
	user, err := v.users.Register(ctx, name, email, password)
	return v.finish(user, err)
}

// SignOut forgets the signed-in user
func (v *Login) SignOut() {
	v.Update(func(s *loginSource) { s.User = nil })
}

func (v *Login) MessageShown() {
	v.Update(func(s *loginSource) { s.clear() })
}
