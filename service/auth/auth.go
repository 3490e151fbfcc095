package auth

import (
	"errors"
	"fmt"

	"emmie-backend/config"
	"emmie-backend/dao"
	"emmie-backend/model"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type RegisterParams struct {
	Email    string
	Name     string
	Password string
}

func UserRegister(params RegisterParams) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := model.User{
		OrgID:        config.Cfg.Org.ID,
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: string(hash),
	}
	if err := dao.CreateUser(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func UserLogin(email, password string) (*model.User, error) {
	user, err := dao.GetUserByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
