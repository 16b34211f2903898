package user

import "golang.org/x/crypto/bcrypt"

// ServiceInterface is consumed by packages that only need user lookups.
type ServiceInterface interface {
	GetByID(id int) (User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(id int) (User, error) {
	return s.repo.GetByID(id)
}

func (s *Service) Register(u User) (User, error) {
	if _, err := s.repo.GetByEmail(u.Email); err == nil {
		return User{}, ErrEmailExists
	} else if err != ErrNotFound {
		return User{}, err
	}
	if u.Mobile != "" {
		if _, err := s.repo.GetByMobile(u.Mobile); err == nil {
			return User{}, ErrMobileExists
		} else if err != ErrNotFound {
			return User{}, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u.Password = string(hashed)
	return s.repo.Create(u)
}

// Authenticate matches the original storefront: the login field is an email
// or a mobile number.
func (s *Service) Authenticate(emailOrMobile, password string) (User, error) {
	u, err := s.repo.GetByEmail(emailOrMobile)
	if err == ErrNotFound {
		u, err = s.repo.GetByMobile(emailOrMobile)
	}
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) UpdateProfile(id int, u User) (User, error) {
	return s.repo.Update(id, u)
}
