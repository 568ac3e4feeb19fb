package admins

import "errors"

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepo interface {
	Upsert(admin *Admin) error
	GetByEmail(email string) (*Admin, error)
	GetByID(id string) (*Admin, error)
	List() ([]*Admin, error)
	SetStatus(id string, status Status) error
}
