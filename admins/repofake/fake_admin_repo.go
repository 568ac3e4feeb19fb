package repofake

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-blog-admin/admins"
)

var _ admins.AdminRepo = (*FakeAdminRepo)(nil)

type FakeAdminRepo struct {
	admins   map[string]*admins.Admin
	emailIDs map[string]string // email to admin id
	now      func() time.Time
	lock     sync.RWMutex
}

func NewFakeAdminRepo() *FakeAdminRepo {
	return &FakeAdminRepo{
		admins:   make(map[string]*admins.Admin),
		emailIDs: make(map[string]string),
		now:      time.Now,
	}
}

func (ar *FakeAdminRepo) Upsert(admin *admins.Admin) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	now := ar.now().UTC()
	if admin.ID == "" {
		admin.ID = uuid.New().String()
	}
	if admin.CreatedAt == nil {
		admin.CreatedAt = &now
	}
	if admin.Status == "" {
		admin.Status = admins.StatusActive
	}
	admin.UpdatedAt = &now
	stored := *admin
	ar.admins[admin.ID] = &stored
	ar.emailIDs[strings.ToLower(admin.Email)] = admin.ID
	return nil
}

func (ar *FakeAdminRepo) GetByEmail(email string) (*admins.Admin, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	id, ok := ar.emailIDs[strings.ToLower(email)]
	if !ok {
		return nil, admins.ErrAdminNotFound
	}
	a := *ar.admins[id]
	return &a, nil
}

func (ar *FakeAdminRepo) GetByID(id string) (*admins.Admin, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	stored, ok := ar.admins[id]
	if !ok {
		return nil, admins.ErrAdminNotFound
	}
	a := *stored
	return &a, nil
}

// List returns admins ordered by creation time, oldest first.
func (ar *FakeAdminRepo) List() ([]*admins.Admin, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	list := make([]*admins.Admin, 0, len(ar.admins))
	for _, stored := range ar.admins {
		a := *stored
		list = append(list, &a)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(*list[j].CreatedAt) {
			return list[i].Email < list[j].Email
		}
		return list[i].CreatedAt.Before(*list[j].CreatedAt)
	})
	return list, nil
}

func (ar *FakeAdminRepo) SetStatus(id string, status admins.Status) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	stored, ok := ar.admins[id]
	if !ok {
		return admins.ErrAdminNotFound
	}
	now := ar.now().UTC()
	stored.Status = status
	stored.UpdatedAt = &now
	return nil
}
