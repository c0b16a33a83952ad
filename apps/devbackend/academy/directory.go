package academy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/academyos/console/core"
	"github.com/academyos/console/core/session"
	"github.com/academyos/console/core/subscription"
)

// SeedPassword is the password of every seeded user.
const SeedPassword = "academyos-dev"

var NowFunc = time.Now // mockable

// Directory is the in-memory store of centers and users.
type Directory struct {
	mutex   sync.RWMutex
	centers map[string]*Center
	users   map[string]*User // by ID
}

func NewDirectory() *Directory {
	return &Directory{
		centers: make(map[string]*Center),
		users:   make(map[string]*User),
	}
}

// NewSeededDirectory returns a Directory holding two centers (one on trial, one expired),
// their admins and teachers, and a platform super-admin.
func NewSeededDirectory() (*Directory, error) {
	d := NewDirectory()
	now := NowFunc().UTC()
	day := 24 * time.Hour

	d.PutCenter(Center{
		ID:   "center-sunrise",
		Name: "Sunrise Academy",
		Subscription: subscription.Details{
			Status:   subscription.StatusTrial,
			Plan:     "basic",
			StartAt:  now.Add(-7 * day).Format(time.RFC3339),
			TrialEnd: now.Add(7 * day).Format(time.RFC3339),
		},
	})
	d.PutCenter(Center{
		ID:   "center-bright",
		Name: "Bright Minds Tutorials",
		Subscription: subscription.Details{
			Status:  subscription.StatusExpired,
			Plan:    "pro",
			StartAt: now.Add(-395 * day).Format(time.RFC3339),
			EndAt:   now.Add(-30 * day).Format(time.RFC3339),
		},
	})

	seeds := []NewUser{
		{Name: "Platform Owner", Email: "owner@academyos.dev", Role: string(session.RoleSuperAdmin)},
		{Name: "Ama Mensah", Email: "admin@sunrise.dev", Role: string(session.RoleAdmin), CenterID: "center-sunrise"},
		{Name: "Kofi Boateng", Email: "teacher@sunrise.dev", Role: string(session.RoleTeacher), CenterID: "center-sunrise"},
		{Name: "Esi Owusu", Email: "admin@bright.dev", Role: string(session.RoleAdmin), CenterID: "center-bright"},
	}
	for _, nu := range seeds {
		nu.Password = SeedPassword
		if _, err := d.CreateUser(nu); err != nil {
			return nil, errors.Wrapf(err, "seeding %s", nu.Email)
		}
	}
	return d, nil
}

func (d *Directory) PutCenter(c Center) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	c.UpdatedAt = NowFunc().UTC()
	d.centers[c.ID] = &c
}

func (d *Directory) GetCenter(id string) (Center, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	if c, ok := d.centers[id]; ok {
		return *c, nil
	}
	return Center{}, ErrNotFound
}

// UserCenter returns the center usr belongs to. A center-scoped user whose center is gone
// means the directory is corrupt, which is reported as a shutdown error.
func (d *Directory) UserCenter(usr User) (Center, error) {
	c, err := d.GetCenter(usr.CenterID)
	if err != nil {
		return Center{}, core.NewShutdownError(fmt.Sprintf("user %s references missing center %q", usr.ID, usr.CenterID))
	}
	return c, nil
}

func (d *Directory) Centers() []Center {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	centers := make([]Center, 0, len(d.centers))
	for _, c := range d.centers {
		centers = append(centers, *c)
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i].ID < centers[j].ID })
	return centers
}

func (d *Directory) SetSubscription(centerID string, details subscription.Details) (Center, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	c, ok := d.centers[centerID]
	if !ok {
		return Center{}, ErrNotFound
	}
	c.Subscription = details
	c.UpdatedAt = NowFunc().UTC()
	return *c, nil
}

// CreateUser expects a validated NewUser.
func (d *Directory) CreateUser(nu NewUser) (User, error) {
	role, err := session.ParseRole(nu.Role)
	if err != nil {
		return User{}, err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, u := range d.users {
		if u.Email == nu.Email {
			return User{}, ErrEmailExists
		}
	}
	if role != session.RoleSuperAdmin {
		if _, ok := d.centers[nu.CenterID]; !ok {
			return User{}, errors.Wrapf(ErrNotFound, "center %q", nu.CenterID)
		}
	}

	usr := User{
		ID:        uuid.NewString(),
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      role,
		CenterID:  nu.CenterID,
		CreatedAt: NowFunc().UTC(),
	}
	if role == session.RoleSuperAdmin {
		usr.CenterID = ""
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}
	d.users[usr.ID] = &usr
	return usr, nil
}

func (d *Directory) GetUserByID(id string) (User, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	if u, ok := d.users[id]; ok {
		return *u, nil
	}
	return User{}, ErrNotFound
}

func (d *Directory) GetUserByEmail(email string) (User, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return User{}, ErrNotFound
}

func (d *Directory) SetLastLogin(id string) (User, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	u, ok := d.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.LastLogin = NowFunc().UTC()
	return *u, nil
}
