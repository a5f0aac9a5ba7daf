package account

import (
	"errors"
	"periodico/authority"
	"periodico/bizerror"
	"periodico/event"
	"periodico/idgen"
	"periodico/misc"
	"periodico/persistence"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
	"golang.org/x/crypto/bcrypt"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateUserFunc            = CreateUser
	QueryUsersFunc            = QueryUsers
	DetailUserFunc            = DetailUser
	UpdateUserFunc            = UpdateUser
	DeleteUserFunc            = DeleteUser
	UpdateBasicAuthSecretFunc = UpdateBasicAuthSecret
	AuthenticateUserFunc      = AuthenticateUser

	// UserCascadeDeleteFuncs run inside the user delete transaction, so owning
	// packages can remove their dependent rows.
	UserCascadeDeleteFuncs []func(uid types.ID, tx *gorm.DB) error
)

func HashSecret(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func secretMatches(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// AuthenticateUser validates credentials against the stored hash, never
// against a plaintext column.
func AuthenticateUser(username, password string, sec *session.Context) (*User, error) {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	user := User{}
	if err := db.Where(&User{Username: username}).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, bizerror.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != misc.StatusActive || !secretMatches(user.Secret, password) {
		return nil, bizerror.ErrInvalidCredentials
	}
	return &user, nil
}

func CreateUser(c *UserCreation, sec *session.Context) (*UserInfo, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}

	secret, err := HashSecret(c.Password)
	if err != nil {
		return nil, err
	}

	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Phone: c.Phone,
		Username: c.Username, Secret: secret, Status: misc.StatusActive}
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		// the store does not enforce username uniqueness, check before insert
		var count int
		if err := tx.Model(&User{}).Where(&User{Username: c.Username}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrUsernameTaken
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		ev, err = event.CreateEvent(event.SourceTypeUser, user.ID, user.Username,
			event.EventCategoryCreated, nil, &sec.Identity, tx)
		return err
	})
	if err1 != nil {
		return nil, err1
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Phone: user.Phone, Username: user.Username, Status: user.Status}, nil
}

func QueryUsers(sec *session.Context) (*[]UserInfo, error) {
	var users []UserInfo
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Model(&User{}).Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func DetailUser(id types.ID, sec *session.Context) (*UserInfo, error) {
	if !sec.Admin && id != sec.Identity.ID {
		return nil, bizerror.ErrForbidden
	}
	user := User{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where(&User{ID: id}).First(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Phone: user.Phone, Username: user.Username, Status: user.Status}, nil
}

func UpdateUser(id types.ID, u *UserUpdation, sec *session.Context) error {
	if !sec.Admin && id != sec.Identity.ID {
		return bizerror.ErrForbidden
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		user := User{ID: id}
		if err := tx.Where(&user).First(&user).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{"name": u.Name, "phone": u.Phone, "status": u.Status}
		if err := tx.Model(&User{ID: id}).Update(changes).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceTypeUser, id, user.Username,
			event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "status", OldValue: user.Status, NewValue: u.Status}},
			&sec.Identity, tx)
		return err
	})
	if err1 != nil {
		return err1
	}

	InvalidateUserPerms(id)
	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return nil
}

// DeleteUser removes the user and, in the same transaction, every dependent
// row: permission grants, role bindings and rows registered through
// UserCascadeDeleteFuncs. The cascade radius is deliberate and tested.
func DeleteUser(id types.ID, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		user := User{ID: id}
		if err := tx.Where(&user).First(&user).Error; err != nil {
			return err
		}
		if err := tx.Delete(authority.DetailPermission{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(authority.UserRole{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		for _, f := range UserCascadeDeleteFuncs {
			if err := f(id, tx); err != nil {
				return err
			}
		}
		if err := tx.Delete(User{}, "id = ?", id).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceTypeUser, id, user.Username,
			event.EventCategoryDeleted, nil, &sec.Identity, tx)
		return err
	})
	if err1 != nil {
		return err1
	}

	InvalidateUserPerms(id)
	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return nil
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Context) error {
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	user := User{}
	if err := db.Where(&User{ID: sec.Identity.ID}).First(&user).Error; err != nil {
		return err
	}
	if !secretMatches(user.Secret, u.OriginalSecret) {
		return bizerror.ErrInvalidCredentials
	}
	secret, err := HashSecret(u.NewSecret)
	if err != nil {
		return err
	}
	return db.Model(&User{ID: sec.Identity.ID}).Update(&User{Secret: secret}).Error
}
