package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/Gantuuu/Elbeg-sub001/models"
)

// GormStore implements Store on a relational database.
type GormStore struct {
	db *gorm.DB
}

// OpenGorm connects with the named driver (sqlite, mysql or postgres) and
// migrates the schema.
func OpenGorm(driver, dsn string) (*GormStore, error) {
	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(os.Stderr),
		TranslateError: true,
		// Order lines outlive the products they reference.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if driver == "" || driver == "sqlite" {
		// a single connection keeps in-memory databases shared and
		// serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
	}

	s := &GormStore{db: gdb}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// newGormLogger reports slow queries and errors, but not the
// ErrRecordNotFound lookups every GetX miss produces.
func newGormLogger(w io.Writer) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// Migrate creates or updates all tables.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.DeliverySetting{},
		&models.NonDeliveryDay{},
		&models.BankAccount{},
	)
}

func (s *GormStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

// ---- products ----

func (s *GormStore) ListProducts(ctx context.Context, category string) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Order("id")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	products := []models.Product{}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) CreateProduct(ctx context.Context, p *models.Product) error {
	p.ID = 0
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	p.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", p.ID).
		Select("*").Omit("id", "created_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return notFound(s.db.WithContext(ctx).First(p, p.ID).Error)
}

func (s *GormStore) DeleteProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- delivery configuration ----

func (s *GormStore) GetDeliverySetting(ctx context.Context) (*models.DeliverySetting, error) {
	var ds models.DeliverySetting
	err := s.db.WithContext(ctx).First(&ds, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return defaultDeliverySetting(), nil
	}
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

func (s *GormStore) SaveDeliverySetting(ctx context.Context, ds *models.DeliverySetting) error {
	ds.ID = 1
	ds.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(ds).Error
}

func (s *GormStore) ListNonDeliveryDays(ctx context.Context) ([]models.NonDeliveryDay, error) {
	days := []models.NonDeliveryDay{}
	if err := s.db.WithContext(ctx).Order("date").Find(&days).Error; err != nil {
		return nil, err
	}
	return days, nil
}

func (s *GormStore) CreateNonDeliveryDay(ctx context.Context, d *models.NonDeliveryDay) error {
	d.ID = 0
	return duplicate(s.db.WithContext(ctx).Create(d).Error)
}

func (s *GormStore) DeleteNonDeliveryDay(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.NonDeliveryDay{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- bank accounts ----

func (s *GormStore) ListBankAccounts(ctx context.Context) ([]models.BankAccount, error) {
	accounts := []models.BankAccount{}
	if err := s.db.WithContext(ctx).Order("is_default DESC, id").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// DefaultBankAccount returns the flagged default, else the oldest account.
func (s *GormStore) DefaultBankAccount(ctx context.Context) (*models.BankAccount, error) {
	var b models.BankAccount
	err := s.db.WithContext(ctx).Order("is_default DESC, id").First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *GormStore) CreateBankAccount(ctx context.Context, b *models.BankAccount) error {
	b.ID = 0
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.IsDefault {
			if err := clearDefaultAccount(tx); err != nil {
				return err
			}
		}
		return tx.Create(b).Error
	})
}

func (s *GormStore) UpdateBankAccount(ctx context.Context, b *models.BankAccount) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if b.IsDefault {
			if err := clearDefaultAccount(tx); err != nil {
				return err
			}
		}
		res := tx.Model(&models.BankAccount{}).Where("id = ?", b.ID).
			Select("bank_name", "account_number", "account_holder", "is_default").
			Updates(b)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.First(b, b.ID).Error
	})
}

func clearDefaultAccount(tx *gorm.DB) error {
	return tx.Model(&models.BankAccount{}).Where("is_default = ?", true).Update("is_default", false).Error
}

func (s *GormStore) DeleteBankAccount(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.BankAccount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- users ----

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = 0
	return duplicate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *GormStore) UpsertExternalUser(ctx context.Context, subject, email, name string, emailVerified bool) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ?", subject).First(&u).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("email = ?", email).First(&u).Error
		switch {
		case err == nil:
			if err := linkable(&u, subject, emailVerified); err != nil {
				return err
			}
			res := tx.Model(&models.User{}).
				Where("id = ? AND external_id IS NULL", u.ID).
				Update("external_id", subject)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 && u.ExternalID == nil {
				return fmt.Errorf("%w: email is linked to another sign-in", ErrDuplicate)
			}
			u.ExternalID = &subject
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = models.User{ExternalID: &subject, Email: email, Name: name}
			return tx.Create(&u).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, duplicate(err)
	}
	return &u, nil
}
