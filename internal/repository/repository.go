package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/xelth-com/eckposgo/internal/apperr"
	"github.com/xelth-com/eckposgo/internal/logger"
)

// Repos bundles every repository over one connection
type Repos struct {
	DB           *gorm.DB
	Products     ProductRepo
	Groups       GroupRepo
	Rules        RuleRepo
	StoreStatus  StoreStatusRepo
	Sales        SaleRepo
	Staff        StaffRepo
	PriceChanges PriceChangeRepo
	Snapshots    SnapshotRepo
}

// New wires all repositories to db
func New(db *gorm.DB, log *logger.Logger) *Repos {
	return &Repos{
		DB:           db,
		Products:     NewProductRepo(db, log),
		Groups:       NewGroupRepo(db, log),
		Rules:        NewRuleRepo(db, log),
		StoreStatus:  NewStoreStatusRepo(db, log),
		Sales:        NewSaleRepo(db, log),
		Staff:        NewStaffRepo(db, log),
		PriceChanges: NewPriceChangeRepo(db, log),
		Snapshots:    NewSnapshotRepo(db, log),
	}
}

// pick returns tx when the caller is inside a transaction, db otherwise
func pick(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// notFound converts gorm's missing-row error into the shared taxonomy
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(format, args...)
	}
	return err
}
